package forwarder

import (
	"context"
	"sync"
	"time"

	"github.com/darkkaiser/feedback-server/internal/service/contract"
	applog "github.com/darkkaiser/feedback-server/pkg/log"
)

const (
	// defaultQueueSize 발송 요청을 버퍼링하는 내부 큐의 기본 크기입니다.
	defaultQueueSize = 100

	// defaultEnqueueTimeout 큐가 가득 찼을 때 빈 공간이 생기기를 기다려줄 기본 시간입니다.
	defaultEnqueueTimeout = 3 * time.Second
)

// forwardRequest 발송 요청 정보를 담고 있는 내부 데이터 구조체입니다.
//
// Go 관례상 context.Context를 구조체에 저장하는 것은 지양되지만,
// Worker 패턴에서 채널을 통해 Context를 전달하기 위해 내부적으로만 사용하는 래퍼입니다.
type forwardRequest struct {
	Ctx      context.Context
	Feedback *contract.Feedback
}

// Base 모든 Forwarder 구현체가 공통적으로 임베딩하여 사용하는 기본 구조체입니다.
//
// 구체적인 구현체(예: mailgunForwarder)는 "요청을 큐에 넣고 관리하는 책임"을
// Base에 위임하고, "실제로 외부 API를 호출하는 책임"에만 집중합니다.
type Base struct {
	id contract.ForwarderID

	// enqueueTimeout 요청 큐가 가득 찼을 때 요청을 바로 버리지 않고 기다려줄 최대 시간입니다.
	// 이 시간 동안에도 빈 공간이 생기지 않으면 시스템 보호를 위해 해당 요청은 드롭됩니다.
	enqueueTimeout time.Duration

	// requestC 발송 요청들을 순차적으로 처리하기 위해 버퍼링하는 내부 채널(Queue)입니다.
	requestC chan *forwardRequest

	mu     sync.RWMutex
	closed bool

	// done 종료 이벤트를 모든 대기중인 고루틴에게 전파(Broadcast)하기 위한 신호 채널입니다.
	done chan struct{}

	// pendingSendsWG 현재 채널 전송을 시도 중인 고루틴들을 추적하는 WaitGroup입니다.
	//
	// Graceful Shutdown 시 메시지 유실을 방지하기 위한 동기화 장치로,
	// 워커(Consumer) 고루틴은 종료 전 WaitForPendingSends()를 호출하여
	// 이미 Forward()에 진입한 고루틴들이 채널에 요청을 넣을 기회를 보장합니다.
	pendingSendsWG sync.WaitGroup
}

// NewBase 새로운 Base 인스턴스를 생성하고 초기화합니다.
func NewBase(id contract.ForwarderID, bufferSize int, enqueueTimeout time.Duration) *Base {
	return &Base{
		id: id,

		enqueueTimeout: enqueueTimeout,

		requestC: make(chan *forwardRequest, bufferSize),

		done: make(chan struct{}),
	}
}

// ID Forwarder 인스턴스의 고유 식별자(ID)를 반환합니다.
func (b *Base) ID() contract.ForwarderID {
	return b.id
}

// Forward 발송 요청을 내부 큐(채널)에 안전하게 등록합니다.
//
// 실제 발송을 수행하지 않고 요청을 메모리 큐에 넣는 역할만 수행하므로 빠르게 리턴됩니다.
// 큐가 가득 찬 경우, 설정된 타임아웃(enqueueTimeout)만큼 대기하며 빈 공간이 생기기를
// 기다립니다. 타임아웃 내에 처리되지 않으면 드롭하여 전체 시스템의 지연을 방지합니다(Backpressure).
func (b *Base) Forward(ctx context.Context, feedback *contract.Feedback) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}

	b.pendingSendsWG.Add(1)

	// 채널 전송은 블로킹될 수 있으므로 락을 잡은 상태에서 수행하지 않습니다.
	// 필요한 멤버들만 로컬 변수로 복사해두고 락은 즉시 해제합니다.
	requestC := b.requestC
	done := b.done
	enqueueTimeout := b.enqueueTimeout
	b.mu.RUnlock()

	defer b.pendingSendsWG.Done()

	timer := time.NewTimer(enqueueTimeout)
	defer func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}()

	select {
	case requestC <- &forwardRequest{Ctx: ctx, Feedback: feedback}:
		return nil

	case <-done:
		// 대기 중에 Forwarder가 종료됨 (Graceful Shutdown)
		return ErrClosed

	case <-ctx.Done():
		// 요청자(Caller)의 작업이 취소됨
		return ctx.Err()

	case <-timer.C:
		applog.WithComponentAndFields(component, applog.Fields{
			"forwarder_id": b.ID(),
			"feedback_id":  feedback.ID,
		}).Warn("발송 요청 거부: 발송 대기열 용량 초과 (Queue Full)")
		return ErrQueueFull
	}
}

// Close Forwarder의 운영을 중단합니다.
//
// 상태가 '종료됨'으로 변경되어 더 이상의 새로운 Forward 요청을 받지 않으며,
// done 채널이 닫혀 이를 구독하는 모든 고루틴에게 종료 신호가 전파됩니다.
//
// 내부 요청 채널(requestC)은 명시적으로 닫지 않습니다. 다중 프로듀서 환경에서
// 채널 닫기에 의한 패닉을 방지하기 위함이며, 남은 요청은 워커의 드레인 처리로 소진됩니다.
func (b *Base) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.done)
	}
}

// Done Forwarder의 종료 상태를 감지할 수 있는 읽기 전용 채널을 반환합니다.
func (b *Base) Done() <-chan struct{} {
	return b.done
}

// WaitForPendingSends 현재 진행 중인 모든 Forward() 요청이 완료될 때까지 블로킹 대기합니다.
//
// Graceful Shutdown 시 메시지 유실을 방지하기 위해 워커(Consumer) 고루틴이 종료 직전에
// 호출합니다. Close()가 호출된 시점에 이미 Forward()에 진입한 고루틴들이 채널에 요청을
// 전송할 기회를 보장합니다.
func (b *Base) WaitForPendingSends() {
	b.pendingSendsWG.Wait()
}

// RequestC 워커(Consumer)가 요청을 하나씩 꺼내어 처리하기 위한 읽기 전용 채널을 반환합니다.
func (b *Base) RequestC() <-chan *forwardRequest {
	return b.requestC
}
