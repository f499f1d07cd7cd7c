// Package forwarder 수집된 피드백을 외부 채널(메일, 메신저)로 전달하는 서비스를 제공합니다.
//
// 각 전달 채널은 Forwarder 인터페이스를 구현하며, 내부 버퍼 큐를 가진
// 워커(Consumer) 고루틴이 발송을 비동기로 처리합니다. 발송에 성공한 피드백은
// 저장소에 전달 완료 상태로 기록되고, 실패한 피드백은 미처리 상태로 남아
// 이후 정리 작업(Caretaker)의 재발송 대상이 됩니다.
package forwarder

import (
	"context"

	"github.com/darkkaiser/feedback-server/internal/service/contract"
)

// component 전달 서비스의 로깅용 컴포넌트 이름
const component = "forwarder"

// Forwarder 다양한 전달 채널(예: Mailgun, 텔레그램 등)을 추상화한 인터페이스입니다.
type Forwarder interface {
	// ID Forwarder 인스턴스의 고유 식별자(ID)를 반환합니다.
	ID() contract.ForwarderID

	// Run 발송을 처리하는 백그라운드 워커(Consumer)를 실행합니다.
	// 이 메서드는 블로킹(Blocking)되며, 큐에 쌓인 발송 요청을 하나씩 꺼내어 실제로 전송합니다.
	// Context가 취소될 때까지 실행되며, 종료 시 큐에 남은 요청을 모두 처리한 뒤 반환합니다.
	Run(ctx context.Context)

	// Forward 발송 요청을 내부 버퍼(Queue)에 등록하고 즉시 반환합니다(Non-blocking에 준함).
	// 실제 전송은 Run() 메서드가 실행 중인 고루틴에서 비동기로 처리됩니다.
	// 큐가 가득 찬 경우 짧은 시간 대기한 뒤 ErrQueueFull을 반환합니다.
	Forward(ctx context.Context, feedback *contract.Feedback) error

	// Done Forwarder의 종료 상태를 감지할 수 있는 읽기 전용 채널을 반환합니다.
	// 반환된 채널이 닫히면 더 이상 새로운 발송 요청을 수락하지 않습니다.
	Done() <-chan struct{}
}
