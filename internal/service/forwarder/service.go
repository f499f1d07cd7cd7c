package forwarder

import (
	"context"
	"fmt"
	"sync"

	"github.com/darkkaiser/feedback-server/internal/config"
	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
	"github.com/darkkaiser/feedback-server/internal/pkg/fetcher"
	"github.com/darkkaiser/feedback-server/internal/service/contract"
	applog "github.com/darkkaiser/feedback-server/pkg/log"
)

const serviceComponent = "forwarder.service"

// Service 설정에 정의된 전달 채널들을 관리하고 발송 요청을 분배하는 서비스입니다.
//
// contract.ForwardDispatcher를 구현하여 API, Caretaker가 전달 채널의 구체적인
// 종류를 알지 못해도 피드백을 발송할 수 있도록 합니다.
type Service struct {
	appConfig *config.AppConfig

	store contract.FeedbackStore

	forwarders       []Forwarder
	defaultForwarder Forwarder

	// forwardersStopWG 모든 하위 Forwarder 워커의 종료를 대기하는 WaitGroup
	forwardersStopWG *sync.WaitGroup

	running   bool
	runningMu sync.Mutex
}

var (
	_ contract.ForwardDispatcher   = (*Service)(nil)
	_ contract.ForwardHealthChecker = (*Service)(nil)
)

// NewService 전달 서비스를 생성합니다.
func NewService(appConfig *config.AppConfig, store contract.FeedbackStore) *Service {
	return &Service{
		appConfig: appConfig,

		store: store,

		defaultForwarder: nil,

		forwardersStopWG: &sync.WaitGroup{},

		running:   false,
		runningMu: sync.Mutex{},
	}
}

// Start 전달 서비스를 시작하여 설정에 등록된 Forwarder들을 활성화합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(serviceComponent).Info("Forwarder 서비스 시작중...")

	if s.store == nil {
		defer serviceStopWG.Done()
		return apperrors.New(apperrors.Internal, "FeedbackStore 객체가 초기화되지 않았습니다")
	}

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(serviceComponent).Warn("Forwarder 서비스가 이미 시작됨!!!")
		return nil
	}

	// 1. Forwarder들을 초기화 및 실행
	forwarders, err := s.createForwarders()
	if err != nil {
		defer serviceStopWG.Done()
		return apperrors.Wrap(err, apperrors.Internal, "Forwarder 초기화 중 에러가 발생했습니다")
	}

	defaultForwarderID := contract.ForwarderID(s.appConfig.Forwarders.DefaultForwarderID)

	for _, f := range forwarders {
		s.forwarders = append(s.forwarders, f)

		if f.ID() == defaultForwarderID {
			s.defaultForwarder = f
		}

		s.forwardersStopWG.Add(1)

		go func(forwarder Forwarder) {
			defer s.forwardersStopWG.Done()
			forwarder.Run(serviceStopCtx)
		}(f)

		applog.WithComponentAndFields(serviceComponent, applog.Fields{
			"forwarder_id": f.ID(),
		}).Debug("Forwarder가 Forwarder 서비스에 등록됨")
	}

	// 2. 기본 Forwarder 존재 여부 확인
	if len(forwarders) > 0 && s.defaultForwarder == nil {
		defer serviceStopWG.Done()
		return apperrors.New(apperrors.NotFound, fmt.Sprintf("기본 ForwarderID('%s')를 찾을 수 없습니다", s.appConfig.Forwarders.DefaultForwarderID))
	}

	// 3. 서비스 종료 감시 루틴 실행
	go s.waitForShutdown(serviceStopCtx, serviceStopWG)

	s.running = true

	applog.WithComponent(serviceComponent).Info("Forwarder 서비스 시작됨")

	return nil
}

// createForwarders 설정에 정의된 전달 채널들을 생성합니다.
//
// Mailgun 채널의 HTTP 클라이언트는 http_retry 설정에 따른 재시도 정책으로 감쌉니다.
// 발송 요청은 POST이므로 재시도 대상이 아니며, 재시도 정책은 멱등 요청에만 적용됩니다.
func (s *Service) createForwarders() ([]Forwarder, error) {
	var forwarders []Forwarder

	for _, cfg := range s.appConfig.Forwarders.Mailguns {
		httpFetcher := fetcher.NewRetryFetcher(
			fetcher.NewHTTPFetcher(),
			s.appConfig.HTTPRetry.MaxRetries,
			s.appConfig.HTTPRetry.MinRetryDelay,
			s.appConfig.HTTPRetry.MaxRetryDelay,
		)
		forwarders = append(forwarders, newMailgunForwarder(cfg, s.store, httpFetcher))
	}

	for _, cfg := range s.appConfig.Forwarders.Telegrams {
		f, err := newTelegramForwarder(cfg, s.store)
		if err != nil {
			return nil, err
		}
		forwarders = append(forwarders, f)
	}

	return forwarders, nil
}

// waitForShutdown 서비스의 종료 신호를 감지하고 리소스를 안전하게 정리합니다.
func (s *Service) waitForShutdown(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	<-serviceStopCtx.Done()

	applog.WithComponent(serviceComponent).Info("Forwarder 서비스 중지중...")

	// 등록된 모든 Forwarder의 워커 고루틴이 큐를 드레인하고 종료될 때까지 대기합니다.
	s.forwardersStopWG.Wait()

	s.runningMu.Lock()
	s.running = false
	s.forwarders = nil
	s.defaultForwarder = nil
	s.runningMu.Unlock()

	applog.WithComponent(serviceComponent).Info("Forwarder 서비스 중지됨")
}

// Forward 지정된 Forwarder를 통해 피드백을 발송합니다.
//
// 발송 요청이 큐에 등록되면 nil을 반환합니다. 실제 발송은 워커에서 비동기로
// 처리되며, 발송 성공 시 저장소에 전달 완료 상태가 기록됩니다.
func (s *Service) Forward(forwarderID contract.ForwarderID, feedback *contract.Feedback) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		applog.WithComponentAndFields(serviceComponent, applog.Fields{
			"forwarder_id": forwarderID,
		}).Warn("Forwarder 서비스가 실행 중이 아니어서 피드백을 전달할 수 없습니다")
		return contract.ErrServiceStopped
	}

	for _, f := range s.forwarders {
		if f.ID() == forwarderID {
			return f.Forward(context.Background(), feedback)
		}
	}

	applog.WithComponentAndFields(serviceComponent, applog.Fields{
		"forwarder_id": forwarderID,
	}).Error("알 수 없는 Forwarder입니다. 피드백 전달이 실패하였습니다.")

	return contract.ErrForwarderNotFound
}

// ForwardDefault 시스템에 설정된 기본 Forwarder를 통해 피드백을 발송합니다.
func (s *Service) ForwardDefault(feedback *contract.Feedback) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		applog.WithComponent(serviceComponent).Warn("Forwarder 서비스가 실행 중이 아니어서 피드백을 전달할 수 없습니다")
		return contract.ErrServiceStopped
	}

	if s.defaultForwarder == nil {
		return contract.ErrForwarderNotFound
	}

	return s.defaultForwarder.Forward(context.Background(), feedback)
}

// Health 서비스가 정상적으로 실행 중인지 확인합니다.
func (s *Service) Health() error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return contract.ErrServiceStopped
	}

	return nil
}
