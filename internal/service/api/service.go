// Package api 피드백 수집 HTTP API 서버를 제공합니다.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	_ "github.com/darkkaiser/feedback-server/docs"
	"github.com/darkkaiser/feedback-server/internal/config"
	"github.com/darkkaiser/feedback-server/internal/pkg/version"
	"github.com/darkkaiser/feedback-server/internal/service/api/handler/feedback"
	"github.com/darkkaiser/feedback-server/internal/service/api/handler/system"
	"github.com/darkkaiser/feedback-server/internal/service/contract"
	applog "github.com/darkkaiser/feedback-server/pkg/log"
)

// component API 서비스의 로깅용 컴포넌트 이름
const component = "api.service"

// shutdownTimeout Graceful Shutdown 시 최대 대기 시간
const shutdownTimeout = 5 * time.Second

// forwardService 전달 서비스에게 요구되는 기능의 조합입니다.
type forwardService interface {
	contract.ForwardDispatcher
	contract.ForwardHealthChecker
}

// Service 피드백 API 서버의 생명주기를 관리하는 서비스입니다.
//
// Echo 기반 HTTP/HTTPS 서버의 시작과 종료, 미들웨어 체인 구성, 라우팅 설정,
// Graceful Shutdown(5초 타임아웃)을 담당합니다. Start() 이후 서버는 별도의
// 고루틴에서 실행되며, Context 취소로 종료됩니다.
type Service struct {
	appConfig *config.AppConfig

	store contract.FeedbackStore

	forwarder forwardService

	buildInfo version.Info

	running   bool
	runningMu sync.Mutex
}

// NewService Service 인스턴스를 생성합니다.
func NewService(appConfig *config.AppConfig, store contract.FeedbackStore, forwarder forwardService, buildInfo version.Info) *Service {
	if appConfig == nil {
		panic("AppConfig는 필수입니다")
	}
	if store == nil {
		panic("FeedbackStore는 필수입니다")
	}
	if forwarder == nil {
		panic("Forward 서비스는 필수입니다")
	}

	return &Service{
		appConfig: appConfig,

		store: store,

		forwarder: forwarder,

		buildInfo: buildInfo,

		running:   false,
		runningMu: sync.Mutex{},
	}
}

// Start API 서비스를 시작합니다.
//
// 이 함수는 즉시 반환되며, 실제 서버는 고루틴에서 실행됩니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("API 서비스 시작중...")

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("API 서비스가 이미 시작됨!!!")
		return nil
	}

	s.running = true

	go s.runServiceLoop(serviceStopCtx, serviceStopWG)

	applog.WithComponent(component).Info("API 서비스 시작됨")

	return nil
}

// runServiceLoop 서비스의 메인 실행 루프입니다.
// 서버 설정, HTTP 서버 시작, Shutdown 대기를 순차적으로 수행합니다.
func (s *Service) runServiceLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	e := s.setupServer()

	httpServerDone := make(chan struct{})
	go s.startHTTPServer(e, httpServerDone)

	s.waitForShutdown(serviceStopCtx, e, httpServerDone)
}

// setupServer Echo 서버 인스턴스를 생성하고 핸들러와 라우트를 설정합니다.
func (s *Service) setupServer() *echo.Echo {
	apiConfig := s.appConfig.FeedbackAPI

	feedbackHandler := feedback.NewHandler(apiConfig, s.store, s.forwarder)
	systemHandler := system.NewHandler(s.forwarder, s.buildInfo)

	e := NewHTTPServer(HTTPServerConfig{
		Debug:              s.appConfig.Debug,
		AllowOrigins:       apiConfig.CORS.AllowOrigins,
		RateLimitPerSecond: apiConfig.RateLimit.Rate,
		RateLimitBurst:     apiConfig.RateLimit.Burst,
	})

	RegisterRoutes(e, feedbackHandler, systemHandler)

	return e
}

// startHTTPServer HTTP/HTTPS 서버를 시작합니다.
//
// 설정에 따라 TLS 활성화 여부를 결정하며, 서버가 종료되면 done 채널을 닫아
// 대기 중인 고루틴에 신호를 보냅니다. 이 함수는 서버가 종료될 때까지 블로킹됩니다.
func (s *Service) startHTTPServer(e *echo.Echo, done chan struct{}) {
	defer close(done)

	apiConfig := s.appConfig.FeedbackAPI

	applog.WithComponentAndFields(component, applog.Fields{
		"port":       apiConfig.ListenPort,
		"tls_server": apiConfig.TLSServer,
	}).Debug("HTTP 서버 시작중...")

	var err error
	if apiConfig.TLSServer {
		err = e.StartTLS(fmt.Sprintf(":%d", apiConfig.ListenPort), apiConfig.TLSCertFile, apiConfig.TLSKeyFile)
	} else {
		err = e.Start(fmt.Sprintf(":%d", apiConfig.ListenPort))
	}

	s.handleServerError(err)
}

// handleServerError HTTP 서버 실행 중 발생한 에러를 처리합니다.
func (s *Service) handleServerError(err error) {
	if err == nil {
		return
	}

	// http.ErrServerClosed: Graceful Shutdown 완료
	if errors.Is(err, http.ErrServerClosed) {
		applog.WithComponent(component).Info("HTTP 서버 중지됨")
		return
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"port":  s.appConfig.FeedbackAPI.ListenPort,
		"error": err,
	}).Error("HTTP 서버가 치명적인 에러로 중지되었습니다")
}

// waitForShutdown 종료 신호를 대기하고 Graceful Shutdown을 수행합니다.
func (s *Service) waitForShutdown(serviceStopCtx context.Context, e *echo.Echo, httpServerDone chan struct{}) {
	select {
	case <-serviceStopCtx.Done():
		applog.WithComponent(component).Info("API 서비스 중지중...")
	case <-httpServerDone:
		// HTTP 서버가 예기치 않게 종료됨 (포트 바인딩 실패 등)
		applog.WithComponent(component).Error("HTTP 서버가 예기치 않게 종료되어 API 서비스를 중지합니다")

		s.cleanup()

		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Error("HTTP 서버 Shutdown 중 에러가 발생하였습니다")
	}

	<-httpServerDone

	s.cleanup()
}

// cleanup 서비스 종료 후 상태를 정리합니다.
func (s *Service) cleanup() {
	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(component).Info("API 서비스 중지됨")
}
