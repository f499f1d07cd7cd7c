package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/darkkaiser/feedback-server/internal/service/api/httputil"
	appmiddleware "github.com/darkkaiser/feedback-server/internal/service/api/middleware"
	applog "github.com/darkkaiser/feedback-server/pkg/log"
)

const (
	// defaultReadTimeout 요청 본문 읽기 제한 시간
	defaultReadTimeout = 30 * time.Second
	// defaultReadHeaderTimeout 요청 헤더 읽기 제한 시간
	defaultReadHeaderTimeout = 10 * time.Second
	// defaultWriteTimeout 응답 쓰기 제한 시간
	defaultWriteTimeout = 30 * time.Second
	// defaultIdleTimeout Keep-Alive 연결 유휴 제한 시간
	defaultIdleTimeout = 120 * time.Second

	// defaultRequestTimeout 요청 처리 제한 시간 (초과 시 503 응답)
	defaultRequestTimeout = 60 * time.Second

	// defaultMaxBodySize 요청 본문 최대 크기.
	// 첨부 파일 업로드(1MiB 제한)에 여유를 둔 값으로, 초과 시 413으로 응답합니다.
	defaultMaxBodySize = "2M"
)

// HTTPServerConfig HTTP 서버 생성에 필요한 설정을 정의합니다.
type HTTPServerConfig struct {
	// Debug Echo 프레임워크의 디버그 모드 활성화 여부
	Debug bool

	// AllowOrigins CORS에서 허용할 Origin 목록
	AllowOrigins []string

	// RateLimitPerSecond IP별 초당 허용 요청 수
	RateLimitPerSecond float64

	// RateLimitBurst IP별 버스트 허용량
	RateLimitBurst int

	// RequestTimeout 각 HTTP 요청의 최대 처리 시간 (0이면 기본값 60초)
	RequestTimeout time.Duration
}

// NewHTTPServer 설정된 미들웨어를 포함한 Echo 인스턴스를 생성합니다.
//
// 미들웨어는 다음 순서로 적용됩니다 (순서가 중요합니다):
//
//  1. PanicRecovery: 핸들러 panic 복구 및 스택 트레이스 로깅
//  2. RequestID: 요청별 고유 ID 부여 (X-Request-ID 헤더)
//  3. Server 헤더 제거: 서버 스택 정보 노출 방지
//  4. HTTPLogger: 요청/응답 구조화 로깅 (민감 쿼리 파라미터 마스킹)
//  5. RateLimiting: IP 기반 요청 제한 (초과 시 429)
//  6. BodyLimit: 요청 본문 크기 제한 (초과 시 413)
//  7. Timeout: 요청 처리 시간 제한 (초과 시 503)
//  8. CORS: 허용된 Origin에서의 크로스 도메인 요청 처리
//  9. Secure: 보안 헤더 추가 (X-XSS-Protection 등)
//
// 라우트 설정은 포함되지 않으며, 반환된 Echo 인스턴스에 별도로 설정해야 합니다.
func NewHTTPServer(cfg HTTPServerConfig) *echo.Echo {
	e := echo.New()

	e.Debug = cfg.Debug
	e.HideBanner = true

	e.Server.ReadTimeout = defaultReadTimeout
	e.Server.ReadHeaderTimeout = defaultReadHeaderTimeout
	e.Server.WriteTimeout = defaultWriteTimeout
	e.Server.IdleTimeout = defaultIdleTimeout

	// Echo 프레임워크의 내부 로그를 애플리케이션 로거로 통합합니다.
	e.Logger = appmiddleware.Logger{Logger: applog.StandardLogger()}

	// 전역 HTTP 에러 핸들러 설정
	e.HTTPErrorHandler = httputil.ErrorHandler

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	e.Use(appmiddleware.PanicRecovery())
	e.Use(middleware.RequestID())
	// Server 헤더 제거 (서버 스택 정보 노출 방지)
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderServer, "")
			return next(c)
		}
	})
	// HTTP 로깅 (RateLimit/Timeout 이전에 위치하여 429/503 에러도 기록)
	e.Use(appmiddleware.HTTPLogger())
	e.Use(appmiddleware.RateLimiting(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	e.Use(middleware.BodyLimit(defaultMaxBodySize))
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: timeout,
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))
	e.Use(middleware.Secure())

	return e
}
