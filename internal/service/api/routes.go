package api

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/darkkaiser/feedback-server/internal/service/api/handler/feedback"
	"github.com/darkkaiser/feedback-server/internal/service/api/handler/system"
)

// RegisterRoutes API 서비스의 라우트를 등록합니다.
//
//   - 피드백 수집 엔드포인트: /fmpfeedback_comment, /fmpfeedback_upload (POST 전용)
//   - 시스템 엔드포인트: /healthcheck, /version (인증 불필요)
//   - API 문서: Swagger UI (/swagger/*)
//
// 피드백 엔드포인트는 POST만 등록하므로, 동일 경로에 대한 GET 등의 다른
// 메서드 요청은 Echo가 405 Method Not Allowed로 응답합니다.
func RegisterRoutes(e *echo.Echo, feedbackHandler *feedback.Handler, systemHandler *system.Handler) {
	registerFeedbackRoutes(e, feedbackHandler)
	registerSystemRoutes(e, systemHandler)
	registerSwaggerRoutes(e)
}

func registerFeedbackRoutes(e *echo.Echo, h *feedback.Handler) {
	e.POST("/fmpfeedback_comment", h.PostCommentHandler)
	e.POST("/fmpfeedback_upload", h.PostUploadHandler)
}

func registerSystemRoutes(e *echo.Echo, h *system.Handler) {
	e.GET("/healthcheck", h.HealthCheckHandler)
	e.GET("/version", h.VersionHandler)
}

func registerSwaggerRoutes(e *echo.Echo) {
	e.GET("/swagger/*", echoSwagger.EchoWrapHandler(
		// Swagger 문서 JSON 파일 위치 지정
		echoSwagger.URL("/swagger/doc.json"),
		echoSwagger.DeepLinking(true),
		echoSwagger.DocExpansion("list"),
	))
}
