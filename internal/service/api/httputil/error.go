package httputil

import (
	"net/http"

	"github.com/labstack/echo/v4"

	applog "github.com/darkkaiser/feedback-server/pkg/log"
)

const component = "api.errorhandler"

// ErrorHandler Echo 프레임워크의 전역 에러 핸들러입니다.
//
// 모든 HTTP 에러를 가로채서 표준 ErrorResponse JSON 형식으로 변환하여 반환합니다.
// 에러 발생 시 적절한 로그 레벨(Error/Warn)로 상세 정보를 기록합니다.
//
// 피드백 수집 엔드포인트는 고정된 평문 에러 문자열을 직접 응답하므로
// 이 핸들러를 거치지 않습니다.
func ErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := "서버 내부 오류가 발생하였습니다"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		} else if resp, ok := he.Message.(ErrorResponse); ok {
			message = resp.Message
		}
	}

	if code == http.StatusNotFound {
		message = "요청하신 경로를 찾을 수 없습니다"
	}

	fields := applog.Fields{
		"path":        c.Request().URL.Path,
		"method":      c.Request().Method,
		"status_code": code,
		"error":       err,
		"remote_ip":   c.RealIP(),
		"request_id":  c.Response().Header().Get(echo.HeaderXRequestID),
	}

	if code >= http.StatusInternalServerError {
		// 5xx: 서버 내부 오류
		applog.WithComponentAndFields(component, fields).Error("HTTP 서버 에러 응답")
	} else if code >= http.StatusBadRequest {
		// 4xx: 클라이언트 요청 오류
		applog.WithComponentAndFields(component, fields).Warn("HTTP 클라이언트 에러 응답")
	}

	// 이중 응답 방지
	if c.Response().Committed {
		return
	}

	// HEAD 요청은 본문 없이 상태 코드만 반환합니다.
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}

	_ = c.JSON(code, ErrorResponse{
		ResultCode: code,
		Message:    message,
	})
}
