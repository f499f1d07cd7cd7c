// Package middleware 피드백 API 서버의 Echo 미들웨어들을 제공합니다.
package middleware

import (
	"fmt"
	"runtime"

	"github.com/labstack/echo/v4"

	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
	applog "github.com/darkkaiser/feedback-server/pkg/log"
)

// component 미들웨어의 로깅용 컴포넌트 이름
const component = "api.middleware"

// stackBufferSize panic 발생 시 스택 트레이스를 저장할 버퍼 크기 (4KB)
const stackBufferSize = 4 << 10

// PanicRecovery panic을 복구하고 로깅하는 미들웨어를 반환합니다.
//
// 핸들러에서 발생한 panic을 복구하여 서버 다운을 방지하고,
// 스택 트레이스와 함께 에러를 로깅합니다.
func PanicRecovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = apperrors.New(apperrors.Internal, fmt.Sprintf("%v", r))
					}

					stack := make([]byte, stackBufferSize)
					length := runtime.Stack(stack, false)

					fields := applog.Fields{
						"error": err,
						"stack": string(stack[:length]),
					}
					if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
						fields["request_id"] = requestID
					}

					applog.WithComponentAndFields(component, fields).Error("PANIC RECOVERED")

					// Echo의 에러 핸들러로 전달
					c.Error(err)
				}
			}()
			return next(c)
		}
	}
}
