// Package httputil HTTP 응답 생성과 전역 에러 처리 유틸리티를 제공합니다.
package httputil

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse 표준 에러 응답 형식입니다.
type ErrorResponse struct {
	ResultCode int    `json:"result_code" example:"400"`
	Message    string `json:"message" example:"잘못된 요청입니다"`
}

// NewBadRequestError 400 Bad Request 에러를 생성합니다
func NewBadRequestError(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{
		ResultCode: http.StatusBadRequest,
		Message:    message,
	})
}

// NewNotFoundError 404 Not Found 에러를 생성합니다
func NewNotFoundError(message string) error {
	return echo.NewHTTPError(http.StatusNotFound, ErrorResponse{
		ResultCode: http.StatusNotFound,
		Message:    message,
	})
}

// NewTooManyRequestsError 429 Too Many Requests 에러를 생성합니다
func NewTooManyRequestsError(message string) error {
	return echo.NewHTTPError(http.StatusTooManyRequests, ErrorResponse{
		ResultCode: http.StatusTooManyRequests,
		Message:    message,
	})
}

// NewInternalServerError 500 Internal Server Error 에러를 생성합니다
func NewInternalServerError(message string) error {
	return echo.NewHTTPError(http.StatusInternalServerError, ErrorResponse{
		ResultCode: http.StatusInternalServerError,
		Message:    message,
	})
}
