package fetcher

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
)

// bodySnippetLimit HTTPStatusError에 보존하는 응답 본문의 최대 크기입니다.
const bodySnippetLimit = 4 * 1024

// HTTPStatusError 2xx가 아닌 HTTP 응답을 나타내는 구조화된 에러입니다.
//
// 상태 코드, 요청 URL, 응답 헤더, 본문 일부를 필드로 제공하여
// 호출자가 상황에 맞게 대응(재시도, 로깅, 알림)할 수 있도록 합니다.
// URL과 헤더의 민감한 값은 생성 시점에 마스킹됩니다.
type HTTPStatusError struct {
	// StatusCode 서버가 반환한 HTTP 상태 코드입니다.
	StatusCode int

	// Status 상태 코드의 텍스트 표현입니다. 예: "404 Not Found"
	Status string

	// URL 요청 대상 URL입니다.(민감한 값 마스킹됨)
	URL string

	// Header 응답 헤더입니다.(민감한 값 마스킹됨)
	Header http.Header

	// BodySnippet 응답 본문의 앞부분(최대 4KB)입니다.
	BodySnippet string

	// Cause 에러 타입 분류를 담고 있는 내부 도메인 에러입니다.
	Cause error
}

// Error 표준 error 인터페이스를 구현합니다.
func (e *HTTPStatusError) Error() string {
	msg := fmt.Sprintf("HTTP %d (%s)", e.StatusCode, e.Status)
	if e.URL != "" {
		msg += fmt.Sprintf(" URL: %s", e.URL)
	}
	if e.BodySnippet != "" {
		msg += fmt.Sprintf(", Body: %s", e.BodySnippet)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap errors.Is 및 errors.As와의 연동을 위해 원인 에러를 반환합니다.
func (e *HTTPStatusError) Unwrap() error {
	return e.Cause
}

// CheckResponseStatus HTTP 응답 상태 코드를 검사하여 도메인 에러로 변환합니다.
//
// 2xx 상태 코드는 nil을 반환합니다. 그 외의 경우 응답 본문의 앞부분을 읽어
// HTTPStatusError를 구성한 뒤 본문을 닫으므로, 에러가 반환된 응답의 Body는
// 호출자가 다시 사용할 수 없습니다.
func CheckResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet := readBodySnippet(resp)

	statusErr := &HTTPStatusError{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		Header:      redactHeaders(resp.Header),
		BodySnippet: snippet,
		Cause:       apperrors.New(classifyStatusCode(resp.StatusCode), fmt.Sprintf("HTTP 요청이 실패하였습니다.(status=%s)", resp.Status)),
	}
	if resp.Request != nil {
		statusErr.URL = redactURL(resp.Request.URL)
	}

	return statusErr
}

// classifyStatusCode HTTP 상태 코드를 도메인 에러 타입으로 분류합니다.
func classifyStatusCode(statusCode int) apperrors.ErrorType {
	switch {
	case statusCode == http.StatusUnauthorized:
		return apperrors.Unauthorized
	case statusCode == http.StatusForbidden:
		return apperrors.Forbidden
	case statusCode == http.StatusNotFound:
		return apperrors.NotFound
	case statusCode == http.StatusConflict:
		return apperrors.Conflict
	case statusCode == http.StatusRequestTimeout:
		return apperrors.Timeout
	case statusCode == http.StatusTooManyRequests || statusCode >= 500:
		return apperrors.Unavailable
	case statusCode >= 400:
		return apperrors.InvalidInput
	default:
		return apperrors.ExecutionFailed
	}
}

// classifyTransportError 전송 계층 에러를 도메인 에러 타입으로 분류합니다.
func classifyTransportError(err error) apperrors.ErrorType {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.ExecutionFailed
	}

	var certErr *x509.CertificateInvalidError
	var unknownAuthErr x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	if errors.As(err, &certErr) || errors.As(err, &unknownAuthErr) || errors.As(err, &hostnameErr) {
		return apperrors.Forbidden
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.Timeout
	}

	return apperrors.Unavailable
}

// readBodySnippet 응답 본문의 앞부분을 읽고 남은 본문을 소진한 뒤 닫습니다.
func readBodySnippet(resp *http.Response) string {
	if resp.Body == nil {
		return ""
	}
	defer drainAndCloseBody(resp)

	data, err := io.ReadAll(io.LimitReader(resp.Body, bodySnippetLimit))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
