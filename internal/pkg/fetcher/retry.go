package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
	applog "github.com/darkkaiser/feedback-server/pkg/log"
)

const (
	// maxRetriesLimit 설정 가능한 최대 재시도 횟수의 상한입니다.
	maxRetriesLimit = 10

	// minRetryDelayFloor 재시도 대기 시간의 하한입니다.
	minRetryDelayFloor = 1 * time.Second
)

// ErrMaxRetriesExceeded 모든 재시도가 소진되었을 때 반환되는 에러에 포함되는 센티널입니다.
var ErrMaxRetriesExceeded = errors.New("최대 재시도 횟수를 초과하였습니다")

// RetryFetcher 일시적인 실패에 대해 요청을 재시도하는 Fetcher 데코레이터입니다.
//
// 재시도 대기 시간은 지수 백오프(minRetryDelay * 2^(attempt-1), 상한 maxRetryDelay)에
// Full Jitter를 적용하여 계산합니다. 서버가 Retry-After 헤더를 반환한 경우 해당 값을
// 우선하며, 그 값이 maxRetryDelay를 초과하면 재시도를 중단합니다.
//
// 멱등하지 않은 메서드(POST, PATCH)는 중복 실행 위험이 있으므로 재시도하지 않습니다.
// 피드백 제출과 같은 쓰기 요청이 항상 단 한 번만 전송되는 것은 이 규칙이 보장합니다.
type RetryFetcher struct {
	fetcher       Fetcher
	maxRetries    int
	minRetryDelay time.Duration
	maxRetryDelay time.Duration
}

// NewRetryFetcher RetryFetcher를 생성합니다.
//
// maxRetries는 0~10 범위로, 대기 시간은 1초 이상으로 보정됩니다.
func NewRetryFetcher(f Fetcher, maxRetries int, minRetryDelay, maxRetryDelay time.Duration) *RetryFetcher {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if maxRetries > maxRetriesLimit {
		maxRetries = maxRetriesLimit
	}
	if minRetryDelay < minRetryDelayFloor {
		minRetryDelay = minRetryDelayFloor
	}
	if maxRetryDelay < minRetryDelay {
		maxRetryDelay = minRetryDelay
	}

	return &RetryFetcher{
		fetcher:       f,
		maxRetries:    maxRetries,
		minRetryDelay: minRetryDelay,
		maxRetryDelay: maxRetryDelay,
	}
}

// Do 요청을 실행하고, 재시도 가능한 실패인 경우 백오프 후 다시 시도합니다.
func (f *RetryFetcher) Do(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, apperrors.New(apperrors.InvalidInput, "HTTP 요청 객체가 nil입니다.")
	}

	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			delay := f.backoffDelay(attempt)

			if retryAfter, ok := parseRetryAfter(lastErr); ok {
				if retryAfter > f.maxRetryDelay {
					return nil, apperrors.Wrap(lastErr, apperrors.Unavailable,
						fmt.Sprintf("서버가 요청한 대기 시간(%s)이 허용치(%s)를 초과하여 재시도를 중단합니다.(url=%s)",
							retryAfter, f.maxRetryDelay, redactURL(req.URL)))
				}
				delay = retryAfter
			}

			applog.WithComponentAndFields("fetcher", applog.Fields{
				"url":     redactURL(req.URL),
				"attempt": attempt,
				"delay":   delay.String(),
			}).Debug("HTTP 요청을 재시도합니다.")

			select {
			case <-req.Context().Done():
				return nil, apperrors.Wrap(req.Context().Err(), apperrors.ExecutionFailed,
					fmt.Sprintf("재시도 대기 중에 요청이 취소되었습니다.(url=%s)", redactURL(req.URL)))
			case <-time.After(delay):
			}

			var err error
			if req, err = rewindRequest(req); err != nil {
				return nil, err
			}
		}

		resp, err := f.fetcher.Do(req)
		if err == nil {
			if statusErr := CheckResponseStatus(resp); statusErr != nil {
				err = statusErr
			} else {
				return resp, nil
			}
		}

		lastErr = err

		if !f.isRetriable(req, err) {
			return nil, err
		}
	}

	return nil, apperrors.Wrap(lastErr, apperrors.Unavailable,
		fmt.Sprintf("%s(max_retries=%d, url=%s)", ErrMaxRetriesExceeded.Error(), f.maxRetries, redactURL(req.URL)))
}

// Close 내부 Fetcher의 리소스를 정리합니다.
func (f *RetryFetcher) Close() error {
	return f.fetcher.Close()
}

// backoffDelay attempt번째 재시도의 대기 시간을 계산합니다.(Full Jitter)
func (f *RetryFetcher) backoffDelay(attempt int) time.Duration {
	delay := f.minRetryDelay << (attempt - 1)
	if delay > f.maxRetryDelay || delay <= 0 {
		delay = f.maxRetryDelay
	}
	return time.Duration(rand.Int64N(int64(delay) + 1))
}

// isRetriable 주어진 실패가 재시도로 해결될 가능성이 있는지 판단합니다.
func (f *RetryFetcher) isRetriable(req *http.Request, err error) bool {
	// 멱등하지 않은 메서드는 어떤 실패든 재시도하지 않습니다.
	switch req.Method {
	case http.MethodPost, http.MethodPatch:
		return false
	}

	// 본문이 있는 요청은 재전송을 위해 GetBody가 필요합니다.
	if req.Body != nil && req.GetBody == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	switch apperrors.UnderlyingType(err) {
	case apperrors.Unavailable, apperrors.Timeout:
		return true
	default:
		return false
	}
}

// rewindRequest 재전송을 위해 요청 본문을 재생성한 복제본을 반환합니다.
func rewindRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.GetBody == nil {
		return clone, nil
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ExecutionFailed,
			fmt.Sprintf("재시도를 위한 요청 본문 재생성이 실패하였습니다.(url=%s)", redactURL(req.URL)))
	}
	clone.Body = body
	return clone, nil
}

// parseRetryAfter 실패 응답의 Retry-After 헤더를 해석합니다.
// 정수(초) 형식과 HTTP-date 형식을 모두 지원합니다.
func parseRetryAfter(err error) (time.Duration, bool) {
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.Header == nil {
		return 0, false
	}

	value := statusErr.Header.Get("Retry-After")
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}

	if t, err := http.ParseTime(value); err == nil {
		delay := time.Until(t)
		if delay < 0 {
			delay = 0
		}
		return delay, true
	}

	return 0, false
}
