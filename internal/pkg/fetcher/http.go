package fetcher

import (
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
)

const (
	// defaultTimeout HTTP 요청의 기본 타임아웃입니다.
	defaultTimeout = 30 * time.Second

	// defaultUserAgent User-Agent 헤더가 지정되지 않은 요청에 사용되는 기본값입니다.
	defaultUserAgent = "feedback-server (+https://github.com/darkkaiser/feedback-server)"
)

// HTTPFetcher net/http 기반의 기본 Fetcher 구현체입니다.
//
// 동시 사용에 안전하며, 하나의 인스턴스를 여러 고루틴에서 공유하는 것을 권장합니다.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// HTTPFetcherOption HTTPFetcher 생성 시 적용할 옵션입니다.
type HTTPFetcherOption func(*HTTPFetcher)

// WithTimeout HTTP 요청 타임아웃을 지정합니다. 0 이하의 값은 무시됩니다.
func WithTimeout(timeout time.Duration) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if timeout > 0 {
			f.client.Timeout = timeout
		}
	}
}

// WithUserAgent 기본 User-Agent 헤더 값을 지정합니다.
func WithUserAgent(userAgent string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if userAgent != "" {
			f.userAgent = userAgent
		}
	}
}

// WithTransport 내부 http.Client의 Transport를 교체합니다.
// 테스트에서 요청을 가로채거나 TLS 설정을 조정할 때 사용합니다.
func WithTransport(transport http.RoundTripper) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if transport != nil {
			f.client.Transport = transport
		}
	}
}

// NewHTTPFetcher 기본 설정의 HTTPFetcher를 생성합니다.
func NewHTTPFetcher(opts ...HTTPFetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Do 주어진 HTTP 요청을 실행합니다.
//
// 원본 요청은 변경하지 않습니다. User-Agent 헤더가 없는 경우
// 요청을 복제하여 기본값을 채운 뒤 실행합니다.
func (f *HTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, apperrors.New(apperrors.InvalidInput, "HTTP 요청 객체가 nil입니다.")
	}

	if req.Header.Get("User-Agent") == "" {
		clone := req.Clone(req.Context())
		clone.Header.Set("User-Agent", f.userAgent)
		req = clone
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, classifyTransportError(err), fmt.Sprintf("HTTP 요청 실행이 실패하였습니다.(url=%s)", redactURL(req.URL)))
	}

	return resp, nil
}

// Close 유휴 커넥션을 정리합니다.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
