// Package fetcher HTTP 요청 실행을 추상화하는 Fetcher 인터페이스와 구현체들을 제공합니다.
//
// 외부 서비스(피드백 수집 백엔드, Mailgun, Telegram 등)와 통신하는 모든 코드는
// *http.Client를 직접 사용하지 않고 이 패키지의 Fetcher를 통해 요청을 실행합니다.
// 이를 통해 타임아웃, 재시도, 상태 코드 검증과 같은 공통 정책을 데코레이터로
// 조합할 수 있고, 테스트에서는 Fetcher를 가짜 구현으로 대체할 수 있습니다.
//
// 기본 조합 예시:
//
//	f := fetcher.NewRetryFetcher(fetcher.NewHTTPFetcher(), 3, time.Second, 30*time.Second)
//	data, err := fetcher.Get(ctx, f, "https://api.example.com/resource")
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
)

// Fetcher HTTP 요청 실행을 추상화하는 인터페이스입니다.
//
// 반환된 *http.Response의 Body는 호출자가 반드시 Close해야 합니다.
type Fetcher interface {
	// Do 주어진 HTTP 요청을 실행하고 응답을 반환합니다.
	Do(req *http.Request) (*http.Response, error)

	// Close 내부 리소스(유휴 커넥션 등)를 정리합니다.
	Close() error
}

// Get 주어진 URL로 GET 요청을 보내고 응답 본문 전체를 반환합니다.
// 200 OK가 아닌 상태 코드는 에러로 변환됩니다.
func Get(ctx context.Context, f Fetcher, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("HTTP 요청 객체 생성이 실패하였습니다.(url=%s)", redactRawURL(url)))
	}

	resp, err := f.Do(req)
	if err != nil {
		return nil, err
	}
	defer drainAndCloseBody(resp)

	if err := CheckResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ExecutionFailed, fmt.Sprintf("HTTP 응답 본문을 읽을 수 없습니다.(url=%s)", redactRawURL(url)))
	}

	return data, nil
}

// FetchJSON 주어진 URL로 GET 요청을 보내고 응답 본문을 JSON으로 디코딩하여 v에 채웁니다.
func FetchJSON(ctx context.Context, f Fetcher, url string, v any) error {
	data, err := Get(ctx, f, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.Wrap(err, apperrors.ExecutionFailed, fmt.Sprintf("HTTP 응답 본문의 JSON 디코딩이 실패하였습니다.(url=%s)", redactRawURL(url)))
	}

	return nil
}

// drainAndCloseBody 응답 본문의 남은 데이터를 소진한 뒤 닫습니다.
// 본문을 끝까지 읽어야 커넥션이 Keep-Alive 풀로 재사용됩니다.
func drainAndCloseBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	_ = resp.Body.Close()
}
