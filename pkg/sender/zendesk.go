package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/text/unicode/norm"

	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
	"github.com/darkkaiser/feedback-server/internal/pkg/fetcher"
)

const (
	// zendeskRequestPath 익명 요청(Request) 생성 엔드포인트 경로
	zendeskRequestPath = "/api/v2/requests.json"
	// zendeskUploadPath 첨부 파일 업로드 엔드포인트 경로
	zendeskUploadPath = "/api/v2/uploads.json"

	// zendeskDefaultTimeout 요청당 기본 제한 시간
	zendeskDefaultTimeout = 60 * time.Second
)

// Zendesk Zendesk 티켓팅 서비스로 제출을 전송하는 Sender 구현체입니다.
//
// GCPService와 동일한 생성 계약을 따르며, 생성 이후 상태가 없으므로
// 동시 호출에 안전합니다.
type Zendesk struct {
	authToken   string
	productName string

	// baseURL 서브도메인으로부터 계산된 Zendesk 인스턴스의 기본 URL
	baseURL string

	httpFetcher fetcher.Fetcher
}

var _ Sender = (*Zendesk)(nil)

// ZendeskOption Zendesk 생성 시 적용되는 옵션입니다.
type ZendeskOption func(*Zendesk)

// WithZendeskFetcher HTTP 요청 실행에 사용할 Fetcher를 지정합니다.
func WithZendeskFetcher(f fetcher.Fetcher) ZendeskOption {
	return func(z *Zendesk) {
		if f != nil {
			z.httpFetcher = f
		}
	}
}

// NewZendesk Zendesk 인스턴스를 생성합니다.
//
// 세 인자는 모두 필수이며, 하나라도 비어있으면 에러를 반환합니다.
// 생성 과정에서 네트워크 통신은 발생하지 않습니다.
func NewZendesk(subdomain, authToken, productName string, opts ...ZendeskOption) (*Zendesk, error) {
	if strings.TrimSpace(subdomain) == "" {
		return nil, apperrors.New(apperrors.InvalidInput, "서브도메인은 필수입니다")
	}
	if strings.TrimSpace(authToken) == "" {
		return nil, apperrors.New(apperrors.InvalidInput, "인증 토큰은 필수입니다")
	}
	if strings.TrimSpace(productName) == "" {
		return nil, apperrors.New(apperrors.InvalidInput, "제품명은 필수입니다")
	}

	z := &Zendesk{
		authToken:   authToken,
		productName: norm.NFC.String(productName),

		baseURL: fmt.Sprintf("https://%s.zendesk.com", subdomain),

		httpFetcher: fetcher.NewHTTPFetcher(fetcher.WithTimeout(zendeskDefaultTimeout)),
	}

	for _, opt := range opts {
		opt(z)
	}

	return z, nil
}

// zendeskRequestPayload 익명 요청 생성의 와이어 형식입니다.
type zendeskRequestPayload struct {
	Request struct {
		Requester struct {
			Email string `json:"email"`
			Name  string `json:"name,omitempty"`
		} `json:"requester"`
		Subject string `json:"subject"`
		Comment struct {
			Body    string   `json:"body"`
			Uploads []string `json:"uploads,omitempty"`
		} `json:"comment"`
	} `json:"request"`
}

// Send 피드백 제출 한 건을 Zendesk 익명 요청으로 전송합니다.
func (z *Zendesk) Send(ctx context.Context, submission Submission) error {
	if err := submission.validate(); err != nil {
		return err
	}

	uploadTokens := make([]string, 0, len(submission.Attachments))
	for _, attachment := range submission.Attachments {
		token, err := z.upload(ctx, submission.RequesterEmail, attachment)
		if err != nil {
			return apperrors.Wrap(err, apperrors.UnderlyingType(err), fmt.Sprintf("첨부 파일 '%s'의 업로드가 실패하였습니다", attachment.Filename))
		}
		uploadTokens = append(uploadTokens, token)
	}

	payload := zendeskRequestPayload{}
	payload.Request.Requester.Email = submission.RequesterEmail
	payload.Request.Requester.Name = submission.RequesterName
	payload.Request.Subject = fmt.Sprintf("[%s] %s", z.productName, norm.NFC.String(submission.Subject))
	payload.Request.Comment.Body = submission.Message
	payload.Request.Comment.Uploads = uploadTokens

	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "요청 본문의 JSON 인코딩이 실패하였습니다")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.baseURL+zendeskRequestPath, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, "요청 객체 생성이 실패하였습니다")
	}
	req.Header.Set("Content-Type", "application/json")
	z.setCredential(req, submission.RequesterEmail)

	resp, err := z.httpFetcher.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return fetcher.CheckResponseStatus(resp)
}

// upload 첨부 파일 하나를 업로드하고 발급된 참조 토큰을 반환합니다.
func (z *Zendesk) upload(ctx context.Context, requesterEmail string, attachment Attachment) (string, error) {
	uploadURL := fmt.Sprintf("%s%s?filename=%s",
		z.baseURL, zendeskUploadPath, url.QueryEscape(attachment.Filename))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(attachment.Data))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.InvalidInput, "첨부 파일 업로드 요청 객체 생성이 실패하였습니다")
	}
	req.Header.Set("Content-Type", "application/binary")
	z.setCredential(req, requesterEmail)

	resp, err := z.httpFetcher.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := fetcher.CheckResponseStatus(resp); err != nil {
		return "", err
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ExecutionFailed, "첨부 파일 업로드 응답 본문을 읽을 수 없습니다")
	}

	token := gjson.GetBytes(respBody, "upload.token").String()
	if token == "" {
		return "", apperrors.New(apperrors.ExecutionFailed, "첨부 파일 업로드 응답에 참조 토큰이 없습니다")
	}

	return token, nil
}

// setCredential Zendesk API 토큰 인증 정보를 요청에 설정합니다.
// 사용자명은 "{email}/token" 형식이고 비밀번호가 API 토큰입니다.
func (z *Zendesk) setCredential(req *http.Request, requesterEmail string) {
	req.SetBasicAuth(requesterEmail+"/token", z.authToken)
}
