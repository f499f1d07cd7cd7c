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
	// gcpCommentPath 피드백 등록 엔드포인트 경로
	gcpCommentPath = "/fmpfeedback_comment"
	// gcpUploadPath 첨부 파일 업로드 엔드포인트 경로
	gcpUploadPath = "/fmpfeedback_upload"

	// gcpUploadContentType 첨부 파일 업로드 요청의 Content-Type
	gcpUploadContentType = "application/binary"

	// gcpBasicAuthUsernameSuffix Basic 인증 사용자명에 붙는 접미사
	gcpBasicAuthUsernameSuffix = "/token"

	// gcpDefaultTimeout 요청당 기본 제한 시간
	gcpDefaultTimeout = 60 * time.Second
)

// GCPService GCP에 호스팅된 피드백 수집 서비스로 제출을 전송하는 Sender 구현체입니다.
//
// 생성 이후 설정은 변경되지 않으며, 호출 간에 어떠한 상태도 공유하지 않으므로
// 여러 고루틴에서 동시에 Send를 호출해도 안전합니다. Send는 호출당 정확히 한 번의
// 등록 요청만 수행하며 재시도하지 않습니다.
type GCPService struct {
	authToken   string
	productName string

	// baseURL 도메인으로부터 계산된 대상 서비스의 기본 URL
	baseURL string

	httpFetcher fetcher.Fetcher
}

var _ Sender = (*GCPService)(nil)

// GCPServiceOption GCPService 생성 시 적용되는 옵션입니다.
type GCPServiceOption func(*GCPService)

// WithGCPFetcher HTTP 요청 실행에 사용할 Fetcher를 지정합니다.
func WithGCPFetcher(f fetcher.Fetcher) GCPServiceOption {
	return func(s *GCPService) {
		if f != nil {
			s.httpFetcher = f
		}
	}
}

// NewGCPService GCPService 인스턴스를 생성합니다.
//
// 세 인자는 모두 필수이며, 하나라도 비어있으면 에러를 반환합니다.
// 생성 과정에서 네트워크 통신은 발생하지 않습니다.
func NewGCPService(domain, authToken, productName string, opts ...GCPServiceOption) (*GCPService, error) {
	if strings.TrimSpace(domain) == "" {
		return nil, apperrors.New(apperrors.InvalidInput, "도메인은 필수입니다")
	}
	if strings.TrimSpace(authToken) == "" {
		return nil, apperrors.New(apperrors.InvalidInput, "인증 토큰은 필수입니다")
	}
	if strings.TrimSpace(productName) == "" {
		return nil, apperrors.New(apperrors.InvalidInput, "제품명은 필수입니다")
	}

	s := &GCPService{
		authToken:   authToken,
		productName: norm.NFC.String(productName),

		baseURL: "https://" + domain,

		// POST 요청은 재시도하지 않으므로 RetryFetcher 없이 단일 시도로 실행합니다.
		httpFetcher: fetcher.NewHTTPFetcher(fetcher.WithTimeout(gcpDefaultTimeout)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// commentPayload 피드백 등록 요청의 와이어 형식입니다.
type commentPayload struct {
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

// Send 피드백 제출 한 건을 전송합니다.
//
// 첨부 파일이 있으면 각각을 먼저 업로드하여 참조 토큰을 발급받은 뒤,
// 등록 요청 한 번으로 제출을 완료합니다. 어느 단계에서든 실패하면
// 에러를 그대로 반환하며 재시도하지 않습니다.
func (s *GCPService) Send(ctx context.Context, submission Submission) error {
	if err := submission.validate(); err != nil {
		return err
	}

	uploadTokens := make([]string, 0, len(submission.Attachments))
	for _, attachment := range submission.Attachments {
		token, err := s.upload(ctx, attachment)
		if err != nil {
			return apperrors.Wrap(err, apperrors.UnderlyingType(err), fmt.Sprintf("첨부 파일 '%s'의 업로드가 실패하였습니다", attachment.Filename))
		}
		uploadTokens = append(uploadTokens, token)
	}

	payload := commentPayload{}
	payload.Request.Requester.Email = submission.RequesterEmail
	payload.Request.Requester.Name = submission.RequesterName
	payload.Request.Subject = fmt.Sprintf("[%s] %s", s.productName, norm.NFC.String(submission.Subject))
	payload.Request.Comment.Body = submission.Message
	payload.Request.Comment.Uploads = uploadTokens

	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "피드백 등록 요청 본문의 JSON 인코딩이 실패하였습니다")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+gcpCommentPath, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, "피드백 등록 요청 객체 생성이 실패하였습니다")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(submission.RequesterEmail+gcpBasicAuthUsernameSuffix, s.authToken)

	resp, err := s.httpFetcher.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return fetcher.CheckResponseStatus(resp)
}

// upload 첨부 파일 하나를 업로드하고 발급된 참조 토큰을 반환합니다.
func (s *GCPService) upload(ctx context.Context, attachment Attachment) (string, error) {
	uploadURL := fmt.Sprintf("%s%s?filename=%s&token=%s",
		s.baseURL, gcpUploadPath,
		url.QueryEscape(attachment.Filename), url.QueryEscape(s.authToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(attachment.Data))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.InvalidInput, "첨부 파일 업로드 요청 객체 생성이 실패하였습니다")
	}
	req.Header.Set("Content-Type", gcpUploadContentType)

	resp, err := s.httpFetcher.Do(req)
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
