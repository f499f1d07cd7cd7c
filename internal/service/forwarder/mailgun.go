package forwarder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/darkkaiser/feedback-server/internal/config"
	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
	"github.com/darkkaiser/feedback-server/internal/pkg/fetcher"
	"github.com/darkkaiser/feedback-server/internal/service/contract"
	applog "github.com/darkkaiser/feedback-server/pkg/log"
)

const (
	// mailgunAPIBase Mailgun 메시지 발송 API의 기본 URL입니다.
	mailgunAPIBase = "https://api.mailgun.net/v3"

	// mailgunSendTimeout 첨부 파일 전송을 포함한 발송 요청의 타임아웃입니다.
	mailgunSendTimeout = 60 * time.Second
)

// mailgunForwarder 수집된 피드백을 Mailgun 메일로 전달하는 Forwarder 구현체입니다.
//
// 발송 메일에는 피드백 본문과 메타데이터가 포함되고, 저장소의 첨부 파일이
// 메일 첨부로 함께 전송됩니다. Reply-To 헤더를 작성자 주소로 설정하여
// 수신자가 회신으로 작성자에게 바로 연락할 수 있도록 합니다.
type mailgunForwarder struct {
	*Base

	cfg   config.MailgunConfig
	store contract.FeedbackStore

	httpFetcher fetcher.Fetcher

	// apiBase 테스트에서 교체할 수 있도록 필드로 보관합니다.
	apiBase string
}

var _ Forwarder = (*mailgunForwarder)(nil)

// newMailgunForwarder Mailgun 전달 채널을 생성합니다.
func newMailgunForwarder(cfg config.MailgunConfig, store contract.FeedbackStore, httpFetcher fetcher.Fetcher) *mailgunForwarder {
	return &mailgunForwarder{
		Base: NewBase(contract.ForwarderID(cfg.ID), defaultQueueSize, defaultEnqueueTimeout),

		cfg:   cfg,
		store: store,

		httpFetcher: httpFetcher,

		apiBase: mailgunAPIBase,
	}
}

// Run 발송 워커를 실행합니다. Context가 취소되면 큐에 남은 요청을 모두 처리한 뒤 반환합니다.
func (m *mailgunForwarder) Run(ctx context.Context) {
	applog.WithComponentAndFields(component, applog.Fields{
		"forwarder_id": m.ID(),
	}).Info("Mailgun Forwarder 워커 시작됨")

	for {
		select {
		case req := <-m.RequestC():
			m.process(req)

		case <-ctx.Done():
			m.shutdown()
			return
		}
	}
}

// shutdown 새로운 요청 수락을 차단하고 큐에 남은 요청을 드레인합니다.
func (m *mailgunForwarder) shutdown() {
	m.Close()
	m.WaitForPendingSends()

	for {
		select {
		case req := <-m.RequestC():
			m.process(req)
		default:
			applog.WithComponentAndFields(component, applog.Fields{
				"forwarder_id": m.ID(),
			}).Info("Mailgun Forwarder 워커 종료됨")
			return
		}
	}
}

// process 발송 요청 하나를 처리합니다.
//
// 발송에 성공하면 저장소에 전달 완료 상태와 Mailgun Message-ID를 기록한 뒤
// 문서를 보관 상태로 전환하여 작성자별 제출 제한과 보존 기한 정리의 대상에서 제외합니다.
// 발송에 실패한 피드백은 미처리 상태로 남아 이후 재발송 대상이 됩니다.
func (m *mailgunForwarder) process(req *forwardRequest) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(req.Ctx), mailgunSendTimeout)
	defer cancel()

	messageID, err := m.send(ctx, req.Feedback)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"forwarder_id": m.ID(),
			"feedback_id":  req.Feedback.ID,
			"error":        err,
		}).Error("피드백 메일 발송 실패")
		return
	}

	if err := m.store.MarkForwarded(req.Feedback.ID, messageID); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"forwarder_id": m.ID(),
			"feedback_id":  req.Feedback.ID,
			"error":        err,
		}).Error("피드백 전달 완료 상태 기록 실패")
		return
	}

	// 보관 상태 기록에 실패해도 발송 자체는 완료된 것이므로 실패로 처리하지 않습니다.
	if err := m.store.MarkArchived(req.Feedback.ID); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"forwarder_id": m.ID(),
			"feedback_id":  req.Feedback.ID,
			"error":        err,
		}).Error("피드백 보관 상태 기록 실패")
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"forwarder_id": m.ID(),
		"feedback_id":  req.Feedback.ID,
		"message_id":   messageID,
	}).Info("피드백 메일 발송 완료")
}

// send 피드백을 Mailgun API로 발송하고 발급된 Message-ID를 반환합니다.
func (m *mailgunForwarder) send(ctx context.Context, feedback *contract.Feedback) (string, error) {
	body, contentType, err := m.buildMessage(feedback)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/messages", m.apiBase, m.cfg.Domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.InvalidInput, "Mailgun 발송 요청 객체 생성이 실패하였습니다.")
	}
	req.Header.Set("Content-Type", contentType)
	req.SetBasicAuth("api", m.cfg.APIKey)

	resp, err := m.httpFetcher.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := fetcher.CheckResponseStatus(resp); err != nil {
		return "", err
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ExecutionFailed, "Mailgun 응답 본문을 읽을 수 없습니다.")
	}

	messageID := gjson.GetBytes(respBody, "id").String()
	if messageID == "" {
		return "", apperrors.New(apperrors.ExecutionFailed, "Mailgun 응답에서 Message-ID를 찾을 수 없습니다.")
	}

	return messageID, nil
}

// buildMessage 피드백을 Mailgun 발송용 multipart/form-data 본문으로 구성합니다.
func (m *mailgunForwarder) buildMessage(feedback *contract.Feedback) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := map[string]string{
		"from":       m.cfg.Sender,
		"subject":    feedback.Subject,
		"text":       buildMailBody(feedback),
		"h:Reply-To": feedback.Requester(),
	}
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return nil, "", apperrors.Wrap(err, apperrors.Internal, "Mailgun 발송 본문 구성이 실패하였습니다.")
		}
	}
	for _, recipient := range m.cfg.Recipients {
		if err := w.WriteField("to", recipient); err != nil {
			return nil, "", apperrors.Wrap(err, apperrors.Internal, "Mailgun 발송 본문 구성이 실패하였습니다.")
		}
	}

	for _, ref := range feedback.Uploads {
		if err := m.appendAttachment(w, ref); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.Internal, "Mailgun 발송 본문 구성이 실패하였습니다.")
	}

	return buf, w.FormDataContentType(), nil
}

// appendAttachment 저장소의 첨부 파일을 발송 본문에 추가합니다.
//
// 첨부를 읽을 수 없는 경우(이미 정리되었거나 손상됨) 발송 전체를 실패시키지 않고
// 해당 첨부만 건너뜁니다.
func (m *mailgunForwarder) appendAttachment(w *multipart.Writer, ref contract.UploadRef) error {
	r, err := m.store.OpenUpload(ref.Token)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"forwarder_id": m.ID(),
			"upload_token": ref.Token,
			"error":        err,
		}).Warn("첨부 파일을 읽을 수 없어 건너뜀")
		return nil
	}
	defer func() { _ = r.Close() }()

	part, err := w.CreateFormFile("attachment", ref.Filename)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "Mailgun 첨부 파일 구성이 실패하였습니다.")
	}
	if _, err := io.Copy(part, r); err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "Mailgun 첨부 파일 구성이 실패하였습니다.")
	}

	return nil
}

// buildMailBody 피드백 본문과 메타데이터를 메일 본문 텍스트로 구성합니다.
func buildMailBody(feedback *contract.Feedback) string {
	var b strings.Builder

	b.WriteString(feedback.Message)
	b.WriteString("\n\n----\n")
	fmt.Fprintf(&b, "작성자: %s\n", feedback.Requester())
	fmt.Fprintf(&b, "접수 시각: %s\n", feedback.ReceivedAt.Format(time.RFC3339))
	if feedback.ClientIP != "" {
		fmt.Fprintf(&b, "클라이언트 IP: %s\n", feedback.ClientIP)
	}
	if len(feedback.Uploads) > 0 {
		fmt.Fprintf(&b, "첨부 파일: %d개\n", len(feedback.Uploads))
	}
	fmt.Fprintf(&b, "피드백 ID: %s\n", feedback.ID)

	return b.String()
}
