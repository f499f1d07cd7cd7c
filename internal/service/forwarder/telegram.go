package forwarder

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/darkkaiser/feedback-server/internal/config"
	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
	"github.com/darkkaiser/feedback-server/internal/service/contract"
	applog "github.com/darkkaiser/feedback-server/pkg/log"
	"github.com/darkkaiser/feedback-server/pkg/strutil"
)

const (
	// telegramSendTimeout 텔레그램 메시지 전송 요청의 타임아웃입니다.
	telegramSendTimeout = 30 * time.Second

	// telegramMessageMaxLength 텔레그램 메시지 본문의 최대 길이입니다.
	// 이 길이를 초과하는 본문은 잘라서 전송합니다.
	telegramMessageMaxLength = 4000
)

// telegramSender 텔레그램 Bot API 호출을 추상화한 인터페이스입니다.
// 테스트에서 실제 API 호출 없이 전송 동작을 검증하기 위해 사용합니다.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// telegramForwarder 수집된 피드백을 텔레그램 메시지로 전달하는 Forwarder 구현체입니다.
//
// 첨부 파일은 전송하지 않고 개수만 본문에 표기합니다. 파일이 필요한 경우는
// 메일 채널을 이용합니다.
type telegramForwarder struct {
	*Base

	cfg   config.TelegramConfig
	store contract.FeedbackStore

	bot telegramSender
}

var _ Forwarder = (*telegramForwarder)(nil)

// newTelegramForwarder 텔레그램 전달 채널을 생성합니다.
//
// Bot 토큰이 유효하지 않거나 텔레그램 서버에 접속할 수 없는 경우 에러를 반환합니다.
func newTelegramForwarder(cfg config.TelegramConfig, store contract.FeedbackStore) (*telegramForwarder, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, &http.Client{
		Timeout: telegramSendTimeout,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "텔레그램 Bot API 인스턴스 생성이 실패하였습니다.")
	}

	return newTelegramForwarderWithSender(cfg, store, bot), nil
}

// newTelegramForwarderWithSender 전송 구현체를 직접 주입받아 텔레그램 전달 채널을 생성합니다.
func newTelegramForwarderWithSender(cfg config.TelegramConfig, store contract.FeedbackStore, bot telegramSender) *telegramForwarder {
	return &telegramForwarder{
		Base: NewBase(contract.ForwarderID(cfg.ID), defaultQueueSize, defaultEnqueueTimeout),

		cfg:   cfg,
		store: store,

		bot: bot,
	}
}

// Run 발송 워커를 실행합니다. Context가 취소되면 큐에 남은 요청을 모두 처리한 뒤 반환합니다.
func (f *telegramForwarder) Run(ctx context.Context) {
	applog.WithComponentAndFields(component, applog.Fields{
		"forwarder_id": f.ID(),
	}).Info("텔레그램 Forwarder 워커 시작됨")

	for {
		select {
		case req := <-f.RequestC():
			f.process(req)

		case <-ctx.Done():
			f.shutdown()
			return
		}
	}
}

// shutdown 새로운 요청 수락을 차단하고 큐에 남은 요청을 드레인합니다.
func (f *telegramForwarder) shutdown() {
	f.Close()
	f.WaitForPendingSends()

	for {
		select {
		case req := <-f.RequestC():
			f.process(req)
		default:
			applog.WithComponentAndFields(component, applog.Fields{
				"forwarder_id": f.ID(),
			}).Info("텔레그램 Forwarder 워커 종료됨")
			return
		}
	}
}

// process 발송 요청 하나를 처리합니다.
//
// 발송에 성공하면 저장소에 전달 완료 상태와 텔레그램 메시지 ID를 기록한 뒤
// 문서를 보관 상태로 전환하여 작성자별 제출 제한과 보존 기한 정리의 대상에서 제외합니다.
// 발송에 실패한 피드백은 미처리 상태로 남아 이후 재발송 대상이 됩니다.
func (f *telegramForwarder) process(req *forwardRequest) {
	msg := tgbotapi.NewMessage(f.cfg.ChatID, buildTelegramMessage(req.Feedback))
	msg.ParseMode = tgbotapi.ModeHTML

	sent, err := f.bot.Send(msg)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"forwarder_id": f.ID(),
			"feedback_id":  req.Feedback.ID,
			"error":        err,
		}).Error("피드백 텔레그램 메시지 발송 실패")
		return
	}

	if err := f.store.MarkForwarded(req.Feedback.ID, strconv.Itoa(sent.MessageID)); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"forwarder_id": f.ID(),
			"feedback_id":  req.Feedback.ID,
			"error":        err,
		}).Error("피드백 전달 완료 상태 기록 실패")
		return
	}

	// 보관 상태 기록에 실패해도 발송 자체는 완료된 것이므로 실패로 처리하지 않습니다.
	if err := f.store.MarkArchived(req.Feedback.ID); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"forwarder_id": f.ID(),
			"feedback_id":  req.Feedback.ID,
			"error":        err,
		}).Error("피드백 보관 상태 기록 실패")
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"forwarder_id": f.ID(),
		"feedback_id":  req.Feedback.ID,
		"message_id":   sent.MessageID,
	}).Info("피드백 텔레그램 메시지 발송 완료")
}

// buildTelegramMessage 피드백을 텔레그램 HTML 메시지로 구성합니다.
// 사용자 입력은 모두 HTML 이스케이프 처리하여 마크업 깨짐을 방지합니다.
func buildTelegramMessage(feedback *contract.Feedback) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(feedback.Subject))

	// 멀티바이트 문자 중간에서 자르면 유효하지 않은 UTF-8이 되어
	// 텔레그램이 메시지를 거부하므로 문자 경계에서 잘라냅니다.
	message := feedback.Message
	if len(message) > telegramMessageMaxLength {
		message = strutil.TruncateByBytes(message, telegramMessageMaxLength) + "…"
	}
	b.WriteString(html.EscapeString(message))

	b.WriteString("\n\n")
	fmt.Fprintf(&b, "작성자: %s\n", html.EscapeString(feedback.Requester()))
	fmt.Fprintf(&b, "접수 시각: %s\n", feedback.ReceivedAt.Format(time.RFC3339))
	if len(feedback.Uploads) > 0 {
		fmt.Fprintf(&b, "첨부 파일: %d개\n", len(feedback.Uploads))
	}

	return b.String()
}
