package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
	"github.com/darkkaiser/feedback-server/pkg/validation"
	"github.com/go-playground/validator/v10"
)

// AppConfig 애플리케이션의 모든 설정을 포함하는 최상위 구조체
type AppConfig struct {
	Debug       bool              `json:"debug"`
	HTTPRetry   HTTPRetryConfig   `json:"http_retry"`
	Storage     StorageConfig     `json:"storage"`
	FeedbackAPI FeedbackAPIConfig `json:"feedback_api"`
	Forwarders  ForwarderConfig   `json:"forwarders"`
	Caretaker   CaretakerConfig   `json:"caretaker"`
}

// validate 설정 파일 로드 직후, 각 설정 항목의 정합성과 필수 값의 유효성을 검증합니다.
func (c *AppConfig) validate(v *validator.Validate) error {
	if err := c.HTTPRetry.validate(); err != nil {
		return err
	}

	if err := c.Storage.validate(v); err != nil {
		return err
	}

	if err := c.FeedbackAPI.validate(v); err != nil {
		return err
	}

	if err := c.Forwarders.validate(v); err != nil {
		return err
	}

	if err := c.Caretaker.validate(); err != nil {
		return err
	}

	return nil
}

// VerifyRecommendations 서비스 운영의 안정성과 보안을 위해 권장되는 설정 준수 여부를 진단합니다.
// 강제적인 에러를 발생시키지는 않으나, 잠재적 위험 요소(예: Well-known Port 사용)에 대한 경고 메시지를 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string
	warnings = append(warnings, c.FeedbackAPI.VerifyRecommendations()...)
	if len(c.Forwarders.Mailguns) == 0 && len(c.Forwarders.Telegrams) == 0 {
		warnings = append(warnings, "전달(Forwarder) 채널이 하나도 설정되지 않았습니다. 수집된 피드백은 저장만 되고 전달되지 않습니다")
	}
	return warnings
}

// HTTPRetryConfig 외부 서비스 호출 실패 시의 재시도 정책을 정의하는 설정 구조체
type HTTPRetryConfig struct {
	MaxRetries    int           `json:"max_retries"`
	MinRetryDelay time.Duration `json:"min_retry_delay"`
	MaxRetryDelay time.Duration `json:"max_retry_delay"`
}

func (c *HTTPRetryConfig) validate() error {
	if c.MaxRetries < 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("HTTP 최대 재시도 횟수(max_retries)는 0 이상이어야 합니다: '%d'", c.MaxRetries))
	}
	if c.MinRetryDelay <= 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("HTTP 최소 재시도 대기 시간(min_retry_delay)은 0보다 커야 합니다: '%v'", c.MinRetryDelay))
	}
	if c.MaxRetryDelay < c.MinRetryDelay {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("HTTP 최대 재시도 대기 시간(max_retry_delay)은 최소 대기 시간보다 작을 수 없습니다: '%v' < '%v'", c.MaxRetryDelay, c.MinRetryDelay))
	}
	return nil
}

// StorageConfig 피드백 문서와 첨부 파일의 저장 정책을 정의하는 설정 구조체
type StorageConfig struct {
	DataDir            string `json:"data_dir" validate:"required"`
	MaxPendingPerEmail int    `json:"max_pending_per_email" validate:"min=1"`
	MaxUploadCount     int    `json:"max_upload_count" validate:"min=0"`
	MaxUploadSize      int64  `json:"max_upload_size" validate:"min=1"`
}

func (c *StorageConfig) validate(v *validator.Validate) error {
	return checkStruct(v, c, "Storage")
}

// FeedbackAPIConfig 피드백 수집 REST API 서버의 포트, TLS, CORS, 인증 설정을 정의하는 구조체
type FeedbackAPIConfig struct {
	ListenPort    int             `json:"listen_port" validate:"min=1,max=65535"`
	TLSServer     bool            `json:"tls_server"`
	TLSCertFile   string          `json:"tls_cert_file" validate:"required_if=TLSServer true,omitempty,file"`
	TLSKeyFile    string          `json:"tls_key_file" validate:"required_if=TLSServer true,omitempty,file"`
	CORS          CORSConfig      `json:"cors"`
	ServiceTokens []string        `json:"service_tokens"`
	RateLimit     RateLimitConfig `json:"rate_limit"`
}

func (c *FeedbackAPIConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c, "FeedbackAPI", "ListenPort", "TLSCertFile", "TLSKeyFile"); err != nil {
		return err
	}

	if err := c.CORS.validate(v); err != nil {
		return err
	}

	for _, token := range c.ServiceTokens {
		if strings.TrimSpace(token) == "" {
			return apperrors.New(apperrors.InvalidInput, "서비스 토큰(service_tokens) 목록에 빈 토큰이 포함되어 있습니다")
		}
	}

	return c.RateLimit.validate()
}

func (c *FeedbackAPIConfig) VerifyRecommendations() []string {
	var warnings []string

	// 시스템 예약 포트(1024 미만) 사용 경고
	if c.ListenPort < 1024 {
		warnings = append(warnings, fmt.Sprintf("시스템 예약 포트(1-1023)를 사용하도록 설정되었습니다(port: %d). 이 경우 서버 구동 시 관리자 권한이 필요할 수 있습니다", c.ListenPort))
	}

	if len(c.ServiceTokens) == 0 {
		warnings = append(warnings, "서비스 토큰(service_tokens)이 설정되지 않아 토큰 검증 없이 모든 요청이 허용됩니다")
	}

	return warnings
}

// CORSConfig 웹 브라우저의 교차 출처 리소스 공유(CORS) 정책을 설정하는 구조체
type CORSConfig struct {
	AllowOrigins []string `json:"allow_origins" validate:"dive,cors_origin"`
}

func (c *CORSConfig) validate(v *validator.Validate) error {
	if len(c.AllowOrigins) == 0 {
		return apperrors.New(apperrors.InvalidInput, "CORS 허용 도메인(allow_origins) 목록이 비어있습니다")
	}

	if slices.Contains(c.AllowOrigins, "*") && len(c.AllowOrigins) > 1 {
		return apperrors.New(apperrors.InvalidInput, "와일드카드(*)는 다른 도메인과 함께 사용할 수 없습니다. 모든 도메인을 허용하려면 와일드카드만 설정하세요")
	}

	return checkStruct(v, c, "CORS")
}

// RateLimitConfig API 요청 빈도 제한 정책을 정의하는 설정 구조체
type RateLimitConfig struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

func (c *RateLimitConfig) validate() error {
	if c.Rate <= 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("요청 빈도 제한(rate)은 0보다 커야 합니다: '%v'", c.Rate))
	}
	if c.Burst < 1 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("요청 빈도 제한의 버스트(burst)는 1 이상이어야 합니다: '%d'", c.Burst))
	}
	return nil
}

// ForwarderConfig 수집된 피드백을 외부 채널로 전달하는 Forwarder들을 정의하는 설정 구조체
type ForwarderConfig struct {
	DefaultForwarderID string           `json:"default_forwarder_id"`
	Mailguns           []MailgunConfig  `json:"mailguns" validate:"unique=ID"`
	Telegrams          []TelegramConfig `json:"telegrams" validate:"unique=ID"`
}

func (c *ForwarderConfig) validate(v *validator.Validate) error {
	if err := checkUniqueField(v, c.Mailguns, "ID", "Mailgun Forwarder"); err != nil {
		return err
	}
	if err := checkUniqueField(v, c.Telegrams, "ID", "Telegram Forwarder"); err != nil {
		return err
	}

	var forwarderIDs []string
	for _, mailgun := range c.Mailguns {
		if err := checkStruct(v, mailgun, fmt.Sprintf("Mailgun Forwarder['%s']", mailgun.ID)); err != nil {
			return err
		}
		forwarderIDs = append(forwarderIDs, mailgun.ID)
	}
	for _, telegram := range c.Telegrams {
		if err := checkStruct(v, telegram, fmt.Sprintf("Telegram Forwarder['%s']", telegram.ID)); err != nil {
			return err
		}
		forwarderIDs = append(forwarderIDs, telegram.ID)
	}

	// Mailgun과 Telegram을 통틀어 Forwarder ID는 유일해야 합니다.
	seen := make(map[string]struct{}, len(forwarderIDs))
	for _, id := range forwarderIDs {
		if _, ok := seen[id]; ok {
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("중복된 Forwarder ID가 존재합니다: '%s'", id))
		}
		seen[id] = struct{}{}
	}

	if c.DefaultForwarderID != "" && !slices.Contains(forwarderIDs, c.DefaultForwarderID) {
		return apperrors.New(apperrors.NotFound, fmt.Sprintf("기본 ForwarderID('%s')가 정의된 Forwarder 목록에 존재하지 않습니다", c.DefaultForwarderID))
	}

	return nil
}

// MailgunConfig Mailgun 메일 발송 채널의 인증 정보와 수신자를 정의하는 설정 구조체
type MailgunConfig struct {
	ID         string   `json:"id" validate:"required"`
	Domain     string   `json:"domain" validate:"required,hostname_rfc1123"`
	APIKey     string   `json:"api_key" validate:"required"`
	Sender     string   `json:"sender" validate:"required,email"`
	Recipients []string `json:"recipients" validate:"required,min=1,dive,email"`
}

// TelegramConfig 텔레그램 봇 토큰 및 채팅 ID 정보를 담는 설정 구조체
type TelegramConfig struct {
	ID       string `json:"id" validate:"required"`
	BotToken string `json:"bot_token" validate:"required,telegram_bot_token"`
	ChatID   int64  `json:"chat_id" validate:"required"`
}

// CaretakerConfig 저장소 정리 작업의 스케줄과 보존 기간을 정의하는 설정 구조체
type CaretakerConfig struct {
	Runnable          bool          `json:"runnable"`
	TimeSpec          string        `json:"time_spec"`
	ArchivedRetention time.Duration `json:"archived_retention"`
	StubScrubAge      time.Duration `json:"stub_scrub_age"`
	RepublishAge      time.Duration `json:"republish_age"`
}

func (c *CaretakerConfig) validate() error {
	if c.Runnable {
		if err := validation.ValidateCronExpression(c.TimeSpec); err != nil {
			return apperrors.Wrap(err, apperrors.InvalidInput, "저장소 정리 작업의 스케줄(time_spec) 설정이 유효하지 않습니다")
		}
	}

	if c.ArchivedRetention <= 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("보관된 피드백의 보존 기간(archived_retention)은 0보다 커야 합니다: '%v'", c.ArchivedRetention))
	}
	if c.StubScrubAge <= 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("미완성 피드백의 정리 기준 시간(stub_scrub_age)은 0보다 커야 합니다: '%v'", c.StubScrubAge))
	}
	if c.RepublishAge <= 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("전달 재시도 기준 시간(republish_age)은 0보다 커야 합니다: '%v'", c.RepublishAge))
	}

	return nil
}
