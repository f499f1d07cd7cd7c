package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newValidAppConfig 모든 검증을 통과하는 기준 설정을 생성합니다.
// 각 테스트는 이 설정의 특정 항목만 변경하여 해당 검증 규칙을 확인합니다.
func newValidAppConfig() *AppConfig {
	return &AppConfig{
		HTTPRetry: HTTPRetryConfig{
			MaxRetries:    3,
			MinRetryDelay: 2 * time.Second,
			MaxRetryDelay: 30 * time.Second,
		},
		Storage: StorageConfig{
			DataDir:            "./data",
			MaxPendingPerEmail: 5,
			MaxUploadCount:     10,
			MaxUploadSize:      1 << 20,
		},
		FeedbackAPI: FeedbackAPIConfig{
			ListenPort:    8080,
			CORS:          CORSConfig{AllowOrigins: []string{"https://feedback.example.com"}},
			ServiceTokens: []string{"token-1"},
			RateLimit:     RateLimitConfig{Rate: 10, Burst: 20},
		},
		Forwarders: ForwarderConfig{
			DefaultForwarderID: "mg-main",
			Mailguns: []MailgunConfig{
				{
					ID:         "mg-main",
					Domain:     "mg.example.com",
					APIKey:     "key-abcdef",
					Sender:     "feedback@mg.example.com",
					Recipients: []string{"dev@example.com"},
				},
			},
			Telegrams: []TelegramConfig{
				{
					ID:       "tg-main",
					BotToken: "123456:ABCDEF1234ghIkl-zyx57W2v1u123ew11abc",
					ChatID:   -1001234567890,
				},
			},
		},
		Caretaker: CaretakerConfig{
			Runnable:          true,
			TimeSpec:          "0 0 4 * * *",
			ArchivedRetention: 720 * time.Hour,
			StubScrubAge:      5 * time.Minute,
			RepublishAge:      24 * time.Hour,
		},
	}
}

func TestAppConfig_Validate_ValidConfig(t *testing.T) {
	require.NoError(t, newValidAppConfig().validate(newValidator()))
}

func TestAppConfig_Validate_Table(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *AppConfig)
	}{
		{
			name:   "재시도 대기 시간 역전 거부",
			mutate: func(c *AppConfig) { c.HTTPRetry.MaxRetryDelay = time.Second },
		},
		{
			name:   "음수 재시도 횟수 거부",
			mutate: func(c *AppConfig) { c.HTTPRetry.MaxRetries = -1 },
		},
		{
			name:   "저장 경로 필수",
			mutate: func(c *AppConfig) { c.Storage.DataDir = "" },
		},
		{
			name:   "포트 범위 초과 거부",
			mutate: func(c *AppConfig) { c.FeedbackAPI.ListenPort = 99999 },
		},
		{
			name:   "CORS 목록 비어있음 거부",
			mutate: func(c *AppConfig) { c.FeedbackAPI.CORS.AllowOrigins = nil },
		},
		{
			name: "와일드카드와 도메인 혼용 거부",
			mutate: func(c *AppConfig) {
				c.FeedbackAPI.CORS.AllowOrigins = []string{"*", "https://example.com"}
			},
		},
		{
			name:   "잘못된 CORS Origin 거부",
			mutate: func(c *AppConfig) { c.FeedbackAPI.CORS.AllowOrigins = []string{"https://example.com/path"} },
		},
		{
			name:   "빈 서비스 토큰 거부",
			mutate: func(c *AppConfig) { c.FeedbackAPI.ServiceTokens = []string{"  "} },
		},
		{
			name:   "요청 빈도 제한 0 거부",
			mutate: func(c *AppConfig) { c.FeedbackAPI.RateLimit.Rate = 0 },
		},
		{
			name:   "잘못된 텔레그램 토큰 거부",
			mutate: func(c *AppConfig) { c.Forwarders.Telegrams[0].BotToken = "invalid-token" },
		},
		{
			name:   "잘못된 수신자 이메일 거부",
			mutate: func(c *AppConfig) { c.Forwarders.Mailguns[0].Recipients = []string{"not-an-email"} },
		},
		{
			name:   "존재하지 않는 기본 Forwarder 거부",
			mutate: func(c *AppConfig) { c.Forwarders.DefaultForwarderID = "unknown" },
		},
		{
			name: "채널 간 중복 Forwarder ID 거부",
			mutate: func(c *AppConfig) {
				c.Forwarders.Telegrams[0].ID = c.Forwarders.Mailguns[0].ID
			},
		},
		{
			name: "Mailgun 중복 ID 거부",
			mutate: func(c *AppConfig) {
				c.Forwarders.Mailguns = append(c.Forwarders.Mailguns, c.Forwarders.Mailguns[0])
			},
		},
		{
			name:   "잘못된 Cron 표현식 거부",
			mutate: func(c *AppConfig) { c.Caretaker.TimeSpec = "0 4 * * *" },
		},
		{
			name:   "보존 기간 0 거부",
			mutate: func(c *AppConfig) { c.Caretaker.ArchivedRetention = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newValidAppConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.validate(newValidator()))
		})
	}
}

func TestAppConfig_Validate_SkipCronCheckWhenCaretakerDisabled(t *testing.T) {
	cfg := newValidAppConfig()
	cfg.Caretaker.Runnable = false
	cfg.Caretaker.TimeSpec = "invalid"
	assert.NoError(t, cfg.validate(newValidator()))
}

func TestAppConfig_VerifyRecommendations(t *testing.T) {
	t.Run("권장 설정 준수시 경고 없음", func(t *testing.T) {
		assert.Empty(t, newValidAppConfig().VerifyRecommendations())
	})

	t.Run("예약 포트 사용 경고", func(t *testing.T) {
		cfg := newValidAppConfig()
		cfg.FeedbackAPI.ListenPort = 443
		assert.NotEmpty(t, cfg.VerifyRecommendations())
	})

	t.Run("Forwarder 미설정 경고", func(t *testing.T) {
		cfg := newValidAppConfig()
		cfg.Forwarders = ForwarderConfig{}
		assert.NotEmpty(t, cfg.VerifyRecommendations())
	})

	t.Run("서비스 토큰 미설정시 토큰 검증 비활성화 경고", func(t *testing.T) {
		cfg := newValidAppConfig()
		cfg.FeedbackAPI.ServiceTokens = nil

		warnings := cfg.VerifyRecommendations()
		require.Len(t, warnings, 1)
		// 토큰이 없으면 업로드 API가 닫히는 것이 아니라 검증 없이 열립니다.
		assert.Contains(t, warnings[0], "토큰 검증 없이 모든 요청이 허용")
	})
}
