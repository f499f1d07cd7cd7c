package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
)

const validConfigJSON = `{
  "debug": true,
  "feedback_api": {
    "listen_port": 8443,
    "cors": {
      "allow_origins": ["https://feedback.example.com"]
    },
    "service_tokens": ["token-1"]
  },
  "forwarders": {
    "default_forwarder_id": "mg-main",
    "mailguns": [
      {
        "id": "mg-main",
        "domain": "mg.example.com",
        "api_key": "key-abcdef",
        "sender": "feedback@mg.example.com",
        "recipients": ["dev@example.com"]
      }
    ],
    "telegrams": [
      {
        "id": "tg-main",
        "bot_token": "123456:ABCDEF1234ghIkl-zyx57W2v1u123ew11abc",
        "chat_id": -1001234567890
      }
    ]
  }
}`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadWithFile_Success(t *testing.T) {
	cfg, err := LoadWithFile(writeConfigFile(t, validConfigJSON))
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, 8443, cfg.FeedbackAPI.ListenPort)
	assert.Equal(t, []string{"https://feedback.example.com"}, cfg.FeedbackAPI.CORS.AllowOrigins)
	assert.Equal(t, "mg-main", cfg.Forwarders.DefaultForwarderID)
	require.Len(t, cfg.Forwarders.Mailguns, 1)
	require.Len(t, cfg.Forwarders.Telegrams, 1)
	assert.Equal(t, int64(-1001234567890), cfg.Forwarders.Telegrams[0].ChatID)
}

func TestLoadWithFile_Defaults(t *testing.T) {
	cfg, err := LoadWithFile(writeConfigFile(t, validConfigJSON))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.HTTPRetry.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.HTTPRetry.MinRetryDelay)
	assert.Equal(t, 30*time.Second, cfg.HTTPRetry.MaxRetryDelay)
	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.Equal(t, 5, cfg.Storage.MaxPendingPerEmail)
	assert.Equal(t, 10, cfg.Storage.MaxUploadCount)
	assert.Equal(t, int64(1<<20), cfg.Storage.MaxUploadSize)
	assert.Equal(t, 720*time.Hour, cfg.Caretaker.ArchivedRetention)
	assert.Equal(t, 5*time.Minute, cfg.Caretaker.StubScrubAge)
	assert.Equal(t, 24*time.Hour, cfg.Caretaker.RepublishAge)
}

func TestLoadWithFile_EnvOverride(t *testing.T) {
	t.Setenv("FEEDBACK_FEEDBACK_API__LISTEN_PORT", "9090")
	t.Setenv("FEEDBACK_STORAGE__MAX_PENDING_PER_EMAIL", "7")

	cfg, err := LoadWithFile(writeConfigFile(t, validConfigJSON))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.FeedbackAPI.ListenPort)
	assert.Equal(t, 7, cfg.Storage.MaxPendingPerEmail)
}

func TestLoadWithFile_FileNotFound(t *testing.T) {
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Nil(t, cfg)
	assert.True(t, apperrors.Is(err, apperrors.System))
}

func TestLoadWithFile_InvalidJSON(t *testing.T) {
	cfg, err := LoadWithFile(writeConfigFile(t, "{ not json"))
	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestLoadWithFile_UnknownKeyRejected(t *testing.T) {
	content := `{
  "unknown_section": {"foo": 1},
  "feedback_api": {"listen_port": 8080, "cors": {"allow_origins": ["*"]}}
}`
	cfg, err := LoadWithFile(writeConfigFile(t, content))
	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestLoadWithFile_ValidationFailure(t *testing.T) {
	content := `{
  "feedback_api": {
    "listen_port": 99999,
    "cors": {"allow_origins": ["*"]}
  }
}`
	cfg, err := LoadWithFile(writeConfigFile(t, content))
	assert.Nil(t, cfg)
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
}
