package forwarder

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkkaiser/feedback-server/internal/config"
	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
	"github.com/darkkaiser/feedback-server/internal/pkg/fetcher"
)

func newTestMailgunConfig() config.MailgunConfig {
	return config.MailgunConfig{
		ID:         "mailgun",
		Domain:     "mg.example.com",
		APIKey:     "key-test",
		Sender:     "feedback@mg.example.com",
		Recipients: []string{"admin@example.com", "dev@example.com"},
	}
}

func TestMailgunForwarder_MarksForwardedOnSuccess(t *testing.T) {
	store := newFakeFeedbackStore()

	var (
		gotPath     string
		gotUsername string
		gotPassword string
		gotForm     map[string][]string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUsername, gotPassword, _ = r.BasicAuth()

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotForm = r.MultipartForm.Value

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"<msg-1@mg.example.com>","message":"Queued. Thank you."}`))
	}))
	defer server.Close()

	f := newMailgunForwarder(newTestMailgunConfig(), store, fetcher.NewHTTPFetcher())
	f.apiBase = server.URL

	feedback := newTestFeedback()
	f.process(&forwardRequest{Ctx: context.Background(), Feedback: feedback})

	assert.Equal(t, "/mg.example.com/messages", gotPath)
	assert.Equal(t, "api", gotUsername)
	assert.Equal(t, "key-test", gotPassword)

	assert.Equal(t, []string{"feedback@mg.example.com"}, gotForm["from"])
	assert.Equal(t, []string{"admin@example.com", "dev@example.com"}, gotForm["to"])
	assert.Equal(t, []string{feedback.Subject}, gotForm["subject"])
	assert.Equal(t, []string{"홍길동 <tester@example.com>"}, gotForm["h:Reply-To"])
	require.Len(t, gotForm["text"], 1)
	assert.Contains(t, gotForm["text"][0], feedback.Message)
	assert.Contains(t, gotForm["text"][0], "tester@example.com")

	messageID, forwarded := store.forwardedMessageID(feedback.ID)
	assert.True(t, forwarded)
	assert.Equal(t, "<msg-1@mg.example.com>", messageID)

	// 발송이 끝난 문서는 보관 상태로 전환되어 제출 제한과 보존 기한 정리의 대상이 됩니다.
	assert.True(t, store.archived(feedback.ID))
}

func TestMailgunForwarder_SendWithAttachments(t *testing.T) {
	store := newFakeFeedbackStore()
	ref, err := store.SaveUpload("screenshot.png", []byte("PNG-DATA"))
	require.NoError(t, err)

	var (
		gotFilename string
		gotContent  []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		files := r.MultipartForm.File["attachment"]
		require.Len(t, files, 1)
		gotFilename = files[0].Filename

		file, err := files[0].Open()
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		gotContent, err = io.ReadAll(file)
		require.NoError(t, err)

		_, _ = w.Write([]byte(`{"id":"<msg-2@mg.example.com>"}`))
	}))
	defer server.Close()

	f := newMailgunForwarder(newTestMailgunConfig(), store, fetcher.NewHTTPFetcher())
	f.apiBase = server.URL

	feedback := newTestFeedback()
	feedback.Uploads = append(feedback.Uploads, ref)

	messageID, err := f.send(context.Background(), feedback)
	require.NoError(t, err)
	assert.Equal(t, "<msg-2@mg.example.com>", messageID)
	assert.Equal(t, "screenshot.png", gotFilename)
	assert.Equal(t, []byte("PNG-DATA"), gotContent)
}

func TestMailgunForwarder_SkipsUnreadableAttachment(t *testing.T) {
	store := newFakeFeedbackStore()
	ref, err := store.SaveUpload("screenshot.png", []byte("PNG-DATA"))
	require.NoError(t, err)
	store.openUploadErr = apperrors.New(apperrors.NotFound, "첨부 파일이 존재하지 않습니다")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Empty(t, r.MultipartForm.File["attachment"])

		_, _ = w.Write([]byte(`{"id":"<msg-3@mg.example.com>"}`))
	}))
	defer server.Close()

	f := newMailgunForwarder(newTestMailgunConfig(), store, fetcher.NewHTTPFetcher())
	f.apiBase = server.URL

	feedback := newTestFeedback()
	feedback.Uploads = append(feedback.Uploads, ref)

	_, err = f.send(context.Background(), feedback)
	assert.NoError(t, err)
}

func TestMailgunForwarder_KeepsPendingOnAPIError(t *testing.T) {
	store := newFakeFeedbackStore()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Forbidden"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	f := newMailgunForwarder(newTestMailgunConfig(), store, fetcher.NewHTTPFetcher())
	f.apiBase = server.URL

	feedback := newTestFeedback()
	f.process(&forwardRequest{Ctx: context.Background(), Feedback: feedback})

	_, forwarded := store.forwardedMessageID(feedback.ID)
	assert.False(t, forwarded)
	assert.False(t, store.archived(feedback.ID))
}

func TestMailgunForwarder_MissingMessageID(t *testing.T) {
	store := newFakeFeedbackStore()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Queued"}`))
	}))
	defer server.Close()

	f := newMailgunForwarder(newTestMailgunConfig(), store, fetcher.NewHTTPFetcher())
	f.apiBase = server.URL

	_, err := f.send(context.Background(), newTestFeedback())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ExecutionFailed))
}

func TestMailgunForwarder_DrainsQueueOnShutdown(t *testing.T) {
	store := newFakeFeedbackStore()

	sendCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendCount++
		_, _ = w.Write([]byte(`{"id":"<msg-4@mg.example.com>"}`))
	}))
	defer server.Close()

	f := newMailgunForwarder(newTestMailgunConfig(), store, fetcher.NewHTTPFetcher())
	f.apiBase = server.URL

	// 워커가 실행되기 전에 요청을 먼저 큐에 등록합니다.
	require.NoError(t, f.Forward(context.Background(), newTestFeedback()))
	require.NoError(t, f.Forward(context.Background(), newTestFeedback()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// 이미 취소된 Context로 실행하면 워커는 큐에 남은 요청을 모두 처리한 뒤 반환합니다.
	f.Run(ctx)

	assert.Equal(t, 2, sendCount)
}
