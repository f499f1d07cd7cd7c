package sender

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/darkkaiser/feedback-server/internal/pkg/errors"
)

func TestNewZendesk_RequiredArgs_Table(t *testing.T) {
	tests := []struct {
		name        string
		subdomain   string
		authToken   string
		productName string
		wantErr     bool
	}{
		{
			name:        "모든 인자 유효",
			subdomain:   "acme",
			authToken:   "tok-123",
			productName: "Acme",
		},
		{
			name:        "서브도메인 누락",
			subdomain:   "",
			authToken:   "tok-123",
			productName: "Acme",
			wantErr:     true,
		},
		{
			name:        "인증 토큰 누락",
			subdomain:   "acme",
			authToken:   "",
			productName: "Acme",
			wantErr:     true,
		},
		{
			name:        "제품명 누락",
			subdomain:   "acme",
			authToken:   "tok-123",
			productName: "",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z, err := NewZendesk(tt.subdomain, tt.authToken, tt.productName)
			if tt.wantErr {
				assert.Nil(t, z)
				assert.True(t, apperrors.Is(err, apperrors.InvalidInput), "InvalidInput 에러가 아님: %v", err)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, z)
			}
		})
	}
}

func TestNewZendesk_TargetURL(t *testing.T) {
	z, err := NewZendesk("acme", "tok-123", "Acme")
	require.NoError(t, err)

	assert.Equal(t, "https://acme.zendesk.com/api/v2/requests.json", z.baseURL+zendeskRequestPath)
}

func newTestZendesk(t *testing.T, serverURL string) *Zendesk {
	t.Helper()

	z, err := NewZendesk("acme", "tok-123", "Acme")
	require.NoError(t, err)
	z.baseURL = serverURL

	return z
}

func TestZendesk_Send_SubjectPrefixAndCredentials(t *testing.T) {
	server, requests := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"request":{"id":42}}`))
	})
	z := newTestZendesk(t, server.URL)

	submission := validSubmission()
	submission.Subject = "Crash on launch"
	require.NoError(t, z.Send(context.Background(), submission))

	require.Len(t, *requests, 1)
	req := (*requests)[0]

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/v2/requests.json", req.Path)

	require.True(t, req.AuthOK)
	assert.Equal(t, "tester@example.com/token", req.Username)
	assert.Equal(t, "tok-123", req.Password)

	var payload zendeskRequestPayload
	require.NoError(t, json.Unmarshal(req.Body, &payload))
	assert.Equal(t, "[Acme] Crash on launch", payload.Request.Subject)
	assert.Equal(t, "tester@example.com", payload.Request.Requester.Email)
}

func TestZendesk_Send_UploadsAttachments(t *testing.T) {
	server, requests := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/v2/uploads.json" {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"upload":{"token":"zd-upload-1"}}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"request":{"id":42}}`))
	})
	z := newTestZendesk(t, server.URL)

	submission := validSubmission()
	submission.Attachments = []Attachment{{Filename: "screenshot.png", Data: []byte("PNG-DATA")}}
	require.NoError(t, z.Send(context.Background(), submission))

	require.Len(t, *requests, 2)
	assert.Equal(t, "/api/v2/uploads.json", (*requests)[0].Path)
	assert.Contains(t, (*requests)[0].RawQuery, "filename=screenshot.png")

	var payload zendeskRequestPayload
	require.NoError(t, json.Unmarshal((*requests)[1].Body, &payload))
	assert.Equal(t, []string{"zd-upload-1"}, payload.Request.Comment.Uploads)
}

func TestZendesk_Send_ServerRejection(t *testing.T) {
	server, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	z := newTestZendesk(t, server.URL)

	err := z.Send(context.Background(), validSubmission())
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput), "InvalidInput 에러가 아님: %v", err)
}
