package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestNewHTTPServer_SecurityHeaders(t *testing.T) {
	e := NewHTTPServer(HTTPServerConfig{
		RateLimitPerSecond: 100,
		RateLimitBurst:     100,
	})
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	// Server 헤더는 서버 스택 정보 노출 방지를 위해 비웁니다.
	assert.Empty(t, rec.Header().Get(echo.HeaderServer))

	// 요청별 고유 ID가 부여되어야 합니다.
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	// Secure 미들웨어가 추가하는 보안 헤더
	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
}

func TestNewHTTPServer_RateLimitPerIP(t *testing.T) {
	e := NewHTTPServer(HTTPServerConfig{
		RateLimitPerSecond: 1,
		RateLimitBurst:     1,
	})
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})

	doRequest := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "203.0.113.10:51234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	first := doRequest()
	assert.Equal(t, http.StatusOK, first.Code)

	// 버스트 허용량을 초과한 연속 요청은 거부됩니다.
	second := doRequest()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestNewHTTPServer_CORSDisallowedOrigin(t *testing.T) {
	e := NewHTTPServer(HTTPServerConfig{
		AllowOrigins:       []string{"https://app.example.com"},
		RateLimitPerSecond: 100,
		RateLimitBurst:     100,
	})
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestNewHTTPServer_CORSAllowedOrigin(t *testing.T) {
	e := NewHTTPServer(HTTPServerConfig{
		AllowOrigins:       []string{"https://app.example.com"},
		RateLimitPerSecond: 100,
		RateLimitBurst:     100,
	})
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "https://app.example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
