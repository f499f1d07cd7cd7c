package system

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkkaiser/feedback-server/internal/pkg/errors"
	"github.com/darkkaiser/feedback-server/internal/pkg/version"
)

// fakeForwardHealth 테스트용 ForwardHealthChecker 구현체입니다.
type fakeForwardHealth struct {
	err error
}

func (f *fakeForwardHealth) Health() error {
	return f.err
}

func doGet(t *testing.T, handler echo.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	require.NoError(t, handler(c))

	return rec
}

func TestHealthCheckHandler_Healthy(t *testing.T) {
	h := NewHandler(&fakeForwardHealth{}, version.Get())

	rec := doGet(t, h.HealthCheckHandler, "/healthcheck")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, healthStatusHealthy, resp.Status)
	assert.GreaterOrEqual(t, resp.Uptime, int64(0))

	require.Contains(t, resp.Dependencies, "forwarder_service")
	assert.Equal(t, healthStatusHealthy, resp.Dependencies["forwarder_service"].Status)
}

func TestHealthCheckHandler_ForwardServiceUnhealthy(t *testing.T) {
	h := NewHandler(&fakeForwardHealth{
		err: errors.New(errors.Unavailable, "전달 서비스가 실행중이 아닙니다"),
	}, version.Get())

	rec := doGet(t, h.HealthCheckHandler, "/healthcheck")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, healthStatusUnhealthy, resp.Status)
	assert.Equal(t, healthStatusUnhealthy, resp.Dependencies["forwarder_service"].Status)
	assert.Contains(t, resp.Dependencies["forwarder_service"].Message, "실행중이 아닙니다")
}

func TestVersionHandler_ReturnsVersionInfo(t *testing.T) {
	buildInfo := version.Info{
		Version:     "v1.2.0",
		BuildDate:   "2026-08-24T10:00:00Z",
		BuildNumber: "128",
	}
	h := NewHandler(&fakeForwardHealth{}, buildInfo)

	rec := doGet(t, h.VersionHandler, "/version")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp VersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "v1.2.0", resp.Version)
	assert.Equal(t, "2026-08-24T10:00:00Z", resp.BuildDate)
	assert.Equal(t, "128", resp.BuildNumber)
	assert.Equal(t, runtime.Version(), resp.GoVersion)
}

func TestNewHandler_RequiredDependencies(t *testing.T) {
	assert.Panics(t, func() {
		NewHandler(nil, version.Get())
	})
}
