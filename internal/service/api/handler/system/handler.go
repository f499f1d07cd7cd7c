// Package system 시스템 엔드포인트 핸들러를 제공합니다.
//
// 헬스체크, 버전 정보 등 인증이 필요 없는 시스템 수준의 API를 처리합니다.
package system

import (
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/darkkaiser/feedback-server/internal/pkg/version"
	"github.com/darkkaiser/feedback-server/internal/service/contract"
	applog "github.com/darkkaiser/feedback-server/pkg/log"
)

// component 시스템 핸들러의 로깅용 컴포넌트 이름
const component = "api.handler.system"

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

// DependencyStatus 외부 의존성의 상태 정보입니다.
type DependencyStatus struct {
	Status  string `json:"status" example:"healthy"`
	Message string `json:"message" example:"정상"`
}

// HealthResponse 헬스체크 응답입니다.
type HealthResponse struct {
	Status       string                      `json:"status" example:"healthy"`
	Uptime       int64                       `json:"uptime" example:"3600"`
	Dependencies map[string]DependencyStatus `json:"dependencies"`
}

// VersionResponse 버전 정보 응답입니다.
type VersionResponse struct {
	Version     string `json:"version" example:"v1.2.0"`
	BuildDate   string `json:"build_date" example:"2026-08-24T10:00:00Z"`
	BuildNumber string `json:"build_number" example:"128"`
	GoVersion   string `json:"go_version" example:"go1.22.5"`
}

// Handler 시스템 엔드포인트 핸들러 (헬스체크, 버전 정보)
type Handler struct {
	forwardHealth contract.ForwardHealthChecker

	buildInfo version.Info

	serverStartTime time.Time
}

// NewHandler Handler 인스턴스를 생성합니다.
func NewHandler(forwardHealth contract.ForwardHealthChecker, buildInfo version.Info) *Handler {
	if forwardHealth == nil {
		panic("ForwardHealthChecker는 필수입니다")
	}

	return &Handler{
		forwardHealth: forwardHealth,

		buildInfo: buildInfo,

		serverStartTime: time.Now(),
	}
}

// HealthCheckHandler godoc
// @Summary 서버 헬스체크
// @Description 서버와 전달 서비스의 상태를 확인합니다.
// @Description 인증 없이 호출 가능하며, 모니터링 시스템에서 사용됩니다.
// @Tags System
// @Produce json
// @Success 200 {object} system.HealthResponse "헬스체크 결과"
// @Router /healthcheck [get]
func (h *Handler) HealthCheckHandler(c echo.Context) error {
	applog.WithComponentAndFields(component, applog.Fields{
		"endpoint":  "/healthcheck",
		"remote_ip": c.RealIP(),
	}).Debug("헬스체크 요청")

	deps := make(map[string]DependencyStatus)

	if err := h.forwardHealth.Health(); err != nil {
		deps["forwarder_service"] = DependencyStatus{
			Status:  healthStatusUnhealthy,
			Message: err.Error(),
		}
	} else {
		deps["forwarder_service"] = DependencyStatus{
			Status:  healthStatusHealthy,
			Message: "정상",
		}
	}

	serverStatus := healthStatusHealthy
	for _, dep := range deps {
		if dep.Status != healthStatusHealthy {
			serverStatus = healthStatusUnhealthy
			break
		}
	}

	return c.JSON(http.StatusOK, HealthResponse{
		Status:       serverStatus,
		Uptime:       int64(time.Since(h.serverStartTime).Seconds()),
		Dependencies: deps,
	})
}

// VersionHandler godoc
// @Summary 서버 버전 정보
// @Description 서버의 버전, 빌드 날짜, 빌드 번호, Go 버전을 반환합니다.
// @Tags System
// @Produce json
// @Success 200 {object} system.VersionResponse "버전 정보"
// @Router /version [get]
func (h *Handler) VersionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, VersionResponse{
		Version:     h.buildInfo.Version,
		BuildDate:   h.buildInfo.BuildDate,
		BuildNumber: h.buildInfo.BuildNumber,
		GoVersion:   runtime.Version(),
	})
}
