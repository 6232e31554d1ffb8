package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/printshop/personalizer/internal/infrastructure/logger"
	"github.com/printshop/personalizer/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// readinessTimeout bounds each dependency check of the readiness probe
const readinessTimeout = 2 * time.Second

// Pinger is a dependency the readiness probe checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler handles liveness and readiness probes
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	version   string
	checks    map[string]Pinger
}

// NewSystemHandler creates a new SystemHandler. checks maps a dependency name
// to the pinger the readiness probe calls.
func NewSystemHandler(version string, checks map[string]Pinger) *SystemHandler {
	if checks == nil {
		checks = map[string]Pinger{}
	}
	return &SystemHandler{
		startTime: time.Now(),
		version:   version,
		checks:    checks,
	}
}

// HealthResponse is the liveness probe payload
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// ReadyResponse is the readiness probe payload
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health godoc
// @Summary      Liveness check
// @Description  Report that the process is serving
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(HealthResponse{
		Status:    "ok",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}))
}

// Ready godoc
// @Summary      Readiness check
// @Description  Ping every dependency and answer 503 when one fails
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=ReadyResponse}
// @Failure      503 {object} dto.Response{data=ReadyResponse}
// @Router       /ready [get]
func (h *SystemHandler) Ready(c *gin.Context) {
	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK

	for name, p := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			logger.L(c.Request.Context()).Warn("Readiness check failed",
				zap.String("dependency", name),
				zap.Error(err),
			)
			resp.Checks[name] = "unavailable"
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}
