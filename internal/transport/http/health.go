package httptransport

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// StatusFunc reports one component, e.g. the synthesis breaker state.
type StatusFunc func() string

// HealthReport is the body of GET /api/health.
type HealthReport struct {
	Status        string            `json:"status"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Goroutines    int               `json:"goroutines"`
	CPUPercent    float64           `json:"cpu_percent"`
	MemoryPercent float64           `json:"memory_percent"`
	Components    map[string]string `json:"components,omitempty"`
}

// HealthAPI reports liveness plus host load.
type HealthAPI struct {
	started    time.Time
	components map[string]StatusFunc
}

func NewHealthAPI(started time.Time, components map[string]StatusFunc) *HealthAPI {
	return &HealthAPI{started: started, components: components}
}

func (h *HealthAPI) Register(api *gin.RouterGroup) {
	api.GET("/health", h.handle)
}

// @Summary      Liveness and host load
// @Tags         health
// @Produce      json
// @Success      200  {object}  APIResponse{data=HealthReport}
// @Router       /health [get]
func (h *HealthAPI) handle(c *gin.Context) {
	RespondSuccess(c, http.StatusOK, h.Report(c.Request.Context()), "")
}

// Report gathers the current numbers. Host stats that cannot be read are
// reported as zero.
func (h *HealthAPI) Report(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
	}

	statCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if pct, err := cpu.PercentWithContext(statCtx, 0, false); err == nil && len(pct) > 0 {
		report.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(statCtx); err == nil {
		report.MemoryPercent = vm.UsedPercent
	}

	if len(h.components) > 0 {
		report.Components = make(map[string]string, len(h.components))
		for name, status := range h.components {
			report.Components[name] = status()
		}
	}
	return report
}
