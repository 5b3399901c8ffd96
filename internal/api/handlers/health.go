package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthMemory is the host memory portion of the health response.
type HealthMemory struct {
	TotalMB     float64 `json:"totalMb"`
	UsedMB      float64 `json:"usedMb"`
	UsedPercent float64 `json:"usedPercent"`
}

// HealthCPU is the host-wide CPU portion of the health response.
type HealthCPU struct {
	NumCPU      int     `json:"numCpu"`
	UsedPercent float64 `json:"usedPercent"`
}

// HealthSourceSummary is one source's compact status, for the §6
// "compact cache and breaker summary" the /health endpoint carries.
type HealthSourceSummary struct {
	Source  string `json:"source"`
	HasData bool   `json:"hasData"`
	IsFresh bool   `json:"isFresh"`
	Breaker string `json:"breaker"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string                `json:"status"`
	UptimeSeconds int64                 `json:"uptimeSeconds"`
	Goroutines    int                   `json:"goroutines"`
	CPU           HealthCPU             `json:"cpu"`
	Memory        HealthMemory          `json:"memory"`
	Sources       []HealthSourceSummary `json:"sources"`
}

// Health godoc
// @Summary Process health plus a compact per-source cache/breaker summary
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	uptime := time.Since(h.startTime)

	memStats := HealthMemory{}
	if vm, err := mem.VirtualMemory(); err == nil {
		memStats.TotalMB = float64(vm.Total) / 1024 / 1024
		memStats.UsedMB = float64(vm.Used) / 1024 / 1024
		memStats.UsedPercent = vm.UsedPercent
	}

	cpuStats := HealthCPU{NumCPU: runtime.NumCPU()}
	if pct, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(pct) > 0 {
		cpuStats.UsedPercent = pct[0]
	}

	views := h.agg.CacheStatus()
	summaries := make([]HealthSourceSummary, 0, len(views))
	for _, v := range views {
		summaries = append(summaries, HealthSourceSummary{
			Source:  string(v.Source),
			HasData: v.HasData,
			IsFresh: v.IsFresh,
			Breaker: v.Breaker.State,
		})
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(uptime.Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		CPU:           cpuStats,
		Memory:        memStats,
		Sources:       summaries,
	})
}
