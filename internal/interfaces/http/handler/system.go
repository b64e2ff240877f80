package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/leasing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Pinger is a dependency that can report its reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// Component states reported by the health endpoint
const (
	StatusUp       = "up"
	StatusDown     = "down"
	StatusDisabled = "disabled"
)

// SystemHandler serves the health endpoint
type SystemHandler struct {
	BaseHandler
	db        Pinger
	redis     Pinger
	version   string
	startTime time.Time
	timeout   time.Duration
}

// NewSystemHandler creates a SystemHandler. redis may be nil when the
// idempotency store runs in memory.
func NewSystemHandler(db, redis Pinger, version string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		redis:     redis,
		version:   version,
		startTime: time.Now(),
		timeout:   2 * time.Second,
	}
}

// HealthResponse reports service and dependency status
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
}

// Health reports database and Redis status.
// A database outage returns 503; a Redis outage only degrades the service.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:   "ok",
		Database: pingStatus(ctx, h.db),
		Redis:    pingStatus(ctx, h.redis),
		Version:  h.version,
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
	}

	status := http.StatusOK
	switch {
	case resp.Database != StatusUp:
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	case resp.Redis == StatusDown:
		resp.Status = "degraded"
	}
	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}

func pingStatus(ctx context.Context, p Pinger) string {
	if p == nil {
		return StatusDisabled
	}
	if err := p.Ping(ctx); err != nil {
		return StatusDown
	}
	return StatusUp
}
