package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const healthPingTimeout = 2 * time.Second

// PingFunc checks a backing service. A nil PingFunc reports "memory".
type PingFunc func(ctx context.Context) error

// SystemHandler reports liveness and a few Go runtime figures.
type SystemHandler struct {
	startTime time.Time
	backend   string
	ping      PingFunc
	log       zerolog.Logger
}

func NewSystemHandler(backend string, ping PingFunc, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		backend:   backend,
		ping:      ping,
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthReport struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	SessionBackend string `json:"session_backend"`
	SessionStore   string `json:"session_store"`

	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
}

// Health godoc
// GET /health
// 503 when the session store does not answer.
func (h *SystemHandler) Health(c *gin.Context) {
	report := h.collect()

	status := http.StatusOK
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			h.log.Warn().Err(err).Str("backend", h.backend).Msg("Session store ping failed")
			report.Status = "degraded"
			report.SessionStore = "down"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, report)
}

func (h *SystemHandler) collect() healthReport {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return healthReport{
		Status:         "ok",
		Timestamp:      time.Now().Unix(),
		Uptime:         formatDuration(time.Since(h.startTime)),
		SessionBackend: h.backend,
		SessionStore:   "up",
		Goroutines:     runtime.NumGoroutine(),
		HeapAlloc:      ms.HeapAlloc,
		NumGC:          ms.NumGC,
		GoVersion:      runtime.Version(),
	}
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
