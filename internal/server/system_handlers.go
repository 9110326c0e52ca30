package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers serves health and process status endpoints.
type SystemHandlers struct {
	db      *sql.DB
	started time.Time
	log     zerolog.Logger
}

// NewSystemHandlers creates the system handlers.
func NewSystemHandlers(log zerolog.Logger, db *sql.DB) *SystemHandlers {
	return &SystemHandlers{
		db:      db,
		started: time.Now(),
		log:     log.With().Str("handler", "system").Logger(),
	}
}

// HandleHealth handles GET /api/health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			h.log.Error().Err(err).Msg("Database ping failed")
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	h.writeJSON(w, code, map[string]string{"status": status})
}

// HandleStatus handles GET /api/system/status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
	}

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		resp["cpu_percent"] = cpuPercent[0]
	}
	if memStat, err := mem.VirtualMemory(); err == nil {
		resp["memory_percent"] = memStat.UsedPercent
		resp["memory_used_mb"] = memStat.Used / 1024 / 1024
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
