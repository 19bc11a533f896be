package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ugclabs/innova/internal/config"
	"github.com/ugclabs/innova/internal/database"
	"github.com/ugclabs/innova/internal/modules/jobs"
	"github.com/ugclabs/innova/internal/session"
)

// Version is the reported application version.
const Version = "1.0.0"

var knownJobs = []string{"history_retention", "backup", "session_prune"}

// SystemHandlers exposes health and runtime information endpoints.
type SystemHandlers struct {
	cfg       *config.Config
	databases map[string]*database.DB
	runs      *jobs.HistoryRepository
	sessions  *session.Manager
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(cfg *config.Config, databases map[string]*database.DB, runs *jobs.HistoryRepository, sessions *session.Manager, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		cfg:       cfg,
		databases: databases,
		runs:      runs,
		sessions:  sessions,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// HandleHealth handles GET /api/system/health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"

	dbStatus := make(map[string]string, len(h.databases))
	for name, db := range h.databases {
		if db == nil {
			dbStatus[name] = "not configured"
			status = "degraded"
			continue
		}
		if err := db.Conn().Ping(); err != nil {
			dbStatus[name] = err.Error()
			status = "degraded"
			continue
		}
		dbStatus[name] = "ok"
	}

	cpuPercent, memPercent := systemUsage(h.log)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      status,
		"databases":   dbStatus,
		"cpu_percent": cpuPercent,
		"mem_percent": memPercent,
		"uptime_s":    int(time.Since(h.startedAt).Seconds()),
	})
}

// HandleInfo handles GET /api/system/info
func (h *SystemHandlers) HandleInfo(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":     "innova",
		"version":  Version,
		"timezone": h.cfg.Timezone,
		"data_dir": h.cfg.DataDir,
		"sessions": h.sessions.Count(),
	})
}

// HandleJobs handles GET /api/system/jobs. An optional job query parameter
// narrows the listing to a single job name.
func (h *SystemHandlers) HandleJobs(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	names := knownJobs
	if job := r.URL.Query().Get("job"); job != "" {
		names = []string{job}
	}

	result := make(map[string][]jobs.Run, len(names))
	for _, name := range names {
		runs, err := h.runs.Recent(name, limit)
		if err != nil {
			h.log.Error().Err(err).Str("job", name).Msg("Failed to load job history")
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{
				"detail": "No se pudo cargar el historial de trabajos",
			})
			return
		}
		result[name] = runs
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": result})
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

// systemUsage samples CPU and memory utilisation. Failures degrade to zero
// rather than failing the health check.
func systemUsage(log zerolog.Logger) (float64, float64) {
	var cpuAvg, memUsed float64

	if percents, err := cpu.Percent(100*time.Millisecond, false); err != nil {
		log.Warn().Err(err).Msg("Failed to sample CPU usage")
	} else if len(percents) > 0 {
		cpuAvg = percents[0]
	}

	if memStat, err := mem.VirtualMemory(); err != nil {
		log.Warn().Err(err).Msg("Failed to sample memory usage")
	} else {
		memUsed = memStat.UsedPercent
	}

	return cpuAvg, memUsed
}
