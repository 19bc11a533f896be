// Package handlers provides HTTP handlers for the Fase 0 candidate ranking.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ugclabs/innova/internal/events"
	"github.com/ugclabs/innova/internal/modules/portfolio"
	"github.com/ugclabs/innova/internal/modules/scoring"
	"github.com/ugclabs/innova/internal/session"
)

// Handler handles scoring HTTP requests
type Handler struct {
	service  *scoring.Service
	repo     *portfolio.Repository
	bus      *events.Bus
	location *time.Location
	log      zerolog.Logger
}

// NewHandler creates a new scoring handler
func NewHandler(service *scoring.Service, repo *portfolio.Repository, bus *events.Bus, location *time.Location, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		repo:     repo,
		bus:      bus,
		location: location,
		log:      log.With().Str("handler", "scoring").Logger(),
	}
}

func (h *Handler) today() time.Time {
	return time.Now().In(h.location)
}

// HandleGetTables handles GET /api/scoring/tables
func (h *Handler) HandleGetTables(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	s.Lock()
	defer s.Unlock()

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tablas":   s.Tables,
		"umbrales": s.Thresholds,
	})
}

// HandlePutTables handles PUT /api/scoring/tables
// Replaces the session's score tables; thresholds are re-derived (clamped
// non-decreasing) from the evaluacion table.
func (h *Handler) HandlePutTables(w http.ResponseWriter, r *http.Request) {
	var tables scoring.Tables
	if err := json.NewDecoder(r.Body).Decode(&tables); err != nil {
		h.writeError(w, http.StatusBadRequest, "Cuerpo de solicitud inválido: "+err.Error())
		return
	}

	s := session.FromContext(r.Context())
	s.Lock()
	defer s.Unlock()

	s.Tables = tables
	s.Thresholds = tables.Thresholds()
	// A ranking computed with the old tables is stale
	s.Ranking = nil
	s.RankingSummary = nil

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tablas":   s.Tables,
		"umbrales": s.Thresholds,
	})
}

// HandleCalculate handles POST /api/scoring/calculate
// Ranks the portfolio with the session's tables and persists the computed
// score and recommendation columns.
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	projects, err := h.repo.FetchAll()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "No se pudo leer el portafolio: "+err.Error())
		return
	}
	if len(projects) == 0 {
		h.writeError(w, http.StatusConflict, "El portafolio está vacío: carga proyectos antes de calcular el ranking")
		return
	}

	s.Lock()
	tables := s.Tables
	s.Unlock()

	ranked, summary := h.service.Rank(projects, tables, h.today())

	if err := h.repo.ReplaceAll(scoring.Apply(projects, ranked)); err != nil {
		h.writeError(w, http.StatusInternalServerError, "No se pudo persistir el ranking: "+err.Error())
		return
	}

	s.Lock()
	s.Ranking = ranked
	s.RankingSummary = &summary
	s.Unlock()

	h.bus.Publish(&events.RankingCalculatedData{
		Projects:   summary.Projects,
		Candidates: summary.AboveMedia,
		TopScore:   summary.TopScore,
	})

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ranking": ranked,
		"resumen": summary,
	})
}

// HandleGetRanking handles GET /api/scoring/ranking
func (h *Handler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	s.Lock()
	defer s.Unlock()

	if err := s.RequireRanking(); err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ranking": s.Ranking,
		"resumen": s.RankingSummary,
	})
}

// HandleGetSummary handles GET /api/scoring/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	s.Lock()
	defer s.Unlock()

	if err := s.RequireRanking(); err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, s.RankingSummary)
}

// HandleGetCandidates handles GET /api/scoring/candidates
// Query params: impacto_min, puntaje_min, exigir_resp_in, exigir_abierto,
// excluir_cerrados. Unset params keep the Fase 0 defaults.
func (h *Handler) HandleGetCandidates(w http.ResponseWriter, r *http.Request) {
	opts := scoring.DefaultFilterOptions()
	q := r.URL.Query()

	if v := q.Get("impacto_min"); v != "" {
		opts.MinImpact = v
	}
	if v := q.Get("puntaje_min"); v != "" {
		min, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "puntaje_min inválido: "+v)
			return
		}
		opts.MinScore = min
	}
	var err error
	if opts.RequireLead, err = boolParam(q.Get("exigir_resp_in"), opts.RequireLead); err != nil {
		h.writeError(w, http.StatusBadRequest, "exigir_resp_in inválido")
		return
	}
	if opts.RequireOpen, err = boolParam(q.Get("exigir_abierto"), opts.RequireOpen); err != nil {
		h.writeError(w, http.StatusBadRequest, "exigir_abierto inválido")
		return
	}
	if opts.ExcludeClosed, err = boolParam(q.Get("excluir_cerrados"), opts.ExcludeClosed); err != nil {
		h.writeError(w, http.StatusBadRequest, "excluir_cerrados inválido")
		return
	}

	projects, err := h.repo.FetchAll()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "No se pudo leer el portafolio: "+err.Error())
		return
	}

	candidates := scoring.FilterCandidates(projects, opts, h.today())
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"candidatos": candidates,
		"total":      len(candidates),
		"filtros":    opts,
	})
}

func boolParam(value string, fallback bool) (bool, error) {
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, map[string]string{"detail": detail})
}
