// Package handlers provides HTTP handlers for the Fase 1 maturity evaluation.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ugclabs/innova/internal/events"
	"github.com/ugclabs/innova/internal/modules/maturity"
	"github.com/ugclabs/innova/internal/modules/portfolio"
	"github.com/ugclabs/innova/internal/session"
)

// Handler handles maturity HTTP requests
type Handler struct {
	service       *maturity.Service
	repo          *maturity.Repository
	portfolioRepo *portfolio.Repository
	bus           *events.Bus
	location      *time.Location
	log           zerolog.Logger
}

// NewHandler creates a new maturity handler
func NewHandler(service *maturity.Service, repo *maturity.Repository, portfolioRepo *portfolio.Repository, bus *events.Bus, location *time.Location, log zerolog.Logger) *Handler {
	return &Handler{
		service:       service,
		repo:          repo,
		portfolioRepo: portfolioRepo,
		bus:           bus,
		location:      location,
		log:           log.With().Str("handler", "maturity").Logger(),
	}
}

// HandleCatalog handles GET /api/maturity/catalog
func (h *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Catalog())
}

type selectProjectRequest struct {
	ProjectID int `json:"id_innovacion"`
}

// HandleSelectProject handles POST /api/maturity/select-project
// Requires a calculated ranking; starts a fresh evaluation state for the
// chosen project.
func (h *Handler) HandleSelectProject(w http.ResponseWriter, r *http.Request) {
	var req selectProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Cuerpo de solicitud inválido: "+err.Error())
		return
	}

	s := session.FromContext(r.Context())
	s.Lock()
	defer s.Unlock()

	if err := s.RequireRanking(); err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}

	project, err := h.portfolioRepo.GetByID(req.ProjectID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "No se pudo leer el proyecto: "+err.Error())
		return
	}
	if project == nil {
		h.writeError(w, http.StatusNotFound, "Proyecto no encontrado")
		return
	}

	s.SelectProject(req.ProjectID, h.service.NewState())
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"proyecto": project,
	})
}

// HandleState handles GET /api/maturity/state
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	s.Lock()
	defer s.Unlock()

	projectID, err := s.RequireProject()
	if err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id_innovacion": projectID,
		"estado":        s.Maturity,
	})
}

type levelRequest struct {
	Dimension string `json:"dimension"`
	Level     int    `json:"nivel"`
	maturity.Submission
}

// HandleSubmitLevel handles POST /api/maturity/level
func (h *Handler) HandleSubmitLevel(w http.ResponseWriter, r *http.Request) {
	var req levelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Cuerpo de solicitud inválido: "+err.Error())
		return
	}

	s := session.FromContext(r.Context())
	s.Lock()
	defer s.Unlock()

	if _, err := s.RequireProject(); err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}

	err := h.service.Submit(s.Maturity, req.Dimension, req.Level, req.Submission)
	switch {
	case errors.Is(err, maturity.ErrUnknownLevel):
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, maturity.ErrEvidenceRequired), errors.Is(err, maturity.ErrAnswerRequired):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	achieved := h.service.AchievedLevel(s.Maturity, req.Dimension)
	h.bus.Publish(&events.LevelSavedData{
		Dimension: req.Dimension,
		Level:     req.Level,
		Achieved:  achieved,
	})

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"nivel":           s.Maturity.Level(req.Dimension, req.Level),
		"nivel_alcanzado": achieved,
	})
}

// HandleEditLevel handles POST /api/maturity/level/edit
func (h *Handler) HandleEditLevel(w http.ResponseWriter, r *http.Request) {
	h.levelAction(w, r, h.service.Edit)
}

// HandleCancelLevel handles POST /api/maturity/level/cancel
func (h *Handler) HandleCancelLevel(w http.ResponseWriter, r *http.Request) {
	h.levelAction(w, r, h.service.CancelEdit)
}

// HandleToggleReview handles POST /api/maturity/level/review
func (h *Handler) HandleToggleReview(w http.ResponseWriter, r *http.Request) {
	h.levelAction(w, r, h.service.ToggleReview)
}

func (h *Handler) levelAction(w http.ResponseWriter, r *http.Request, action func(*maturity.State, string, int) error) {
	var req levelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Cuerpo de solicitud inválido: "+err.Error())
		return
	}

	s := session.FromContext(r.Context())
	s.Lock()
	defer s.Unlock()

	if _, err := s.RequireProject(); err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}

	if err := action(s.Maturity, req.Dimension, req.Level); err != nil {
		if errors.Is(err, maturity.ErrUnknownLevel) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"nivel": s.Maturity.Level(req.Dimension, req.Level),
	})
}

// HandleScores handles GET /api/maturity/scores
func (h *Handler) HandleScores(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	s.Lock()
	defer s.Unlock()

	if _, err := s.RequireProject(); err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}

	scores := h.service.Scores(s.Maturity)

	var global *float64
	if mean, ok := h.service.GlobalScore(scores); ok {
		global = &mean
	}

	counts := make(map[string]maturity.Counts, len(scores))
	badges := make(map[string]string, len(scores))
	for _, dim := range h.service.Catalog().IDs() {
		c := h.service.DimensionCounts(s.Maturity, dim)
		counts[dim] = c
		badges[dim] = maturity.Badge(c)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"niveles":    scores,
		"trl_global": global,
		"conteos":    counts,
		"insignias":  badges,
	})
}

// HandleSave handles POST /api/maturity/save
// Persists the session's evaluation to history with a shared timestamp.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	s.Lock()
	defer s.Unlock()

	projectID, err := s.RequireProject()
	if err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}

	scores := h.service.Scores(s.Maturity)
	global, ok := h.service.GlobalScore(scores)
	if !ok {
		h.writeError(w, http.StatusUnprocessableEntity,
			"No hay niveles guardados en cálculo: guarda al menos un nivel antes de persistir la evaluación")
		return
	}

	results := h.service.Results(s.Maturity)
	evaluatedAt, err := h.repo.SaveResult(projectID, results, global, time.Now().In(h.location))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "No se pudo guardar la evaluación: "+err.Error())
		return
	}

	h.bus.Publish(&events.MaturitySavedData{ProjectID: projectID, GlobalScore: &global})
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id_innovacion": projectID,
		"fecha_eval":    evaluatedAt,
		"trl_global":    global,
		"resultados":    results,
	})
}

// HandleHistory handles GET /api/maturity/history/{projectID}
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.Atoi(chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Identificador de proyecto inválido")
		return
	}

	rows, err := h.repo.GetHistory(projectID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "No se pudo leer el historial: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id_innovacion": projectID,
		"historial":     rows,
	})
}

// HandleLatest handles GET /api/maturity/latest/{projectID}
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.Atoi(chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Identificador de proyecto inválido")
		return
	}

	rows, evaluatedAt, err := h.repo.GetLatest(projectID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "No se pudo leer el historial: "+err.Error())
		return
	}
	if len(rows) == 0 {
		h.writeError(w, http.StatusNotFound, "El proyecto no tiene evaluaciones guardadas")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id_innovacion": projectID,
		"fecha_eval":    evaluatedAt,
		"resultados":    rows,
	})
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
