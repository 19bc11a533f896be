// Package handlers provides HTTP handlers for the Fase 2 EBCT assessment.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ugclabs/innova/internal/events"
	"github.com/ugclabs/innova/internal/modules/ebct"
	"github.com/ugclabs/innova/internal/session"
)

// Handler handles EBCT HTTP requests
type Handler struct {
	service  *ebct.Service
	repo     *ebct.Repository
	bus      *events.Bus
	location *time.Location
	log      zerolog.Logger
}

// NewHandler creates a new EBCT handler
func NewHandler(service *ebct.Service, repo *ebct.Repository, bus *events.Bus, location *time.Location, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		repo:     repo,
		bus:      bus,
		location: location,
		log:      log.With().Str("handler", "ebct").Logger(),
	}
}

// HandleCatalog handles GET /api/ebct/catalog
func (h *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Catalog())
}

// HandleGetResponses handles GET /api/ebct/responses
func (h *Handler) HandleGetResponses(w http.ResponseWriter, r *http.Request) {
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
		"respuestas":    s.EBCTDraft,
	})
}

type responseRequest struct {
	Status ebct.Status `json:"cumple"`
}

// HandlePutResponse handles PUT /api/ebct/responses/{charID}
// Updates one characteristic in the session draft; nothing is persisted
// until POST /save.
func (h *Handler) HandlePutResponse(w http.ResponseWriter, r *http.Request) {
	charID, err := strconv.Atoi(chi.URLParam(r, "charID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Identificador de característica inválido")
		return
	}

	var req responseRequest
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

	if err := h.service.ValidateResponse(charID, req.Status); err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.EBCTDraft[charID] = req.Status
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"caracteristica_id": charID,
		"cumple":            req.Status,
		"etiqueta":          req.Status.Label(),
	})
}

// HandleReset handles POST /api/ebct/reset
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	s.Lock()
	defer s.Unlock()

	if _, err := s.RequireProject(); err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}

	s.EBCTDraft = make(map[int]ebct.Status)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"respuestas": s.EBCTDraft})
}

// HandlePanel handles GET /api/ebct/panel
// Returns the per-phase progress panel for the session draft.
func (h *Handler) HandlePanel(w http.ResponseWriter, r *http.Request) {
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
		"fases":         h.service.PhaseSummaries(s.EBCTDraft),
		"global":        h.service.GlobalPercentage(s.EBCTDraft),
	})
}

// HandleSave handles POST /api/ebct/save
// Persists the draft as a full 34-row evaluation group.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	s.Lock()
	defer s.Unlock()

	projectID, err := s.RequireProject()
	if err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}

	evaluatedAt, err := h.repo.SaveEvaluation(projectID, s.EBCTDraft, time.Now().In(h.location))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "No se pudo guardar la evaluación: "+err.Error())
		return
	}

	h.bus.Publish(&events.EBCTSavedData{
		ProjectID:       projectID,
		Characteristics: len(h.service.Catalog().Characteristics),
	})

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id_innovacion": projectID,
		"fecha_eval":    evaluatedAt,
		"fases":         h.service.PhaseSummaries(s.EBCTDraft),
	})
}

// HandleHistory handles GET /api/ebct/history/{projectID}
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

// HandleLatest handles GET /api/ebct/latest/{projectID}
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.Atoi(chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Identificador de proyecto inválido")
		return
	}

	responses, evaluatedAt, err := h.repo.LatestResponses(projectID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "No se pudo leer el historial: "+err.Error())
		return
	}
	if len(responses) == 0 {
		h.writeError(w, http.StatusNotFound, "El proyecto no tiene evaluaciones EBCT guardadas")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id_innovacion": projectID,
		"fecha_eval":    evaluatedAt,
		"respuestas":    responses,
		"fases":         h.service.PhaseSummaries(responses),
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
