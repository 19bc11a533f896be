// Package handlers provides HTTP handlers for the evaluation dashboards.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ugclabs/innova/internal/modules/dashboard"
)

// Handler handles dashboard HTTP requests
type Handler struct {
	service *dashboard.Service
	log     zerolog.Logger
}

// NewHandler creates a new dashboard handler
func NewHandler(service *dashboard.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "dashboard").Logger(),
	}
}

// HandleRadar handles GET /api/dashboard/radar/{projectID}
func (h *Handler) HandleRadar(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.Atoi(chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Identificador de proyecto inválido")
		return
	}

	radar, err := h.service.Radar(projectID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "No se pudo construir el radar: "+err.Error())
		return
	}
	if radar == nil {
		h.writeError(w, http.StatusNotFound, "El proyecto no tiene evaluaciones guardadas")
		return
	}

	h.writeJSON(w, http.StatusOK, radar)
}

// HandleHeatmap handles GET /api/dashboard/heatmap
func (h *Handler) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Heatmap()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "No se pudo construir el mapa de calor: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"filas": rows,
		"total": len(rows),
	})
}

// HandleSummary handles GET /api/dashboard/summary
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "No se pudo construir el resumen: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
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
