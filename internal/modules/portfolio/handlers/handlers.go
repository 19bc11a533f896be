// Package handlers provides HTTP handlers for the project portfolio.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ugclabs/innova/internal/events"
	"github.com/ugclabs/innova/internal/modules/portfolio"
	"github.com/ugclabs/innova/internal/modules/scoring"
	"github.com/ugclabs/innova/internal/session"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	repo *portfolio.Repository
	bus  *events.Bus
	log  zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(repo *portfolio.Repository, bus *events.Bus, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		bus:  bus,
		log:  log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleList handles GET /api/portfolio
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	projects, err := h.repo.FetchAll()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "No se pudo leer el portafolio: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"proyectos": projects,
		"total":     len(projects),
	})
}

// HandleReplace handles PUT /api/portfolio
func (h *Handler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	var projects []portfolio.Project
	if err := json.NewDecoder(r.Body).Decode(&projects); err != nil {
		h.writeError(w, http.StatusBadRequest, "Cuerpo de solicitud inválido: "+err.Error())
		return
	}

	for i := range projects {
		projects[i].Normalize()
	}

	if err := h.repo.ReplaceAll(projects); err != nil {
		h.writeError(w, http.StatusInternalServerError, "No se pudo guardar el portafolio: "+err.Error())
		return
	}

	h.bus.Publish(&events.PortfolioReplacedData{Rows: len(projects), Source: "save"})
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"guardados": len(projects)})
}

// HandleSeed handles POST /api/portfolio/seed
func (h *Handler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	seeded, err := h.repo.SeedIfEmpty()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "No se pudo precargar el portafolio: "+err.Error())
		return
	}

	if seeded {
		h.bus.Publish(&events.PortfolioReplacedData{Rows: len(portfolio.SeedProjects()), Source: "seed"})
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"precargado": seeded})
}

// HandleImport handles POST /api/portfolio/import?mode=replace|append
// The request body is the raw CSV file.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	mode := portfolio.ImportMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = portfolio.ImportReplace
	}
	if mode != portfolio.ImportReplace && mode != portfolio.ImportAppend {
		h.writeError(w, http.StatusBadRequest, "Modo de importación inválido: "+string(mode))
		return
	}

	catalogs := scoring.DefaultTables().CatalogOptions()
	if s := session.FromContext(r.Context()); s != nil {
		s.Lock()
		catalogs = s.Tables.CatalogOptions()
		s.Unlock()
	}

	importer := portfolio.NewImporter(h.repo)
	result, err := importer.Import(r.Body, mode, catalogs)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "Archivo CSV inválido: "+err.Error())
		return
	}

	h.log.Info().
		Int("rows", result.Rows).
		Str("mode", string(mode)).
		Msg("Portfolio import completed")

	h.bus.Publish(&events.PortfolioReplacedData{Rows: result.Rows, Source: "import"})
	h.writeJSON(w, http.StatusOK, result)
}

// HandleExport handles GET /api/portfolio/export
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	projects, err := h.repo.FetchAll()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "No se pudo leer el portafolio: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="innovaciones.csv"`)
	if err := portfolio.Export(w, projects); err != nil {
		h.log.Error().Err(err).Msg("Failed to stream portfolio export")
	}
}

// HandleTemplate handles GET /api/portfolio/template
func (h *Handler) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="plantilla_innovaciones.csv"`)
	if err := portfolio.WriteTemplate(w); err != nil {
		h.log.Error().Err(err).Msg("Failed to stream portfolio template")
	}
}

// HandleTemplateInstructions handles GET /api/portfolio/template/instructions
func (h *Handler) HandleTemplateInstructions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"instrucciones": portfolio.TemplateInstructions(),
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
