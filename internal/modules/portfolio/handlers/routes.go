package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Put("/", h.HandleReplace)
		r.Post("/seed", h.HandleSeed)
		r.Post("/import", h.HandleImport)
		r.Get("/export", h.HandleExport)
		r.Get("/template", h.HandleTemplate)
		r.Get("/template/instructions", h.HandleTemplateInstructions)
	})
}
