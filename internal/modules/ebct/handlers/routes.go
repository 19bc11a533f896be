package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers all EBCT routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ebct", func(r chi.Router) {
		r.Get("/catalog", h.HandleCatalog)
		r.Get("/responses", h.HandleGetResponses)
		r.Put("/responses/{charID}", h.HandlePutResponse)
		r.Post("/reset", h.HandleReset)
		r.Get("/panel", h.HandlePanel)
		r.Post("/save", h.HandleSave)
		r.Get("/history/{projectID}", h.HandleHistory)
		r.Get("/latest/{projectID}", h.HandleLatest)
	})
}
