package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers all scoring routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/scoring", func(r chi.Router) {
		r.Get("/tables", h.HandleGetTables)
		r.Put("/tables", h.HandlePutTables)
		r.Post("/calculate", h.HandleCalculate)
		r.Get("/ranking", h.HandleGetRanking)
		r.Get("/candidates", h.HandleGetCandidates)
		r.Get("/summary", h.HandleGetSummary)
	})
}
