package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers all dashboard routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/radar/{projectID}", h.HandleRadar)
		r.Get("/heatmap", h.HandleHeatmap)
		r.Get("/summary", h.HandleSummary)
	})
}
