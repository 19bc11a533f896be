package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers all maturity routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/maturity", func(r chi.Router) {
		r.Get("/catalog", h.HandleCatalog)
		r.Post("/select-project", h.HandleSelectProject)
		r.Get("/state", h.HandleState)
		r.Post("/level", h.HandleSubmitLevel)
		r.Post("/level/edit", h.HandleEditLevel)
		r.Post("/level/cancel", h.HandleCancelLevel)
		r.Post("/level/review", h.HandleToggleReview)
		r.Get("/scores", h.HandleScores)
		r.Post("/save", h.HandleSave)
		r.Get("/history/{projectID}", h.HandleHistory)
		r.Get("/latest/{projectID}", h.HandleLatest)
	})
}
