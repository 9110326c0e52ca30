package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics/{symbol}", func(r chi.Router) {
		r.Get("/returns", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetReturns(w, r, chi.URLParam(r, "symbol"))
		})
		r.Get("/risk", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetRisk(w, r, chi.URLParam(r, "symbol"))
		})
		r.Get("/drawdown", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetDrawdown(w, r, chi.URLParam(r, "symbol"))
		})
	})
}
