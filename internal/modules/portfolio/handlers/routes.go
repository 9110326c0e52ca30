package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Route("/positions", func(r chi.Router) {
			r.Post("/", h.HandleAddPosition)
			r.Delete("/", h.HandleClear)
			r.Put("/{symbol}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleUpdatePosition(w, r, chi.URLParam(r, "symbol"))
			})
			r.Delete("/{symbol}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleRemovePosition(w, r, chi.URLParam(r, "symbol"))
			})
		})

		r.Get("/holdings", h.HandleGetHoldings)
		r.Get("/history", h.HandleGetHistory)
		r.Get("/risk", h.HandleGetRisk)
		r.Get("/correlations", h.HandleGetCorrelations)
		r.Put("/benchmark", h.HandleSetBenchmark)

		r.Get("/export", h.HandleExport)
		r.Post("/import", h.HandleImport)

		r.Post("/save", h.HandleSave)
		r.Get("/saved", h.HandleListSaved)
		r.Post("/load/{name}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleLoad(w, r, chi.URLParam(r, "name"))
		})
		r.Delete("/saved/{name}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleDeleteSaved(w, r, chi.URLParam(r, "name"))
		})
	})
}
