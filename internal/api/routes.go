package api

import "github.com/go-chi/chi/v5"

func RegisterRoutes(mux *chi.Mux, h *Handlers) {
	mux.Get("/healthz", h.Health)
	mux.Get("/version", h.Version)

	mux.Get("/api/models", h.ListModels)
	// model ids contain slashes, e.g. deepseek/deepseek-prover-v2:free
	mux.Get("/api/models/*", h.CheckModel)

	mux.Route("/api/history", func(r chi.Router) {
		r.Get("/", h.ListHistory)
		r.Post("/", h.SaveHistory)
		r.Delete("/", h.ClearHistory)
		r.Get("/{id}", h.GetHistory)
		r.Delete("/{id}", h.DeleteHistory)
	})

	if h.Admin != nil {
		mux.Get("/api/diagnostics", h.Admin.Diagnostics)
	}
}
