package router

import (
	"net/http"

	"resize-orchestrator/internal/http-server/handler/job"
	"resize-orchestrator/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/wb-go/wbf/zlog"
)

type Handler struct {
	JobHandler *job.JobHandler
}

func SetupRouter(h *Handler, logger *zlog.Zerolog) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/asset", h.JobHandler.SelectAsset)
		r.Put("/parameters", h.JobHandler.SetParameters)
		r.Put("/ui", h.JobHandler.SetUI)
		r.Post("/jobs", h.JobHandler.Submit)

		r.Get("/state", h.JobHandler.GetState)
		r.Delete("/state", h.JobHandler.ClearState)

		r.Get("/health", h.JobHandler.Health)
	})

	return r
}
