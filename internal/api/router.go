package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reedfamily/reedbot/internal/auth"
)

type Routes struct {
	Stats   *StatsHandler
	Restart *RestartHandler
	// Auth guards the restart endpoints. They are not mounted without it.
	Auth *auth.Service
}

func NewRouter(rt Routes) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", rt.Stats.Status)
		r.Get("/presence/live", rt.Stats.Live)

		if rt.Auth != nil && rt.Restart != nil {
			r.Group(func(r chi.Router) {
				r.Use(AuthMiddleware(rt.Auth))

				r.Get("/restart", rt.Restart.Get)
				r.Post("/restart", rt.Restart.Start)
				r.Post("/cancel", rt.Restart.Cancel)
			})
		}
	})

	return r
}
