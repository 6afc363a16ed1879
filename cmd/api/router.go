package main

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/f0rbit/media-timeline/internal/httpapi"
)

// setupRouter lays out the full route surface behind the global
// middleware chain, following the teacher's cmd/api/router.go ordering:
// RequestID/RealIP/logger/Recoverer/Timeout, then CORS, then routes.
func setupRouter(c *Container) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpapi.RequestLogger(c.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   c.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Auth-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(httprate.Limit(
		c.Config.RateLimitRequests,
		time.Duration(c.Config.RateLimitWindowS)*time.Second,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	))

	r.Get("/health", c.Handlers.Health)
	r.Handle("/metrics", promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(c.Auth.RequireAuth)

		r.Get("/me", c.Handlers.Me)

		r.Route("/timeline", func(r chi.Router) {
			r.Get("/{user_id}", c.Handlers.GetTimeline)
			r.Get("/{user_id}/raw/{platform}", c.Handlers.GetRawSnapshot)
		})

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", c.Handlers.ListConnections)
			r.Post("/", c.Handlers.CreateConnection)
			r.Post("/refresh-all", c.Handlers.RefreshAllConnections)
			r.Patch("/{account_id}", c.Handlers.ToggleConnection)
			r.Delete("/{account_id}", c.Handlers.DeleteConnection)
			r.Post("/{account_id}/refresh", c.Handlers.RefreshConnection)
			r.Get("/{account_id}/settings", c.Handlers.GetConnectionSettings)
			r.Put("/{account_id}/settings", c.Handlers.PutConnectionSettings)
			r.Get("/{account_id}/repos", c.Handlers.GetConnectionRepos)
			r.Get("/{account_id}/subreddits", c.Handlers.GetConnectionSubreddits)
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", c.Handlers.ListProfiles)
			r.Post("/", c.Handlers.CreateProfile)
			r.Get("/{id}", c.Handlers.GetProfile)
			r.Patch("/{id}", c.Handlers.UpdateProfile)
			r.Delete("/{id}", c.Handlers.DeleteProfile)
			r.Get("/{id}/filters", c.Handlers.ListFilters)
			r.Post("/{id}/filters", c.Handlers.CreateFilter)
			r.Delete("/{id}/filters/{filter_id}", c.Handlers.DeleteFilter)
			r.Get("/{slug}/timeline", c.Handlers.GetProfileTimeline)
		})

		r.Route("/credentials/{platform}", func(r chi.Router) {
			r.Get("/", c.Handlers.GetCredential)
			r.Post("/", c.Handlers.UpsertCredential)
			r.Delete("/", c.Handlers.DeleteCredential)
		})
	})

	return r
}
