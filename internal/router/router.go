// Package router sets up all HTTP routes and middleware chains for the
// notemap API. Routes split into a public group (health, login) and the
// authenticated /api group.
package router

import (
	"context"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"notemap/internal/handlers"
	"notemap/internal/middleware"
	"notemap/internal/session"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. loginLimiter may be nil to disable login
// throttling; ping, when set, backs the health check.
func New(sessions session.Manager, auth *handlers.Auth, api *handlers.API, loginLimiter *middleware.RateLimiter, ping func(context.Context) error) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", handlers.Health(ping))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if loginLimiter != nil {
				r.Use(loginLimiter.Middleware)
			}
			r.Post("/auth/login", auth.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(sessions))

			r.Post("/auth/logout", auth.Logout)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", api.ListCategories)
				r.Post("/", api.CreateCategory)
				r.Get("/stats", api.CategoryStats)
				r.Get("/search", api.SearchCategories)
				r.Get("/{id}", api.GetCategory)
				r.Put("/{id}", api.UpdateCategory)
				r.Delete("/{id}", api.DeleteCategory)
				r.Get("/{id}/children", api.ListChildren)
			})

			r.Route("/notes", func(r chi.Router) {
				r.Get("/category/{id}", api.ListNotes)
				r.Post("/", api.CreateNote)
				r.Put("/{id}", api.UpdateNote)
				r.Delete("/{id}", api.DeleteNote)
			})

			r.Get("/metrics/category/{id}", api.CategoryMetrics)

			r.Post("/layout", api.Layout)
			r.Post("/size", api.ComputeSize)
			r.Get("/weights", api.GetWeights)
			r.Put("/weights", api.SetWeights)

			r.Post("/export/csv", api.ExportCSV)

			r.Get("/backups", api.ListBackups)
			r.Post("/backups", api.RunBackup)
			r.Get("/backups/{id}/download", api.DownloadBackup)
		})
	})

	return r
}
