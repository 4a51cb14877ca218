package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// System metrics (no auth required for basic monitoring)
		r.Get("/metrics", s.handleMetrics)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Account endpoints
			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/password", s.handleChangePassword)

			// WS ticket requires authentication - user must be logged in to request a ticket
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			// Per-user service token store (OAuth-backed services)
			r.Route("/auth/services", func(r chi.Router) {
				r.Get("/", s.handleListServiceTokens)
				r.Put("/{service}", s.handlePutServiceToken)
				r.Delete("/{service}", s.handleDeleteServiceToken)
			})

			// Service catalogue
			r.Get("/services", s.handleListServices)

			// Area endpoints
			r.Route("/areas", func(r chi.Router) {
				r.Get("/", s.handleListAreas)
				r.Post("/", s.handleCreateArea)
				r.Get("/public", s.handleListPublicAreas)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetArea)
					r.Delete("/", s.handleDeleteArea)
					r.Patch("/enable", s.handleEnableArea)
					r.Patch("/disable", s.handleDisableArea)
					r.Post("/publish", s.handlePublishArea)
					r.Post("/copy", s.handleCopyArea)
				})
			})

			// WebSocket (auth via ticket, validated in handler)
			r.Get("/ws", s.handleWebSocket)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)

				// Trigger processing (external job runners, operational poking)
				r.Post("/process", s.handleProcess)

				// User management
				r.Route("/users", func(r chi.Router) {
					r.Get("/", s.handleListUsers)
					r.Post("/", s.handleCreateUser)
					r.Patch("/{id}", s.handleUpdateUser)
					r.Delete("/{id}", s.handleDeleteUser)
				})
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
