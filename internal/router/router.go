// Package router sets up all HTTP routes and middleware chains for the
// Listora API. It organizes routes into public and admin groups with
// appropriate middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"listora/internal/handlers"
	"listora/internal/middleware"
	"listora/internal/session"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. loginLimiter throttles login attempts per
// client IP; secure marks CSRF cookies HTTPS-only.
func New(sessionStore *session.Store, admin *handlers.Admin, auth *handlers.Auth, public *handlers.Public, loginLimiter *middleware.RateLimiter, secure bool) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))
	r.Use(middleware.NewCSRF(secure))

	// Health check — no auth.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		// Auth
		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimiter.Middleware).Post("/login", auth.Login)
			r.Post("/logout", auth.Logout)
			r.Get("/me", auth.Me)
		})

		// Public browsing — anonymous allowed, lock state depends on the
		// session if one is present.
		r.Get("/categories", public.ListCategories)
		r.Get("/listings", public.ListListings)
		r.Get("/listings/{slug}", public.GetListing)
		r.Get("/listings/{slug}/presentation", public.GetPresentation)
		r.Get("/attachments/{id}", public.GetAttachment)

		// Management API — admins only.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireViewer)
			r.Use(middleware.RequireAdmin)

			r.Get("/", admin.Dashboard)

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", admin.TemplatesList)
				r.Post("/", admin.TemplateCreate)
				r.Get("/{id}", admin.TemplateGet)
				r.Put("/{id}", admin.TemplateUpdate)
				r.Delete("/{id}", admin.TemplateDelete)
				r.Post("/{id}/activate", admin.TemplateActivate)
			})

			r.Route("/listings", func(r chi.Router) {
				r.Get("/", admin.ListingsList)
				r.Post("/", admin.ListingCreate)
				r.Put("/{id}", admin.ListingUpdate)
				r.Delete("/{id}", admin.ListingDelete)
				r.Post("/{id}/attachments", admin.AttachmentUpload)
			})

			r.Delete("/attachments/{id}", admin.AttachmentDelete)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", admin.UsersList)
				r.Put("/{id}/premium", admin.UserSetPremium)
				r.Get("/{id}/grants", admin.GrantsList)
				r.Put("/{id}/grants", admin.GrantUpsert)
				r.Delete("/{id}/grants/{category}", admin.GrantDelete)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
