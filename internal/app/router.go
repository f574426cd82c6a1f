package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/tempizhere/shortify/internal/metrics"
	"github.com/tempizhere/shortify/internal/middleware"
)

// NewRouter собирает маршруты HTTP API.
// Сессионная идентификация нужна только эндпоинтам, которые создают ссылки или работают с учётной записью.
func NewRouter(a *App, subnet *middleware.TrustedSubnet) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.LoggingMiddleware(a.logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.MetricsMiddleware)

	r.Get("/ping", a.HandlePing)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.GzipMiddleware)

		r.Get("/{short_url}", a.HandleRedirect)
		r.Get("/api/id/{short_id}/", a.HandleLookupLink)

		r.With(middleware.TrustedSubnetMiddleware(subnet, a.logger)).
			Get("/api/internal/stats", a.HandleStats)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(a.tokens, a.logger))

			r.Post("/api/id/", a.HandleCreateLink)

			r.Route("/api/user/urls", func(r chi.Router) {
				r.Get("/", a.HandleUserLinks)
				r.Patch("/{id}", a.HandleUpdateLink)
				r.Delete("/{id}", a.HandleDeleteLink)
			})

			r.Route("/api/accounts", func(r chi.Router) {
				r.Post("/register", a.HandleRegister)
				r.Post("/login", a.HandleLogin)
				r.Post("/logout", a.HandleLogout)
				r.Get("/verify-email", a.HandleVerifyEmail)
				r.Post("/resend-verification", a.HandleResendVerification)
				r.Post("/forgot-password", a.HandleForgotPassword)
				r.Post("/reset-password", a.HandleResetPassword)
				r.Patch("/profile", a.HandleUpdateProfile)
				r.Patch("/password", a.HandleChangePassword)
				r.Patch("/email", a.HandleChangeEmail)
			})
		})
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}
