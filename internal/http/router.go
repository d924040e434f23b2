package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/estuda/plannerd/internal/api"
	"github.com/estuda/plannerd/internal/auth"
	"github.com/estuda/plannerd/internal/config"
	"github.com/estuda/plannerd/internal/http/csrf"
	"github.com/estuda/plannerd/internal/http/ratelimit"
	"github.com/estuda/plannerd/internal/metrics"
	"github.com/estuda/plannerd/internal/planner"
	"github.com/estuda/plannerd/internal/store"
)

// NewRouter wires all HTTP routes for the planner API.
func NewRouter(cfg *config.Config, st *store.Store, svc *planner.Service, hub *planner.Hub, authService *auth.Service) http.Handler {
	r := chi.NewRouter()

	// Auth endpoints: 5 requests per second, burst of 10
	authRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(5), 10, 5*time.Minute, cfg.TrustedProxies)
	// API endpoints: 20 requests per second, burst of 50 (more permissive for sync clients)
	apiRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(20), 50, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	apiHandler := api.NewHandler(cfg, st, svc, hub, authService)

	r.Route("/auth", func(r chi.Router) {
		r.Use(authRateLimiter.Middleware())
		r.Post("/register", apiHandler.Register)
		r.Post("/login", apiHandler.Login)
		r.Post("/password-reset", apiHandler.RequestPasswordReset)
		r.Post("/password-reset/confirm", apiHandler.ConfirmPasswordReset)
		if authService.OIDCEnabled() {
			r.Get("/oidc", authService.BeginOIDC)
			r.Get("/oidc/callback", authService.HandleOIDCCallback)
		}
	})

	r.With(authService.RequireAuth, csrf.Middleware(cfg)).Post("/auth/logout", apiHandler.Logout)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		r.Use(authService.RequireAuth)
		r.Use(csrf.Middleware(cfg))

		r.Get("/account", apiHandler.Account)
		r.Get("/stream", apiHandler.Stream)

		r.Get("/subjects", apiHandler.ListSubjects)
		r.Post("/subjects", apiHandler.CreateSubject)
		r.Put("/subjects/{id}", apiHandler.UpdateSubject)
		r.Delete("/subjects/{id}", apiHandler.DeleteSubject)
		r.Get("/subjects/icons", apiHandler.SubjectIcons)

		r.Get("/subjects/{id}/checklist", apiHandler.ListChecklist)
		r.Get("/subjects/{id}/checklist/stream", apiHandler.StreamSubjectChecklist)
		r.Post("/subjects/{id}/checklist", apiHandler.CreateChecklistItem)
		r.Post("/subjects/{id}/checklist/{itemId}/toggle", apiHandler.ToggleChecklistItem)
		r.Delete("/subjects/{id}/checklist/{itemId}", apiHandler.DeleteChecklistItem)

		r.Get("/tasks", apiHandler.ListTasks)
		r.Post("/tasks", apiHandler.CreateTask)
		r.Put("/tasks/{id}", apiHandler.UpdateTask)
		r.Delete("/tasks/{id}", apiHandler.DeleteTask)
		r.Post("/tasks/{id}/toggle", apiHandler.ToggleTask)

		r.Get("/calendar/{year}/{month}", apiHandler.MonthGrid)
		r.Get("/calendar/{year}/{month}/{day}", apiHandler.DayTasks)
	})

	return r
}
