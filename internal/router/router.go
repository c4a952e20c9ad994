package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/microearn/backend/internal/auth"
	"github.com/microearn/backend/internal/dashboard"
	"github.com/microearn/backend/internal/httpx"
	"github.com/microearn/backend/internal/metrics"
	"github.com/microearn/backend/internal/middleware"
	"github.com/microearn/backend/internal/models"
	"github.com/microearn/backend/internal/notify"
	"github.com/microearn/backend/internal/payments"
	"github.com/microearn/backend/internal/submissions"
	"github.com/microearn/backend/internal/tasks"
	"github.com/microearn/backend/internal/withdrawals"
)

// Handlers groups every HTTP handler the API mounts.
type Handlers struct {
	Auth        *auth.Handler
	Dashboard   *dashboard.Handler
	Tasks       *tasks.Handler
	Submissions *submissions.Handler
	Payments    *payments.Handler
	Withdrawals *withdrawals.Handler
	Notify      *notify.Handler
}

type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	Metrics        bool
	Log            *slog.Logger
}

// New returns the API handler. Everything under /api except sign-in, login
// and the Stripe webhook requires a bearer token.
func New(h Handlers, tokens middleware.TokenValidator, opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(opts.Log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(opts.RequestTimeout))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Metrics {
		r.Handle("/metrics", metrics.Handler())
	}

	buyer := middleware.RequireRole(models.RoleBuyer)
	worker := middleware.RequireRole(models.RoleWorker)
	reviewer := middleware.RequireRole(models.RoleBuyer, models.RoleAdmin)
	admin := middleware.RequireRole(models.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signin", h.Auth.SignIn)
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/webhooks/stripe", h.Payments.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(tokens))

			r.Post("/auth/select-role", h.Auth.SelectRole)
			r.Get("/account/me", h.Dashboard.Me)
			r.Get("/account/ledger", h.Dashboard.Ledger)
			r.With(admin).Get("/admin/accounts", h.Dashboard.ListAccounts)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", h.Tasks.ListAvailable)
				r.With(buyer).Post("/", h.Tasks.Create)
				r.With(buyer).Get("/mine", h.Tasks.ListMine)
				r.Get("/{id}", h.Tasks.Get)
				r.With(reviewer).Patch("/{id}/status", h.Tasks.UpdateStatus)
				r.With(reviewer).Get("/{id}/submissions", h.Submissions.ListByTask)
			})

			r.Route("/submissions", func(r chi.Router) {
				r.With(worker).Post("/", h.Submissions.Submit)
				r.With(worker).Get("/mine", h.Submissions.ListMine)
				r.Get("/{id}", h.Submissions.Get)
				r.With(reviewer).Patch("/{id}/approve", h.Submissions.Approve)
				r.With(reviewer).Patch("/{id}/reject", h.Submissions.Reject)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Use(buyer)
				r.Post("/", h.Payments.Initiate)
				r.Post("/confirm", h.Payments.Confirm)
				r.Get("/", h.Payments.List)
			})

			r.Route("/withdrawals", func(r chi.Router) {
				r.With(worker).Post("/", h.Withdrawals.Request)
				r.With(worker).Get("/mine", h.Withdrawals.ListMine)
				r.With(admin).Get("/", h.Withdrawals.List)
				r.With(admin).Patch("/{id}/approve", h.Withdrawals.Approve)
				r.With(admin).Patch("/{id}/reject", h.Withdrawals.Reject)
				r.With(admin).Patch("/{id}/process", h.Withdrawals.Process)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.Notify.List)
				r.Patch("/read-all", h.Notify.MarkAllRead)
				r.Patch("/{id}/read", h.Notify.MarkRead)
			})
		})
	})

	return r
}
