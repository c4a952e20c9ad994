package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/microearn/backend/internal/auth"
	"github.com/microearn/backend/internal/dashboard"
	"github.com/microearn/backend/internal/ledger"
	"github.com/microearn/backend/internal/memstore"
	"github.com/microearn/backend/internal/models"
	"github.com/microearn/backend/internal/notify"
	"github.com/microearn/backend/internal/payments"
	"github.com/microearn/backend/internal/submissions"
	"github.com/microearn/backend/internal/tasks"
	"github.com/microearn/backend/internal/validate"
	"github.com/microearn/backend/internal/withdrawals"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type staticTokens map[string]models.Actor

func (s staticTokens) ValidateToken(_ context.Context, token string) (models.Actor, error) {
	a, ok := s[token]
	if !ok {
		return models.Actor{}, models.ErrInvalidCredentials
	}
	return a, nil
}

type env struct {
	handler http.Handler
	store   *memstore.Store
	buyer   models.Actor
	worker  models.Actor
	admin   models.Actor
}

func newEnv(t *testing.T, opts Options) *env {
	t.Helper()
	store := memstore.New()
	e := &env{
		store:  store,
		buyer:  models.Actor{ID: uuid.New(), Role: models.RoleBuyer},
		worker: models.Actor{ID: uuid.New(), Role: models.RoleWorker},
		admin:  models.Actor{ID: uuid.New(), Role: models.RoleAdmin},
	}
	store.SeedAccount(models.Account{ID: e.buyer.ID, Role: models.RoleBuyer, Coins: 1000, IsActive: true})
	store.SeedAccount(models.Account{ID: e.worker.ID, Role: models.RoleWorker, IsActive: true})
	store.SeedAccount(models.Account{ID: e.admin.ID, Role: models.RoleAdmin, IsActive: true})

	v, err := validate.New()
	if err != nil {
		t.Fatalf("validate.New: %v", err)
	}
	led := ledger.NewService(store.Accounts(), store.Ledger())
	sink := notify.NewStoreSink(store.Notifications(), nil)
	taskSvc := tasks.NewService(store, store.Tasks(), led, nil)
	taskSvc.UseSubmissions(store.Submissions())
	subSvc := submissions.NewService(store, store.Submissions(), taskSvc, led, sink, nil)
	provider := payments.NewStripeProvider(payments.StripeConfig{BaseURL: "http://127.0.0.1:0"}, nil)
	paySvc := payments.NewService(store, store.Payments(), provider, led, sink,
		func(context.Context, payments.SettleArgs) error { return nil }, "usd", nil)
	authSvc := auth.NewService(store, store.Accounts(), led, nil, auth.Options{Secret: []byte("x")}, nil)

	tokens := staticTokens{"buyer": e.buyer, "worker": e.worker, "admin": e.admin}
	e.handler = New(Handlers{
		Auth:        auth.NewHandler(authSvc, v, nil),
		Dashboard:   dashboard.NewHandler(store.Accounts(), led, nil),
		Tasks:       tasks.NewHandler(taskSvc, v, nil),
		Submissions: submissions.NewHandler(subSvc, v, nil),
		Payments:    payments.NewHandler(paySvc, v, nil),
		Withdrawals: withdrawals.NewHandler(withdrawals.NewService(store, store.Withdrawals(), led, sink, nil), v, nil),
		Notify:      notify.NewHandler(notify.NewService(store.Notifications()), nil),
	}, tokens, opts)
	return e
}

func (e *env) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// ---------------------------------------------------------------------------
// Public endpoints
// ---------------------------------------------------------------------------

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t, Options{Metrics: true})
	if rec := e.do(t, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Errorf("/health: got %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusOK {
		t.Errorf("/metrics: got %d", rec.Code)
	}

	off := newEnv(t, Options{})
	if rec := off.do(t, http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("/metrics disabled: got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	e := newEnv(t, Options{AllowedOrigins: []string{"https://app.example.com"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("allow origin: got %q", got)
	}
}

// ---------------------------------------------------------------------------
// Authentication and role gates
// ---------------------------------------------------------------------------

func TestAuthGates(t *testing.T) {
	e := newEnv(t, Options{})

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/api/account/me", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/account/me", "forged", http.StatusUnauthorized},
		{"any role reads me", http.MethodGet, "/api/account/me", "worker", http.StatusOK},
		{"worker cannot create tasks", http.MethodPost, "/api/tasks", "worker", http.StatusForbidden},
		{"buyer cannot submit", http.MethodPost, "/api/submissions", "buyer", http.StatusForbidden},
		{"worker cannot buy coins", http.MethodGet, "/api/payments", "worker", http.StatusForbidden},
		{"buyer cannot list queue", http.MethodGet, "/api/withdrawals", "buyer", http.StatusForbidden},
		{"admin lists queue", http.MethodGet, "/api/withdrawals", "admin", http.StatusOK},
		{"worker cannot list accounts", http.MethodGet, "/api/admin/accounts", "worker", http.StatusForbidden},
		{"admin lists accounts", http.MethodGet, "/api/admin/accounts", "admin", http.StatusOK},
		{"notifications for anyone", http.MethodGet, "/api/notifications", "buyer", http.StatusOK},
		{"webhook is public", http.MethodPost, "/api/webhooks/stripe", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := e.do(t, tt.method, tt.path, tt.token, ""); rec.Code != tt.want {
				t.Errorf("%s %s: got %d, want %d (%s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

// =====================================================================
// End to end: create, submit, approve
// =====================================================================

func TestTaskFlowThroughRouter(t *testing.T) {
	e := newEnv(t, Options{})

	rec := e.do(t, http.MethodPost, "/api/tasks", "buyer",
		`{"title":"Review app","description":"Install and review","coins_per_worker":10,"required_workers":1}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: %d %s", rec.Code, rec.Body.String())
	}
	var task models.Task
	_ = json.Unmarshal(rec.Body.Bytes(), &task)

	if rec := e.do(t, http.MethodGet, "/api/tasks/mine", "buyer", ""); rec.Code != http.StatusOK {
		t.Errorf("tasks/mine: %d", rec.Code)
	}

	rec = e.do(t, http.MethodPost, "/api/submissions", "worker",
		`{"task_id":"`+task.ID.String()+`","text":"done"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	var sub models.Submission
	_ = json.Unmarshal(rec.Body.Bytes(), &sub)

	rec = e.do(t, http.MethodPatch, "/api/submissions/"+sub.ID.String()+"/approve", "buyer", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodGet, "/api/tasks/"+task.ID.String(), "worker", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get task: %d", rec.Code)
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &task)
	if task.Status != models.TaskStatusCompleted {
		t.Errorf("task status: got %s, want completed", task.Status)
	}

	w, _ := e.store.Account(e.worker.ID)
	if w.Coins != 10 {
		t.Errorf("worker coins: got %d, want 10", w.Coins)
	}
}
