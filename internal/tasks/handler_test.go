package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/microearn/backend/internal/middleware"
	"github.com/microearn/backend/internal/models"
	"github.com/microearn/backend/internal/validate"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestHandler(t *testing.T, accs ...models.Account) (*Handler, *Service) {
	t.Helper()
	_, svc := newTestService(t, accs...)
	v, err := validate.New()
	if err != nil {
		t.Fatalf("validate.New: %v", err)
	}
	return NewHandler(svc, v, nil), svc
}

func request(method, target, body string, actor models.Actor, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := middleware.WithActor(req.Context(), actor)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

// =====================================================================
// POST /api/tasks
// =====================================================================

func TestHandlerCreate(t *testing.T) {
	acc, buyer := buyerWith(100)
	h, _ := newTestHandler(t, acc)

	body := `{"title":"Like post","description":"Like and screenshot","coins_per_worker":5,"required_workers":4,"category":"social_media"}`
	rec := httptest.NewRecorder()
	h.Create(rec, request(http.MethodPost, "/api/tasks", body, buyer, nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var task models.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.EscrowedCoins != 20 || task.Status != models.TaskStatusOpen {
		t.Errorf("task: %+v", task)
	}
}

func TestHandlerCreateErrors(t *testing.T) {
	acc, buyer := buyerWith(0)
	h, _ := newTestHandler(t, acc)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"insufficient funds", `{"title":"t","description":"d","coins_per_worker":5,"required_workers":10}`, http.StatusBadRequest},
		{"missing title", `{"description":"d","coins_per_worker":5,"required_workers":10}`, http.StatusBadRequest},
		{"zero workers", `{"title":"t","description":"d","coins_per_worker":5,"required_workers":0}`, http.StatusBadRequest},
		{"unknown field", `{"title":"t","description":"d","coins_per_worker":5,"required_workers":1,"escrow":1}`, http.StatusBadRequest},
		{"not json", `title=t`, http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, request(http.MethodPost, "/api/tasks", c.body, buyer, nil))
			if rec.Code != c.want {
				t.Errorf("expected %d, got %d: %s", c.want, rec.Code, rec.Body.String())
			}
		})
	}
}

// =====================================================================
// GET /api/tasks/{id} and PATCH /api/tasks/{id}/status
// =====================================================================

func TestHandlerGetAndCancel(t *testing.T) {
	acc, buyer := buyerWith(100)
	h, svc := newTestHandler(t, acc)
	task, err := svc.Create(context.Background(), buyer, params(10, 1))
	if err != nil {
		t.Fatal(err)
	}
	id := map[string]string{"id": task.ID.String()}

	rec := httptest.NewRecorder()
	h.Get(rec, request(http.MethodGet, "/api/tasks/"+task.ID.String(), "", buyer, id))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Get(rec, request(http.MethodGet, "/api/tasks/x", "", buyer, map[string]string{"id": uuid.NewString()}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing task: expected 404, got %d", rec.Code)
	}

	stranger := models.Actor{ID: uuid.New(), Role: models.RoleBuyer}
	rec = httptest.NewRecorder()
	h.UpdateStatus(rec, request(http.MethodPatch, "/", `{"status":"cancelled"}`, stranger, id))
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger cancel: expected 403, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.UpdateStatus(rec, request(http.MethodPatch, "/", `{"status":"cancelled"}`, buyer, id))
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.UpdateStatus(rec, request(http.MethodPatch, "/", `{"status":"cancelled"}`, buyer, id))
	if rec.Code != http.StatusConflict {
		t.Errorf("cancel twice: expected 409, got %d", rec.Code)
	}
}

func TestHandlerGetIncludesOwnSubmission(t *testing.T) {
	acc, buyer := buyerWith(100)
	store, svc := newTestService(t, acc)
	v, err := validate.New()
	if err != nil {
		t.Fatalf("validate.New: %v", err)
	}
	h := NewHandler(svc, v, nil)
	task, err := svc.Create(context.Background(), buyer, params(10, 1))
	if err != nil {
		t.Fatal(err)
	}
	worker := models.Actor{ID: uuid.New(), Role: models.RoleWorker}
	sub := &models.Submission{ID: uuid.New(), TaskID: task.ID, WorkerID: worker.ID, Text: "done", Status: models.SubmissionStatusPending}
	if err := store.Submissions().CreateTx(context.Background(), nil, sub); err != nil {
		t.Fatal(err)
	}
	id := map[string]string{"id": task.ID.String()}

	var body struct {
		ID             uuid.UUID          `json:"id"`
		UserSubmission *models.Submission `json:"user_submission"`
	}
	rec := httptest.NewRecorder()
	h.Get(rec, request(http.MethodGet, "/api/tasks/"+task.ID.String(), "", worker, id))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ID != task.ID || body.UserSubmission == nil || body.UserSubmission.ID != sub.ID {
		t.Errorf("worker view: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Get(rec, request(http.MethodGet, "/api/tasks/"+task.ID.String(), "", buyer, id))
	if strings.Contains(rec.Body.String(), "user_submission") {
		t.Errorf("buyer view has a submission: %s", rec.Body.String())
	}
}

// =====================================================================
// GET /api/tasks
// =====================================================================

func TestHandlerListAvailable(t *testing.T) {
	acc, buyer := buyerWith(100)
	h, svc := newTestHandler(t, acc)
	for i := 0; i < 3; i++ {
		if _, err := svc.Create(context.Background(), buyer, params(1, 1)); err != nil {
			t.Fatal(err)
		}
	}

	rec := httptest.NewRecorder()
	h.ListAvailable(rec, request(http.MethodGet, "/api/tasks?limit=2&page=2", "", buyer, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp TaskListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Tasks) != 1 || resp.Pagination.Total != 3 || resp.Pagination.Pages != 2 {
		t.Errorf("page 2: %d tasks, pagination %+v", len(resp.Tasks), resp.Pagination)
	}
}
