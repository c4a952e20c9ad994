package submissions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/microearn/backend/internal/middleware"
	"github.com/microearn/backend/internal/models"
	"github.com/microearn/backend/internal/validate"
)

func request(method, body string, actor models.Actor, id string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	rctx := chi.NewRouteContext()
	if id != "" {
		rctx.URLParams.Add("id", id)
	}
	ctx := middleware.WithActor(req.Context(), actor)
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	return req.WithContext(ctx)
}

func newTestHandler(t *testing.T) (*Handler, *fixture) {
	t.Helper()
	f := newFixture(t)
	v, err := validate.New()
	if err != nil {
		t.Fatalf("validate.New: %v", err)
	}
	return NewHandler(f.svc, v, nil), f
}

// =====================================================================
// POST /api/submissions
// =====================================================================

func TestHandlerSubmit(t *testing.T) {
	h, f := newTestHandler(t)
	task := f.task(t, 3, 1)
	w := f.worker(t)

	body := `{"task_id":"` + task.ID.String() + `","text":"done","images":["https://img.example/1.png"]}`
	rec := httptest.NewRecorder()
	h.Submit(rec, request(http.MethodPost, body, w, ""))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Submit(rec, request(http.MethodPost, body, w, ""))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Submit(rec, request(http.MethodPost, `{"task_id":"nope","text":"x"}`, w, ""))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad task id: expected 400, got %d", rec.Code)
	}
}

// =====================================================================
// PATCH /api/submissions/{id}/approve|reject
// =====================================================================

func TestHandlerReview(t *testing.T) {
	h, f := newTestHandler(t)
	task := f.task(t, 3, 3)
	first := f.submit(t, task, f.worker(t))
	second := f.submit(t, task, f.worker(t))

	rec := httptest.NewRecorder()
	h.Approve(rec, request(http.MethodPatch, "", f.worker(t), first.ID.String()))
	if rec.Code != http.StatusForbidden {
		t.Errorf("worker approve: expected 403, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Approve(rec, request(http.MethodPatch, "", f.buyer, first.ID.String()))
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Approve(rec, request(http.MethodPatch, "", f.buyer, first.ID.String()))
	if rec.Code != http.StatusConflict {
		t.Errorf("approve twice: expected 409, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Reject(rec, request(http.MethodPatch, `{"reason":"blurry screenshot"}`, f.buyer, second.ID.String()))
	if rec.Code != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "blurry screenshot") {
		t.Errorf("reject body: %s", rec.Body.String())
	}
}

func TestHandlerListByTask(t *testing.T) {
	h, f := newTestHandler(t)
	task := f.task(t, 1, 2)
	f.submit(t, task, f.worker(t))

	rec := httptest.NewRecorder()
	h.ListByTask(rec, request(http.MethodGet, "", f.buyer, task.ID.String()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ListByTask(rec, request(http.MethodGet, "", f.worker(t), task.ID.String()))
	if rec.Code != http.StatusForbidden {
		t.Errorf("worker: expected 403, got %d", rec.Code)
	}
}
