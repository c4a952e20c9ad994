package submissions

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/microearn/backend/internal/httpx"
	"github.com/microearn/backend/internal/middleware"
	"github.com/microearn/backend/internal/models"
	"github.com/microearn/backend/internal/validate"
)

type SubmitRequest struct {
	TaskID uuid.UUID `json:"task_id"`
	Text   string    `json:"text"`
	Images []string  `json:"images"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type SubmissionListResponse struct {
	Submissions []*models.Submission `json:"submissions"`
	Pagination  *models.Pagination   `json:"pagination,omitempty"`
}

type Handler struct {
	svc       *Service
	validator *validate.Validator
	log       *slog.Logger
}

func NewHandler(svc *Service, validator *validate.Validator, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, validator: validator, log: log}
}

// POST /api/submissions
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	var req SubmitRequest
	if err := h.validator.Decode(r.Body, validate.Submission, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	sub, err := h.svc.Submit(r.Context(), actor, SubmitParams{TaskID: req.TaskID, Text: req.Text, Images: req.Images})
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, sub)
}

// GET /api/submissions/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	sub, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sub)
}

// GET /api/submissions/mine?status=
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	status := models.SubmissionStatus(r.URL.Query().Get("status"))
	list, page, err := h.svc.ListByWorker(r.Context(), actor, status, httpx.PageFromQuery(r))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, SubmissionListResponse{Submissions: list, Pagination: &page})
}

// GET /api/tasks/{id}/submissions
func (h *Handler) ListByTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	taskID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	list, err := h.svc.ListByTask(r.Context(), actor, taskID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, SubmissionListResponse{Submissions: list})
}

// PATCH /api/submissions/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	sub, err := h.svc.Approve(r.Context(), actor, id)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sub)
}

// PATCH /api/submissions/{id}/reject
// The body is optional; an empty body uses the default reason.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	var req RejectRequest
	if r.ContentLength != 0 {
		if err := h.validator.Decode(r.Body, validate.Review, &req); err != nil {
			httpx.WriteError(w, r, h.log, err)
			return
		}
	}
	sub, err := h.svc.Reject(r.Context(), actor, id, req.Reason)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sub)
}
