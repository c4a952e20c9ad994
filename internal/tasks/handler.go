package tasks

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/microearn/backend/internal/httpx"
	"github.com/microearn/backend/internal/middleware"
	"github.com/microearn/backend/internal/models"
	"github.com/microearn/backend/internal/validate"
)

type CreateTaskRequest struct {
	Title                  string     `json:"title"`
	Description            string     `json:"description"`
	ImageURL               string     `json:"image_url"`
	Category               string     `json:"category"`
	SubmissionInstructions string     `json:"submission_instructions"`
	Deadline               *time.Time `json:"deadline"`
	CoinsPerWorker         int64      `json:"coins_per_worker"`
	RequiredWorkers        int        `json:"required_workers"`
}

type UpdateStatusRequest struct {
	Status models.TaskStatus `json:"status"`
}

type TaskListResponse struct {
	Tasks      []*models.Task    `json:"tasks"`
	Pagination models.Pagination `json:"pagination"`
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

// POST /api/tasks
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	var req CreateTaskRequest
	if err := h.validator.Decode(r.Body, validate.CreateTask, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	task, err := h.svc.Create(r.Context(), actor, CreateParams{
		Title:                  req.Title,
		Description:            req.Description,
		ImageURL:               req.ImageURL,
		Category:               req.Category,
		SubmissionInstructions: req.SubmissionInstructions,
		Deadline:               req.Deadline,
		CoinsPerWorker:         req.CoinsPerWorker,
		RequiredWorkers:        req.RequiredWorkers,
	})
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, task)
}

// GET /api/tasks/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	actor, _ := middleware.ActorFromCtx(r.Context())
	task, err := h.svc.GetForActor(r.Context(), actor, id)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, task)
}

// GET /api/tasks?status=&category=&q=&page=&limit=
func (h *Handler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, page, err := h.svc.ListAvailable(r.Context(), models.TaskFilter{
		Status:   models.TaskStatus(q.Get("status")),
		Category: q.Get("category"),
		Query:    q.Get("q"),
		Page:     httpx.PageFromQuery(r),
	})
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, TaskListResponse{Tasks: list, Pagination: page})
}

// GET /api/tasks/mine?status=
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	list, page, err := h.svc.ListByBuyer(r.Context(), actor, models.TaskStatus(r.URL.Query().Get("status")), httpx.PageFromQuery(r))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, TaskListResponse{Tasks: list, Pagination: page})
}

// PATCH /api/tasks/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	var req UpdateStatusRequest
	if err := h.validator.Decode(r.Body, validate.TaskStatus, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	task, err := h.svc.UpdateStatus(r.Context(), actor, id, req.Status)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, task)
}
