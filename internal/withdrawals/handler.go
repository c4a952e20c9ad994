package withdrawals

import (
	"log/slog"
	"net/http"

	"github.com/microearn/backend/internal/httpx"
	"github.com/microearn/backend/internal/middleware"
	"github.com/microearn/backend/internal/models"
	"github.com/microearn/backend/internal/validate"
)

type WithdrawalRequest struct {
	Coins          int64                `json:"coins"`
	PaymentMethod  models.PayoutMethod  `json:"payment_method"`
	PaymentDetails models.PayoutDetails `json:"payment_details"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type WithdrawalListResponse struct {
	Withdrawals []*models.Withdrawal `json:"withdrawals"`
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

// POST /api/withdrawals
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	var req WithdrawalRequest
	if err := h.validator.Decode(r.Body, validate.Withdrawal, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	wd, err := h.svc.Request(r.Context(), actor, RequestParams{
		Coins:   req.Coins,
		Method:  req.PaymentMethod,
		Details: req.PaymentDetails,
	})
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, wd)
}

// GET /api/withdrawals/mine
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	list, err := h.svc.ListByWorker(r.Context(), actor)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, WithdrawalListResponse{Withdrawals: list})
}

// GET /api/withdrawals?status=&page=&limit=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	status := models.WithdrawalStatus(r.URL.Query().Get("status"))
	list, page, err := h.svc.List(r.Context(), actor, status, httpx.PageFromQuery(r))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, WithdrawalListResponse{Withdrawals: list, Pagination: &page})
}

// PATCH /api/withdrawals/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(actor models.Actor, r *http.Request) (*models.Withdrawal, error) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			return nil, err
		}
		return h.svc.Approve(r.Context(), actor, id)
	})
}

// PATCH /api/withdrawals/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(actor models.Actor, r *http.Request) (*models.Withdrawal, error) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			return nil, err
		}
		var req RejectRequest
		if r.ContentLength != 0 {
			if err := h.validator.Decode(r.Body, validate.Review, &req); err != nil {
				return nil, err
			}
		}
		return h.svc.Reject(r.Context(), actor, id, req.Reason)
	})
}

// PATCH /api/withdrawals/{id}/process
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(actor models.Actor, r *http.Request) (*models.Withdrawal, error) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			return nil, err
		}
		return h.svc.MarkProcessed(r.Context(), actor, id)
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, fn func(models.Actor, *http.Request) (*models.Withdrawal, error)) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	wd, err := fn(actor, r)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, wd)
}
