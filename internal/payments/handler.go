package payments

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/microearn/backend/internal/httpx"
	"github.com/microearn/backend/internal/middleware"
	"github.com/microearn/backend/internal/models"
	"github.com/microearn/backend/internal/validate"
)

const maxWebhookBytes = 64 << 10

type InitiateRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Coins  int64           `json:"coins"`
}

type InitiateResponse struct {
	Payment     *models.Payment `json:"payment"`
	CheckoutURL string          `json:"checkout_url"`
}

type ConfirmRequest struct {
	Reference string `json:"reference"`
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

// POST /api/payments
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	var req InitiateRequest
	if err := h.validator.Decode(r.Body, validate.Payment, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	p, session, err := h.svc.Initiate(r.Context(), actor, req.Amount, req.Coins)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, InitiateResponse{Payment: p, CheckoutURL: session.URL})
}

// POST /api/payments/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	var req ConfirmRequest
	if err := h.validator.Decode(r.Body, validate.PaymentConfirm, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	p, err := h.svc.Confirm(r.Context(), actor, req.Reference)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

// GET /api/payments
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	list, err := h.svc.ListByBuyer(r.Context(), actor)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"payments": list})
}

// POST /api/webhooks/stripe
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "unreadable body")
		return
	}
	err = h.svc.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if errors.Is(err, models.ErrExternalVerificationFailed) {
		h.log.Warn("webhook rejected", "error", err)
		httpx.Fail(w, http.StatusBadRequest, "invalid signature")
		return
	}
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
