package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/microearn/backend/internal/httpx"
	"github.com/microearn/backend/internal/ledger"
	"github.com/microearn/backend/internal/middleware"
	"github.com/microearn/backend/internal/models"
)

// AccountReader is the read side of the account repository.
type AccountReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	List(ctx context.Context, page models.Page) ([]*models.Account, int, error)
}

type AccountListResponse struct {
	Accounts   []*models.Account `json:"accounts"`
	Pagination models.Pagination `json:"pagination"`
}

type Handler struct {
	accounts AccountReader
	ledger   ledger.Service
	log      *slog.Logger
}

func NewHandler(accounts AccountReader, ledger ledger.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{accounts: accounts, ledger: ledger, log: log}
}

// GET /api/account/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromCtx(r.Context())
	if !ok {
		httpx.Fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	acc, err := h.accounts.GetByID(r.Context(), actor.ID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, acc)
}

// GET /api/account/ledger?limit=
func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromCtx(r.Context())
	if !ok {
		httpx.Fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	entries, err := h.ledger.History(r.Context(), actor.ID, httpx.PageFromQuery(r).Limit)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if entries == nil {
		entries = []*models.LedgerEntry{}
	}
	httpx.WriteJSON(w, http.StatusOK, entries)
}

// GET /api/admin/accounts?page=&limit=
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromCtx(r.Context())
	if !actor.IsAdmin() {
		httpx.WriteError(w, r, h.log, models.ErrNotAuthorized)
		return
	}
	page := httpx.PageFromQuery(r)
	accounts, total, err := h.accounts.List(r.Context(), page)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}
	httpx.WriteJSON(w, http.StatusOK, AccountListResponse{
		Accounts:   accounts,
		Pagination: models.NewPagination(page, total),
	})
}
