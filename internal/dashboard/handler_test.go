package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/microearn/backend/internal/database"
	"github.com/microearn/backend/internal/ledger"
	"github.com/microearn/backend/internal/memstore"
	"github.com/microearn/backend/internal/middleware"
	"github.com/microearn/backend/internal/models"
)

func newTestHandler(t *testing.T, accs ...models.Account) (*Handler, *memstore.Store, ledger.Service) {
	t.Helper()
	store := memstore.New()
	for _, a := range accs {
		store.SeedAccount(a)
	}
	led := ledger.NewService(store.Accounts(), store.Ledger())
	return NewHandler(store.Accounts(), led, nil), store, led
}

func get(target string, actor *models.Actor) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if actor != nil {
		req = req.WithContext(middleware.WithActor(req.Context(), *actor))
	}
	return req
}

func TestMe(t *testing.T) {
	id := uuid.New()
	h, _, _ := newTestHandler(t, models.Account{ID: id, Email: "w@example.com", Role: models.RoleWorker, Coins: 42})

	rec := httptest.NewRecorder()
	h.Me(rec, get("/api/account/me", &models.Actor{ID: id, Role: models.RoleWorker}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var acc models.Account
	if err := json.Unmarshal(rec.Body.Bytes(), &acc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if acc.ID != id || acc.Coins != 42 {
		t.Errorf("me: got %+v", acc)
	}

	rec = httptest.NewRecorder()
	h.Me(rec, get("/api/account/me", &models.Actor{ID: uuid.New(), Role: models.RoleWorker}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown account: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Me(rec, get("/api/account/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no actor: got %d", rec.Code)
	}
}

func TestLedger(t *testing.T) {
	id := uuid.New()
	h, store, led := newTestHandler(t, models.Account{ID: id, Role: models.RoleWorker})
	ctx := context.Background()

	err := database.InTx(ctx, store, func(tx pgx.Tx) error {
		if _, err := led.GrantInitialBonus(ctx, tx, id, models.RoleWorker); err != nil {
			return err
		}
		_, err := led.Credit(ctx, tx, id, 5, models.LedgerTaskEarning, nil)
		return err
	})
	if err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Ledger(rec, get("/api/account/ledger", &models.Actor{ID: id, Role: models.RoleWorker}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var entries []models.LedgerEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(entries))
	}

	// An account with no history gets an empty array, not null.
	rec = httptest.NewRecorder()
	h.Ledger(rec, get("/api/account/ledger", &models.Actor{ID: uuid.New(), Role: models.RoleWorker}))
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("empty ledger body: %q", body)
	}
}

func TestListAccountsAdminOnly(t *testing.T) {
	admin := models.Account{ID: uuid.New(), Role: models.RoleAdmin}
	worker := models.Account{ID: uuid.New(), Role: models.RoleWorker}
	h, _, _ := newTestHandler(t, admin, worker)

	rec := httptest.NewRecorder()
	h.ListAccounts(rec, get("/api/admin/accounts", &models.Actor{ID: worker.ID, Role: models.RoleWorker}))
	if rec.Code != http.StatusForbidden {
		t.Errorf("worker: got %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ListAccounts(rec, get("/api/admin/accounts?limit=1", &models.Actor{ID: admin.ID, Role: models.RoleAdmin}))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: got %d", rec.Code)
	}
	var resp AccountListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Accounts) != 1 || resp.Pagination.Total != 2 || resp.Pagination.Pages != 2 {
		t.Errorf("page: %d accounts, pagination %+v", len(resp.Accounts), resp.Pagination)
	}
}
