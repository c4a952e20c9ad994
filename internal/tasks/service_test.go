package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/microearn/backend/internal/ledger"
	"github.com/microearn/backend/internal/memstore"
	"github.com/microearn/backend/internal/models"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestService(t *testing.T, accs ...models.Account) (*memstore.Store, *Service) {
	t.Helper()
	store := memstore.New()
	for _, a := range accs {
		store.SeedAccount(a)
	}
	led := ledger.NewService(store.Accounts(), store.Ledger())
	svc := NewService(store, store.Tasks(), led, nil)
	svc.UseSubmissions(store.Submissions())
	return store, svc
}

func buyerWith(coins int64) (models.Account, models.Actor) {
	id := uuid.New()
	return models.Account{ID: id, Role: models.RoleBuyer, Coins: coins},
		models.Actor{ID: id, Role: models.RoleBuyer}
}

func params(cpw int64, workers int) CreateParams {
	return CreateParams{Title: "Follow page", Description: "Follow and screenshot", CoinsPerWorker: cpw, RequiredWorkers: workers}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreateDebitsEscrow(t *testing.T) {
	acc, buyer := buyerWith(100)
	store, svc := newTestService(t, acc)

	task, err := svc.Create(context.Background(), buyer, params(5, 10))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.Status != models.TaskStatusOpen || task.CurrentWorkers != 0 {
		t.Errorf("new task: status=%s current=%d", task.Status, task.CurrentWorkers)
	}
	if task.EscrowedCoins != 50 || task.Category != defaultCategory {
		t.Errorf("escrow=%d category=%q", task.EscrowedCoins, task.Category)
	}

	a, _ := store.Account(buyer.ID)
	if a.Coins != 50 || a.TotalSpent != 50 {
		t.Errorf("buyer after create: coins=%d spent=%d, want 50/50", a.Coins, a.TotalSpent)
	}
	entries := store.LedgerEntries(buyer.ID)
	if len(entries) != 1 || entries[0].EntryType != models.LedgerTaskEscrow || *entries[0].RelatedID != task.ID {
		t.Errorf("journal: %+v", entries)
	}
}

func TestCreateInsufficientFunds(t *testing.T) {
	acc, buyer := buyerWith(0)
	store, svc := newTestService(t, acc)

	_, err := svc.Create(context.Background(), buyer, params(5, 10))
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}
	if store.TaskCount() != 0 {
		t.Error("no task should be persisted")
	}
	if a, _ := store.Account(buyer.ID); a.Coins != 0 || a.TotalSpent != 0 {
		t.Errorf("balance changed: %+v", a)
	}
}

func TestCreateRollsBackDebitWhenInsertFails(t *testing.T) {
	acc, buyer := buyerWith(100)
	store, svc := newTestService(t, acc)
	store.InjectFault("tasks.CreateTx", errors.New("disk full"))

	if _, err := svc.Create(context.Background(), buyer, params(10, 2)); err == nil {
		t.Fatal("expected error")
	}
	a, _ := store.Account(buyer.ID)
	if a.Coins != 100 || a.TotalSpent != 0 {
		t.Errorf("debit persisted after failed insert: coins=%d spent=%d", a.Coins, a.TotalSpent)
	}
	if len(store.LedgerEntries(buyer.ID)) != 0 {
		t.Error("journal entry persisted after failed insert")
	}
}

func TestCreateValidation(t *testing.T) {
	acc, buyer := buyerWith(1000)
	_, svc := newTestService(t, acc)
	past := time.Now().Add(-time.Hour)

	cases := []struct {
		name string
		p    CreateParams
		want error
	}{
		{"zero workers", params(1, 0), models.ErrValidation},
		{"zero coins", params(0, 1), models.ErrValidation},
		{"past deadline", CreateParams{Title: "t", Description: "d", CoinsPerWorker: 1, RequiredWorkers: 1, Deadline: &past}, models.ErrValidation},
		{"overflow", params(1<<62, 4), models.ErrInvalidAmount},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), buyer, c.p); !errors.Is(err, c.want) {
				t.Errorf("got %v, want %v", err, c.want)
			}
		})
	}
}

func TestTotalSpentMatchesEscrowSum(t *testing.T) {
	acc, buyer := buyerWith(1000)
	store, svc := newTestService(t, acc)
	ctx := context.Background()

	var sum int64
	for _, p := range []CreateParams{params(3, 7), params(10, 1), params(1, 50)} {
		task, err := svc.Create(ctx, buyer, p)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		sum += task.EscrowedCoins
	}
	a, _ := store.Account(buyer.ID)
	if a.TotalSpent != sum || a.Coins != 1000-sum {
		t.Errorf("spent=%d coins=%d, want spent=%d", a.TotalSpent, a.Coins, sum)
	}
}

// ---------------------------------------------------------------------------
// Status updates and listings
// ---------------------------------------------------------------------------

func TestGetForActorAttachesOwnSubmission(t *testing.T) {
	acc, buyer := buyerWith(100)
	store, svc := newTestService(t, acc)
	ctx := context.Background()
	task, err := svc.Create(ctx, buyer, params(10, 2))
	if err != nil {
		t.Fatal(err)
	}
	worker := models.Actor{ID: uuid.New(), Role: models.RoleWorker}
	mine := &models.Submission{ID: uuid.New(), TaskID: task.ID, WorkerID: worker.ID, Text: "done", Status: models.SubmissionStatusPending}
	if err := store.Submissions().CreateTx(ctx, nil, mine); err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetForActor(ctx, worker, task.ID)
	if err != nil {
		t.Fatalf("GetForActor: %v", err)
	}
	if got.ID != task.ID || got.UserSubmission == nil || got.UserSubmission.ID != mine.ID {
		t.Errorf("worker view: %+v", got)
	}

	other := models.Actor{ID: uuid.New(), Role: models.RoleWorker}
	got, err = svc.GetForActor(ctx, other, task.ID)
	if err != nil {
		t.Fatalf("GetForActor: %v", err)
	}
	if got.UserSubmission != nil {
		t.Errorf("other worker sees %+v", got.UserSubmission)
	}

	if _, err := svc.GetForActor(ctx, worker, uuid.New()); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing task: got %v", err)
	}
}

func TestUpdateStatusCancel(t *testing.T) {
	acc, buyer := buyerWith(100)
	store, svc := newTestService(t, acc)
	ctx := context.Background()
	task, _ := svc.Create(ctx, buyer, params(10, 2))

	other := models.Actor{ID: uuid.New(), Role: models.RoleBuyer}
	if _, err := svc.UpdateStatus(ctx, other, task.ID, models.TaskStatusCancelled); !errors.Is(err, models.ErrNotAuthorized) {
		t.Errorf("other buyer: got %v, want ErrNotAuthorized", err)
	}
	if _, err := svc.UpdateStatus(ctx, buyer, task.ID, models.TaskStatusCompleted); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("direct complete: got %v, want ErrInvalidTransition", err)
	}

	got, err := svc.UpdateStatus(ctx, buyer, task.ID, models.TaskStatusCancelled)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != models.TaskStatusCancelled {
		t.Errorf("status: got %s", got.Status)
	}
	if _, err := svc.UpdateStatus(ctx, buyer, task.ID, models.TaskStatusCancelled); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("cancel twice: got %v, want ErrInvalidTransition", err)
	}
	if a, _ := store.Account(buyer.ID); a.Coins != 80 {
		t.Errorf("cancellation must not refund: coins=%d", a.Coins)
	}
}

func TestListAvailableFilters(t *testing.T) {
	acc, buyer := buyerWith(1000)
	_, svc := newTestService(t, acc)
	ctx := context.Background()

	mk := func(title, category string) *models.Task {
		p := params(1, 1)
		p.Title, p.Category = title, category
		task, err := svc.Create(ctx, buyer, p)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return task
	}
	mk("Watch YouTube video", "social_media")
	mk("Install game", "app_install")
	cancelled := mk("Follow Instagram", "social_media")
	if _, err := svc.UpdateStatus(ctx, buyer, cancelled.ID, models.TaskStatusCancelled); err != nil {
		t.Fatal(err)
	}

	list, page, err := svc.ListAvailable(ctx, models.TaskFilter{Category: "social_media"})
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(list) != 1 || page.Total != 1 {
		t.Errorf("open social_media tasks: got %d (total %d), want 1", len(list), page.Total)
	}

	list, _, _ = svc.ListAvailable(ctx, models.TaskFilter{Query: "GAME"})
	if len(list) != 1 || list[0].Title != "Install game" {
		t.Errorf("keyword search: %+v", list)
	}

	if _, _, err := svc.ListAvailable(ctx, models.TaskFilter{Status: "bogus"}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("bad status: got %v", err)
	}

	mine, page, _ := svc.ListByBuyer(ctx, buyer, "", models.Page{Number: 1, Limit: 2})
	if len(mine) != 2 || page.Total != 3 || page.Pages != 2 {
		t.Errorf("buyer page: len=%d total=%d pages=%d", len(mine), page.Total, page.Pages)
	}
}
