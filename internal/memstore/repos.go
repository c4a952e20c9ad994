package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/microearn/backend/internal/models"
)

func paginate[T any](list []T, page models.Page) []T {
	page = page.Normalize()
	off := page.Offset()
	if off >= len(list) {
		return nil
	}
	end := off + page.Limit
	if end > len(list) {
		end = len(list)
	}
	return list[off:end]
}

// ─── Accounts ───────────────────────────────────────────────────────────────

type AccountRepo struct{ s *Store }

func (s *Store) Accounts() *AccountRepo { return &AccountRepo{s} }

func (r *AccountRepo) Create(_ context.Context, a *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return models.ErrDuplicateEmail
		}
	}
	a.IsActive = true
	a.CreatedAt = r.s.now()
	a.UpdatedAt = a.CreatedAt
	r.s.data.accounts[a.ID] = *a
	return nil
}

func (r *AccountRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.accounts[id]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return &a, nil
}

func (r *AccountRepo) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.data.accounts {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, models.ErrAccountNotFound
}

func (r *AccountRepo) List(_ context.Context, page models.Page) ([]*models.Account, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*models.Account
	for _, a := range r.s.data.accounts {
		a := a
		list = append(list, &a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, page), len(list), nil
}

func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *AccountRepo) ApplyDelta(_ context.Context, _ pgx.Tx, id uuid.UUID, delta, earned, spent int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("accounts.ApplyDelta"); err != nil {
		return 0, err
	}
	a, ok := r.s.data.accounts[id]
	if !ok || a.Coins+delta < 0 {
		return 0, models.ErrInsufficientFunds
	}
	a.Coins += delta
	a.TotalEarned += earned
	a.TotalSpent += spent
	a.UpdatedAt = r.s.now()
	r.s.data.accounts[id] = a
	return a.Coins, nil
}

func (r *AccountRepo) SetRole(_ context.Context, _ pgx.Tx, id uuid.UUID, role models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.accounts[id]
	if !ok {
		return models.ErrAccountNotFound
	}
	a.Role = role
	r.s.data.accounts[id] = a
	return nil
}

func (r *AccountRepo) MarkInitialCoinsReceived(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.accounts[id]
	if !ok {
		return models.ErrAccountNotFound
	}
	a.InitialCoinsReceived = true
	r.s.data.accounts[id] = a
	return nil
}

// ─── Coin ledger ────────────────────────────────────────────────────────────

type LedgerRepo struct{ s *Store }

func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{s} }

func (r *LedgerRepo) CreateTx(_ context.Context, _ pgx.Tx, e *models.LedgerEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.CreatedAt = r.s.now()
	r.s.data.ledger = append(r.s.data.ledger, *e)
	return nil
}

func (r *LedgerRepo) ListByAccountID(_ context.Context, accountID uuid.UUID, limit int) ([]*models.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*models.LedgerEntry
	for i := len(r.s.data.ledger) - 1; i >= 0 && len(list) < limit; i-- {
		if e := r.s.data.ledger[i]; e.AccountID == accountID {
			list = append(list, &e)
		}
	}
	return list, nil
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

type TaskRepo struct{ s *Store }

func (s *Store) Tasks() *TaskRepo { return &TaskRepo{s} }

func (r *TaskRepo) CreateTx(_ context.Context, _ pgx.Tx, t *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("tasks.CreateTx"); err != nil {
		return err
	}
	t.CreatedAt = r.s.now()
	t.UpdatedAt = t.CreatedAt
	r.s.data.tasks[t.ID] = *t
	return nil
}

func (r *TaskRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.data.tasks[id]
	if !ok {
		return nil, models.ErrTaskNotFound
	}
	return &t, nil
}

func (r *TaskRepo) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.Task, error) {
	return r.GetByID(ctx, id)
}

func (r *TaskRepo) UpdateProgressTx(_ context.Context, _ pgx.Tx, t *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.data.tasks[t.ID]
	if !ok {
		return models.ErrTaskNotFound
	}
	cur.RequiredWorkers = t.RequiredWorkers
	cur.CurrentWorkers = t.CurrentWorkers
	cur.Status = t.Status
	cur.UpdatedAt = r.s.now()
	t.UpdatedAt = cur.UpdatedAt
	r.s.data.tasks[t.ID] = cur
	return nil
}

func (r *TaskRepo) List(_ context.Context, f models.TaskFilter) ([]*models.Task, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(f.Query))
	var list []*models.Task
	for _, t := range r.s.data.tasks {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.BuyerID != nil && t.BuyerID != *f.BuyerID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Title+"\n"+t.Description+"\n"+t.Category), q) {
			continue
		}
		t := t
		list = append(list, &t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, f.Page), len(list), nil
}

// ─── Submissions ────────────────────────────────────────────────────────────

type SubmissionRepo struct{ s *Store }

func (s *Store) Submissions() *SubmissionRepo { return &SubmissionRepo{s} }

func (r *SubmissionRepo) CreateTx(_ context.Context, _ pgx.Tx, sub *models.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.submissions {
		if existing.TaskID == sub.TaskID && existing.WorkerID == sub.WorkerID {
			return models.ErrDuplicateSubmission
		}
	}
	if sub.Images == nil {
		sub.Images = []string{}
	}
	sub.CreatedAt = r.s.now()
	sub.UpdatedAt = sub.CreatedAt
	r.s.data.submissions[sub.ID] = *sub
	return nil
}

func (r *SubmissionRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.data.submissions[id]
	if !ok {
		return nil, models.ErrSubmissionNotFound
	}
	return &sub, nil
}

func (r *SubmissionRepo) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.Submission, error) {
	return r.GetByID(ctx, id)
}

func (r *SubmissionRepo) GetByTaskAndWorker(_ context.Context, taskID, workerID uuid.UUID) (*models.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sub := range r.s.data.submissions {
		if sub.TaskID == taskID && sub.WorkerID == workerID {
			return &sub, nil
		}
	}
	return nil, models.ErrSubmissionNotFound
}

func (r *SubmissionRepo) ExistsForWorkerTx(_ context.Context, _ pgx.Tx, taskID, workerID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sub := range r.s.data.submissions {
		if sub.TaskID == taskID && sub.WorkerID == workerID {
			return true, nil
		}
	}
	return false, nil
}

func (r *SubmissionRepo) UpdateReviewTx(_ context.Context, _ pgx.Tx, sub *models.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("submissions.UpdateReviewTx"); err != nil {
		return err
	}
	if _, ok := r.s.data.submissions[sub.ID]; !ok {
		return models.ErrSubmissionNotFound
	}
	sub.UpdatedAt = r.s.now()
	r.s.data.submissions[sub.ID] = *sub
	return nil
}

func (r *SubmissionRepo) CountApprovedTx(_ context.Context, _ pgx.Tx, taskID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, sub := range r.s.data.submissions {
		if sub.TaskID == taskID && sub.Status == models.SubmissionStatusApproved {
			n++
		}
	}
	return n, nil
}

func (r *SubmissionRepo) sorted(keep func(models.Submission) bool) []*models.Submission {
	var list []*models.Submission
	for _, sub := range r.s.data.submissions {
		if keep(sub) {
			sub := sub
			list = append(list, &sub)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

func (r *SubmissionRepo) ListByWorker(_ context.Context, workerID uuid.UUID, status models.SubmissionStatus, page models.Page) ([]*models.Submission, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := r.sorted(func(sub models.Submission) bool {
		return sub.WorkerID == workerID && (status == "" || sub.Status == status)
	})
	return paginate(list, page), len(list), nil
}

func (r *SubmissionRepo) ListByTask(_ context.Context, taskID uuid.UUID) ([]*models.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(func(sub models.Submission) bool { return sub.TaskID == taskID }), nil
}

// ─── Payments ───────────────────────────────────────────────────────────────

type PaymentRepo struct{ s *Store }

func (s *Store) Payments() *PaymentRepo { return &PaymentRepo{s} }

func (r *PaymentRepo) Create(_ context.Context, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	r.s.data.payments[p.ID] = *p
	return nil
}

func (r *PaymentRepo) SetReference(_ context.Context, id uuid.UUID, reference string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.payments[id]
	if !ok {
		return models.ErrPaymentNotFound
	}
	p.Reference = reference
	r.s.data.payments[id] = p
	return nil
}

func (r *PaymentRepo) GetByReference(_ context.Context, reference string) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.data.payments {
		if reference != "" && p.Reference == reference {
			return &p, nil
		}
	}
	return nil, models.ErrPaymentNotFound
}

func (r *PaymentRepo) GetByReferenceForUpdate(ctx context.Context, _ pgx.Tx, reference string) (*models.Payment, error) {
	return r.GetByReference(ctx, reference)
}

func (r *PaymentRepo) UpdateStatusTx(_ context.Context, _ pgx.Tx, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("payments.UpdateStatusTx"); err != nil {
		return err
	}
	cur, ok := r.s.data.payments[p.ID]
	if !ok {
		return models.ErrPaymentNotFound
	}
	cur.Status = p.Status
	cur.UpdatedAt = r.s.now()
	p.UpdatedAt = cur.UpdatedAt
	r.s.data.payments[p.ID] = cur
	return nil
}

func (r *PaymentRepo) ListByBuyer(_ context.Context, buyerID uuid.UUID, limit int) ([]*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*models.Payment
	for _, p := range r.s.data.payments {
		if p.BuyerID == buyerID {
			p := p
			list = append(list, &p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// ─── Withdrawals ────────────────────────────────────────────────────────────

type WithdrawalRepo struct{ s *Store }

func (s *Store) Withdrawals() *WithdrawalRepo { return &WithdrawalRepo{s} }

func (r *WithdrawalRepo) CreateTx(_ context.Context, _ pgx.Tx, w *models.Withdrawal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("withdrawals.CreateTx"); err != nil {
		return err
	}
	w.CreatedAt = r.s.now()
	w.UpdatedAt = w.CreatedAt
	r.s.data.withdrawals[w.ID] = *w
	return nil
}

func (r *WithdrawalRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.data.withdrawals[id]
	if !ok {
		return nil, models.ErrWithdrawalNotFound
	}
	return &w, nil
}

func (r *WithdrawalRepo) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.Withdrawal, error) {
	return r.GetByID(ctx, id)
}

func (r *WithdrawalRepo) UpdateTx(_ context.Context, _ pgx.Tx, w *models.Withdrawal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.withdrawals[w.ID]; !ok {
		return models.ErrWithdrawalNotFound
	}
	w.UpdatedAt = r.s.now()
	r.s.data.withdrawals[w.ID] = *w
	return nil
}

func (r *WithdrawalRepo) sorted(keep func(models.Withdrawal) bool) []*models.Withdrawal {
	var list []*models.Withdrawal
	for _, w := range r.s.data.withdrawals {
		if keep(w) {
			w := w
			list = append(list, &w)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

func (r *WithdrawalRepo) ListByWorker(_ context.Context, workerID uuid.UUID, limit int) ([]*models.Withdrawal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := r.sorted(func(w models.Withdrawal) bool { return w.WorkerID == workerID })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *WithdrawalRepo) List(_ context.Context, status models.WithdrawalStatus, page models.Page) ([]*models.Withdrawal, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := r.sorted(func(w models.Withdrawal) bool { return status == "" || w.Status == status })
	return paginate(list, page), len(list), nil
}

// ─── Notifications ──────────────────────────────────────────────────────────

type NotificationRepo struct{ s *Store }

func (s *Store) Notifications() *NotificationRepo { return &NotificationRepo{s} }

func (r *NotificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("notifications.Create"); err != nil {
		return err
	}
	if _, ok := r.s.data.notifications[n.ID]; ok {
		return nil
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.s.now()
	}
	r.s.data.notifications[n.ID] = *n
	return nil
}

func (r *NotificationRepo) ListByAccount(_ context.Context, accountID uuid.UUID, unreadOnly bool, limit int) ([]*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*models.Notification
	for _, n := range r.s.data.notifications {
		if n.AccountID == accountID && (!unreadOnly || !n.IsRead) {
			n := n
			list = append(list, &n)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *NotificationRepo) CountUnread(_ context.Context, accountID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := 0
	for _, n := range r.s.data.notifications {
		if n.AccountID == accountID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (r *NotificationRepo) MarkRead(_ context.Context, accountID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.data.notifications[id]
	if !ok || n.AccountID != accountID {
		return models.ErrNotFound
	}
	n.IsRead = true
	r.s.data.notifications[id] = n
	return nil
}

func (r *NotificationRepo) MarkAllRead(_ context.Context, accountID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var c int64
	for id, n := range r.s.data.notifications {
		if n.AccountID == accountID && !n.IsRead {
			n.IsRead = true
			r.s.data.notifications[id] = n
			c++
		}
	}
	return c, nil
}
