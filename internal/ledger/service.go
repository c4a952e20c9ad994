package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/microearn/backend/internal/models"
)

// AccountStore is the minimal account repository the ledger needs.
type AccountStore interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error)
	ApplyDelta(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta, earned, spent int64) (newBalance int64, err error)
	MarkInitialCoinsReceived(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// JournalStore persists coin_ledger entries.
type JournalStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error
	ListByAccountID(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.LedgerEntry, error)
}

// Service moves coins. Every mutating call runs inside the caller's
// transaction: it locks the account row, applies the balance change and the
// matching counter in one statement, and appends a journal entry.
type Service interface {
	Credit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64, kind models.LedgerEntryType, relatedID *uuid.UUID) (int64, error)
	Debit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64, kind models.LedgerEntryType, relatedID *uuid.UUID) (int64, error)
	GrantInitialBonus(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, role models.Role) (int64, error)
	History(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.LedgerEntry, error)
}

type service struct {
	accounts AccountStore
	journal  JournalStore
}

func NewService(accounts AccountStore, journal JournalStore) Service {
	return &service{accounts: accounts, journal: journal}
}

var _ Service = (*service)(nil)

func (s *service) Credit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64, kind models.LedgerEntryType, relatedID *uuid.UUID) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit %d: %w", amount, models.ErrInvalidAmount)
	}
	if kind.IsDebit() {
		return 0, fmt.Errorf("credit with debit entry type %s: %w", kind, models.ErrInvalidAmount)
	}
	if _, err := s.accounts.GetByIDForUpdate(ctx, tx, accountID); err != nil {
		return 0, err
	}
	var earned int64
	if kind.CountsAsEarned() {
		earned = amount
	}
	balance, err := s.accounts.ApplyDelta(ctx, tx, accountID, amount, earned, 0)
	if err != nil {
		return 0, err
	}
	return balance, s.record(ctx, tx, accountID, kind, amount, balance, relatedID)
}

func (s *service) Debit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64, kind models.LedgerEntryType, relatedID *uuid.UUID) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit %d: %w", amount, models.ErrInvalidAmount)
	}
	if !kind.IsDebit() {
		return 0, fmt.Errorf("debit with credit entry type %s: %w", kind, models.ErrInvalidAmount)
	}
	acc, err := s.accounts.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return 0, err
	}
	if acc.Coins < amount {
		return 0, models.ErrInsufficientFunds
	}
	var spent int64
	if kind.CountsAsSpent() {
		spent = amount
	}
	balance, err := s.accounts.ApplyDelta(ctx, tx, accountID, -amount, 0, spent)
	if err != nil {
		return 0, err
	}
	return balance, s.record(ctx, tx, accountID, kind, -amount, balance, relatedID)
}

// GrantInitialBonus pays the role's signup bonus once per account. Returns
// the amount granted, zero when the flag was already set.
func (s *service) GrantInitialBonus(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, role models.Role) (int64, error) {
	acc, err := s.accounts.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return 0, err
	}
	if acc.InitialCoinsReceived {
		return 0, nil
	}
	if err := s.accounts.MarkInitialCoinsReceived(ctx, tx, accountID); err != nil {
		return 0, err
	}
	bonus := models.SignupBonus(role)
	if bonus == 0 {
		return 0, nil
	}
	if _, err := s.Credit(ctx, tx, accountID, bonus, models.LedgerSignupBonus, nil); err != nil {
		return 0, err
	}
	return bonus, nil
}

func (s *service) History(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.LedgerEntry, error) {
	return s.journal.ListByAccountID(ctx, accountID, limit)
}

func (s *service) record(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, kind models.LedgerEntryType, amount, balance int64, relatedID *uuid.UUID) error {
	return s.journal.CreateTx(ctx, tx, &models.LedgerEntry{
		ID:           uuid.New(),
		AccountID:    accountID,
		EntryType:    kind,
		Amount:       amount,
		BalanceAfter: balance,
		RelatedID:    relatedID,
	})
}
