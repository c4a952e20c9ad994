package withdrawals

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/microearn/backend/internal/database"
	"github.com/microearn/backend/internal/ledger"
	"github.com/microearn/backend/internal/metrics"
	"github.com/microearn/backend/internal/models"
	"github.com/microearn/backend/internal/notify"
)

const historyLimit = 50

// Store is the withdrawal repository.
type Store interface {
	CreateTx(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Withdrawal, error)
	UpdateTx(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error
	ListByWorker(ctx context.Context, workerID uuid.UUID, limit int) ([]*models.Withdrawal, error)
	List(ctx context.Context, status models.WithdrawalStatus, page models.Page) ([]*models.Withdrawal, int, error)
}

type RequestParams struct {
	Coins   int64
	Method  models.PayoutMethod
	Details models.PayoutDetails
}

type Service struct {
	db          database.TxBeginner
	withdrawals Store
	ledger      ledger.Service
	sink        notify.Sink
	log         *slog.Logger
	now         func() time.Time
}

func NewService(db database.TxBeginner, withdrawals Store, ledger ledger.Service, sink notify.Sink, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, withdrawals: withdrawals, ledger: ledger, sink: sink, log: log, now: time.Now}
}

// Request holds the worker's coins and records a pending cash-out.
func (s *Service) Request(ctx context.Context, worker models.Actor, p RequestParams) (*models.Withdrawal, error) {
	if p.Coins < models.MinWithdrawalCoins {
		return nil, fmt.Errorf("%w: minimum is %d coins", models.ErrBelowMinimum, models.MinWithdrawalCoins)
	}
	details, err := ValidatePayout(p.Method, p.Details)
	if err != nil {
		return nil, err
	}

	w := &models.Withdrawal{
		ID:             uuid.New(),
		WorkerID:       worker.ID,
		Coins:          p.Coins,
		Amount:         models.WithdrawalAmount(p.Coins),
		PaymentMethod:  p.Method,
		PaymentDetails: details,
		Status:         models.WithdrawalStatusPending,
	}
	err = database.InTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := s.ledger.Debit(ctx, tx, worker.ID, w.Coins, models.LedgerWithdrawalHold, &w.ID); err != nil {
			return err
		}
		return s.withdrawals.CreateTx(ctx, tx, w)
	})
	if err != nil {
		return nil, fmt.Errorf("request withdrawal: %w", err)
	}

	metrics.Coins(string(models.LedgerWithdrawalHold), w.Coins)
	metrics.Transition("withdrawal", string(w.Status))
	s.log.Info("withdrawal requested", "withdrawal_id", w.ID, "worker_id", worker.ID, "coins", w.Coins, "method", w.PaymentMethod)
	return w, nil
}

// Approve accepts a pending withdrawal. The coins stay debited.
func (s *Service) Approve(ctx context.Context, admin models.Actor, id uuid.UUID) (*models.Withdrawal, error) {
	w, err := s.transition(ctx, admin, id, func(tx pgx.Tx, w *models.Withdrawal) error {
		return w.Approve(admin.ID, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.sink.Emit(ctx, notify.WithdrawalApproved(w))
	return w, nil
}

// Reject refunds the held coins to the worker.
func (s *Service) Reject(ctx context.Context, admin models.Actor, id uuid.UUID, reason string) (*models.Withdrawal, error) {
	w, err := s.transition(ctx, admin, id, func(tx pgx.Tx, w *models.Withdrawal) error {
		if err := w.Reject(admin.ID, reason, s.now()); err != nil {
			return err
		}
		_, err := s.ledger.Credit(ctx, tx, w.WorkerID, w.Coins, models.LedgerWithdrawalRefund, &w.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.Coins(string(models.LedgerWithdrawalRefund), w.Coins)
	s.sink.Emit(ctx, notify.WithdrawalRejected(w))
	return w, nil
}

// MarkProcessed confirms the off-platform payout of an approved withdrawal.
func (s *Service) MarkProcessed(ctx context.Context, admin models.Actor, id uuid.UUID) (*models.Withdrawal, error) {
	w, err := s.transition(ctx, admin, id, func(tx pgx.Tx, w *models.Withdrawal) error {
		return w.MarkProcessed(s.now())
	})
	if err != nil {
		return nil, err
	}
	s.sink.Emit(ctx, notify.WithdrawalProcessed(w))
	return w, nil
}

func (s *Service) transition(ctx context.Context, admin models.Actor, id uuid.UUID, apply func(pgx.Tx, *models.Withdrawal) error) (*models.Withdrawal, error) {
	if !admin.CanManagePayouts() {
		return nil, models.ErrNotAuthorized
	}
	var w *models.Withdrawal
	err := database.InTx(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		w, err = s.withdrawals.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := apply(tx, w); err != nil {
			return err
		}
		return s.withdrawals.UpdateTx(ctx, tx, w)
	})
	if err != nil {
		return nil, err
	}
	metrics.Transition("withdrawal", string(w.Status))
	s.log.Info("withdrawal updated", "withdrawal_id", w.ID, "status", w.Status, "admin_id", admin.ID)
	return w, nil
}

func (s *Service) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Withdrawal, error) {
	w, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.WorkerID != actor.ID && !actor.CanManagePayouts() {
		return nil, models.ErrNotAuthorized
	}
	return w, nil
}

func (s *Service) ListByWorker(ctx context.Context, worker models.Actor) ([]*models.Withdrawal, error) {
	list, err := s.withdrawals.ListByWorker(ctx, worker.ID, historyLimit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Withdrawal{}
	}
	return list, nil
}

// List is the admin review queue.
func (s *Service) List(ctx context.Context, admin models.Actor, status models.WithdrawalStatus, page models.Page) ([]*models.Withdrawal, models.Pagination, error) {
	if !admin.CanManagePayouts() {
		return nil, models.Pagination{}, models.ErrNotAuthorized
	}
	if status != "" && !status.Valid() {
		return nil, models.Pagination{}, fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
	}
	page = page.Normalize()
	list, total, err := s.withdrawals.List(ctx, status, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	if list == nil {
		list = []*models.Withdrawal{}
	}
	return list, models.NewPagination(page, total), nil
}
