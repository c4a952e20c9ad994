package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/microearn/backend/internal/models"
)

const withdrawalColumns = `id, worker_id, coins, amount, payment_method, payment_details, status, reviewed_by, reviewed_at, rejection_reason, processed_at, created_at, updated_at`

type WithdrawalRepo struct {
	pool *pgxpool.Pool
}

func NewWithdrawalRepo(pool *pgxpool.Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

func scanWithdrawal(row pgx.Row) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := row.Scan(&w.ID, &w.WorkerID, &w.Coins, &w.Amount, &w.PaymentMethod, &w.PaymentDetails, &w.Status, &w.ReviewedBy, &w.ReviewedAt, &w.RejectionReason, &w.ProcessedAt, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func collectWithdrawals(rows pgx.Rows) ([]*models.Withdrawal, error) {
	defer rows.Close()
	var list []*models.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

func (r *WithdrawalRepo) CreateTx(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error {
	return tx.QueryRow(ctx, `
		INSERT INTO withdrawals (id, worker_id, coins, amount, payment_method, payment_details, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, w.ID, w.WorkerID, w.Coins, w.Amount, w.PaymentMethod, w.PaymentDetails, w.Status).Scan(&w.CreatedAt, &w.UpdatedAt)
}

func (r *WithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	w, err := scanWithdrawal(r.pool.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id))
	return w, notFound(err, models.ErrWithdrawalNotFound)
}

// GetByIDForUpdate locks the withdrawal row. Call within a transaction.
func (r *WithdrawalRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Withdrawal, error) {
	w, err := scanWithdrawal(tx.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE`, id))
	return w, notFound(err, models.ErrWithdrawalNotFound)
}

// UpdateTx persists review and processing fields.
func (r *WithdrawalRepo) UpdateTx(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error {
	return tx.QueryRow(ctx, `
		UPDATE withdrawals
		SET status = $2, reviewed_by = $3, reviewed_at = $4, rejection_reason = $5, processed_at = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, w.ID, w.Status, w.ReviewedBy, w.ReviewedAt, w.RejectionReason, w.ProcessedAt).Scan(&w.UpdatedAt)
}

func (r *WithdrawalRepo) ListByWorker(ctx context.Context, workerID uuid.UUID, limit int) ([]*models.Withdrawal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals WHERE worker_id = $1 ORDER BY created_at DESC LIMIT $2
	`, workerID, limit)
	if err != nil {
		return nil, err
	}
	return collectWithdrawals(rows)
}

// List returns one page of withdrawals, optionally filtered by status.
func (r *WithdrawalRepo) List(ctx context.Context, status models.WithdrawalStatus, page models.Page) ([]*models.Withdrawal, int, error) {
	page = page.Normalize()
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM withdrawals WHERE ($1 = '' OR status = $1)
	`, string(status)).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, string(status), page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	list, err := collectWithdrawals(rows)
	return list, total, err
}
