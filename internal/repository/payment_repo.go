package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/microearn/backend/internal/models"
)

const paymentColumns = `id, buyer_id, amount, currency, coins, COALESCE(reference, ''), status, created_at, updated_at`

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.BuyerID, &p.Amount, &p.Currency, &p.Coins, &p.Reference, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a pending payment without a reference.
func (r *PaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO payments (id, buyer_id, amount, currency, coins, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, p.ID, p.BuyerID, p.Amount, p.Currency, p.Coins, p.Status).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// SetReference stores the settlement session id on a payment.
func (r *PaymentRepo) SetReference(ctx context.Context, id uuid.UUID, reference string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payments SET reference = $2, updated_at = now() WHERE id = $1
	`, id, reference)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepo) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE reference = $1`, reference))
	return p, notFound(err, models.ErrPaymentNotFound)
}

// GetByReferenceForUpdate locks the payment row. Call within a transaction.
func (r *PaymentRepo) GetByReferenceForUpdate(ctx context.Context, tx pgx.Tx, reference string) (*models.Payment, error) {
	p, err := scanPayment(tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE reference = $1 FOR UPDATE`, reference))
	return p, notFound(err, models.ErrPaymentNotFound)
}

func (r *PaymentRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, p *models.Payment) error {
	return tx.QueryRow(ctx, `
		UPDATE payments SET status = $2, updated_at = now() WHERE id = $1 RETURNING updated_at
	`, p.ID, p.Status).Scan(&p.UpdatedAt)
}

func (r *PaymentRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]*models.Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE buyer_id = $1 ORDER BY created_at DESC LIMIT $2
	`, buyerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
