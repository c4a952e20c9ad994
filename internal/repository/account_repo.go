package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/microearn/backend/internal/models"
)

const accountColumns = `id, email, display_name, photo_url, password_hash, role, coins, total_earned, total_spent, initial_coins_received, is_active, created_at, updated_at`

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Email, &a.DisplayName, &a.PhotoURL, &a.PasswordHash, &a.Role, &a.Coins, &a.TotalEarned, &a.TotalSpent, &a.InitialCoinsReceived, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new account with a zero balance. Coins are only ever
// added through the ledger.
func (r *AccountRepo) Create(ctx context.Context, a *models.Account) error {
	a.IsActive = true
	err := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, email, display_name, photo_url, password_hash, role, initial_coins_received, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, a.ID, a.Email, a.DisplayName, a.PhotoURL, a.PasswordHash, a.Role, a.InitialCoinsReceived, a.IsActive).Scan(&a.CreatedAt, &a.UpdatedAt)
	if isUniqueViolation(err, "") {
		return models.ErrDuplicateEmail
	}
	return err
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	return a, notFound(err, models.ErrAccountNotFound)
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, email))
	return a, notFound(err, models.ErrAccountNotFound)
}

func (r *AccountRepo) List(ctx context.Context, page models.Page) ([]*models.Account, int, error) {
	page = page.Normalize()
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM accounts`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, a)
	}
	return list, total, rows.Err()
}

// GetByIDForUpdate locks the account row for update. Call within a transaction.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error) {
	a, err := scanAccount(tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
	return a, notFound(err, models.ErrAccountNotFound)
}

// ApplyDelta moves the balance by delta and bumps the lifetime counters in a
// single statement. The row is only updated if the balance stays non-negative.
func (r *AccountRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta, earned, spent int64) (newBalance int64, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE accounts
		SET coins = coins + $2, total_earned = total_earned + $3, total_spent = total_spent + $4, updated_at = now()
		WHERE id = $1 AND coins + $2 >= 0
		RETURNING coins
	`, id, delta, earned, spent).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrInsufficientFunds
	}
	return newBalance, err
}

// SetRole changes the account role. Call after GetByIDForUpdate in same tx.
func (r *AccountRepo) SetRole(ctx context.Context, tx pgx.Tx, id uuid.UUID, role models.Role) error {
	_, err := tx.Exec(ctx, `UPDATE accounts SET role = $2, updated_at = now() WHERE id = $1`, id, role)
	return err
}

// MarkInitialCoinsReceived sets the one-time bonus flag. Call after
// GetByIDForUpdate in same tx.
func (r *AccountRepo) MarkInitialCoinsReceived(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `UPDATE accounts SET initial_coins_received = TRUE, updated_at = now() WHERE id = $1`, id)
	return err
}
