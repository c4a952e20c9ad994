package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/microearn/backend/internal/models"
)

const taskColumns = `id, buyer_id, title, description, image_url, category, submission_instructions, deadline, coins_per_worker, required_workers, current_workers, escrowed_coins, status, created_at, updated_at`

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.BuyerID, &t.Title, &t.Description, &t.ImageURL, &t.Category, &t.SubmissionInstructions, &t.Deadline, &t.CoinsPerWorker, &t.RequiredWorkers, &t.CurrentWorkers, &t.EscrowedCoins, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTx inserts a task inside the given transaction.
func (r *TaskRepo) CreateTx(ctx context.Context, tx pgx.Tx, t *models.Task) error {
	return tx.QueryRow(ctx, `
		INSERT INTO tasks (id, buyer_id, title, description, image_url, category, submission_instructions, deadline, coins_per_worker, required_workers, current_workers, escrowed_coins, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`, t.ID, t.BuyerID, t.Title, t.Description, t.ImageURL, t.Category, t.SubmissionInstructions, t.Deadline, t.CoinsPerWorker, t.RequiredWorkers, t.CurrentWorkers, t.EscrowedCoins, t.Status).Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	return t, notFound(err, models.ErrTaskNotFound)
}

// GetByIDForUpdate locks the task row. Call within a transaction.
func (r *TaskRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error) {
	t, err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
	return t, notFound(err, models.ErrTaskNotFound)
}

// UpdateProgressTx persists slot counters and status. Call after
// GetByIDForUpdate in same tx.
func (r *TaskRepo) UpdateProgressTx(ctx context.Context, tx pgx.Tx, t *models.Task) error {
	return tx.QueryRow(ctx, `
		UPDATE tasks SET required_workers = $2, current_workers = $3, status = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, t.ID, t.RequiredWorkers, t.CurrentWorkers, t.Status).Scan(&t.UpdatedAt)
}

// List returns one page of tasks matching f and the total match count.
func (r *TaskRepo) List(ctx context.Context, f models.TaskFilter) ([]*models.Task, int, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(f.Status))
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	if f.BuyerID != nil {
		where = append(where, "buyer_id = "+arg(*f.BuyerID))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg("%" + escapeLike(q) + "%")
		where = append(where, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s OR category ILIKE %s)", p, p, p))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM tasks`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := f.Page.Normalize()
	query := `SELECT ` + taskColumns + ` FROM tasks` + clause +
		` ORDER BY created_at DESC LIMIT ` + arg(page.Limit) + ` OFFSET ` + arg(page.Offset())
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, t)
	}
	return list, total, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
