package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/microearn/backend/internal/models"
)

const submissionColumns = `id, task_id, worker_id, text, images, status, reviewed_by, reviewed_at, rejection_reason, coins_awarded, created_at, updated_at`

type SubmissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	var s models.Submission
	err := row.Scan(&s.ID, &s.TaskID, &s.WorkerID, &s.Text, &s.Images, &s.Status, &s.ReviewedBy, &s.ReviewedAt, &s.RejectionReason, &s.CoinsAwarded, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSubmissions(rows pgx.Rows) ([]*models.Submission, error) {
	defer rows.Close()
	var list []*models.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// CreateTx inserts a submission. The (task_id, worker_id) unique key maps to
// ErrDuplicateSubmission.
func (r *SubmissionRepo) CreateTx(ctx context.Context, tx pgx.Tx, s *models.Submission) error {
	if s.Images == nil {
		s.Images = []string{}
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO submissions (id, task_id, worker_id, text, images, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, s.ID, s.TaskID, s.WorkerID, s.Text, s.Images, s.Status).Scan(&s.CreatedAt, &s.UpdatedAt)
	if isUniqueViolation(err, "submissions_task_worker_key") {
		return models.ErrDuplicateSubmission
	}
	return err
}

func (r *SubmissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	s, err := scanSubmission(r.pool.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id))
	return s, notFound(err, models.ErrSubmissionNotFound)
}

// GetByIDForUpdate locks the submission row. Call within a transaction.
func (r *SubmissionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Submission, error) {
	s, err := scanSubmission(tx.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1 FOR UPDATE`, id))
	return s, notFound(err, models.ErrSubmissionNotFound)
}

func (r *SubmissionRepo) GetByTaskAndWorker(ctx context.Context, taskID, workerID uuid.UUID) (*models.Submission, error) {
	s, err := scanSubmission(r.pool.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE task_id = $1 AND worker_id = $2`, taskID, workerID))
	return s, notFound(err, models.ErrSubmissionNotFound)
}

// ExistsForWorkerTx reports whether worker already submitted to task.
func (r *SubmissionRepo) ExistsForWorkerTx(ctx context.Context, tx pgx.Tx, taskID, workerID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM submissions WHERE task_id = $1 AND worker_id = $2)
	`, taskID, workerID).Scan(&exists)
	return exists, err
}

// UpdateReviewTx persists a review decision.
func (r *SubmissionRepo) UpdateReviewTx(ctx context.Context, tx pgx.Tx, s *models.Submission) error {
	return tx.QueryRow(ctx, `
		UPDATE submissions
		SET status = $2, reviewed_by = $3, reviewed_at = $4, rejection_reason = $5, coins_awarded = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, s.ID, s.Status, s.ReviewedBy, s.ReviewedAt, s.RejectionReason, s.CoinsAwarded).Scan(&s.UpdatedAt)
}

// CountApprovedTx counts approved submissions for a task. The task row must
// be locked by the caller so the count is stable until commit.
func (r *SubmissionRepo) CountApprovedTx(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `
		SELECT count(*) FROM submissions WHERE task_id = $1 AND status = 'approved'
	`, taskID).Scan(&n)
	return n, err
}

func (r *SubmissionRepo) ListByWorker(ctx context.Context, workerID uuid.UUID, status models.SubmissionStatus, page models.Page) ([]*models.Submission, int, error) {
	page = page.Normalize()
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM submissions WHERE worker_id = $1 AND ($2 = '' OR status = $2)
	`, workerID, string(status)).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE worker_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`, workerID, string(status), page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	list, err := collectSubmissions(rows)
	return list, total, err
}

func (r *SubmissionRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.Submission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+submissionColumns+` FROM submissions WHERE task_id = $1 ORDER BY created_at DESC
	`, taskID)
	if err != nil {
		return nil, err
	}
	return collectSubmissions(rows)
}
