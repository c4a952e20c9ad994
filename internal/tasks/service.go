package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/microearn/backend/internal/database"
	"github.com/microearn/backend/internal/ledger"
	"github.com/microearn/backend/internal/metrics"
	"github.com/microearn/backend/internal/models"
)

// Store is the task repository.
type Store interface {
	CreateTx(ctx context.Context, tx pgx.Tx, t *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error)
	UpdateProgressTx(ctx context.Context, tx pgx.Tx, t *models.Task) error
	List(ctx context.Context, f models.TaskFilter) ([]*models.Task, int, error)
}

// SubmissionFinder looks up the one submission a worker made to a task.
type SubmissionFinder interface {
	GetByTaskAndWorker(ctx context.Context, taskID, workerID uuid.UUID) (*models.Submission, error)
}

// TaskDetail is a task as seen by one caller.
type TaskDetail struct {
	*models.Task
	UserSubmission *models.Submission `json:"user_submission,omitempty"`
}

type CreateParams struct {
	Title                  string
	Description            string
	ImageURL               string
	Category               string
	SubmissionInstructions string
	Deadline               *time.Time
	CoinsPerWorker         int64
	RequiredWorkers        int
}

const defaultCategory = "other"

// Service owns task funding, slot accounting, and status transitions.
type Service struct {
	db     database.TxBeginner
	tasks  Store
	ledger ledger.Service
	subs   SubmissionFinder
	log    *slog.Logger
	now    func() time.Time
}

func NewService(db database.TxBeginner, tasks Store, ledger ledger.Service, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, tasks: tasks, ledger: ledger, log: log, now: time.Now}
}

// Create debits coinsPerWorker * requiredWorkers from the buyer and stores
// the task as open, in one transaction.
func (s *Service) Create(ctx context.Context, buyer models.Actor, p CreateParams) (*models.Task, error) {
	if p.CoinsPerWorker < 1 || p.RequiredWorkers < 1 {
		return nil, fmt.Errorf("%w: coins per worker and required workers must be at least 1", models.ErrValidation)
	}
	if p.CoinsPerWorker > math.MaxInt64/int64(p.RequiredWorkers) {
		return nil, models.ErrInvalidAmount
	}
	if p.Deadline != nil && !p.Deadline.After(s.now()) {
		return nil, fmt.Errorf("%w: deadline must be in the future", models.ErrValidation)
	}
	category := strings.TrimSpace(p.Category)
	if category == "" {
		category = defaultCategory
	}

	task := &models.Task{
		ID:                     uuid.New(),
		BuyerID:                buyer.ID,
		Title:                  strings.TrimSpace(p.Title),
		Description:            p.Description,
		ImageURL:               p.ImageURL,
		Category:               category,
		SubmissionInstructions: p.SubmissionInstructions,
		Deadline:               p.Deadline,
		CoinsPerWorker:         p.CoinsPerWorker,
		RequiredWorkers:        p.RequiredWorkers,
		Status:                 models.TaskStatusOpen,
	}
	task.EscrowedCoins = task.EscrowTotal()

	err := database.InTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := s.ledger.Debit(ctx, tx, buyer.ID, task.EscrowedCoins, models.LedgerTaskEscrow, &task.ID); err != nil {
			return err
		}
		return s.tasks.CreateTx(ctx, tx, task)
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	metrics.Coins(string(models.LedgerTaskEscrow), task.EscrowedCoins)
	metrics.Transition("task", string(task.Status))
	s.log.Info("task created", "task_id", task.ID, "buyer_id", buyer.ID, "escrowed", task.EscrowedCoins)
	return task, nil
}

// UseSubmissions lets GetForActor attach the caller's own submission.
func (s *Service) UseSubmissions(f SubmissionFinder) {
	s.subs = f
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

// GetForActor returns the task along with actor's submission to it, if any.
func (s *Service) GetForActor(ctx context.Context, actor models.Actor, id uuid.UUID) (*TaskDetail, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &TaskDetail{Task: task}
	if s.subs == nil || actor.ID == uuid.Nil {
		return detail, nil
	}
	sub, err := s.subs.GetByTaskAndWorker(ctx, id, actor.ID)
	switch {
	case err == nil:
		detail.UserSubmission = sub
	case !errors.Is(err, models.ErrSubmissionNotFound):
		return nil, fmt.Errorf("lookup own submission: %w", err)
	}
	return detail, nil
}

// ListAvailable searches tasks; status defaults to open.
func (s *Service) ListAvailable(ctx context.Context, f models.TaskFilter) ([]*models.Task, models.Pagination, error) {
	if f.Status == "" {
		f.Status = models.TaskStatusOpen
	}
	if !f.Status.Valid() {
		return nil, models.Pagination{}, fmt.Errorf("%w: unknown status %q", models.ErrValidation, f.Status)
	}
	f.BuyerID = nil
	return s.list(ctx, f)
}

// ListByBuyer returns the buyer's own tasks in any status unless filtered.
func (s *Service) ListByBuyer(ctx context.Context, buyer models.Actor, status models.TaskStatus, page models.Page) ([]*models.Task, models.Pagination, error) {
	if status != "" && !status.Valid() {
		return nil, models.Pagination{}, fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
	}
	return s.list(ctx, models.TaskFilter{Status: status, BuyerID: &buyer.ID, Page: page})
}

func (s *Service) list(ctx context.Context, f models.TaskFilter) ([]*models.Task, models.Pagination, error) {
	f.Page = f.Page.Normalize()
	list, total, err := s.tasks.List(ctx, f)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	if list == nil {
		list = []*models.Task{}
	}
	return list, models.NewPagination(f.Page, total), nil
}

// UpdateStatus applies an explicit status change by the task's buyer or an
// admin. Only cancellation is an explicit transition; the escrow is kept.
func (s *Service) UpdateStatus(ctx context.Context, actor models.Actor, id uuid.UUID, status models.TaskStatus) (*models.Task, error) {
	if status != models.TaskStatusCancelled {
		return nil, fmt.Errorf("%w: %s cannot be set directly", models.ErrInvalidTransition, status)
	}
	var task *models.Task
	err := database.InTx(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		task, err = s.tasks.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !actor.CanManageTask(task) {
			return models.ErrNotAuthorized
		}
		if err := task.Cancel(); err != nil {
			return err
		}
		return s.tasks.UpdateProgressTx(ctx, tx, task)
	})
	if err != nil {
		return nil, err
	}
	metrics.Transition("task", string(task.Status))
	s.log.Info("task status updated", "task_id", id, "status", task.Status, "actor_id", actor.ID)
	return task, nil
}

// ─── Slot accounting, called inside the submission review transaction ──────

// Lock reads the task with a row lock held until tx ends.
func (s *Service) Lock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error) {
	return s.tasks.GetByIDForUpdate(ctx, tx, id)
}

// AcceptSubmissionSlot takes one slot on a locked task.
func (s *Service) AcceptSubmissionSlot(ctx context.Context, tx pgx.Tx, task *models.Task) error {
	if err := task.AcceptSlot(); err != nil {
		return err
	}
	return s.tasks.UpdateProgressTx(ctx, tx, task)
}

// ReleaseSubmissionSlot reopens a slot after a rejection. Terminal tasks are
// left as they are.
func (s *Service) ReleaseSubmissionSlot(ctx context.Context, tx pgx.Tx, task *models.Task) error {
	if !task.ReleaseSlot() {
		return nil
	}
	return s.tasks.UpdateProgressTx(ctx, tx, task)
}

// MaybeComplete completes a locked task once approved reaches the required
// worker count.
func (s *Service) MaybeComplete(ctx context.Context, tx pgx.Tx, task *models.Task, approved int) (bool, error) {
	if !task.CompleteIfFilled(approved) {
		return false, nil
	}
	return true, s.tasks.UpdateProgressTx(ctx, tx, task)
}
