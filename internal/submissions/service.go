package submissions

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

// Store is the submission repository.
type Store interface {
	CreateTx(ctx context.Context, tx pgx.Tx, sub *models.Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Submission, error)
	ExistsForWorkerTx(ctx context.Context, tx pgx.Tx, taskID, workerID uuid.UUID) (bool, error)
	UpdateReviewTx(ctx context.Context, tx pgx.Tx, sub *models.Submission) error
	CountApprovedTx(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) (int, error)
	ListByWorker(ctx context.Context, workerID uuid.UUID, status models.SubmissionStatus, page models.Page) ([]*models.Submission, int, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.Submission, error)
}

// Slots is the task-side accounting a review needs. The tx methods run on a
// task locked with Lock.
type Slots interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Lock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error)
	AcceptSubmissionSlot(ctx context.Context, tx pgx.Tx, task *models.Task) error
	ReleaseSubmissionSlot(ctx context.Context, tx pgx.Tx, task *models.Task) error
	MaybeComplete(ctx context.Context, tx pgx.Tx, task *models.Task, approved int) (bool, error)
}

type SubmitParams struct {
	TaskID uuid.UUID
	Text   string
	Images []string
}

type Service struct {
	db     database.TxBeginner
	subs   Store
	slots  Slots
	ledger ledger.Service
	sink   notify.Sink
	log    *slog.Logger
	now    func() time.Time
}

func NewService(db database.TxBeginner, subs Store, slots Slots, ledger ledger.Service, sink notify.Sink, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, subs: subs, slots: slots, ledger: ledger, sink: sink, log: log, now: time.Now}
}

// Submit records a worker's proof and takes one slot on the task. The slot
// and the submission row commit together or not at all.
func (s *Service) Submit(ctx context.Context, worker models.Actor, p SubmitParams) (*models.Submission, error) {
	var (
		task *models.Task
		sub  *models.Submission
	)
	err := database.InTx(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		task, err = s.slots.Lock(ctx, tx, p.TaskID)
		if err != nil {
			return err
		}
		if !task.AcceptingSubmissions(s.now()) {
			return models.ErrTaskClosed
		}
		dup, err := s.subs.ExistsForWorkerTx(ctx, tx, task.ID, worker.ID)
		if err != nil {
			return err
		}
		if dup {
			return models.ErrDuplicateSubmission
		}
		if err := s.slots.AcceptSubmissionSlot(ctx, tx, task); err != nil {
			return err
		}
		images := p.Images
		if images == nil {
			images = []string{}
		}
		sub = &models.Submission{
			ID:       uuid.New(),
			TaskID:   task.ID,
			WorkerID: worker.ID,
			Text:     p.Text,
			Images:   images,
			Status:   models.SubmissionStatusPending,
		}
		return s.subs.CreateTx(ctx, tx, sub)
	})
	if err != nil {
		return nil, err
	}

	metrics.Transition("submission", string(sub.Status))
	s.log.Info("submission created", "submission_id", sub.ID, "task_id", task.ID, "worker_id", worker.ID)
	s.sink.Emit(ctx, notify.SubmissionCreated(task, sub))
	return sub, nil
}

// Approve credits the worker the task's coinsPerWorker and completes the
// task once enough submissions are approved.
func (s *Service) Approve(ctx context.Context, reviewer models.Actor, id uuid.UUID) (*models.Submission, error) {
	var (
		task      *models.Task
		sub       *models.Submission
		completed bool
	)
	err := s.review(ctx, reviewer, id, func(tx pgx.Tx, t *models.Task, locked *models.Submission) error {
		task, sub = t, locked
		if err := sub.Approve(reviewer.ID, task.CoinsPerWorker, s.now()); err != nil {
			return err
		}
		if _, err := s.ledger.Credit(ctx, tx, sub.WorkerID, task.CoinsPerWorker, models.LedgerTaskEarning, &sub.ID); err != nil {
			return err
		}
		if err := s.subs.UpdateReviewTx(ctx, tx, sub); err != nil {
			return err
		}
		approved, err := s.subs.CountApprovedTx(ctx, tx, task.ID)
		if err != nil {
			return err
		}
		completed, err = s.slots.MaybeComplete(ctx, tx, task, approved)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.Coins(string(models.LedgerTaskEarning), task.CoinsPerWorker)
	metrics.Transition("submission", string(sub.Status))
	s.log.Info("submission approved", "submission_id", sub.ID, "task_id", task.ID, "reviewer_id", reviewer.ID, "coins", task.CoinsPerWorker)
	s.sink.Emit(ctx, notify.SubmissionApproved(task, sub))
	if completed {
		metrics.Transition("task", string(task.Status))
		s.log.Info("task completed", "task_id", task.ID)
		s.sink.Emit(ctx, notify.TaskCompleted(task))
	}
	return sub, nil
}

// Reject records the reason and reopens the slot. The worker is not paid
// and the buyer is not refunded.
func (s *Service) Reject(ctx context.Context, reviewer models.Actor, id uuid.UUID, reason string) (*models.Submission, error) {
	var (
		task *models.Task
		sub  *models.Submission
	)
	err := s.review(ctx, reviewer, id, func(tx pgx.Tx, t *models.Task, locked *models.Submission) error {
		task, sub = t, locked
		if err := sub.Reject(reviewer.ID, reason, s.now()); err != nil {
			return err
		}
		if err := s.subs.UpdateReviewTx(ctx, tx, sub); err != nil {
			return err
		}
		return s.slots.ReleaseSubmissionSlot(ctx, tx, task)
	})
	if err != nil {
		return nil, err
	}

	metrics.Transition("submission", string(sub.Status))
	s.log.Info("submission rejected", "submission_id", sub.ID, "task_id", task.ID, "reviewer_id", reviewer.ID)
	s.sink.Emit(ctx, notify.SubmissionRejected(task, sub))
	return sub, nil
}

// review locks the task then the submission, always in that order, and
// checks the reviewer before handing both to apply.
func (s *Service) review(ctx context.Context, reviewer models.Actor, id uuid.UUID, apply func(pgx.Tx, *models.Task, *models.Submission) error) error {
	current, err := s.subs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return database.InTx(ctx, s.db, func(tx pgx.Tx) error {
		task, err := s.slots.Lock(ctx, tx, current.TaskID)
		if err != nil {
			return fmt.Errorf("task of submission %s: %w", id, err)
		}
		if !reviewer.CanReview(task) {
			return models.ErrNotAuthorized
		}
		sub, err := s.subs.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		return apply(tx, task, sub)
	})
}

func (s *Service) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Submission, error) {
	sub, err := s.subs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.WorkerID == actor.ID {
		return sub, nil
	}
	task, err := s.slots.Get(ctx, sub.TaskID)
	if err != nil {
		return nil, err
	}
	if !actor.CanReview(task) {
		return nil, models.ErrNotAuthorized
	}
	return sub, nil
}

func (s *Service) ListByWorker(ctx context.Context, worker models.Actor, status models.SubmissionStatus, page models.Page) ([]*models.Submission, models.Pagination, error) {
	if status != "" && !status.Valid() {
		return nil, models.Pagination{}, fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
	}
	page = page.Normalize()
	list, total, err := s.subs.ListByWorker(ctx, worker.ID, status, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	if list == nil {
		list = []*models.Submission{}
	}
	return list, models.NewPagination(page, total), nil
}

// ListByTask returns every submission on a task to its buyer or an admin.
func (s *Service) ListByTask(ctx context.Context, actor models.Actor, taskID uuid.UUID) ([]*models.Submission, error) {
	task, err := s.slots.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !actor.CanReview(task) {
		return nil, models.ErrNotAuthorized
	}
	list, err := s.subs.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Submission{}
	}
	return list, nil
}
