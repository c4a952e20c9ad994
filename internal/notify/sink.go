package notify

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/microearn/backend/internal/metrics"
	"github.com/microearn/backend/internal/models"
)

// Sink receives notification events after the triggering state change has
// committed. Emit never fails the caller.
type Sink interface {
	Emit(ctx context.Context, n models.Notification)
}

// Store persists delivered notifications.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
}

// DeliverArgs is the River job carrying one notification.
type DeliverArgs struct {
	Notification models.Notification `json:"notification"`
}

func (DeliverArgs) Kind() string { return "deliver_notification" }

// InsertFunc enqueues a delivery job.
type InsertFunc func(ctx context.Context, args DeliverArgs) error

// QueueSink hands events to River so delivery retries independently of the
// request that caused them.
type QueueSink struct {
	insert InsertFunc
	log    *slog.Logger
}

func NewQueueSink(insert InsertFunc, log *slog.Logger) *QueueSink {
	if log == nil {
		log = slog.Default()
	}
	return &QueueSink{insert: insert, log: log}
}

func (s *QueueSink) Emit(ctx context.Context, n models.Notification) {
	if err := s.insert(ctx, DeliverArgs{Notification: n}); err != nil {
		metrics.NotificationsDropped.Inc()
		s.log.Warn("notification enqueue failed", "type", n.Type, "account_id", n.AccountID, "error", err)
	}
}

// StoreSink writes events straight to the store in the caller's goroutine,
// with no queue in between. Store errors are logged and dropped.
type StoreSink struct {
	store Store
	log   *slog.Logger
}

func NewStoreSink(store Store, log *slog.Logger) *StoreSink {
	if log == nil {
		log = slog.Default()
	}
	return &StoreSink{store: store, log: log}
}

func (s *StoreSink) Emit(ctx context.Context, n models.Notification) {
	if err := s.store.Create(ctx, &n); err != nil {
		metrics.NotificationsDropped.Inc()
		s.log.Warn("notification write failed", "type", n.Type, "account_id", n.AccountID, "error", err)
	}
}

// DeliverWorker persists queued notifications. The insert is idempotent on
// the notification id, so retries are safe.
type DeliverWorker struct {
	river.WorkerDefaults[DeliverArgs]
	store Store
}

func NewDeliverWorker(store Store) *DeliverWorker {
	return &DeliverWorker{store: store}
}

func (w *DeliverWorker) Work(ctx context.Context, job *river.Job[DeliverArgs]) error {
	n := job.Args.Notification
	return w.store.Create(ctx, &n)
}
