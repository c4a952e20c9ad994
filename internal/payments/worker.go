package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/microearn/backend/internal/models"
)

var errStillPending = errors.New("payment still pending at provider")

// SettleArgs is the River job queued by a verified webhook.
type SettleArgs struct {
	Reference string `json:"reference"`
}

func (SettleArgs) Kind() string { return "settle_payment" }

// SettleInsertFunc enqueues a settlement job.
type SettleInsertFunc func(ctx context.Context, args SettleArgs) error

// Settler is what the worker needs from the service.
type Settler interface {
	Settle(ctx context.Context, reference string) (*models.Payment, error)
}

type SettleWorker struct {
	river.WorkerDefaults[SettleArgs]
	settler Settler
}

func NewSettleWorker(settler Settler) *SettleWorker {
	return &SettleWorker{settler: settler}
}

// Work settles the payment. Unknown references cancel the job; a session
// the provider still reports as pending is retried with River's backoff.
func (w *SettleWorker) Work(ctx context.Context, job *river.Job[SettleArgs]) error {
	p, err := w.settler.Settle(ctx, job.Args.Reference)
	if errors.Is(err, models.ErrPaymentNotFound) {
		return river.JobCancel(err)
	}
	if err != nil {
		return err
	}
	if IsPending(p) {
		return fmt.Errorf("%s: %w", job.Args.Reference, errStillPending)
	}
	return nil
}
