package payments

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/microearn/backend/internal/database"
	"github.com/microearn/backend/internal/ledger"
	"github.com/microearn/backend/internal/metrics"
	"github.com/microearn/backend/internal/models"
	"github.com/microearn/backend/internal/notify"
)

// Store is the payment repository.
type Store interface {
	Create(ctx context.Context, p *models.Payment) error
	SetReference(ctx context.Context, id uuid.UUID, reference string) error
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)
	GetByReferenceForUpdate(ctx context.Context, tx pgx.Tx, reference string) (*models.Payment, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, p *models.Payment) error
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]*models.Payment, error)
}

// Webhook event types that can change a session's outcome.
var settlingEvents = map[string]bool{
	"checkout.session.completed":               true,
	"checkout.session.async_payment_succeeded": true,
	"checkout.session.async_payment_failed":    true,
	"checkout.session.expired":                 true,
}

type Service struct {
	db       database.TxBeginner
	payments Store
	provider Provider
	ledger   ledger.Service
	sink     notify.Sink
	enqueue  SettleInsertFunc
	currency string
	log      *slog.Logger
}

func NewService(db database.TxBeginner, payments Store, provider Provider, ledger ledger.Service, sink notify.Sink, enqueue SettleInsertFunc, currency string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if currency == "" {
		currency = "usd"
	}
	return &Service{db: db, payments: payments, provider: provider, ledger: ledger, sink: sink, enqueue: enqueue, currency: currency, log: log}
}

// Initiate records a pending purchase and opens a checkout session for it.
// The buyer names both the fiat amount and the coins it buys.
func (s *Service) Initiate(ctx context.Context, buyer models.Actor, amount decimal.Decimal, coins int64) (*models.Payment, *Session, error) {
	if !amount.IsPositive() || coins <= 0 {
		return nil, nil, fmt.Errorf("%w: amount and coins must be positive", models.ErrInvalidAmount)
	}
	if !amount.Equal(amount.Round(2)) {
		return nil, nil, fmt.Errorf("%w: amount has more than two decimal places", models.ErrInvalidAmount)
	}

	p := &models.Payment{
		ID:       uuid.New(),
		BuyerID:  buyer.ID,
		Amount:   amount,
		Currency: s.currency,
		Coins:    coins,
		Status:   models.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("create payment: %w", err)
	}

	session, err := s.provider.CreateSession(ctx, SessionRequest{
		PaymentID: p.ID,
		BuyerID:   buyer.ID,
		Amount:    amount,
		Currency:  s.currency,
		Coins:     coins,
	})
	if err != nil {
		s.log.Warn("checkout session failed", "payment_id", p.ID, "error", err)
		return nil, nil, fmt.Errorf("%w: %v", models.ErrExternalVerificationFailed, err)
	}
	if err := s.payments.SetReference(ctx, p.ID, session.Reference); err != nil {
		return nil, nil, fmt.Errorf("store payment reference: %w", err)
	}
	p.Reference = session.Reference

	metrics.Transition("payment", string(p.Status))
	s.log.Info("payment initiated", "payment_id", p.ID, "buyer_id", buyer.ID, "amount", amount.StringFixed(2), "coins", coins)
	return p, session, nil
}

// Settle reconciles a payment with the provider. Safe to call any number
// of times from the confirm endpoint and the settle job concurrently: the
// buyer is credited at most once.
func (s *Service) Settle(ctx context.Context, reference string) (*models.Payment, error) {
	p, err := s.payments.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentStatusPending {
		return p, nil
	}

	outcome, err := s.provider.Verify(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExternalVerificationFailed, err)
	}
	if outcome == OutcomePending {
		return p, nil
	}

	var credited bool
	err = database.InTx(ctx, s.db, func(tx pgx.Tx) error {
		locked, err := s.payments.GetByReferenceForUpdate(ctx, tx, reference)
		if err != nil {
			return err
		}
		p = locked
		if p.Status != models.PaymentStatusPending {
			return nil
		}
		switch outcome {
		case OutcomeSucceeded:
			if _, err := s.ledger.Credit(ctx, tx, p.BuyerID, p.Coins, models.LedgerCoinPurchase, &p.ID); err != nil {
				return err
			}
			p.Status = models.PaymentStatusSucceeded
			credited = true
		case OutcomeFailed:
			p.Status = models.PaymentStatusFailed
		}
		return s.payments.UpdateStatusTx(ctx, tx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("settle payment: %w", err)
	}

	if p.Status != models.PaymentStatusPending {
		metrics.Transition("payment", string(p.Status))
	}
	if credited {
		metrics.Coins(string(models.LedgerCoinPurchase), p.Coins)
		s.log.Info("payment settled", "payment_id", p.ID, "buyer_id", p.BuyerID, "coins", p.Coins)
		s.sink.Emit(ctx, notify.PaymentSucceeded(p))
	}
	return p, nil
}

// Confirm is the synchronous settle path used by the buyer's browser after
// checkout. Only the paying buyer may confirm.
func (s *Service) Confirm(ctx context.Context, buyer models.Actor, reference string) (*models.Payment, error) {
	p, err := s.payments.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if p.BuyerID != buyer.ID && !buyer.IsAdmin() {
		return nil, models.ErrNotAuthorized
	}
	return s.Settle(ctx, reference)
}

// HandleWebhook verifies a provider callback and queues settlement for the
// session it names. Unrelated event types are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrExternalVerificationFailed, err)
	}
	if !settlingEvents[ev.Type] || ev.Reference == "" {
		s.log.Debug("webhook ignored", "type", ev.Type)
		return nil
	}
	if err := s.enqueue(ctx, SettleArgs{Reference: ev.Reference}); err != nil {
		return fmt.Errorf("enqueue settlement: %w", err)
	}
	s.log.Info("settlement queued", "type", ev.Type, "reference", ev.Reference)
	return nil
}

func (s *Service) ListByBuyer(ctx context.Context, buyer models.Actor) ([]*models.Payment, error) {
	list, err := s.payments.ListByBuyer(ctx, buyer.ID, models.PaymentHistoryLimit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Payment{}
	}
	return list, nil
}

// IsPending reports whether the provider has not decided p yet.
func IsPending(p *models.Payment) bool {
	return p != nil && p.Status == models.PaymentStatusPending
}
