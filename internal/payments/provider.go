package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Outcome is the settlement provider's view of a session.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomePending   Outcome = "pending"
	OutcomeFailed    Outcome = "failed"
)

type SessionRequest struct {
	PaymentID uuid.UUID
	BuyerID   uuid.UUID
	Amount    decimal.Decimal
	Currency  string
	Coins     int64
}

// Session is an external checkout the buyer is redirected to.
type Session struct {
	Reference string `json:"reference"`
	URL       string `json:"url"`
}

// WebhookEvent is a verified provider callback.
type WebhookEvent struct {
	Type      string
	Reference string
}

// Provider is the external settlement collaborator.
type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	Verify(ctx context.Context, reference string) (Outcome, error)
	// ParseWebhook checks the signature header and decodes the event.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
