package payments

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

const webhookTolerance = 5 * time.Minute

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// BaseURL overrides the API host; empty means api.stripe.com.
	BaseURL    string
	SuccessURL string
	CancelURL  string
}

// StripeProvider runs Stripe Checkout through stripe-go.
type StripeProvider struct {
	cfg      StripeConfig
	sessions *session.Client
}

func NewStripeProvider(cfg StripeConfig, client *http.Client) *StripeProvider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	bc := &stripe.BackendConfig{
		HTTPClient:        client,
		MaxNetworkRetries: stripe.Int64(2),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.BaseURL != "" {
		bc.URL = stripe.String(strings.TrimRight(cfg.BaseURL, "/"))
	}
	return &StripeProvider{
		cfg: cfg,
		sessions: &session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, bc),
			Key: cfg.SecretKey,
		},
	}
}

var _ Provider = (*StripeProvider)(nil)

func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	cents := req.Amount.Mul(decimal.NewFromInt(100)).IntPart()
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.PaymentID.String()),
		SuccessURL:        stripe.String(p.cfg.SuccessURL),
		CancelURL:         stripe.String(p.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(req.Currency)),
				UnitAmount: stripe.Int64(cents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("%d coins", req.Coins)),
				},
			},
		}},
	}
	params.Context = ctx
	params.AddMetadata("payment_id", req.PaymentID.String())
	params.AddMetadata("buyer_id", req.BuyerID.String())
	params.AddMetadata("coins", strconv.FormatInt(req.Coins, 10))

	s, err := p.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &Session{Reference: s.ID, URL: s.URL}, nil
}

// Verify maps a checkout session to an outcome. A paid session succeeded
// and an expired one failed. A completed but unpaid session failed, unless
// its payment intent is still being processed by an async payment method.
func (p *StripeProvider) Verify(ctx context.Context, reference string) (Outcome, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")
	s, err := p.sessions.Get(reference, params)
	if err != nil {
		return "", fmt.Errorf("retrieve checkout session: %w", err)
	}
	return sessionOutcome(s), nil
}

func sessionOutcome(s *stripe.CheckoutSession) Outcome {
	switch {
	case s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		s.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return OutcomeSucceeded
	case s.Status == stripe.CheckoutSessionStatusExpired:
		return OutcomeFailed
	case s.Status == stripe.CheckoutSessionStatusComplete:
		if pi := s.PaymentIntent; pi != nil &&
			(pi.Status == stripe.PaymentIntentStatusProcessing || pi.Status == stripe.PaymentIntentStatusRequiresAction) {
			return OutcomePending
		}
		return OutcomeFailed
	}
	return OutcomePending
}

// ParseWebhook verifies the Stripe-Signature header against the raw payload
// and decodes the event.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, p.cfg.WebhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhookTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, err
	}
	var ref string
	if ev.Data != nil {
		ref, _ = ev.Data.Object["id"].(string)
	}
	return &WebhookEvent{Type: string(ev.Type), Reference: ref}, nil
}
