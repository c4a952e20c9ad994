package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusApproved  WithdrawalStatus = "approved"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
	WithdrawalStatusProcessed WithdrawalStatus = "processed"
)

func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalStatusPending, WithdrawalStatusApproved, WithdrawalStatusRejected, WithdrawalStatusProcessed:
		return true
	}
	return false
}

type PayoutMethod string

const (
	PayoutPaypal PayoutMethod = "paypal"
	PayoutBank   PayoutMethod = "bank"
	PayoutCrypto PayoutMethod = "crypto"
)

// PayoutDetails holds the destination for the off-platform transfer. Which
// field is set depends on the payout method.
type PayoutDetails struct {
	Email         string `json:"email,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	WalletAddress string `json:"wallet_address,omitempty"`
}

type Withdrawal struct {
	ID              uuid.UUID        `json:"id"`
	WorkerID        uuid.UUID        `json:"worker_id"`
	Coins           int64            `json:"coins"`
	Amount          decimal.Decimal  `json:"amount"`
	PaymentMethod   PayoutMethod     `json:"payment_method"`
	PaymentDetails  PayoutDetails    `json:"payment_details"`
	Status          WithdrawalStatus `json:"status"`
	ReviewedBy      *uuid.UUID       `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time       `json:"reviewed_at,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	ProcessedAt     *time.Time       `json:"processed_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (w *Withdrawal) Approve(reviewer uuid.UUID, at time.Time) error {
	if w.Status != WithdrawalStatusPending {
		return ErrAlreadyProcessed
	}
	w.Status = WithdrawalStatusApproved
	w.ReviewedBy = &reviewer
	w.ReviewedAt = &at
	return nil
}

func (w *Withdrawal) Reject(reviewer uuid.UUID, reason string, at time.Time) error {
	if w.Status != WithdrawalStatusPending {
		return ErrAlreadyProcessed
	}
	if reason == "" {
		reason = DefaultRejectionReason
	}
	w.Status = WithdrawalStatusRejected
	w.ReviewedBy = &reviewer
	w.ReviewedAt = &at
	w.RejectionReason = reason
	return nil
}

// MarkProcessed confirms the off-platform payout. Only approved withdrawals
// can be processed and processed is final.
func (w *Withdrawal) MarkProcessed(at time.Time) error {
	if w.Status != WithdrawalStatusApproved {
		return ErrNotApproved
	}
	w.Status = WithdrawalStatusProcessed
	w.ProcessedAt = &at
	return nil
}
