package models

import (
	"time"

	"github.com/google/uuid"
)

// LedgerEntryType classifies a coin movement.
type LedgerEntryType string

const (
	LedgerSignupBonus      LedgerEntryType = "signup_bonus"
	LedgerAdminGrant       LedgerEntryType = "admin_grant"
	LedgerTaskEscrow       LedgerEntryType = "task_escrow"
	LedgerTaskEarning      LedgerEntryType = "task_earning"
	LedgerCoinPurchase     LedgerEntryType = "coin_purchase"
	LedgerWithdrawalHold   LedgerEntryType = "withdrawal_hold"
	LedgerWithdrawalRefund LedgerEntryType = "withdrawal_refund"
)

// IsDebit reports whether the entry type removes coins from the account.
func (t LedgerEntryType) IsDebit() bool {
	return t == LedgerTaskEscrow || t == LedgerWithdrawalHold
}

// CountsAsEarned reports whether a credit of this type increments total_earned.
func (t LedgerEntryType) CountsAsEarned() bool { return t == LedgerTaskEarning }

// CountsAsSpent reports whether a debit of this type increments total_spent.
func (t LedgerEntryType) CountsAsSpent() bool { return t == LedgerTaskEscrow }

// LedgerEntry is one row of the append-only coin journal. Amount is signed:
// negative for debits.
type LedgerEntry struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    uuid.UUID       `json:"account_id"`
	EntryType    LedgerEntryType `json:"entry_type"`
	Amount       int64           `json:"amount"`
	BalanceAfter int64           `json:"balance_after"`
	RelatedID    *uuid.UUID      `json:"related_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
