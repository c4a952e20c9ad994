package models

import "github.com/shopspring/decimal"

// Marketplace policy. Exchange rates are fixed and not derived from market data.
const (
	MinWithdrawalCoins     int64 = 200
	WithdrawalCoinsPerUnit int64 = 20

	WorkerSignupBonus int64 = 10
	BuyerSignupBonus  int64 = 50

	PaymentHistoryLimit = 50

	DefaultRejectionReason = "No reason provided"
)

// SignupBonus is the one-time grant for the first role selection.
func SignupBonus(role Role) int64 {
	switch role {
	case RoleWorker:
		return WorkerSignupBonus
	case RoleBuyer:
		return BuyerSignupBonus
	}
	return 0
}

// WithdrawalAmount converts withdrawn coins to currency units.
func WithdrawalAmount(coins int64) decimal.Decimal {
	return decimal.NewFromInt(coins).Div(decimal.NewFromInt(WithdrawalCoinsPerUnit)).Round(2)
}
