package models

import "time"

type TransactionType string

const (
	DepositTransaction    TransactionType = "deposit"
	WithdrawTransaction   TransactionType = "withdraw"
	AdjustmentTransaction TransactionType = "adjustment"
)

// Adjustment methods correlate game money movement with a round reference.
const (
	StakeMethod  = "stake"
	RefundMethod = "refund"
	WinMethod    = "win"
)

type Transaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       int64           `gorm:"index:idx_tx_user_method_ref" json:"user_id"`
	Type         TransactionType `json:"type"`
	Method       string          `gorm:"index:idx_tx_user_method_ref" json:"method"`
	Amount       int64           `json:"amount"`
	BalanceAfter int64           `json:"balance_after"`
	Reference    string          `gorm:"index:idx_tx_user_method_ref" json:"reference"`
	CreatedAt    time.Time       `json:"created_at"`
}
