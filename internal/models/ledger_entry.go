package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	LedgerKindDeposit      = "deposit"
	LedgerKindSubscription = "subscription"
	LedgerKindSpend        = "spend"
	LedgerKindReceive      = "receive"
	LedgerKindWithdrawal   = "withdrawal"

	LedgerStatusPending   = "pending"
	LedgerStatusCompleted = "completed"
	LedgerStatusRejected  = "rejected"
	LedgerStatusRefunded  = "refunded"

	CurrencyCoins = "coins"
	CurrencyFiat  = "fiat"
)

// LedgerEntry is immutable once created except for the pending->decided
// status transition written by the approval flow.
type LedgerEntry struct {
	bun.BaseModel   `bun:"table:ledger_entry"`
	ID              string     `bun:"id,pk" json:"id"`
	OwnerID         string     `bun:"owner_id" json:"owner_id"`
	Kind            string     `bun:"kind" json:"kind"`
	Amount          int        `bun:"amount" json:"amount"`
	FiatAmount      int64      `bun:"fiat_amount,default:0" json:"fiat_amount"`
	Currency        string     `bun:"currency,default:'coins'" json:"currency"`
	Status          string     `bun:"status,default:'pending'" json:"status"`
	CounterpartyID  *string    `bun:"counterparty_id" json:"counterparty_id"`
	AdID            *int64     `bun:"ad_id" json:"ad_id"`
	ReferenceID     *string    `bun:"reference_id" json:"reference_id"`
	PackageID       *string    `bun:"package_id" json:"package_id"`
	Plan            *string    `bun:"plan" json:"plan"`
	Months          int        `bun:"months,default:0" json:"months"`
	Destination     *string    `bun:"destination" json:"destination"`
	RejectionReason *string    `bun:"rejection_reason" json:"rejection_reason"`
	Description     string     `bun:"description" json:"description"`
	CreatedAt       time.Time  `bun:"created_at,default:current_timestamp" json:"created_at"`
	DecidedAt       *time.Time `bun:"decided_at" json:"decided_at"`
}

func (entry *LedgerEntry) Pending() bool {
	return entry.Status == LedgerStatusPending
}
