package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is the database row shape for a ledger entry header.
type LedgerEntry struct {
	EntryID     string
	TenantID    string
	EntryDate   time.Time
	Description string
	Source      string
	Status      string

	PaymentID      *string
	PeriodKey      *string
	ChargeType     *string
	AccrualEntryID *string
	PeriodRole     *string

	OriginalEntryID  *string
	ReversingEntryID *string

	AuditFields
}

// Posting is the database row shape for one debit/credit line.
type Posting struct {
	PostingID   string
	EntryID     string
	AccountID   string
	Role        string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// Allocation is the database row shape for one applied payment slice.
// The unique constraint over (payment_id, charge_type, period_key) backs
// the idempotency guard.
type Allocation struct {
	AllocationID      string
	PaymentID         string
	TenantID          string
	PeriodKey         string
	ChargeType        string
	AmountApplied     decimal.Decimal
	OutstandingBefore decimal.Decimal
	OutstandingAfter  decimal.Decimal
	Kind              string
	EntryID           string
	CreatedAt         time.Time
}
