package domain

import "github.com/shopspring/decimal"

// AllocationKind distinguishes money that settled an existing obligation
// from money deferred as a liability.
type AllocationKind string

const (
	KindSettlement AllocationKind = "SETTLEMENT"
	KindAdvance    AllocationKind = "ADVANCE"
)

// Allocation records how one slice of a payment was applied.
type Allocation struct {
	PaymentID         string          `json:"paymentID"`
	Period            PeriodKey       `json:"period"`
	ChargeType        ChargeType      `json:"chargeType"`
	AmountApplied     decimal.Decimal `json:"amountApplied"`
	OutstandingBefore decimal.Decimal `json:"outstandingBefore"`
	OutstandingAfter  decimal.Decimal `json:"outstandingAfter"`
	Kind              AllocationKind  `json:"kind"`
	EntryID           string          `json:"entryID"`
}

// AllocationResult is the outcome of allocating one payment. The
// conservation invariant holds: AppliedTotal() + RemainingUnapplied equals
// the payment total.
type AllocationResult struct {
	PaymentID          string          `json:"paymentID"`
	TenantID           string          `json:"tenantID"`
	Allocations        []Allocation    `json:"allocations"`
	RemainingUnapplied decimal.Decimal `json:"remainingUnapplied"`
	// Replayed is true when the payment had already been allocated and the
	// prior result was returned idempotently.
	Replayed bool `json:"replayed"`
}

// AppliedTotal sums the applied amounts across all allocations.
func (r *AllocationResult) AppliedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, a := range r.Allocations {
		total = total.Add(a.AmountApplied)
	}
	return total
}
