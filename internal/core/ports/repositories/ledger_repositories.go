package repositories

import (
	"context"
	"time"

	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerRepositoryFacade is the append-only store of double-entry records.
// Entries are never updated in place; correction is by reversal plus a new
// entry. AppendEntry and SaveAllocation must reject unbalanced entries.
type LedgerRepositoryFacade interface {
	// AppendEntry writes a single entry with its postings atomically.
	AppendEntry(ctx context.Context, entry domain.LedgerEntry) error

	// SaveAllocation writes all entries and allocation records produced for
	// one payment as a single atomic unit. A unique constraint on
	// (paymentID, chargeType, period, kind) backs the idempotency guard; kind
	// is part of the key because one payment may legitimately settle part of
	// a period's charge and defer the residue into the same period. A
	// violation surfaces as apperrors.ErrDuplicate with nothing written.
	SaveAllocation(ctx context.Context, entries []domain.LedgerEntry, allocations []domain.Allocation) error

	// FindEntriesByTenant returns every entry for the tenant ordered by
	// entry date then creation time, postings populated.
	FindEntriesByTenant(ctx context.Context, tenantID string) ([]domain.LedgerEntry, error)

	FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error)

	// FindAllocationsByPayment returns the allocation records previously
	// written for a payment, in their original order. Empty result means the
	// payment has not been allocated.
	FindAllocationsByPayment(ctx context.Context, paymentID string) ([]domain.Allocation, error)

	// ListEntriesByTenant returns one page of a tenant's entries, oldest
	// first, with an opaque token for the next page.
	ListEntriesByTenant(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// AppendReversal writes the offsetting entry and flips the original's
	// status to reversed in one atomic unit, so a partial failure cannot
	// leave a reversing entry beside a still-posted original. Returns
	// apperrors.ErrConflict when the original is not in POSTED status.
	AppendReversal(ctx context.Context, reversal domain.LedgerEntry, originalEntryID string, updatedBy string, updatedAt time.Time) error

	// SumAccountActivityThrough returns the net movement (debits minus
	// credits) on the account over the tenant's entries up to and including
	// the (entryDate, createdAt) cursor position.
	SumAccountActivityThrough(ctx context.Context, tenantID string, accountID string, entryDate time.Time, createdAt time.Time) (decimal.Decimal, error)
}
