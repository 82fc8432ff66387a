package services

import (
	"context"

	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	"github.com/sairosthedev/alamait-ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// AllocationSvcFacade is the payment allocation engine. Allocate is
// deterministic for a given payment and ledger state, serialized per tenant,
// and idempotent: re-allocating an already-processed payment returns the
// prior result without writing anything.
type AllocationSvcFacade interface {
	Allocate(ctx context.Context, req dto.AllocateRequest, userID string) (*domain.AllocationResult, error)
}

// ObligationAggregatorSvcFacade reconstructs a tenant's outstanding
// obligations by replaying their ledger entries. The returned periods are
// ordered oldest first and contain only periods with a positive outstanding
// amount for at least one charge type. An empty slice means no known
// obligations, not an error.
type ObligationAggregatorSvcFacade interface {
	GetOutstanding(ctx context.Context, tenantID string) ([]domain.Period, error)
}

// AdvanceSvcFacade posts money that cannot be matched to an existing
// obligation as a liability (deferred income, or the deposit liability for
// deposit components) instead of income or a receivable reduction.
type AdvanceSvcFacade interface {
	// BuildAdvanceEntry constructs the 4-posting advance entry without
	// persisting it, so the engine can commit it atomically with the rest of
	// an allocation.
	BuildAdvanceEntry(payment domain.Payment, account domain.Account, chart domain.Chart, chargeType domain.ChargeType, amount decimal.Decimal, period domain.PeriodKey, userID string) (domain.LedgerEntry, error)

	// PostAdvance builds and appends a standalone advance entry.
	PostAdvance(ctx context.Context, payment domain.Payment, chargeType domain.ChargeType, period domain.PeriodKey, userID string) (*domain.LedgerEntry, error)
}

// RecognitionSvcFacade converts deferred income into recognized income once
// an obligation for the covered period exists. This runs as a separate,
// explicitly invoked step; the allocation engine only defers, never
// recognizes.
type RecognitionSvcFacade interface {
	RecognizeDeferred(ctx context.Context, tenantID string, period domain.PeriodKey, userID string) (*domain.LedgerEntry, error)
}
