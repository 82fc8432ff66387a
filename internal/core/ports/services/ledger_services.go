package services

import (
	"context"

	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	"github.com/sairosthedev/alamait-ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// AccrualSvcFacade posts the entries that establish obligations: the
// lease-start entry (rent plus one-off charges as distinct postings), the
// recurring monthly rent accrual, and negotiated discount adjustments.
type AccrualSvcFacade interface {
	PostLeaseStart(ctx context.Context, lease domain.Lease, userID string) (*domain.LedgerEntry, error)
	PostMonthlyRent(ctx context.Context, tenantID string, period domain.PeriodKey, amount decimal.Decimal, userID string) (*domain.LedgerEntry, error)
	PostDiscount(ctx context.Context, tenantID string, period domain.PeriodKey, chargeType domain.ChargeType, amount decimal.Decimal, reason string, userID string) (*domain.LedgerEntry, error)
}

// StatementSvcFacade reads a tenant's ledger for audit and statement
// purposes and reverses posted entries.
type StatementSvcFacade interface {
	GetStatement(ctx context.Context, tenantID string, limit int, nextToken *string) (*dto.StatementResponse, error)
	ReverseEntry(ctx context.Context, entryID string, userID string) (*domain.LedgerEntry, error)
}

// AccountSvcFacade provisions tenant receivable accounts and resolves the
// system chart.
type AccountSvcFacade interface {
	ProvisionTenantAccount(ctx context.Context, tenantID string, tenantName string, userID string) (*domain.Account, error)
	ResolveTenantAccount(ctx context.Context, tenantID string) (*domain.Account, error)
	GetChart(ctx context.Context) (*domain.Chart, error)
}
