package repositories

import (
	"context"

	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
)

// AccountRepositoryFacade stores ledger accounts and the authoritative
// tenant-to-receivable-account mapping.
type AccountRepositoryFacade interface {
	SaveAccount(ctx context.Context, account domain.Account) error

	// SaveTenantAccount creates the tenant's receivable account and its
	// mapping row in one transaction. The mapping is written exactly once;
	// a second attempt for the same tenant fails with apperrors.ErrDuplicate.
	SaveTenantAccount(ctx context.Context, account domain.Account, link domain.TenantAccountLink) error

	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByPurpose returns the single system account filling the
	// given purpose slot (cash, rent income, ...).
	FindAccountByPurpose(ctx context.Context, purpose domain.AccountPurpose) (*domain.Account, error)

	// ResolveTenantAccount resolves a tenant to their receivable account by
	// exact lookup of the mapping table. There is no fuzzy or derived
	// fallback; a missing mapping is apperrors.ErrNotFound.
	ResolveTenantAccount(ctx context.Context, tenantID string) (*domain.Account, error)
}
