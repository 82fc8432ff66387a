package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sairosthedev/alamait-ledger/internal/apperrors"
	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	portsrepo "github.com/sairosthedev/alamait-ledger/internal/core/ports/repositories"
	portssvc "github.com/sairosthedev/alamait-ledger/internal/core/ports/services"
	"github.com/sairosthedev/alamait-ledger/internal/middleware"
)

// accountService provisions tenant receivable accounts and resolves the
// system chart.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: accountRepo}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// ProvisionTenantAccount creates the tenant's receivable account and the
// authoritative tenant-to-account mapping in one step. The mapping is
// written exactly once; later identity changes on the tenant side never
// touch it.
func (s *accountService) ProvisionTenantAccount(ctx context.Context, tenantID string, tenantName string, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if tenantID == "" || tenantName == "" {
		return nil, fmt.Errorf("%w: tenant ID and name are required", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID: uuid.NewString(),
		Name:      fmt.Sprintf("Receivable - %s", tenantName),
		Code:      fmt.Sprintf("AR-%s", uuid.NewString()[:8]),
		Role:      domain.Asset,
		Purpose:   domain.PurposeTenantReceivable,
		IsActive:  true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	link := domain.TenantAccountLink{
		TenantID:  tenantID,
		AccountID: account.AccountID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveTenantAccount(ctx, account, link); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Tenant account already provisioned", slog.String("tenant_id", tenantID))
			return nil, fmt.Errorf("%w: tenant %s already has a ledger account", apperrors.ErrDuplicate, tenantID)
		}
		logger.Error("Failed to provision tenant account", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to provision tenant account: %w", err)
	}

	logger.Info("Tenant account provisioned", slog.String("tenant_id", tenantID), slog.String("account_id", account.AccountID))
	return &account, nil
}

// ResolveTenantAccount resolves a tenant to their receivable account by
// exact lookup. A missing mapping is an account resolution failure; callers
// must fail closed rather than guess an account.
func (s *accountService) ResolveTenantAccount(ctx context.Context, tenantID string) (*domain.Account, error) {
	account, err := s.accountRepo.ResolveTenantAccount(ctx, tenantID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: tenant %s", apperrors.ErrAccountResolution, tenantID)
		}
		return nil, fmt.Errorf("failed to resolve tenant account: %w", err)
	}
	if !account.IsActive {
		return nil, fmt.Errorf("%w: account for tenant %s is inactive", apperrors.ErrAccountResolution, tenantID)
	}
	return account, nil
}

// GetChart resolves the system accounts the engine posts against.
func (s *accountService) GetChart(ctx context.Context) (*domain.Chart, error) {
	chart := &domain.Chart{}
	for _, slot := range []struct {
		purpose domain.AccountPurpose
		target  *domain.Account
	}{
		{domain.PurposeCash, &chart.Cash},
		{domain.PurposeRentIncome, &chart.RentIncome},
		{domain.PurposeAdminFeeIncome, &chart.AdminFeeIncome},
		{domain.PurposeDepositLiability, &chart.DepositLiability},
		{domain.PurposeDeferredIncome, &chart.DeferredIncome},
	} {
		account, err := s.accountRepo.FindAccountByPurpose(ctx, slot.purpose)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s account: %w", slot.purpose, err)
		}
		*slot.target = *account
	}
	return chart, nil
}
