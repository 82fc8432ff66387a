package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sairosthedev/alamait-ledger/internal/apperrors"
	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	portsrepo "github.com/sairosthedev/alamait-ledger/internal/core/ports/repositories"
	portssvc "github.com/sairosthedev/alamait-ledger/internal/core/ports/services"
	"github.com/sairosthedev/alamait-ledger/internal/middleware"
	"github.com/sairosthedev/alamait-ledger/internal/observability/metrics"
	"github.com/sairosthedev/alamait-ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// accrualService posts the entries that establish obligations.
type accrualService struct {
	ledgerRepo portsrepo.LedgerRepositoryFacade
	accountSvc portssvc.AccountSvcFacade
}

// NewAccrualService creates a new AccrualService.
func NewAccrualService(ledgerRepo portsrepo.LedgerRepositoryFacade, accountSvc portssvc.AccountSvcFacade) portssvc.AccrualSvcFacade {
	return &accrualService{ledgerRepo: ledgerRepo, accountSvc: accountSvc}
}

var _ portssvc.AccrualSvcFacade = (*accrualService)(nil)

// PostLeaseStart posts the lease-start accrual for the lease's first period.
// The receivable is debited with the bundled total, but each charge type is
// credited to its own income or liability account so the aggregator can
// establish owed per charge type without touching the receivable posting.
// The entry carries PeriodRole FirstPeriod, computed here once and stored.
func (s *accrualService) PostLeaseStart(ctx context.Context, lease domain.Lease, userID string) (*domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := lease.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	account, err := s.accountSvc.ResolveTenantAccount(ctx, lease.TenantID)
	if err != nil {
		return nil, err
	}
	chart, err := s.accountSvc.GetChart(ctx)
	if err != nil {
		return nil, err
	}

	period := lease.FirstPeriodKey()
	total := lease.MonthlyRent.Add(lease.AdminFee).Add(lease.Deposit)
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: lease %s has no charges to accrue", apperrors.ErrValidation, lease.LeaseID)
	}

	now := time.Now().UTC()
	entry := accounting.NewEntry(lease.TenantID, lease.StartDate,
		fmt.Sprintf("Lease start charges for %s", period),
		domain.SourceAccrual, userID, now)
	entry.Period = &period
	role := domain.FirstPeriod
	entry.PeriodRole = &role

	entry.Postings = append(entry.Postings,
		accounting.DebitPosting(entry.EntryID, *account, total, "Lease start charges"))
	if lease.MonthlyRent.IsPositive() {
		entry.Postings = append(entry.Postings,
			accounting.CreditPosting(entry.EntryID, chart.RentIncome, lease.MonthlyRent, fmt.Sprintf("Rent for %s", period)))
	}
	if lease.AdminFee.IsPositive() {
		entry.Postings = append(entry.Postings,
			accounting.CreditPosting(entry.EntryID, chart.AdminFeeIncome, lease.AdminFee, "Admin fee"))
	}
	if lease.Deposit.IsPositive() {
		entry.Postings = append(entry.Postings,
			accounting.CreditPosting(entry.EntryID, chart.DepositLiability, lease.Deposit, "Security deposit"))
	}

	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrLedgerImbalance, err)
	}
	if err := s.ledgerRepo.AppendEntry(ctx, entry); err != nil {
		logger.Error("Failed to append lease-start accrual", slog.String("lease_id", lease.LeaseID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to post lease-start accrual: %w", err)
	}

	metrics.EntryAppended(string(domain.SourceAccrual))
	logger.Info("Lease-start accrual posted",
		slog.String("tenant_id", lease.TenantID),
		slog.String("period", period.String()),
		slog.String("total", total.String()))
	return &entry, nil
}

// PostMonthlyRent posts the recurring rent accrual for one period.
func (s *accrualService) PostMonthlyRent(ctx context.Context, tenantID string, period domain.PeriodKey, amount decimal.Decimal, userID string) (*domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: rent accrual amount must be positive", apperrors.ErrValidation)
	}
	account, err := s.accountSvc.ResolveTenantAccount(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	chart, err := s.accountSvc.GetChart(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := accounting.NewEntry(tenantID, time.Date(period.Year, period.Month, 1, 0, 0, 0, 0, time.UTC),
		fmt.Sprintf("Rent for %s", period),
		domain.SourceAccrual, userID, now)
	entry.Period = &period
	chargeType := domain.Rent
	entry.ChargeType = &chargeType
	role := domain.Regular
	entry.PeriodRole = &role

	entry.Postings = []domain.Posting{
		accounting.DebitPosting(entry.EntryID, *account, amount, fmt.Sprintf("Rent for %s", period)),
		accounting.CreditPosting(entry.EntryID, chart.RentIncome, amount, fmt.Sprintf("Rent for %s", period)),
	}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrLedgerImbalance, err)
	}
	if err := s.ledgerRepo.AppendEntry(ctx, entry); err != nil {
		logger.Error("Failed to append rent accrual", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to post rent accrual: %w", err)
	}

	metrics.EntryAppended(string(domain.SourceAccrual))
	logger.Info("Rent accrual posted", slog.String("tenant_id", tenantID), slog.String("period", period.String()))
	return &entry, nil
}

// PostDiscount posts a negotiated discount as a manual adjustment reducing
// what is owed for one period and charge type. The entry credits the
// receivable against the charge's income (or liability) account and carries
// an explicit tag, so replay attributes the reduction precisely.
func (s *accrualService) PostDiscount(ctx context.Context, tenantID string, period domain.PeriodKey, chargeType domain.ChargeType, amount decimal.Decimal, reason string, userID string) (*domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: discount amount must be positive", apperrors.ErrValidation)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: discount reason is required", apperrors.ErrValidation)
	}
	account, err := s.accountSvc.ResolveTenantAccount(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	chart, err := s.accountSvc.GetChart(ctx)
	if err != nil {
		return nil, err
	}

	var contra domain.Account
	switch chargeType {
	case domain.Rent:
		contra = chart.RentIncome
	case domain.AdminFee:
		contra = chart.AdminFeeIncome
	case domain.Deposit:
		contra = chart.DepositLiability
	default:
		return nil, fmt.Errorf("%w: unknown charge type %q", apperrors.ErrValidation, chargeType)
	}

	now := time.Now().UTC()
	entry := accounting.NewEntry(tenantID, now,
		fmt.Sprintf("Discount on %s for %s: %s", chargeType, period, reason),
		domain.SourceAdjustment, userID, now)
	entry.Period = &period
	entry.ChargeType = &chargeType

	entry.Postings = []domain.Posting{
		accounting.DebitPosting(entry.EntryID, contra, amount, fmt.Sprintf("Discount: %s", reason)),
		accounting.CreditPosting(entry.EntryID, *account, amount, fmt.Sprintf("Discount on %s %s", chargeType, period)),
	}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrLedgerImbalance, err)
	}
	if err := s.ledgerRepo.AppendEntry(ctx, entry); err != nil {
		logger.Error("Failed to append discount adjustment", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to post discount: %w", err)
	}

	metrics.EntryAppended(string(domain.SourceAdjustment))
	logger.Info("Discount posted",
		slog.String("tenant_id", tenantID),
		slog.String("period", period.String()),
		slog.String("charge_type", string(chargeType)),
		slog.String("amount", amount.String()))
	return &entry, nil
}
