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

// advanceService posts money with no matching obligation as a liability.
// The engine defers; recognition is a separate step it never performs.
type advanceService struct {
	ledgerRepo portsrepo.LedgerRepositoryFacade
	accountSvc portssvc.AccountSvcFacade
}

// NewAdvanceService creates a new AdvanceService.
func NewAdvanceService(ledgerRepo portsrepo.LedgerRepositoryFacade, accountSvc portssvc.AccountSvcFacade) portssvc.AdvanceSvcFacade {
	return &advanceService{ledgerRepo: ledgerRepo, accountSvc: accountSvc}
}

var _ portssvc.AdvanceSvcFacade = (*advanceService)(nil)

// BuildAdvanceEntry constructs the 4-posting advance shape:
//
//	debit  cash                    amount   (money received)
//	credit tenant receivable       amount   (payment shows on the statement)
//	debit  tenant receivable       amount   (transferred straight out again)
//	credit deferred income / deposit liability
//
// The receivable legs cancel, so the tenant's statement shows the payment
// while the net effect on the receivable balance is zero.
func (s *advanceService) BuildAdvanceEntry(payment domain.Payment, account domain.Account, chart domain.Chart, chargeType domain.ChargeType, amount decimal.Decimal, period domain.PeriodKey, userID string) (domain.LedgerEntry, error) {
	if !amount.IsPositive() {
		return domain.LedgerEntry{}, fmt.Errorf("%w: advance amount must be positive, got %s", apperrors.ErrValidation, amount)
	}

	liability := chart.DeferredIncome
	if chargeType == domain.Deposit {
		// Deposits are always a liability; there is no settlement vs
		// advance distinction for them.
		liability = chart.DepositLiability
	}

	now := time.Now().UTC()
	entry := accounting.NewEntry(payment.TenantID, payment.PaymentDate,
		fmt.Sprintf("Advance %s payment for %s", chargeType, period),
		domain.SourceAdvance, userID, now)
	entry.PaymentID = &payment.PaymentID
	entry.Period = &period
	entry.ChargeType = &chargeType

	entry.Postings = []domain.Posting{
		accounting.DebitPosting(entry.EntryID, chart.Cash, amount, "Payment received"),
		accounting.CreditPosting(entry.EntryID, account, amount, "Payment received on account"),
		accounting.DebitPosting(entry.EntryID, account, amount, "Transfer to deferred liability"),
		accounting.CreditPosting(entry.EntryID, liability, amount, fmt.Sprintf("Deferred %s for %s", chargeType, period)),
	}

	if err := entry.Validate(); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("%w: %v", apperrors.ErrLedgerImbalance, err)
	}
	return entry, nil
}

// PostAdvance builds and appends a standalone advance entry for the full
// amount of the payment's component of the given charge type.
func (s *advanceService) PostAdvance(ctx context.Context, payment domain.Payment, chargeType domain.ChargeType, period domain.PeriodKey, userID string) (*domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountSvc.ResolveTenantAccount(ctx, payment.TenantID)
	if err != nil {
		return nil, err
	}
	chart, err := s.accountSvc.GetChart(ctx)
	if err != nil {
		return nil, err
	}

	amount := decimal.Zero
	for _, c := range payment.Components {
		if c.ChargeType == chargeType {
			amount = amount.Add(c.Amount)
		}
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment %s has no %s component", apperrors.ErrValidation, payment.PaymentID, chargeType)
	}

	entry, err := s.BuildAdvanceEntry(payment, *account, *chart, chargeType, amount, period, userID)
	if err != nil {
		return nil, err
	}

	if err := s.ledgerRepo.AppendEntry(ctx, entry); err != nil {
		logger.Error("Failed to append advance entry", slog.String("payment_id", payment.PaymentID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to post advance: %w", err)
	}

	metrics.AdvancePosted(string(chargeType))
	metrics.EntryAppended(string(domain.SourceAdvance))
	logger.Info("Advance posted",
		slog.String("payment_id", payment.PaymentID),
		slog.String("charge_type", string(chargeType)),
		slog.String("period", period.String()),
		slog.String("amount", amount.String()))
	return &entry, nil
}
