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

// recognitionService converts deferred income into recognized income for a
// period once an obligation exists. Invoked explicitly (by an operator or a
// scheduled job), never by the allocation engine.
type recognitionService struct {
	ledgerRepo portsrepo.LedgerRepositoryFacade
	accountSvc portssvc.AccountSvcFacade
}

// NewRecognitionService creates a new RecognitionService.
func NewRecognitionService(ledgerRepo portsrepo.LedgerRepositoryFacade, accountSvc portssvc.AccountSvcFacade) portssvc.RecognitionSvcFacade {
	return &recognitionService{ledgerRepo: ledgerRepo, accountSvc: accountSvc}
}

var _ portssvc.RecognitionSvcFacade = (*recognitionService)(nil)

// RecognizeDeferred posts an entry debiting the deferred income liability
// and crediting rent income for the unrecognized advance balance the tenant
// holds for the period.
func (s *recognitionService) RecognizeDeferred(ctx context.Context, tenantID string, period domain.PeriodKey, userID string) (*domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	chart, err := s.accountSvc.GetChart(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.ledgerRepo.FindEntriesByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entries for tenant %s: %w", tenantID, err)
	}

	// Unrecognized balance: deferred income credited by advances for this
	// period, minus what earlier recognition entries already moved out.
	deferred := decimal.Zero
	for i := range entries {
		e := &entries[i]
		if e.Status == domain.Reversed || e.OriginalEntryID != nil {
			continue
		}
		if e.Period == nil || *e.Period != period {
			continue
		}
		if e.ChargeType != nil && *e.ChargeType == domain.Deposit {
			continue
		}
		switch e.Source {
		case domain.SourceAdvance:
			deferred = deferred.Add(e.CreditOnAccount(chart.DeferredIncome.AccountID))
		case domain.SourceAdjustment:
			deferred = deferred.Sub(e.DebitOnAccount(chart.DeferredIncome.AccountID))
		}
	}
	if !deferred.IsPositive() {
		return nil, fmt.Errorf("%w: no unrecognized deferred income for tenant %s in %s", apperrors.ErrNotFound, tenantID, period)
	}

	now := time.Now().UTC()
	entry := accounting.NewEntry(tenantID, now,
		fmt.Sprintf("Recognize deferred rent income for %s", period),
		domain.SourceAdjustment, userID, now)
	entry.Period = &period
	chargeType := domain.Rent
	entry.ChargeType = &chargeType

	entry.Postings = []domain.Posting{
		accounting.DebitPosting(entry.EntryID, chart.DeferredIncome, deferred, fmt.Sprintf("Recognize deferred income %s", period)),
		accounting.CreditPosting(entry.EntryID, chart.RentIncome, deferred, fmt.Sprintf("Rent income %s", period)),
	}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrLedgerImbalance, err)
	}
	if err := s.ledgerRepo.AppendEntry(ctx, entry); err != nil {
		logger.Error("Failed to append recognition entry", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to post recognition: %w", err)
	}

	metrics.EntryAppended(string(domain.SourceAdjustment))
	logger.Info("Deferred income recognized",
		slog.String("tenant_id", tenantID),
		slog.String("period", period.String()),
		slog.String("amount", deferred.String()))
	return &entry, nil
}
