package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	portsrepo "github.com/sairosthedev/alamait-ledger/internal/core/ports/repositories"
	portssvc "github.com/sairosthedev/alamait-ledger/internal/core/ports/services"
	"github.com/sairosthedev/alamait-ledger/internal/middleware"
	"github.com/sairosthedev/alamait-ledger/internal/observability/metrics"
	"github.com/shopspring/decimal"
)

// Settlement tag resolution paths, in fallback order. Explicit tags are the
// norm; the later paths only exist for legacy entries written before tags
// were mandatory.
const (
	pathExplicitTag      = "explicit_tag"
	pathAccrualRef       = "accrual_ref"
	pathDescriptionMatch = "description_match"
	pathOldestFirst      = "oldest_outstanding_first"
)

// settlementPattern matches legacy free-text descriptions like
// "Rent payment for 2024-06".
var settlementPattern = regexp.MustCompile(`(?i)\b(rent|admin|deposit)\b.*?(\d{4}-\d{2})`)

// aggregatorService reconstructs per-period obligations by replaying a
// tenant's ledger. Nothing here is cached; every call reads the ledger
// fresh.
type aggregatorService struct {
	ledgerRepo portsrepo.LedgerRepositoryFacade
	accountSvc portssvc.AccountSvcFacade
}

// NewObligationAggregator creates a new ObligationAggregator.
func NewObligationAggregator(ledgerRepo portsrepo.LedgerRepositoryFacade, accountSvc portssvc.AccountSvcFacade) portssvc.ObligationAggregatorSvcFacade {
	return &aggregatorService{ledgerRepo: ledgerRepo, accountSvc: accountSvc}
}

var _ portssvc.ObligationAggregatorSvcFacade = (*aggregatorService)(nil)

// GetOutstanding replays the tenant's ledger and returns periods that still
// have a positive outstanding amount for at least one charge type, oldest
// first. No accruals means no known obligations: an empty list, not an
// error.
func (s *aggregatorService) GetOutstanding(ctx context.Context, tenantID string) ([]domain.Period, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountSvc.ResolveTenantAccount(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	chart, err := s.accountSvc.GetChart(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.ledgerRepo.FindEntriesByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entries for tenant %s: %w", tenantID, err)
	}

	replay := newReplayState(account.AccountID, chart)
	replay.run(logger, entries)

	return replay.outstandingPeriods(), nil
}

// replayState accumulates per-period charge state while walking entries.
type replayState struct {
	receivableID string
	chart        *domain.Chart
	periods      map[domain.PeriodKey]*domain.Period
	entryByID    map[string]*domain.LedgerEntry
}

func newReplayState(receivableID string, chart *domain.Chart) *replayState {
	return &replayState{
		receivableID: receivableID,
		chart:        chart,
		periods:      make(map[domain.PeriodKey]*domain.Period),
		entryByID:    make(map[string]*domain.LedgerEntry),
	}
}

func (r *replayState) period(key domain.PeriodKey) *domain.Period {
	p, ok := r.periods[key]
	if !ok {
		p = &domain.Period{Key: key}
		r.periods[key] = p
	}
	return p
}

// includeEntry filters the replay stream. Reversed entries and their
// offsetting reversals cancel as a pair, so both halves are dropped.
// Advance entries net to zero on the receivable by construction and must
// not distort outstanding computation.
func includeEntry(e *domain.LedgerEntry) bool {
	if e.Status == domain.Reversed {
		return false
	}
	if e.OriginalEntryID != nil {
		return false
	}
	if e.Source == domain.SourceAdvance {
		return false
	}
	return true
}

func (r *replayState) run(logger *slog.Logger, entries []domain.LedgerEntry) {
	for i := range entries {
		r.entryByID[entries[i].EntryID] = &entries[i]
	}

	// Accruals first: they establish owed per period and charge type. Each
	// charge comes from its own income/liability posting, never from the
	// receivable posting, so a bundled lease-start total is not conflated
	// with its components.
	for i := range entries {
		e := &entries[i]
		if !includeEntry(e) || e.Source != domain.SourceAccrual {
			continue
		}
		key := r.accrualPeriod(e)
		p := r.period(key)
		for _, posting := range e.Postings {
			if !posting.Credit.IsPositive() {
				continue
			}
			var state *domain.ChargeState
			switch posting.AccountID {
			case r.chart.RentIncome.AccountID:
				state = p.Charge(domain.Rent)
			case r.chart.AdminFeeIncome.AccountID:
				state = p.Charge(domain.AdminFee)
			case r.chart.DepositLiability.AccountID:
				state = p.Charge(domain.Deposit)
			default:
				continue
			}
			state.Owed = state.Owed.Add(posting.Credit)
			if state.AccrualEntryID == "" {
				state.AccrualEntryID = e.EntryID
			}
		}
	}

	// Adjustments reduce owed: a negotiated discount credits the receivable
	// against the income account. Recognition entries touch no receivable
	// posting and fall through harmlessly.
	for i := range entries {
		e := &entries[i]
		if !includeEntry(e) || e.Source != domain.SourceAdjustment {
			continue
		}
		amount := e.CreditOnAccount(r.receivableID)
		if !amount.IsPositive() {
			continue
		}
		key := r.accrualPeriod(e)
		chargeType := domain.Rent
		if e.ChargeType != nil {
			chargeType = *e.ChargeType
		}
		state := r.period(key).Charge(chargeType)
		state.Discount = state.Discount.Add(amount)
	}

	// Settlements reduce outstanding via paid. Resolve each settlement's
	// (period, chargeType) through the fallback chain and record which path
	// fired.
	for i := range entries {
		e := &entries[i]
		if !includeEntry(e) || e.Source != domain.SourcePayment {
			continue
		}
		amount := e.CreditOnAccount(r.receivableID)
		if !amount.IsPositive() {
			continue
		}

		key, chargeType, path, ok := r.resolveSettlementTag(e)
		if !ok {
			// Oldest-outstanding-first fallback: walk periods in order and
			// absorb the amount into whatever is still open.
			metrics.FallbackFired(pathOldestFirst)
			logger.Warn("Settlement entry has no resolvable tag, distributing oldest-first",
				slog.String("entry_id", e.EntryID))
			r.distributeOldestFirst(amount)
			continue
		}
		if path != pathExplicitTag {
			logger.Info("Settlement tag resolved via fallback",
				slog.String("entry_id", e.EntryID),
				slog.String("path", path),
				slog.String("period", key.String()),
				slog.String("charge_type", string(chargeType)))
		}
		metrics.FallbackFired(path)
		state := r.period(key).Charge(chargeType)
		state.Paid = state.Paid.Add(amount)
	}
}

// accrualPeriod prefers the explicit period tag and falls back to the entry
// date's calendar month for legacy rows.
func (r *replayState) accrualPeriod(e *domain.LedgerEntry) domain.PeriodKey {
	if e.Period != nil {
		return *e.Period
	}
	return domain.PeriodOf(e.EntryDate)
}

// resolveSettlementTag applies the fallback order: explicit tag, reference
// to the originating accrual, then description pattern match.
func (r *replayState) resolveSettlementTag(e *domain.LedgerEntry) (domain.PeriodKey, domain.ChargeType, string, bool) {
	if e.Period != nil && e.ChargeType != nil {
		return *e.Period, *e.ChargeType, pathExplicitTag, true
	}

	if e.AccrualEntryID != nil {
		if accrual, ok := r.entryByID[*e.AccrualEntryID]; ok {
			key := r.accrualPeriod(accrual)
			return key, r.dominantCharge(accrual), pathAccrualRef, true
		}
	}

	if match := settlementPattern.FindStringSubmatch(e.Description); match != nil {
		if key, err := domain.ParsePeriodKey(match[2]); err == nil {
			var chargeType domain.ChargeType
			switch strings.ToLower(match[1]) {
			case "rent":
				chargeType = domain.Rent
			case "admin":
				chargeType = domain.AdminFee
			case "deposit":
				chargeType = domain.Deposit
			}
			return key, chargeType, pathDescriptionMatch, true
		}
	}

	return domain.PeriodKey{}, "", "", false
}

// dominantCharge infers the charge type of a referenced accrual. A monthly
// rent accrual has a single income posting; a lease-start entry bundles
// several, in which case rent is the conventional target.
func (r *replayState) dominantCharge(accrual *domain.LedgerEntry) domain.ChargeType {
	if accrual.ChargeType != nil {
		return *accrual.ChargeType
	}
	var found []domain.ChargeType
	for _, posting := range accrual.Postings {
		if !posting.Credit.IsPositive() {
			continue
		}
		switch posting.AccountID {
		case r.chart.RentIncome.AccountID:
			found = append(found, domain.Rent)
		case r.chart.AdminFeeIncome.AccountID:
			found = append(found, domain.AdminFee)
		case r.chart.DepositLiability.AccountID:
			found = append(found, domain.Deposit)
		}
	}
	if len(found) == 1 {
		return found[0]
	}
	return domain.Rent
}

// distributeOldestFirst absorbs an untagged settlement amount into open
// charge state, oldest period first, rent before one-off charges within a
// period. Any residue beyond all outstanding is left unapplied in the
// replay; it cannot be attributed to an obligation.
func (r *replayState) distributeOldestFirst(amount decimal.Decimal) {
	keys := make([]domain.PeriodKey, 0, len(r.periods))
	for key := range r.periods {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	remaining := amount
	for _, key := range keys {
		if !remaining.IsPositive() {
			return
		}
		p := r.periods[key]
		for _, chargeType := range []domain.ChargeType{domain.Rent, domain.AdminFee, domain.Deposit} {
			state := p.Charge(chargeType)
			open := state.Outstanding()
			if !open.IsPositive() {
				continue
			}
			applied := decimal.Min(remaining, open)
			state.Paid = state.Paid.Add(applied)
			remaining = remaining.Sub(applied)
			if !remaining.IsPositive() {
				return
			}
		}
	}
}

// outstandingPeriods finalizes the replay: sorted oldest first, fully
// settled periods dropped.
func (r *replayState) outstandingPeriods() []domain.Period {
	keys := make([]domain.PeriodKey, 0, len(r.periods))
	for key := range r.periods {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	result := make([]domain.Period, 0, len(keys))
	for _, key := range keys {
		p := r.periods[key]
		if p.HasOutstanding() {
			result = append(result, *p)
		}
	}
	return result
}
