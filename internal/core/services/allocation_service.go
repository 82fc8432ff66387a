package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sairosthedev/alamait-ledger/internal/apperrors"
	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	portsrepo "github.com/sairosthedev/alamait-ledger/internal/core/ports/repositories"
	portssvc "github.com/sairosthedev/alamait-ledger/internal/core/ports/services"
	"github.com/sairosthedev/alamait-ledger/internal/dto"
	"github.com/sairosthedev/alamait-ledger/internal/middleware"
	"github.com/sairosthedev/alamait-ledger/internal/observability/metrics"
	"github.com/sairosthedev/alamait-ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// AllocationCompletedTopic is the audit sink topic for finished allocations.
const AllocationCompletedTopic = "allocation.completed"

// AllocationCompletedEvent is published to the audit sink after the ledger
// write commits.
type AllocationCompletedEvent struct {
	PaymentID          string              `json:"paymentID"`
	TenantID           string              `json:"tenantID"`
	TotalAmount        decimal.Decimal     `json:"totalAmount"`
	RemainingUnapplied decimal.Decimal     `json:"remainingUnapplied"`
	Allocations        []domain.Allocation `json:"allocations"`
	OccurredAt         time.Time           `json:"occurredAt"`
}

// allocationService is the payment allocation engine. For one payment it
// aggregates outstanding obligations, walks them oldest-period-first per the
// charge type rules, and writes the resulting entries and allocation records
// as a single atomic unit.
type allocationService struct {
	ledgerRepo portsrepo.LedgerRepositoryFacade
	accountSvc portssvc.AccountSvcFacade
	aggregator portssvc.ObligationAggregatorSvcFacade
	advanceSvc portssvc.AdvanceSvcFacade
	auditSink  portssvc.AuditSink
	locks      *tenantLocker
	maxRetries int
}

// NewAllocationService creates a new AllocationService.
func NewAllocationService(
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	accountSvc portssvc.AccountSvcFacade,
	aggregator portssvc.ObligationAggregatorSvcFacade,
	advanceSvc portssvc.AdvanceSvcFacade,
	auditSink portssvc.AuditSink,
	maxRetries int,
) portssvc.AllocationSvcFacade {
	if maxRetries < 1 {
		maxRetries = 3
	}
	return &allocationService{
		ledgerRepo: ledgerRepo,
		accountSvc: accountSvc,
		aggregator: aggregator,
		advanceSvc: advanceSvc,
		auditSink:  auditSink,
		locks:      newTenantLocker(),
		maxRetries: maxRetries,
	}
}

var _ portssvc.AllocationSvcFacade = (*allocationService)(nil)

// Allocate applies a payment against the tenant's outstanding obligations.
// The call is serialized per tenant for its full aggregate-decide-post span
// and is idempotent on paymentID: a repeated call returns the prior result
// without writing.
func (s *allocationService) Allocate(ctx context.Context, req dto.AllocateRequest, userID string) (*domain.AllocationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	start := time.Now()

	payment, err := req.ToDomain()
	if err != nil {
		metrics.AllocationObserved(metrics.ResultRejected, time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := payment.Validate(); err != nil {
		metrics.AllocationObserved(metrics.ResultRejected, time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	// Fail closed: no resolvable account means no allocation, never a
	// guessed account identifier.
	account, err := s.accountSvc.ResolveTenantAccount(ctx, payment.TenantID)
	if err != nil {
		metrics.AllocationObserved(metrics.ResultRejected, time.Since(start).Seconds())
		return nil, err
	}
	chart, err := s.accountSvc.GetChart(ctx)
	if err != nil {
		metrics.AllocationObserved(metrics.ResultError, time.Since(start).Seconds())
		return nil, err
	}

	unlock := s.locks.Lock(payment.TenantID)
	defer unlock()

	if prior, err := s.replayPrior(ctx, payment); err != nil {
		metrics.AllocationObserved(metrics.ResultError, time.Since(start).Seconds())
		return nil, err
	} else if prior != nil {
		logger.Info("Duplicate allocation attempt, returning prior result", slog.String("payment_id", payment.PaymentID))
		metrics.AllocationObserved(metrics.ResultReplayed, time.Since(start).Seconds())
		return prior, nil
	}

	var result *domain.AllocationResult
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		periods, err := s.aggregator.GetOutstanding(ctx, payment.TenantID)
		if err != nil {
			metrics.AllocationObserved(metrics.ResultError, time.Since(start).Seconds())
			return nil, err
		}

		plan, err := s.buildPlan(payment, periods, *account, *chart, userID)
		if err != nil {
			metrics.AllocationObserved(metrics.ResultError, time.Since(start).Seconds())
			return nil, err
		}

		err = s.ledgerRepo.SaveAllocation(ctx, plan.entries, plan.allocations)
		if errors.Is(err, apperrors.ErrDuplicate) {
			// A concurrent caller won the race for this payment; their
			// committed result is the answer.
			prior, replayErr := s.replayPrior(ctx, payment)
			if replayErr != nil || prior == nil {
				metrics.AllocationObserved(metrics.ResultError, time.Since(start).Seconds())
				return nil, fmt.Errorf("allocation raced and prior result unavailable: %w", err)
			}
			metrics.AllocationObserved(metrics.ResultReplayed, time.Since(start).Seconds())
			return prior, nil
		}
		if errors.Is(err, apperrors.ErrConflict) {
			logger.Warn("Concurrent ledger modification, re-aggregating",
				slog.String("payment_id", payment.PaymentID), slog.Int("attempt", attempt))
			continue
		}
		if err != nil {
			logger.Error("Failed to save allocation", slog.String("payment_id", payment.PaymentID), slog.String("error", err.Error()))
			metrics.AllocationObserved(metrics.ResultError, time.Since(start).Seconds())
			return nil, fmt.Errorf("failed to save allocation: %w", err)
		}

		result = plan.result
		break
	}
	if result == nil {
		metrics.AllocationObserved(metrics.ResultConflict, time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: allocation for payment %s retried %d times", apperrors.ErrConflict, payment.PaymentID, s.maxRetries)
	}

	for _, a := range result.Allocations {
		if a.Kind == domain.KindAdvance {
			metrics.AdvancePosted(string(a.ChargeType))
		}
	}
	metrics.AllocationObserved(metrics.ResultSuccess, time.Since(start).Seconds())

	if err := s.auditSink.Publish(AllocationCompletedTopic, AllocationCompletedEvent{
		PaymentID:          result.PaymentID,
		TenantID:           result.TenantID,
		TotalAmount:        payment.TotalAmount,
		RemainingUnapplied: result.RemainingUnapplied,
		Allocations:        result.Allocations,
		OccurredAt:         time.Now().UTC(),
	}); err != nil {
		// Best effort only; the ledger write already committed.
		logger.Warn("Failed to publish allocation audit event", slog.String("payment_id", result.PaymentID), slog.String("error", err.Error()))
	}

	logger.Info("Payment allocated",
		slog.String("payment_id", result.PaymentID),
		slog.String("tenant_id", result.TenantID),
		slog.Int("allocations", len(result.Allocations)),
		slog.String("remaining_unapplied", result.RemainingUnapplied.String()))
	return result, nil
}

// replayPrior reconstructs a previously committed result for the payment,
// or returns nil if none exists.
func (s *allocationService) replayPrior(ctx context.Context, payment domain.Payment) (*domain.AllocationResult, error) {
	allocations, err := s.ledgerRepo.FindAllocationsByPayment(ctx, payment.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up prior allocations: %w", err)
	}
	if len(allocations) == 0 {
		return nil, nil
	}
	result := &domain.AllocationResult{
		PaymentID:   payment.PaymentID,
		TenantID:    payment.TenantID,
		Allocations: allocations,
		Replayed:    true,
	}
	result.RemainingUnapplied = payment.TotalAmount.Sub(result.AppliedTotal())
	return result, nil
}

// allocationPlan is the decided outcome of one payment before it is
// committed.
type allocationPlan struct {
	entries     []domain.LedgerEntry
	allocations []domain.Allocation
	result      *domain.AllocationResult
}

// outstandingView is the engine's mutable working copy of replayed
// outstanding amounts, keyed by period and charge type.
type outstandingView struct {
	order []domain.PeriodKey
	state map[domain.PeriodKey]*domain.Period
}

func newOutstandingView(periods []domain.Period) *outstandingView {
	v := &outstandingView{state: make(map[domain.PeriodKey]*domain.Period, len(periods))}
	for i := range periods {
		p := periods[i]
		v.order = append(v.order, p.Key)
		v.state[p.Key] = &p
	}
	return v
}

func (v *outstandingView) outstanding(key domain.PeriodKey, ct domain.ChargeType) decimal.Decimal {
	p, ok := v.state[key]
	if !ok {
		return decimal.Zero
	}
	return p.Charge(ct).Outstanding()
}

func (v *outstandingView) charge(key domain.PeriodKey, ct domain.ChargeType) *domain.ChargeState {
	p, ok := v.state[key]
	if !ok {
		return nil
	}
	return p.Charge(ct)
}

// apply reduces outstanding for the slot by marking the amount paid.
func (v *outstandingView) apply(key domain.PeriodKey, ct domain.ChargeType, amount decimal.Decimal) {
	if state := v.charge(key, ct); state != nil {
		state.Paid = state.Paid.Add(amount)
	}
}

// buildPlan walks the payment's components against the outstanding view and
// produces the entries and allocation records to commit. Pure decision
// logic; nothing is written here.
func (s *allocationService) buildPlan(payment domain.Payment, periods []domain.Period, account domain.Account, chart domain.Chart, userID string) (*allocationPlan, error) {
	plan := &allocationPlan{}
	view := newOutstandingView(periods)
	receiptPeriod := payment.ReceiptPeriod()
	remainingUnapplied := decimal.Zero

	for _, component := range payment.Components {
		if component.Amount.IsZero() {
			continue
		}

		// Hard precedence rule: a payment dated in a calendar month strictly
		// before the month it is intended to cover is always an advance,
		// before any accrual lookup.
		if component.IntendedPeriod != nil && receiptPeriod.Before(*component.IntendedPeriod) {
			if err := s.planAdvance(plan, payment, account, chart, component.ChargeType, component.Amount, *component.IntendedPeriod, view, userID); err != nil {
				return nil, err
			}
			continue
		}

		switch component.ChargeType {
		case domain.Rent:
			if err := s.planRent(plan, payment, account, chart, component, view, userID); err != nil {
				return nil, err
			}
		case domain.AdminFee:
			discarded, err := s.planAdminFee(plan, payment, account, chart, component, receiptPeriod, view, userID)
			if err != nil {
				return nil, err
			}
			remainingUnapplied = remainingUnapplied.Add(discarded)
		case domain.Deposit:
			if err := s.planDeposit(plan, payment, account, chart, component, receiptPeriod, view, userID); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unknown charge type %q", apperrors.ErrValidation, component.ChargeType)
		}
	}

	result := &domain.AllocationResult{
		PaymentID:          payment.PaymentID,
		TenantID:           payment.TenantID,
		Allocations:        plan.allocations,
		RemainingUnapplied: remainingUnapplied,
	}
	// Conservation: everything in must be accounted for.
	if !result.AppliedTotal().Add(remainingUnapplied).Equal(payment.TotalAmount) {
		return nil, fmt.Errorf("%w: allocation plan for payment %s does not conserve the payment total", apperrors.ErrInternal, payment.PaymentID)
	}
	plan.result = result
	return plan, nil
}

// planRent applies a rent component oldest-period-first, then routes any
// residue to a single advance entry.
func (s *allocationService) planRent(plan *allocationPlan, payment domain.Payment, account domain.Account, chart domain.Chart, component domain.PaymentComponent, view *outstandingView, userID string) error {
	remaining := component.Amount

	for _, key := range view.order {
		if !remaining.IsPositive() {
			break
		}
		open := view.outstanding(key, domain.Rent)
		if !open.IsPositive() {
			continue
		}
		applied := decimal.Min(remaining, open)
		if err := s.planSettlement(plan, payment, account, chart, domain.Rent, applied, key, view, userID); err != nil {
			return err
		}
		remaining = remaining.Sub(applied)
	}

	if remaining.IsPositive() {
		// One advance entry per payment for the residue, not one per period.
		period := payment.ReceiptPeriod()
		if component.IntendedPeriod != nil {
			period = *component.IntendedPeriod
		}
		return s.planAdvance(plan, payment, account, chart, domain.Rent, remaining, period, view, userID)
	}
	return nil
}

// planAdminFee settles the admin fee in the period the payment was received,
// up to what is outstanding there. The excess is discarded: once-off income
// is not re-openable, so it is returned as unapplied rather than deferred.
func (s *allocationService) planAdminFee(plan *allocationPlan, payment domain.Payment, account domain.Account, chart domain.Chart, component domain.PaymentComponent, receiptPeriod domain.PeriodKey, view *outstandingView, userID string) (decimal.Decimal, error) {
	open := view.outstanding(receiptPeriod, domain.AdminFee)
	applied := decimal.Min(component.Amount, open)
	if applied.IsPositive() {
		if err := s.planSettlement(plan, payment, account, chart, domain.AdminFee, applied, receiptPeriod, view, userID); err != nil {
			return decimal.Zero, err
		}
	}
	return component.Amount.Sub(applied), nil
}

// planDeposit settles the deposit outstanding in the receipt period; any
// excess goes straight onto the deposit liability. Deposits are always a
// liability, never income.
func (s *allocationService) planDeposit(plan *allocationPlan, payment domain.Payment, account domain.Account, chart domain.Chart, component domain.PaymentComponent, receiptPeriod domain.PeriodKey, view *outstandingView, userID string) error {
	open := view.outstanding(receiptPeriod, domain.Deposit)
	applied := decimal.Min(component.Amount, open)
	if applied.IsPositive() {
		if err := s.planSettlement(plan, payment, account, chart, domain.Deposit, applied, receiptPeriod, view, userID); err != nil {
			return err
		}
	}
	excess := component.Amount.Sub(applied)
	if excess.IsPositive() {
		return s.planAdvance(plan, payment, account, chart, domain.Deposit, excess, receiptPeriod, view, userID)
	}
	return nil
}

// planSettlement adds one settlement entry (debit cash, credit receivable)
// tagged with the period, charge type and originating accrual.
func (s *allocationService) planSettlement(plan *allocationPlan, payment domain.Payment, account domain.Account, chart domain.Chart, chargeType domain.ChargeType, amount decimal.Decimal, key domain.PeriodKey, view *outstandingView, userID string) error {
	before := view.outstanding(key, chargeType)
	now := time.Now().UTC()

	entry := accounting.NewEntry(payment.TenantID, payment.PaymentDate,
		fmt.Sprintf("%s payment for %s", chargeType, key),
		domain.SourcePayment, userID, now)
	entry.PaymentID = &payment.PaymentID
	entry.Period = &key
	entry.ChargeType = &chargeType
	if state := view.charge(key, chargeType); state != nil && state.AccrualEntryID != "" {
		accrualID := state.AccrualEntryID
		entry.AccrualEntryID = &accrualID
	}
	entry.Postings = []domain.Posting{
		accounting.DebitPosting(entry.EntryID, chart.Cash, amount, "Payment received"),
		accounting.CreditPosting(entry.EntryID, account, amount, fmt.Sprintf("Settles %s %s", chargeType, key)),
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrLedgerImbalance, err)
	}

	view.apply(key, chargeType, amount)
	plan.entries = append(plan.entries, entry)
	plan.allocations = append(plan.allocations, domain.Allocation{
		PaymentID:         payment.PaymentID,
		Period:            key,
		ChargeType:        chargeType,
		AmountApplied:     amount,
		OutstandingBefore: before,
		OutstandingAfter:  before.Sub(amount),
		Kind:              domain.KindSettlement,
		EntryID:           entry.EntryID,
	})
	return nil
}

// planAdvance adds one 4-posting advance entry. Outstanding is untouched;
// an advance settles nothing.
func (s *allocationService) planAdvance(plan *allocationPlan, payment domain.Payment, account domain.Account, chart domain.Chart, chargeType domain.ChargeType, amount decimal.Decimal, period domain.PeriodKey, view *outstandingView, userID string) error {
	entry, err := s.advanceSvc.BuildAdvanceEntry(payment, account, chart, chargeType, amount, period, userID)
	if err != nil {
		return err
	}
	open := view.outstanding(period, chargeType)
	plan.entries = append(plan.entries, entry)
	plan.allocations = append(plan.allocations, domain.Allocation{
		PaymentID:         payment.PaymentID,
		Period:            period,
		ChargeType:        chargeType,
		AmountApplied:     amount,
		OutstandingBefore: open,
		OutstandingAfter:  open,
		Kind:              domain.KindAdvance,
		EntryID:           entry.EntryID,
	})
	return nil
}
