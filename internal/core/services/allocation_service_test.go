package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/sairosthedev/alamait-ledger/internal/apperrors"
	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	portssvc "github.com/sairosthedev/alamait-ledger/internal/core/ports/services"
	"github.com/sairosthedev/alamait-ledger/internal/core/services"
	"github.com/sairosthedev/alamait-ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AllocationServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo *MockLedgerRepository
	mockAccountSvc *MockAccountService
	mockAggregator *MockAggregatorService
	mockAuditSink  *MockAuditSink
	service        portssvc.AllocationSvcFacade
	chart          domain.Chart
	receivable     domain.Account
	tenantID       string
	userID         string
}

func (suite *AllocationServiceTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.mockAggregator = new(MockAggregatorService)
	suite.mockAuditSink = new(MockAuditSink)

	// The real advance service builds the 4-posting entries; it only touches
	// its dependencies in PostAdvance, which the engine never calls.
	advanceSvc := services.NewAdvanceService(suite.mockLedgerRepo, suite.mockAccountSvc)

	suite.service = services.NewAllocationService(
		suite.mockLedgerRepo,
		suite.mockAccountSvc,
		suite.mockAggregator,
		advanceSvc,
		suite.mockAuditSink,
		3,
	)

	suite.chart = testChart()
	suite.receivable = testReceivable()
	suite.tenantID = "tenant-1"
	suite.userID = "user-1"
}

// expectHappyPathSetup wires account resolution, chart lookup, the
// no-prior-allocation check and the outstanding view.
func (suite *AllocationServiceTestSuite) expectHappyPathSetup(paymentID string, periods []domain.Period) {
	suite.mockAccountSvc.On("ResolveTenantAccount", mock.Anything, suite.tenantID).Return(&suite.receivable, nil)
	suite.mockAccountSvc.On("GetChart", mock.Anything).Return(&suite.chart, nil)
	suite.mockLedgerRepo.On("FindAllocationsByPayment", mock.Anything, paymentID).Return([]domain.Allocation{}, nil).Once()
	suite.mockAggregator.On("GetOutstanding", mock.Anything, suite.tenantID).Return(periods, nil)
	suite.mockAuditSink.On("Publish", services.AllocationCompletedTopic, mock.Anything).Return(nil)
}

func openPeriod(key domain.PeriodKey, rentOwed, adminOwed, depositOwed string) domain.Period {
	p := domain.Period{Key: key}
	p.Rent.Owed = dec(rentOwed)
	p.AdminFee.Owed = dec(adminOwed)
	p.Deposit.Owed = dec(depositOwed)
	return p
}

func allocateRequest(paymentID, tenantID string, total string, date time.Time, components ...dto.AllocateComponentRequest) dto.AllocateRequest {
	return dto.AllocateRequest{
		PaymentID:   paymentID,
		TenantID:    tenantID,
		TotalAmount: dec(total),
		Date:        date,
		Components:  components,
	}
}

// Mid-month rent payment matching the open obligation settles it exactly.
func (suite *AllocationServiceTestSuite) TestAllocate_RentExactSettlement() {
	ctx := context.Background()
	june := period(2024, time.June)
	suite.expectHappyPathSetup("pay-1", []domain.Period{openPeriod(june, "150", "0", "0")})
	suite.mockLedgerRepo.On("SaveAllocation", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	req := allocateRequest("pay-1", suite.tenantID, "150", time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC),
		dto.AllocateComponentRequest{ChargeType: "RENT", Amount: dec("150")})

	result, err := suite.service.Allocate(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(result.Allocations, 1)
	a := result.Allocations[0]
	suite.Equal(domain.KindSettlement, a.Kind)
	suite.Equal(june, a.Period)
	suite.True(a.AmountApplied.Equal(dec("150")))
	suite.True(a.OutstandingBefore.Equal(dec("150")))
	suite.True(a.OutstandingAfter.IsZero())
	suite.True(result.RemainingUnapplied.IsZero())
	suite.False(result.Replayed)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

// A rent payment walks open periods oldest first.
func (suite *AllocationServiceTestSuite) TestAllocate_RentOldestFirst() {
	ctx := context.Background()
	may := period(2024, time.May)
	june := period(2024, time.June)
	suite.expectHappyPathSetup("pay-2", []domain.Period{
		openPeriod(may, "50", "0", "0"),
		openPeriod(june, "150", "0", "0"),
	})
	suite.mockLedgerRepo.On("SaveAllocation", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	req := allocateRequest("pay-2", suite.tenantID, "120", time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
		dto.AllocateComponentRequest{ChargeType: "RENT", Amount: dec("120")})

	result, err := suite.service.Allocate(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(result.Allocations, 2)
	suite.Equal(may, result.Allocations[0].Period)
	suite.True(result.Allocations[0].AmountApplied.Equal(dec("50")))
	suite.Equal(june, result.Allocations[1].Period)
	suite.True(result.Allocations[1].AmountApplied.Equal(dec("70")))
	suite.True(result.Allocations[1].OutstandingAfter.Equal(dec("80")))
}

// Rent beyond all outstanding becomes a single advance, not income.
func (suite *AllocationServiceTestSuite) TestAllocate_RentExcessBecomesAdvance() {
	ctx := context.Background()
	june := period(2024, time.June)
	suite.expectHappyPathSetup("pay-3", []domain.Period{openPeriod(june, "150", "0", "0")})

	var savedEntries []domain.LedgerEntry
	suite.mockLedgerRepo.On("SaveAllocation", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			savedEntries = args.Get(1).([]domain.LedgerEntry)
		}).Return(nil).Once()

	req := allocateRequest("pay-3", suite.tenantID, "200", time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC),
		dto.AllocateComponentRequest{ChargeType: "RENT", Amount: dec("200")})

	result, err := suite.service.Allocate(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(result.Allocations, 2)
	suite.Equal(domain.KindSettlement, result.Allocations[0].Kind)
	suite.Equal(domain.KindAdvance, result.Allocations[1].Kind)
	suite.True(result.Allocations[1].AmountApplied.Equal(dec("50")))
	suite.True(result.RemainingUnapplied.IsZero())

	// The advance entry nets to zero on the receivable and credits deferred
	// income.
	suite.Require().Len(savedEntries, 2)
	advance := savedEntries[1]
	suite.Equal(domain.SourceAdvance, advance.Source)
	suite.Require().Len(advance.Postings, 4)
	suite.True(advance.AmountOnAccount(suite.receivable.AccountID).IsZero())
	suite.True(advance.CreditOnAccount(suite.chart.DeferredIncome.AccountID).Equal(dec("50")))
}

// A payment dated strictly before its intended period is an advance even
// when older periods are still open.
func (suite *AllocationServiceTestSuite) TestAllocate_ForcedAdvancePrecedence() {
	ctx := context.Background()
	june := period(2024, time.June)
	september := period(2024, time.September)
	suite.expectHappyPathSetup("pay-4", []domain.Period{openPeriod(june, "150", "0", "0")})
	suite.mockLedgerRepo.On("SaveAllocation", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	intended := "2024-09"
	req := allocateRequest("pay-4", suite.tenantID, "150", time.Date(2024, time.August, 25, 0, 0, 0, 0, time.UTC),
		dto.AllocateComponentRequest{ChargeType: "RENT", Amount: dec("150"), IntendedPeriod: &intended})

	result, err := suite.service.Allocate(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(result.Allocations, 1)
	a := result.Allocations[0]
	suite.Equal(domain.KindAdvance, a.Kind)
	suite.Equal(september, a.Period)
	// June's outstanding is untouched; an advance settles nothing.
	suite.True(a.OutstandingBefore.Equal(a.OutstandingAfter))
}

// Admin fee settles in the receipt period only; the excess is returned as
// unapplied, never deferred.
func (suite *AllocationServiceTestSuite) TestAllocate_AdminFeeExcessDiscarded() {
	ctx := context.Background()
	june := period(2024, time.June)
	suite.expectHappyPathSetup("pay-5", []domain.Period{openPeriod(june, "0", "30", "0")})
	suite.mockLedgerRepo.On("SaveAllocation", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	req := allocateRequest("pay-5", suite.tenantID, "50", time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC),
		dto.AllocateComponentRequest{ChargeType: "ADMIN_FEE", Amount: dec("50")})

	result, err := suite.service.Allocate(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(result.Allocations, 1)
	suite.True(result.Allocations[0].AmountApplied.Equal(dec("30")))
	suite.True(result.RemainingUnapplied.Equal(dec("20")))
}

// Deposit excess is deferred onto the deposit liability, not discarded.
func (suite *AllocationServiceTestSuite) TestAllocate_DepositExcessToLiability() {
	ctx := context.Background()
	june := period(2024, time.June)
	suite.expectHappyPathSetup("pay-6", []domain.Period{openPeriod(june, "0", "0", "100")})

	var savedEntries []domain.LedgerEntry
	suite.mockLedgerRepo.On("SaveAllocation", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			savedEntries = args.Get(1).([]domain.LedgerEntry)
		}).Return(nil).Once()

	req := allocateRequest("pay-6", suite.tenantID, "130", time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC),
		dto.AllocateComponentRequest{ChargeType: "DEPOSIT", Amount: dec("130")})

	result, err := suite.service.Allocate(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(result.Allocations, 2)
	suite.Equal(domain.KindSettlement, result.Allocations[0].Kind)
	suite.Equal(domain.KindAdvance, result.Allocations[1].Kind)
	suite.True(result.RemainingUnapplied.IsZero())

	suite.Require().Len(savedEntries, 2)
	suite.True(savedEntries[1].CreditOnAccount(suite.chart.DepositLiability.AccountID).Equal(dec("30")))
}

// A mixed payment conserves the total across settlements, advances and
// unapplied residue.
func (suite *AllocationServiceTestSuite) TestAllocate_MixedPaymentConservation() {
	ctx := context.Background()
	june := period(2024, time.June)
	suite.expectHappyPathSetup("pay-7", []domain.Period{openPeriod(june, "150", "30", "100")})
	suite.mockLedgerRepo.On("SaveAllocation", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	req := allocateRequest("pay-7", suite.tenantID, "330", time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC),
		dto.AllocateComponentRequest{ChargeType: "RENT", Amount: dec("160")},
		dto.AllocateComponentRequest{ChargeType: "ADMIN_FEE", Amount: dec("40")},
		dto.AllocateComponentRequest{ChargeType: "DEPOSIT", Amount: dec("130")})

	result, err := suite.service.Allocate(ctx, req, suite.userID)

	suite.Require().NoError(err)
	applied := decimal.Zero
	for _, a := range result.Allocations {
		applied = applied.Add(a.AmountApplied)
	}
	suite.True(applied.Add(result.RemainingUnapplied).Equal(dec("330")),
		"applied %s + unapplied %s must equal the payment total", applied, result.RemainingUnapplied)
}

// Re-allocating a processed payment returns the stored result untouched.
func (suite *AllocationServiceTestSuite) TestAllocate_IdempotentReplay() {
	ctx := context.Background()
	june := period(2024, time.June)
	prior := []domain.Allocation{{
		PaymentID:         "pay-8",
		Period:            june,
		ChargeType:        domain.Rent,
		AmountApplied:     dec("150"),
		OutstandingBefore: dec("150"),
		OutstandingAfter:  dec("0"),
		Kind:              domain.KindSettlement,
		EntryID:           "entry-prior",
	}}

	suite.mockAccountSvc.On("ResolveTenantAccount", mock.Anything, suite.tenantID).Return(&suite.receivable, nil)
	suite.mockAccountSvc.On("GetChart", mock.Anything).Return(&suite.chart, nil)
	suite.mockLedgerRepo.On("FindAllocationsByPayment", mock.Anything, "pay-8").Return(prior, nil).Once()

	req := allocateRequest("pay-8", suite.tenantID, "150", time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC),
		dto.AllocateComponentRequest{ChargeType: "RENT", Amount: dec("150")})

	result, err := suite.service.Allocate(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.True(result.Replayed)
	suite.Equal(prior, result.Allocations)
	suite.True(result.RemainingUnapplied.IsZero())
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SaveAllocation", mock.Anything, mock.Anything, mock.Anything)
	suite.mockAggregator.AssertNotCalled(suite.T(), "GetOutstanding", mock.Anything, mock.Anything)
}

// Losing the unique-constraint race mid-write degrades to a replay of the
// winner's result.
func (suite *AllocationServiceTestSuite) TestAllocate_DuplicateRaceReplays() {
	ctx := context.Background()
	june := period(2024, time.June)
	prior := []domain.Allocation{{
		PaymentID: "pay-9", Period: june, ChargeType: domain.Rent,
		AmountApplied: dec("150"), OutstandingBefore: dec("150"), OutstandingAfter: dec("0"),
		Kind: domain.KindSettlement, EntryID: "entry-winner",
	}}

	suite.mockAccountSvc.On("ResolveTenantAccount", mock.Anything, suite.tenantID).Return(&suite.receivable, nil)
	suite.mockAccountSvc.On("GetChart", mock.Anything).Return(&suite.chart, nil)
	suite.mockLedgerRepo.On("FindAllocationsByPayment", mock.Anything, "pay-9").Return([]domain.Allocation{}, nil).Once()
	suite.mockAggregator.On("GetOutstanding", mock.Anything, suite.tenantID).Return([]domain.Period{openPeriod(june, "150", "0", "0")}, nil)
	suite.mockLedgerRepo.On("SaveAllocation", mock.Anything, mock.Anything, mock.Anything).Return(apperrors.ErrDuplicate).Once()
	suite.mockLedgerRepo.On("FindAllocationsByPayment", mock.Anything, "pay-9").Return(prior, nil).Once()

	req := allocateRequest("pay-9", suite.tenantID, "150", time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC),
		dto.AllocateComponentRequest{ChargeType: "RENT", Amount: dec("150")})

	result, err := suite.service.Allocate(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.True(result.Replayed)
	suite.Equal(prior, result.Allocations)
}

// A serialization conflict re-aggregates and retries.
func (suite *AllocationServiceTestSuite) TestAllocate_ConflictRetries() {
	ctx := context.Background()
	june := period(2024, time.June)
	suite.expectHappyPathSetup("pay-10", []domain.Period{openPeriod(june, "150", "0", "0")})
	suite.mockLedgerRepo.On("SaveAllocation", mock.Anything, mock.Anything, mock.Anything).Return(apperrors.ErrConflict).Twice()
	suite.mockLedgerRepo.On("SaveAllocation", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	req := allocateRequest("pay-10", suite.tenantID, "150", time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC),
		dto.AllocateComponentRequest{ChargeType: "RENT", Amount: dec("150")})

	result, err := suite.service.Allocate(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.False(result.Replayed)
	suite.mockAggregator.AssertNumberOfCalls(suite.T(), "GetOutstanding", 3)
}

func (suite *AllocationServiceTestSuite) TestAllocate_ConflictRetriesExhausted() {
	ctx := context.Background()
	june := period(2024, time.June)
	suite.mockAccountSvc.On("ResolveTenantAccount", mock.Anything, suite.tenantID).Return(&suite.receivable, nil)
	suite.mockAccountSvc.On("GetChart", mock.Anything).Return(&suite.chart, nil)
	suite.mockLedgerRepo.On("FindAllocationsByPayment", mock.Anything, "pay-11").Return([]domain.Allocation{}, nil).Once()
	suite.mockAggregator.On("GetOutstanding", mock.Anything, suite.tenantID).Return([]domain.Period{openPeriod(june, "150", "0", "0")}, nil)
	suite.mockLedgerRepo.On("SaveAllocation", mock.Anything, mock.Anything, mock.Anything).Return(apperrors.ErrConflict).Times(3)

	req := allocateRequest("pay-11", suite.tenantID, "150", time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC),
		dto.AllocateComponentRequest{ChargeType: "RENT", Amount: dec("150")})

	_, err := suite.service.Allocate(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

// An unresolvable tenant account fails the allocation before anything is
// aggregated or written.
func (suite *AllocationServiceTestSuite) TestAllocate_FailsClosedOnUnresolvableAccount() {
	ctx := context.Background()
	suite.mockAccountSvc.On("ResolveTenantAccount", mock.Anything, suite.tenantID).
		Return(nil, apperrors.ErrAccountResolution).Once()

	req := allocateRequest("pay-12", suite.tenantID, "150", time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC),
		dto.AllocateComponentRequest{ChargeType: "RENT", Amount: dec("150")})

	_, err := suite.service.Allocate(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrAccountResolution)
	suite.mockAggregator.AssertNotCalled(suite.T(), "GetOutstanding", mock.Anything, mock.Anything)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SaveAllocation", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AllocationServiceTestSuite) TestAllocate_ComponentSumMismatchRejected() {
	ctx := context.Background()

	req := allocateRequest("pay-13", suite.tenantID, "200", time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC),
		dto.AllocateComponentRequest{ChargeType: "RENT", Amount: dec("150")})

	_, err := suite.service.Allocate(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountSvc.AssertNotCalled(suite.T(), "ResolveTenantAccount", mock.Anything, mock.Anything)
}

// A payment that part-settles the receipt period and defers the residue
// produces a SETTLEMENT row and an ADVANCE row for the same payment, charge
// type and period. Both must be persistable side by side, so the stored
// tuples only become unique once kind is included.
func (suite *AllocationServiceTestSuite) TestAllocate_PartSettleAndAdvanceShareThePeriod() {
	ctx := context.Background()
	august := period(2024, time.August)
	suite.expectHappyPathSetup("pay-b", []domain.Period{openPeriod(august, "36.67", "0", "0")})

	var saved []domain.Allocation
	suite.mockLedgerRepo.On("SaveAllocation", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(2).([]domain.Allocation)
		}).Return(nil).Once()

	req := allocateRequest("pay-b", suite.tenantID, "220", time.Date(2024, time.August, 25, 0, 0, 0, 0, time.UTC),
		dto.AllocateComponentRequest{ChargeType: "RENT", Amount: dec("220")})

	result, err := suite.service.Allocate(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(saved, 2)
	suite.Equal(domain.KindSettlement, saved[0].Kind)
	suite.True(saved[0].AmountApplied.Equal(dec("36.67")))
	suite.Equal(domain.KindAdvance, saved[1].Kind)
	suite.True(saved[1].AmountApplied.Equal(dec("183.33")))

	// Same payment, charge and period on both rows; only kind tells them
	// apart, so kind must be part of any uniqueness over the stored rows.
	suite.Equal(saved[0].PaymentID, saved[1].PaymentID)
	suite.Equal(saved[0].ChargeType, saved[1].ChargeType)
	suite.Equal(saved[0].Period, saved[1].Period)
	type allocationKey struct {
		paymentID  string
		chargeType domain.ChargeType
		period     domain.PeriodKey
		kind       domain.AllocationKind
	}
	seen := make(map[allocationKey]bool, len(saved))
	for _, a := range saved {
		k := allocationKey{a.PaymentID, a.ChargeType, a.Period, a.Kind}
		suite.False(seen[k], "allocation rows must be unique by payment, charge, period and kind")
		seen[k] = true
	}
	suite.True(result.RemainingUnapplied.IsZero())
}

// A tenant with no open periods gets the whole rent payment deferred.
func (suite *AllocationServiceTestSuite) TestAllocate_NoObligationsAllAdvance() {
	ctx := context.Background()
	suite.expectHappyPathSetup("pay-14", []domain.Period{})
	suite.mockLedgerRepo.On("SaveAllocation", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	req := allocateRequest("pay-14", suite.tenantID, "150", time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC),
		dto.AllocateComponentRequest{ChargeType: "RENT", Amount: dec("150")})

	result, err := suite.service.Allocate(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(result.Allocations, 1)
	suite.Equal(domain.KindAdvance, result.Allocations[0].Kind)
	suite.True(result.RemainingUnapplied.IsZero())
}

func TestAllocationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AllocationServiceTestSuite))
}
