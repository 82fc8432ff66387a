package services_test

import (
	"context"
	"time"

	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	portsrepo "github.com/sairosthedev/alamait-ledger/internal/core/ports/repositories"
	portssvc "github.com/sairosthedev/alamait-ledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock LedgerRepository ---
type MockLedgerRepository struct {
	mock.Mock
}

// Ensure MockLedgerRepository implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) AppendEntry(ctx context.Context, entry domain.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) SaveAllocation(ctx context.Context, entries []domain.LedgerEntry, allocations []domain.Allocation) error {
	args := m.Called(ctx, entries, allocations)
	return args.Error(0)
}

func (m *MockLedgerRepository) FindEntriesByTenant(ctx context.Context, tenantID string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindAllocationsByPayment(ctx context.Context, paymentID string) ([]domain.Allocation, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Allocation), args.Error(1)
}

func (m *MockLedgerRepository) ListEntriesByTenant(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	args := m.Called(ctx, tenantID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.LedgerEntry), returnedNextToken, args.Error(2)
}

func (m *MockLedgerRepository) AppendReversal(ctx context.Context, reversal domain.LedgerEntry, originalEntryID string, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, reversal, originalEntryID, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockLedgerRepository) SumAccountActivityThrough(ctx context.Context, tenantID string, accountID string, entryDate time.Time, createdAt time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, accountID, entryDate, createdAt)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) SaveTenantAccount(ctx context.Context, account domain.Account, link domain.TenantAccountLink) error {
	args := m.Called(ctx, account, link)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByPurpose(ctx context.Context, purpose domain.AccountPurpose) (*domain.Account, error) {
	args := m.Called(ctx, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ResolveTenantAccount(ctx context.Context, tenantID string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

// --- Mock AccountService (as consumed by the other services) ---
type MockAccountService struct {
	mock.Mock
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

func (m *MockAccountService) ProvisionTenantAccount(ctx context.Context, tenantID string, tenantName string, userID string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, tenantName, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) ResolveTenantAccount(ctx context.Context, tenantID string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetChart(ctx context.Context) (*domain.Chart, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chart), args.Error(1)
}

// --- Mock ObligationAggregator ---
type MockAggregatorService struct {
	mock.Mock
}

var _ portssvc.ObligationAggregatorSvcFacade = (*MockAggregatorService)(nil)

func (m *MockAggregatorService) GetOutstanding(ctx context.Context, tenantID string) ([]domain.Period, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Period), args.Error(1)
}

// --- Mock AuditSink ---
type MockAuditSink struct {
	mock.Mock
}

var _ portssvc.AuditSink = (*MockAuditSink)(nil)

func (m *MockAuditSink) Publish(topic string, event any) error {
	args := m.Called(topic, event)
	return args.Error(0)
}

// --- Shared test fixtures ---

// testChart builds a chart with stable account IDs for assertions.
func testChart() domain.Chart {
	return domain.Chart{
		Cash:             domain.Account{AccountID: "acc-cash", Role: domain.Asset, Purpose: domain.PurposeCash, IsActive: true},
		RentIncome:       domain.Account{AccountID: "acc-rent-income", Role: domain.Income, Purpose: domain.PurposeRentIncome, IsActive: true},
		AdminFeeIncome:   domain.Account{AccountID: "acc-admin-income", Role: domain.Income, Purpose: domain.PurposeAdminFeeIncome, IsActive: true},
		DepositLiability: domain.Account{AccountID: "acc-deposit-liab", Role: domain.Liability, Purpose: domain.PurposeDepositLiability, IsActive: true},
		DeferredIncome:   domain.Account{AccountID: "acc-deferred", Role: domain.Liability, Purpose: domain.PurposeDeferredIncome, IsActive: true},
	}
}

func testReceivable() domain.Account {
	return domain.Account{AccountID: "acc-receivable", Role: domain.Asset, Purpose: domain.PurposeTenantReceivable, IsActive: true}
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func period(year int, month time.Month) domain.PeriodKey {
	return domain.PeriodKey{Year: year, Month: month}
}
