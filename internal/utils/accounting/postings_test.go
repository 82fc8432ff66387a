package accounting

import (
	"testing"
	"time"

	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedAmount(t *testing.T) {
	hundred := decimal.NewFromInt(100)

	tests := []struct {
		name    string
		posting domain.Posting
		want    decimal.Decimal
	}{
		{"asset debit increases", domain.Posting{Role: domain.Asset, Debit: hundred}, hundred},
		{"asset credit decreases", domain.Posting{Role: domain.Asset, Credit: hundred}, hundred.Neg()},
		{"expense debit increases", domain.Posting{Role: domain.Expense, Debit: hundred}, hundred},
		{"liability credit increases", domain.Posting{Role: domain.Liability, Credit: hundred}, hundred},
		{"income credit increases", domain.Posting{Role: domain.Income, Credit: hundred}, hundred},
		{"income debit decreases", domain.Posting{Role: domain.Income, Debit: hundred}, hundred.Neg()},
		{"equity credit increases", domain.Posting{Role: domain.Equity, Credit: hundred}, hundred},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SignedAmount(tt.posting)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestSignedAmount_UnknownRole(t *testing.T) {
	_, err := SignedAmount(domain.Posting{Role: domain.AccountRole("BOGUS")})
	assert.Error(t, err)
}

func TestDebitAndCreditPosting(t *testing.T) {
	account := domain.Account{AccountID: "acc-1", Role: domain.Asset}
	amount := decimal.NewFromInt(75)

	debit := DebitPosting("entry-1", account, amount, "charge")
	assert.NotEmpty(t, debit.PostingID)
	assert.Equal(t, "entry-1", debit.EntryID)
	assert.Equal(t, "acc-1", debit.AccountID)
	assert.Equal(t, domain.Asset, debit.Role)
	assert.True(t, debit.Debit.Equal(amount))
	assert.True(t, debit.Credit.IsZero())

	credit := CreditPosting("entry-1", account, amount, "payment")
	assert.True(t, credit.Credit.Equal(amount))
	assert.True(t, credit.Debit.IsZero())
}

func TestNewEntry(t *testing.T) {
	now := time.Date(2024, time.June, 14, 12, 0, 0, 0, time.UTC)
	date := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	entry := NewEntry("tenant-1", date, "Rent for 2024-06", domain.SourceAccrual, "user-1", now)

	assert.NotEmpty(t, entry.EntryID)
	assert.Equal(t, "tenant-1", entry.TenantID)
	assert.Equal(t, domain.Posted, entry.Status)
	assert.Equal(t, domain.SourceAccrual, entry.Source)
	assert.Equal(t, "user-1", entry.CreatedBy)
	assert.Equal(t, now, entry.CreatedAt)
}

func TestReversalOf(t *testing.T) {
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	period := domain.PeriodKey{Year: 2024, Month: time.June}
	chargeType := domain.Rent
	paymentID := "pay-1"

	original := domain.LedgerEntry{
		EntryID:     "entry-1",
		TenantID:    "tenant-1",
		EntryDate:   time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC),
		Description: "Rent payment for 2024-06",
		Source:      domain.SourcePayment,
		Status:      domain.Posted,
		Period:      &period,
		ChargeType:  &chargeType,
		PaymentID:   &paymentID,
		Postings: []domain.Posting{
			{PostingID: "p-1", EntryID: "entry-1", AccountID: "acc-cash", Role: domain.Asset, Debit: decimal.NewFromInt(150)},
			{PostingID: "p-2", EntryID: "entry-1", AccountID: "acc-receivable", Role: domain.Asset, Credit: decimal.NewFromInt(150)},
		},
	}

	reversal := ReversalOf(&original, "user-1", now)

	require.NotNil(t, reversal.OriginalEntryID)
	assert.Equal(t, "entry-1", *reversal.OriginalEntryID)
	assert.NotEqual(t, original.EntryID, reversal.EntryID)
	assert.Equal(t, domain.SourceAdjustment, reversal.Source)
	assert.Equal(t, original.Period, reversal.Period)
	assert.Equal(t, original.PaymentID, reversal.PaymentID)

	require.Len(t, reversal.Postings, 2)
	assert.True(t, reversal.Postings[0].Credit.Equal(decimal.NewFromInt(150)))
	assert.True(t, reversal.Postings[0].Debit.IsZero())
	assert.True(t, reversal.Postings[1].Debit.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, reversal.EntryID, reversal.Postings[0].EntryID)
	assert.NoError(t, reversal.Validate())
}
