package domain_test

import (
	"testing"
	"time"

	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriodKey(t *testing.T) {
	key, err := domain.ParsePeriodKey("2024-06")
	require.NoError(t, err)
	assert.Equal(t, 2024, key.Year)
	assert.Equal(t, time.June, key.Month)
	assert.Equal(t, "2024-06", key.String())
}

func TestParsePeriodKey_Invalid(t *testing.T) {
	for _, s := range []string{"", "2024", "2024-13", "June 2024", "2024/06"} {
		_, err := domain.ParsePeriodKey(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestPeriodKey_Before(t *testing.T) {
	may := domain.PeriodKey{Year: 2024, Month: time.May}
	june := domain.PeriodKey{Year: 2024, Month: time.June}
	janNext := domain.PeriodKey{Year: 2025, Month: time.January}

	assert.True(t, may.Before(june))
	assert.True(t, june.Before(janNext))
	assert.False(t, june.Before(may))
	assert.False(t, june.Before(june))
}

func TestPeriodKey_Next(t *testing.T) {
	june := domain.PeriodKey{Year: 2024, Month: time.June}
	assert.Equal(t, domain.PeriodKey{Year: 2024, Month: time.July}, june.Next())

	december := domain.PeriodKey{Year: 2024, Month: time.December}
	assert.Equal(t, domain.PeriodKey{Year: 2025, Month: time.January}, december.Next())
}

func TestPeriodOf(t *testing.T) {
	key := domain.PeriodOf(time.Date(2024, time.June, 15, 10, 30, 0, 0, time.UTC))
	assert.Equal(t, domain.PeriodKey{Year: 2024, Month: time.June}, key)
}

func TestChargeState_Outstanding(t *testing.T) {
	state := domain.ChargeState{
		Owed:     decimal.NewFromInt(100),
		Paid:     decimal.NewFromInt(30),
		Discount: decimal.NewFromInt(20),
	}
	assert.True(t, state.Outstanding().Equal(decimal.NewFromInt(50)))
}

func TestChargeState_Outstanding_ClampedAtZero(t *testing.T) {
	// Overpayment must not surface as a negative obligation.
	state := domain.ChargeState{
		Owed: decimal.NewFromInt(100),
		Paid: decimal.NewFromInt(150),
	}
	assert.True(t, state.Outstanding().IsZero())
}

func TestPeriod_HasOutstanding(t *testing.T) {
	p := domain.Period{Key: domain.PeriodKey{Year: 2024, Month: time.June}}
	assert.False(t, p.HasOutstanding())

	p.AdminFee.Owed = decimal.NewFromInt(25)
	assert.True(t, p.HasOutstanding())

	p.AdminFee.Paid = decimal.NewFromInt(25)
	assert.False(t, p.HasOutstanding())
}

func TestPeriod_Charge(t *testing.T) {
	p := domain.Period{}
	p.Charge(domain.Rent).Owed = decimal.NewFromInt(10)
	p.Charge(domain.Deposit).Owed = decimal.NewFromInt(20)

	assert.True(t, p.Rent.Owed.Equal(decimal.NewFromInt(10)))
	assert.True(t, p.Deposit.Owed.Equal(decimal.NewFromInt(20)))
	assert.Nil(t, p.Charge(domain.ChargeType("BOGUS")))
}
