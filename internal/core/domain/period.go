package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodKey identifies one accounting period (a calendar month).
// Its canonical string form is "YYYY-MM", which sorts lexically in
// chronological order.
type PeriodKey struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// PeriodOf returns the accounting period containing t.
func PeriodOf(t time.Time) PeriodKey {
	return PeriodKey{Year: t.Year(), Month: t.Month()}
}

// ParsePeriodKey parses the canonical "YYYY-MM" form.
func ParsePeriodKey(s string) (PeriodKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return PeriodKey{}, fmt.Errorf("invalid period key %q: %w", s, err)
	}
	return PeriodKey{Year: t.Year(), Month: t.Month()}, nil
}

func (p PeriodKey) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// IsZero reports whether p is the zero period.
func (p PeriodKey) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Before reports whether p is chronologically earlier than o.
func (p PeriodKey) Before(o PeriodKey) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// Next returns the period immediately after p.
func (p PeriodKey) Next() PeriodKey {
	if p.Month == time.December {
		return PeriodKey{Year: p.Year + 1, Month: time.January}
	}
	return PeriodKey{Year: p.Year, Month: p.Month + 1}
}

// ChargeState is the replayed position of one charge type within one period.
// All three figures come from ledger replay; none is stored state.
type ChargeState struct {
	Owed     decimal.Decimal `json:"owed"`
	Paid     decimal.Decimal `json:"paid"`
	Discount decimal.Decimal `json:"discount"`
	// AccrualEntryID references the entry that established Owed, so that
	// settlements written against this state can carry an explicit link back.
	AccrualEntryID string `json:"accrualEntryID,omitempty"`
}

// Outstanding returns max(0, owed - paid - discount).
func (c ChargeState) Outstanding() decimal.Decimal {
	out := c.Owed.Sub(c.Paid).Sub(c.Discount)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Period carries the per-charge-type state of one accounting period for one
// tenant. It is derived fresh from the ledger on every query.
type Period struct {
	Key      PeriodKey   `json:"period"`
	Rent     ChargeState `json:"rent"`
	AdminFee ChargeState `json:"adminFee"`
	Deposit  ChargeState `json:"deposit"`
}

// Charge returns a pointer to the state for the given charge type.
func (p *Period) Charge(ct ChargeType) *ChargeState {
	switch ct {
	case Rent:
		return &p.Rent
	case AdminFee:
		return &p.AdminFee
	case Deposit:
		return &p.Deposit
	}
	return nil
}

// HasOutstanding reports whether any charge type still has a positive
// outstanding amount in this period.
func (p *Period) HasOutstanding() bool {
	return p.Rent.Outstanding().IsPositive() ||
		p.AdminFee.Outstanding().IsPositive() ||
		p.Deposit.Outstanding().IsPositive()
}
