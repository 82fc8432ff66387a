package domain

import "fmt"

// ChargeType identifies the kind of obligation a ledger amount relates to.
// Rent recurs monthly; admin fee and deposit are charged once per lease.
type ChargeType string

const (
	Rent     ChargeType = "RENT"
	AdminFee ChargeType = "ADMIN_FEE"
	Deposit  ChargeType = "DEPOSIT"
)

// ParseChargeType converts a string into a ChargeType.
func ParseChargeType(s string) (ChargeType, error) {
	switch ChargeType(s) {
	case Rent, AdminFee, Deposit:
		return ChargeType(s), nil
	default:
		return "", fmt.Errorf("unknown charge type %q", s)
	}
}

// IsRecurring reports whether the charge accrues every period.
func (c ChargeType) IsRecurring() bool {
	return c == Rent
}

// PeriodRole distinguishes the lease's first accounting period, which carries
// the one-off charges, from every later one. It is computed once when the
// lease-start entry is posted and stored on the entry, never re-inferred.
type PeriodRole string

const (
	FirstPeriod PeriodRole = "FIRST_PERIOD"
	Regular     PeriodRole = "REGULAR"
)
