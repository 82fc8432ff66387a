package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Lease carries the charge schedule used to post accruals for a tenant.
// Lease CRUD lives outside this service; only the figures needed to raise
// obligations are modelled here.
type Lease struct {
	LeaseID     string          `json:"leaseID"`
	TenantID    string          `json:"tenantID"`
	StartDate   time.Time       `json:"startDate"`
	MonthlyRent decimal.Decimal `json:"monthlyRent"`
	AdminFee    decimal.Decimal `json:"adminFee"`
	Deposit     decimal.Decimal `json:"deposit"`
}

// Validate checks the lease figures are usable for accrual posting.
func (l *Lease) Validate() error {
	if l.TenantID == "" {
		return fmt.Errorf("lease %s has no tenant", l.LeaseID)
	}
	if l.MonthlyRent.IsNegative() || l.AdminFee.IsNegative() || l.Deposit.IsNegative() {
		return fmt.Errorf("lease %s has a negative charge amount", l.LeaseID)
	}
	return nil
}

// FirstPeriodKey is the accounting period the lease starts in.
func (l *Lease) FirstPeriodKey() PeriodKey {
	return PeriodOf(l.StartDate)
}
