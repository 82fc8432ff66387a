package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentComponent is the part of a payment earmarked for one charge type.
type PaymentComponent struct {
	ChargeType     ChargeType      `json:"chargeType"`
	Amount         decimal.Decimal `json:"amount"`
	IntendedPeriod *PeriodKey      `json:"intendedPeriod,omitempty"`
}

// Payment is an incoming tenant payment, possibly split across charge types.
type Payment struct {
	PaymentID   string             `json:"paymentID"`
	TenantID    string             `json:"tenantID"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	PaymentDate time.Time          `json:"paymentDate"`
	Components  []PaymentComponent `json:"components"`
}

// Validate checks the payment's structural invariants: identifiers present,
// no negative amounts, and component amounts summing to the total.
func (p *Payment) Validate() error {
	if p.PaymentID == "" {
		return fmt.Errorf("payment has no ID")
	}
	if p.TenantID == "" {
		return fmt.Errorf("payment %s has no tenant", p.PaymentID)
	}
	if p.TotalAmount.IsNegative() {
		return fmt.Errorf("payment %s has negative total %s", p.PaymentID, p.TotalAmount)
	}
	if len(p.Components) == 0 {
		return fmt.Errorf("payment %s has no components", p.PaymentID)
	}
	sum := decimal.Zero
	for _, c := range p.Components {
		if c.Amount.IsNegative() {
			return fmt.Errorf("payment %s: negative %s component", p.PaymentID, c.ChargeType)
		}
		sum = sum.Add(c.Amount)
	}
	if !sum.Equal(p.TotalAmount) {
		return fmt.Errorf("payment %s: components sum to %s, total is %s", p.PaymentID, sum, p.TotalAmount)
	}
	return nil
}

// ReceiptPeriod is the accounting period the payment arrived in. One-off
// charges settle in this period regardless of the lease period.
func (p *Payment) ReceiptPeriod() PeriodKey {
	return PeriodOf(p.PaymentDate)
}
