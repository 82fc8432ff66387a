package dto

import (
	"fmt"
	"time"

	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AllocateComponentRequest is the slice of a payment earmarked for one
// charge type.
type AllocateComponentRequest struct {
	ChargeType     string          `json:"chargeType" binding:"required,oneof=RENT ADMIN_FEE DEPOSIT"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	IntendedPeriod *string         `json:"intendedPeriod,omitempty"` // "YYYY-MM"
}

// AllocateRequest asks the engine to apply a payment against a tenant's
// outstanding obligations.
type AllocateRequest struct {
	PaymentID   string                     `json:"paymentID" binding:"required"`
	TenantID    string                     `json:"tenantID" binding:"required"`
	TotalAmount decimal.Decimal            `json:"totalAmount" binding:"required"`
	Date        time.Time                  `json:"date" binding:"required"`
	Components  []AllocateComponentRequest `json:"components" binding:"required,min=1,dive"`
}

// ToDomain converts the request into a domain payment, parsing period keys.
func (r *AllocateRequest) ToDomain() (domain.Payment, error) {
	payment := domain.Payment{
		PaymentID:   r.PaymentID,
		TenantID:    r.TenantID,
		TotalAmount: r.TotalAmount,
		PaymentDate: r.Date,
		Components:  make([]domain.PaymentComponent, len(r.Components)),
	}
	for i, c := range r.Components {
		chargeType, err := domain.ParseChargeType(c.ChargeType)
		if err != nil {
			return domain.Payment{}, err
		}
		component := domain.PaymentComponent{ChargeType: chargeType, Amount: c.Amount}
		if c.IntendedPeriod != nil {
			period, err := domain.ParsePeriodKey(*c.IntendedPeriod)
			if err != nil {
				return domain.Payment{}, fmt.Errorf("component %s: %w", c.ChargeType, err)
			}
			component.IntendedPeriod = &period
		}
		payment.Components[i] = component
	}
	return payment, nil
}

// AllocationLineResponse is one applied slice in the allocation response.
type AllocationLineResponse struct {
	Period            string          `json:"period"`
	ChargeType        string          `json:"chargeType"`
	AmountApplied     decimal.Decimal `json:"amountApplied"`
	OutstandingBefore decimal.Decimal `json:"outstandingBefore"`
	OutstandingAfter  decimal.Decimal `json:"outstandingAfter"`
	Kind              string          `json:"kind"`
	EntryID           string          `json:"entryID"`
}

// AllocationResponse is returned to the caller after a payment is allocated.
type AllocationResponse struct {
	Success            bool                     `json:"success"`
	PaymentID          string                   `json:"paymentID"`
	Allocations        []AllocationLineResponse `json:"allocations"`
	RemainingUnapplied decimal.Decimal          `json:"remainingUnapplied"`
	Replayed           bool                     `json:"replayed"`
}

// ToAllocationResponse converts a domain result to its response DTO.
func ToAllocationResponse(result *domain.AllocationResult) AllocationResponse {
	lines := make([]AllocationLineResponse, len(result.Allocations))
	for i, a := range result.Allocations {
		lines[i] = AllocationLineResponse{
			Period:            a.Period.String(),
			ChargeType:        string(a.ChargeType),
			AmountApplied:     a.AmountApplied,
			OutstandingBefore: a.OutstandingBefore,
			OutstandingAfter:  a.OutstandingAfter,
			Kind:              string(a.Kind),
			EntryID:           a.EntryID,
		}
	}
	return AllocationResponse{
		Success:            true,
		PaymentID:          result.PaymentID,
		Allocations:        lines,
		RemainingUnapplied: result.RemainingUnapplied,
		Replayed:           result.Replayed,
	}
}
