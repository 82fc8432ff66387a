package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeaseStartRequest posts the lease-start accrual: first month's rent plus
// the one-off admin fee and deposit, each as a distinct posting.
type LeaseStartRequest struct {
	LeaseID     string          `json:"leaseID" binding:"required"`
	TenantID    string          `json:"tenantID" binding:"required"`
	StartDate   time.Time       `json:"startDate" binding:"required"`
	MonthlyRent decimal.Decimal `json:"monthlyRent" binding:"required"`
	AdminFee    decimal.Decimal `json:"adminFee"`
	Deposit     decimal.Decimal `json:"deposit"`
}

// MonthlyRentRequest posts a recurring rent accrual for one period.
type MonthlyRentRequest struct {
	TenantID string          `json:"tenantID" binding:"required"`
	Period   string          `json:"period" binding:"required"` // "YYYY-MM"
	Amount   decimal.Decimal `json:"amount" binding:"required"`
}

// DiscountRequest posts a negotiated discount reducing what is owed for one
// period and charge type.
type DiscountRequest struct {
	TenantID   string          `json:"tenantID" binding:"required"`
	Period     string          `json:"period" binding:"required"`
	ChargeType string          `json:"chargeType" binding:"required,oneof=RENT ADMIN_FEE DEPOSIT"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Reason     string          `json:"reason" binding:"required"`
}
