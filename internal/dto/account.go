package dto

import (
	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
)

// ProvisionTenantAccountRequest creates the tenant's receivable account and
// its authoritative mapping row.
type ProvisionTenantAccountRequest struct {
	TenantID   string `json:"tenantID" binding:"required"`
	TenantName string `json:"tenantName" binding:"required"`
}

// AccountResponse describes a ledger account.
type AccountResponse struct {
	AccountID string `json:"accountID"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	Role      string `json:"role"`
	Purpose   string `json:"purpose"`
	IsActive  bool   `json:"isActive"`
}

// ToAccountResponse converts a domain account to its response DTO.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID: a.AccountID,
		Name:      a.Name,
		Code:      a.Code,
		Role:      string(a.Role),
		Purpose:   string(a.Purpose),
		IsActive:  a.IsActive,
	}
}
