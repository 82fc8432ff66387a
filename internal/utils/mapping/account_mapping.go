package mapping

import (
	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	"github.com/sairosthedev/alamait-ledger/internal/models"
)

// ToModelAccount converts a domain account to its database row shape.
func ToModelAccount(a domain.Account) models.Account {
	return models.Account{
		AccountID:   a.AccountID,
		Name:        a.Name,
		Code:        a.Code,
		Role:        string(a.Role),
		Purpose:     string(a.Purpose),
		IsActive:    a.IsActive,
		AuditFields: ToModelAuditFields(a.AuditFields),
	}
}

// ToDomainAccount converts an account row to its domain shape.
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:   m.AccountID,
		Name:        m.Name,
		Code:        m.Code,
		Role:        domain.AccountRole(m.Role),
		Purpose:     domain.AccountPurpose(m.Purpose),
		IsActive:    m.IsActive,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}
