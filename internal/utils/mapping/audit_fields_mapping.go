package mapping

import (
	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	"github.com/sairosthedev/alamait-ledger/internal/models"
)

// ToModelAuditFields converts domain audit fields to the row shape.
func ToModelAuditFields(a domain.AuditFields) models.AuditFields {
	return models.AuditFields{
		CreatedAt:     a.CreatedAt,
		CreatedBy:     a.CreatedBy,
		LastUpdatedAt: a.LastUpdatedAt,
		LastUpdatedBy: a.LastUpdatedBy,
	}
}

// ToDomainAuditFields converts row audit fields to the domain shape.
func ToDomainAuditFields(a models.AuditFields) domain.AuditFields {
	return domain.AuditFields{
		CreatedAt:     a.CreatedAt,
		CreatedBy:     a.CreatedBy,
		LastUpdatedAt: a.LastUpdatedAt,
		LastUpdatedBy: a.LastUpdatedBy,
	}
}
