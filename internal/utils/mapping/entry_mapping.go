package mapping

import (
	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	"github.com/sairosthedev/alamait-ledger/internal/models"
)

// ToModelEntry converts a domain entry header to its database row shape.
func ToModelEntry(e domain.LedgerEntry) models.LedgerEntry {
	m := models.LedgerEntry{
		EntryID:          e.EntryID,
		TenantID:         e.TenantID,
		EntryDate:        e.EntryDate,
		Description:      e.Description,
		Source:           string(e.Source),
		Status:           string(e.Status),
		PaymentID:        e.PaymentID,
		AccrualEntryID:   e.AccrualEntryID,
		OriginalEntryID:  e.OriginalEntryID,
		ReversingEntryID: e.ReversingEntryID,
		AuditFields:      ToModelAuditFields(e.AuditFields),
	}
	if e.Period != nil {
		s := e.Period.String()
		m.PeriodKey = &s
	}
	if e.ChargeType != nil {
		s := string(*e.ChargeType)
		m.ChargeType = &s
	}
	if e.PeriodRole != nil {
		s := string(*e.PeriodRole)
		m.PeriodRole = &s
	}
	return m
}

// ToDomainEntry converts a database row back to the domain entry header.
// An unparseable period key is treated as untagged rather than failing the
// read; the aggregator's fallback chain handles it.
func ToDomainEntry(m models.LedgerEntry) domain.LedgerEntry {
	e := domain.LedgerEntry{
		EntryID:          m.EntryID,
		TenantID:         m.TenantID,
		EntryDate:        m.EntryDate,
		Description:      m.Description,
		Source:           domain.EntrySource(m.Source),
		Status:           domain.EntryStatus(m.Status),
		PaymentID:        m.PaymentID,
		AccrualEntryID:   m.AccrualEntryID,
		OriginalEntryID:  m.OriginalEntryID,
		ReversingEntryID: m.ReversingEntryID,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
	if m.PeriodKey != nil {
		if key, err := domain.ParsePeriodKey(*m.PeriodKey); err == nil {
			e.Period = &key
		}
	}
	if m.ChargeType != nil {
		if chargeType, err := domain.ParseChargeType(*m.ChargeType); err == nil {
			e.ChargeType = &chargeType
		}
	}
	if m.PeriodRole != nil {
		role := domain.PeriodRole(*m.PeriodRole)
		e.PeriodRole = &role
	}
	return e
}

// ToModelPosting converts a domain posting to its row shape.
func ToModelPosting(p domain.Posting) models.Posting {
	return models.Posting{
		PostingID:   p.PostingID,
		EntryID:     p.EntryID,
		AccountID:   p.AccountID,
		Role:        string(p.Role),
		Debit:       p.Debit,
		Credit:      p.Credit,
		Description: p.Description,
	}
}

// ToDomainPosting converts a posting row to its domain shape.
func ToDomainPosting(m models.Posting) domain.Posting {
	return domain.Posting{
		PostingID:   m.PostingID,
		EntryID:     m.EntryID,
		AccountID:   m.AccountID,
		Role:        domain.AccountRole(m.Role),
		Debit:       m.Debit,
		Credit:      m.Credit,
		Description: m.Description,
	}
}

// ToModelAllocation converts a domain allocation to its row shape.
func ToModelAllocation(a domain.Allocation, tenantID string, allocationID string) models.Allocation {
	return models.Allocation{
		AllocationID:      allocationID,
		PaymentID:         a.PaymentID,
		TenantID:          tenantID,
		PeriodKey:         a.Period.String(),
		ChargeType:        string(a.ChargeType),
		AmountApplied:     a.AmountApplied,
		OutstandingBefore: a.OutstandingBefore,
		OutstandingAfter:  a.OutstandingAfter,
		Kind:              string(a.Kind),
		EntryID:           a.EntryID,
	}
}

// ToDomainAllocation converts an allocation row to its domain shape.
func ToDomainAllocation(m models.Allocation) domain.Allocation {
	a := domain.Allocation{
		PaymentID:         m.PaymentID,
		ChargeType:        domain.ChargeType(m.ChargeType),
		AmountApplied:     m.AmountApplied,
		OutstandingBefore: m.OutstandingBefore,
		OutstandingAfter:  m.OutstandingAfter,
		Kind:              domain.AllocationKind(m.Kind),
		EntryID:           m.EntryID,
	}
	if key, err := domain.ParsePeriodKey(m.PeriodKey); err == nil {
		a.Period = key
	}
	return a
}
