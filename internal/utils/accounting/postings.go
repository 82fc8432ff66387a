package accounting

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedAmount returns the net signed effect of a posting: debits to
// asset/expense accounts and credits to liability/equity/income accounts are
// positive, their opposites negative. Used for running balance calculation.
func SignedAmount(p domain.Posting) (decimal.Decimal, error) {
	switch p.Role {
	case domain.Asset, domain.Expense:
		return p.Debit.Sub(p.Credit), nil
	case domain.Liability, domain.Equity, domain.Income:
		return p.Credit.Sub(p.Debit), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown account role %q for account %s", p.Role, p.AccountID)
	}
}

// DebitPosting builds a debit line against the given account.
func DebitPosting(entryID string, account domain.Account, amount decimal.Decimal, description string) domain.Posting {
	return domain.Posting{
		PostingID:   uuid.NewString(),
		EntryID:     entryID,
		AccountID:   account.AccountID,
		Role:        account.Role,
		Debit:       amount,
		Credit:      decimal.Zero,
		Description: description,
	}
}

// CreditPosting builds a credit line against the given account.
func CreditPosting(entryID string, account domain.Account, amount decimal.Decimal, description string) domain.Posting {
	return domain.Posting{
		PostingID:   uuid.NewString(),
		EntryID:     entryID,
		AccountID:   account.AccountID,
		Role:        account.Role,
		Debit:       decimal.Zero,
		Credit:      amount,
		Description: description,
	}
}

// NewEntry constructs an entry header with audit fields filled in. Postings
// are appended by the caller before validation.
func NewEntry(tenantID string, date time.Time, description string, source domain.EntrySource, userID string, now time.Time) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:     uuid.NewString(),
		TenantID:    tenantID,
		EntryDate:   date,
		Description: description,
		Source:      source,
		Status:      domain.Posted,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
}

// ReversalOf builds the offsetting entry for a posted entry: same accounts
// and amounts with debit and credit swapped, linked back to the original.
func ReversalOf(original *domain.LedgerEntry, userID string, now time.Time) domain.LedgerEntry {
	reversal := NewEntry(original.TenantID, original.EntryDate,
		fmt.Sprintf("Reversal of: %s", original.Description),
		domain.SourceAdjustment, userID, now)
	reversal.OriginalEntryID = &original.EntryID
	reversal.Period = original.Period
	reversal.ChargeType = original.ChargeType
	reversal.PaymentID = original.PaymentID
	reversal.Postings = make([]domain.Posting, len(original.Postings))
	for i, p := range original.Postings {
		reversal.Postings[i] = domain.Posting{
			PostingID:   uuid.NewString(),
			EntryID:     reversal.EntryID,
			AccountID:   p.AccountID,
			Role:        p.Role,
			Debit:       p.Credit,
			Credit:      p.Debit,
			Description: p.Description,
		}
	}
	return reversal
}
