package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntrySource identifies what produced a ledger entry.
type EntrySource string

const (
	SourceAccrual    EntrySource = "ACCRUAL"
	SourcePayment    EntrySource = "PAYMENT"
	SourceAdvance    EntrySource = "ADVANCE"
	SourceAdjustment EntrySource = "MANUAL_ADJUSTMENT"
)

// EntryStatus indicates the state of a ledger entry.
type EntryStatus string

const (
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// Posting is a single debit or credit line within a LedgerEntry.
// Exactly one of Debit and Credit is positive; the other is zero.
type Posting struct {
	PostingID   string          `json:"postingID"`
	EntryID     string          `json:"entryID"`
	AccountID   string          `json:"accountID"`
	Role        AccountRole     `json:"role"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// LedgerEntry is one immutable double-entry record. Entries are only ever
// appended; a posted entry is corrected by a reversing entry, never edited.
//
// Settlement and advance entries carry explicit structured tags (PaymentID,
// Period, ChargeType, AccrualEntryID) written at posting time so that
// aggregation never has to re-derive what an entry settled from its
// description text.
type LedgerEntry struct {
	EntryID     string      `json:"entryID"` // Primary key (UUID)
	TenantID    string      `json:"tenantID"`
	EntryDate   time.Time   `json:"entryDate"`
	Description string      `json:"description"`
	Source      EntrySource `json:"source"`
	Status      EntryStatus `json:"status"`

	PaymentID      *string     `json:"paymentID,omitempty"`
	Period         *PeriodKey  `json:"period,omitempty"`
	ChargeType     *ChargeType `json:"chargeType,omitempty"`
	AccrualEntryID *string     `json:"accrualEntryID,omitempty"`
	PeriodRole     *PeriodRole `json:"periodRole,omitempty"` // Set on accruals

	OriginalEntryID  *string `json:"originalEntryID,omitempty"`  // Set on reversing entries
	ReversingEntryID *string `json:"reversingEntryID,omitempty"` // Set once reversed

	Postings []Posting `json:"postings,omitempty"`
	AuditFields
}

// DebitTotal sums the debit side of the entry.
func (e *LedgerEntry) DebitTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range e.Postings {
		total = total.Add(p.Debit)
	}
	return total
}

// CreditTotal sums the credit side of the entry.
func (e *LedgerEntry) CreditTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range e.Postings {
		total = total.Add(p.Credit)
	}
	return total
}

// Balanced reports whether the entry's debits equal its credits.
func (e *LedgerEntry) Balanced() bool {
	return e.DebitTotal().Equal(e.CreditTotal())
}

// Validate checks the structural invariants every entry must satisfy
// before it may be appended to the ledger.
func (e *LedgerEntry) Validate() error {
	if e.TenantID == "" {
		return fmt.Errorf("entry %s has no tenant", e.EntryID)
	}
	if len(e.Postings) < 2 {
		return fmt.Errorf("entry %s must have at least two postings", e.EntryID)
	}
	for _, p := range e.Postings {
		if p.Debit.IsNegative() || p.Credit.IsNegative() {
			return fmt.Errorf("posting %s has a negative amount", p.PostingID)
		}
		if p.Debit.IsPositive() == p.Credit.IsPositive() {
			return fmt.Errorf("posting %s must be either a debit or a credit", p.PostingID)
		}
	}
	if !e.Balanced() {
		return fmt.Errorf("entry %s: debits %s, credits %s", e.EntryID, e.DebitTotal(), e.CreditTotal())
	}
	return nil
}

// AmountOnAccount returns the net signed effect of this entry on the given
// account: debits positive, credits negative.
func (e *LedgerEntry) AmountOnAccount(accountID string) decimal.Decimal {
	net := decimal.Zero
	for _, p := range e.Postings {
		if p.AccountID != accountID {
			continue
		}
		net = net.Add(p.Debit).Sub(p.Credit)
	}
	return net
}

// CreditOnAccount returns the total credited to the given account.
func (e *LedgerEntry) CreditOnAccount(accountID string) decimal.Decimal {
	total := decimal.Zero
	for _, p := range e.Postings {
		if p.AccountID == accountID {
			total = total.Add(p.Credit)
		}
	}
	return total
}

// DebitOnAccount returns the total debited to the given account.
func (e *LedgerEntry) DebitOnAccount(accountID string) decimal.Decimal {
	total := decimal.Zero
	for _, p := range e.Postings {
		if p.AccountID == accountID {
			total = total.Add(p.Debit)
		}
	}
	return total
}
