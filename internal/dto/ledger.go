package dto

import (
	"time"

	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ChargeStateResponse is the replayed position of one charge type.
type ChargeStateResponse struct {
	Owed        decimal.Decimal `json:"owed"`
	Paid        decimal.Decimal `json:"paid"`
	Discount    decimal.Decimal `json:"discount"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// PeriodResponse is one accounting period with outstanding charges.
type PeriodResponse struct {
	Period   string              `json:"period"`
	Rent     ChargeStateResponse `json:"rent"`
	AdminFee ChargeStateResponse `json:"adminFee"`
	Deposit  ChargeStateResponse `json:"deposit"`
}

// OutstandingResponse lists a tenant's open periods, oldest first.
type OutstandingResponse struct {
	TenantID string           `json:"tenantID"`
	Periods  []PeriodResponse `json:"periods"`
}

func toChargeStateResponse(c domain.ChargeState) ChargeStateResponse {
	return ChargeStateResponse{
		Owed:        c.Owed,
		Paid:        c.Paid,
		Discount:    c.Discount,
		Outstanding: c.Outstanding(),
	}
}

// ToOutstandingResponse converts replayed periods to the response DTO.
func ToOutstandingResponse(tenantID string, periods []domain.Period) OutstandingResponse {
	resp := OutstandingResponse{TenantID: tenantID, Periods: make([]PeriodResponse, len(periods))}
	for i, p := range periods {
		resp.Periods[i] = PeriodResponse{
			Period:   p.Key.String(),
			Rent:     toChargeStateResponse(p.Rent),
			AdminFee: toChargeStateResponse(p.AdminFee),
			Deposit:  toChargeStateResponse(p.Deposit),
		}
	}
	return resp
}

// PostingResponse is one debit or credit line of an entry.
type PostingResponse struct {
	AccountID   string          `json:"accountID"`
	Role        string          `json:"role"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// EntryResponse is one ledger entry on a tenant statement.
type EntryResponse struct {
	EntryID        string            `json:"entryID"`
	Date           time.Time         `json:"date"`
	Description    string            `json:"description"`
	Source         string            `json:"source"`
	Status         string            `json:"status"`
	Period         *string           `json:"period,omitempty"`
	ChargeType     *string           `json:"chargeType,omitempty"`
	PaymentID      *string           `json:"paymentID,omitempty"`
	Postings       []PostingResponse `json:"postings"`
	RunningBalance decimal.Decimal   `json:"runningBalance"`
}

// StatementResponse is one page of a tenant's receivable statement.
type StatementResponse struct {
	TenantID  string          `json:"tenantID"`
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToEntryResponse converts a domain entry; runningBalance is supplied by the
// statement service, which tracks it across the page.
func ToEntryResponse(e *domain.LedgerEntry, runningBalance decimal.Decimal) EntryResponse {
	resp := EntryResponse{
		EntryID:        e.EntryID,
		Date:           e.EntryDate,
		Description:    e.Description,
		Source:         string(e.Source),
		Status:         string(e.Status),
		PaymentID:      e.PaymentID,
		Postings:       make([]PostingResponse, len(e.Postings)),
		RunningBalance: runningBalance,
	}
	if e.Period != nil {
		s := e.Period.String()
		resp.Period = &s
	}
	if e.ChargeType != nil {
		s := string(*e.ChargeType)
		resp.ChargeType = &s
	}
	for i, p := range e.Postings {
		resp.Postings[i] = PostingResponse{
			AccountID:   p.AccountID,
			Role:        string(p.Role),
			Debit:       p.Debit,
			Credit:      p.Credit,
			Description: p.Description,
		}
	}
	return resp
}

// RecognizeDeferredRequest asks for deferred income to be recognized for a
// period that now has an accrued obligation.
type RecognizeDeferredRequest struct {
	TenantID string `json:"tenantID" binding:"required"`
	Period   string `json:"period" binding:"required"`
}
