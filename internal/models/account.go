package models

// Account is the database row shape for a ledger account.
type Account struct {
	AccountID string
	Name      string
	Code      string
	Role      string
	Purpose   string
	IsActive  bool
	AuditFields
}

// TenantAccountLink is the database row mapping a tenant to their
// receivable account.
type TenantAccountLink struct {
	TenantID  string
	AccountID string
	AuditFields
}
