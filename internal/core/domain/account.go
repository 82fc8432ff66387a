package domain

// AccountRole defines the fundamental accounting type of an account.
type AccountRole string

const (
	Asset     AccountRole = "ASSET"
	Liability AccountRole = "LIABILITY"
	Income    AccountRole = "INCOME"
	Expense   AccountRole = "EXPENSE"
	Equity    AccountRole = "EQUITY"
)

// AccountPurpose identifies the functional slot an account fills in the
// rent ledger. System accounts exist once; receivable accounts exist one
// per tenant.
type AccountPurpose string

const (
	PurposeCash             AccountPurpose = "CASH"
	PurposeTenantReceivable AccountPurpose = "TENANT_RECEIVABLE"
	PurposeRentIncome       AccountPurpose = "RENT_INCOME"
	PurposeAdminFeeIncome   AccountPurpose = "ADMIN_FEE_INCOME"
	PurposeDepositLiability AccountPurpose = "DEPOSIT_LIABILITY"
	PurposeDeferredIncome   AccountPurpose = "DEFERRED_INCOME"
)

// Account represents a ledger account. The AccountID is the stable
// identifier all postings reference; Code is a human-readable label only
// and carries no embedded foreign keys.
type Account struct {
	AccountID string         `json:"accountID"` // Primary key (UUID)
	Name      string         `json:"name"`
	Code      string         `json:"code"` // Display code, e.g. "AR-0042"
	Role      AccountRole    `json:"role"`
	Purpose   AccountPurpose `json:"purpose"`
	IsActive  bool           `json:"isActive"`
	AuditFields
}

// TenantAccountLink is the authoritative mapping from a tenant to their
// receivable account. It is written once at provisioning and resolved by
// exact lookup only; the binding survives changes to the tenant's user or
// session identity.
type TenantAccountLink struct {
	TenantID  string `json:"tenantID"`
	AccountID string `json:"accountID"`
	AuditFields
}

// Chart holds the resolved system accounts the allocation engine posts
// against. It is looked up from the account store, never constructed from
// identifier string concatenation.
type Chart struct {
	Cash             Account
	RentIncome       Account
	AdminFeeIncome   Account
	DepositLiability Account
	DeferredIncome   Account
}
