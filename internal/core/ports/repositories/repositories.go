package repositories

// RepositoryProvider bundles the concrete repositories handed to the
// service layer.
type RepositoryProvider struct {
	LedgerRepo  LedgerRepositoryFacade
	AccountRepo AccountRepositoryFacade
}
