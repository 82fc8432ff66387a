package services

import (
	portsrepo "github.com/sairosthedev/alamait-ledger/internal/core/ports/repositories"
	portssvc "github.com/sairosthedev/alamait-ledger/internal/core/ports/services"
	"github.com/sairosthedev/alamait-ledger/pkg/config"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, auditSink portssvc.AuditSink) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Account = NewAccountService(repos.AccountRepo)
	container.Aggregator = NewObligationAggregator(repos.LedgerRepo, container.Account)
	container.Advance = NewAdvanceService(repos.LedgerRepo, container.Account)
	container.Allocation = NewAllocationService(
		repos.LedgerRepo,
		container.Account,
		container.Aggregator,
		container.Advance,
		auditSink,
		cfg.AllocationMaxRetries,
	)
	container.Accrual = NewAccrualService(repos.LedgerRepo, container.Account)
	container.Recognition = NewRecognitionService(repos.LedgerRepo, container.Account)
	container.Statement = NewStatementService(repos.LedgerRepo, container.Account)

	return container
}
