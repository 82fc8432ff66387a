package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/sairosthedev/alamait-ledger/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	ledgerRepo := newPgxLedgerRepository(dbPool)

	return portsrepo.RepositoryProvider{
		LedgerRepo:  ledgerRepo,
		AccountRepo: accountRepo,
	}
}
