package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sairosthedev/alamait-ledger/internal/apperrors"
	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	portsrepo "github.com/sairosthedev/alamait-ledger/internal/core/ports/repositories"
	"github.com/sairosthedev/alamait-ledger/internal/models"
	"github.com/sairosthedev/alamait-ledger/internal/utils/mapping"
)

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account and tenant
// mapping data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, name, code, role, purpose, is_active,
	       created_at, created_by, last_updated_at, last_updated_by`

const insertAccountQuery = `
	INSERT INTO accounts (
		account_id, name, code, role, purpose, is_active,
		created_at, created_by, last_updated_at, last_updated_by
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`

func accountArgs(m models.Account) []interface{} {
	return []interface{}{
		m.AccountID,
		m.Name,
		m.Code,
		m.Role,
		m.Purpose,
		m.IsActive,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	}
}

// SaveAccount inserts a single account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	modelAccount := mapping.ToModelAccount(account)
	_, err := r.Pool.Exec(ctx, insertAccountQuery, accountArgs(modelAccount)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert account "+modelAccount.AccountID, err)
	}
	return nil
}

// SaveTenantAccount creates the tenant's receivable account and the mapping
// row in one transaction. The unique constraint on tenant_id makes a second
// provisioning attempt fail as ErrDuplicate with nothing written.
func (r *PgxAccountRepository) SaveTenantAccount(ctx context.Context, account domain.Account, link domain.TenantAccountLink) error {
	return r.runInTx(ctx, func(tx pgx.Tx) error {
		modelAccount := mapping.ToModelAccount(account)
		if _, err := tx.Exec(ctx, insertAccountQuery, accountArgs(modelAccount)...); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return apperrors.ErrDuplicate
			}
			return apperrors.NewAppError(500, "failed to insert account "+modelAccount.AccountID, err)
		}

		linkQuery := `
			INSERT INTO tenant_ledger_accounts (tenant_id, account_id, created_at, created_by, last_updated_at, last_updated_by)
			VALUES ($1, $2, $3, $4, $5, $6);
		`
		_, err := tx.Exec(ctx, linkQuery,
			link.TenantID,
			link.AccountID,
			link.CreatedAt,
			link.CreatedBy,
			link.LastUpdatedAt,
			link.LastUpdatedBy,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return apperrors.ErrDuplicate
			}
			return apperrors.NewAppError(500, "failed to insert tenant account link for tenant "+link.TenantID, err)
		}
		return nil
	})
}

func scanAccountRow(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.Name,
		&m.Code,
		&m.Role,
		&m.Purpose,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id = $1;
	`
	m, err := scanAccountRow(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find account by ID "+accountID, err)
	}
	domainAccount := mapping.ToDomainAccount(m)
	return &domainAccount, nil
}

// FindAccountByPurpose retrieves the single system account filling the given
// purpose slot.
func (r *PgxAccountRepository) FindAccountByPurpose(ctx context.Context, purpose domain.AccountPurpose) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE purpose = $1 AND is_active = TRUE
		ORDER BY created_at
		LIMIT 1;
	`
	m, err := scanAccountRow(r.Pool.QueryRow(ctx, query, string(purpose)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find account for purpose "+string(purpose), err)
	}
	domainAccount := mapping.ToDomainAccount(m)
	return &domainAccount, nil
}

// ResolveTenantAccount resolves a tenant to their receivable account by exact
// lookup of the mapping table. No derived or fuzzy fallback.
func (r *PgxAccountRepository) ResolveTenantAccount(ctx context.Context, tenantID string) (*domain.Account, error) {
	query := `
		SELECT a.account_id, a.name, a.code, a.role, a.purpose, a.is_active,
		       a.created_at, a.created_by, a.last_updated_at, a.last_updated_by
		FROM accounts a
		JOIN tenant_ledger_accounts tla ON tla.account_id = a.account_id
		WHERE tla.tenant_id = $1;
	`
	m, err := scanAccountRow(r.Pool.QueryRow(ctx, query, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to resolve account for tenant "+tenantID, err)
	}
	domainAccount := mapping.ToDomainAccount(m)
	return &domainAccount, nil
}
