package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sairosthedev/alamait-ledger/internal/apperrors"
	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	portsrepo "github.com/sairosthedev/alamait-ledger/internal/core/ports/repositories"
	"github.com/sairosthedev/alamait-ledger/internal/models"
	"github.com/sairosthedev/alamait-ledger/internal/utils/mapping"
	"github.com/sairosthedev/alamait-ledger/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for ledger entry, posting
// and allocation data.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

const entryColumns = `entry_id, tenant_id, entry_date, description, source, status,
	       payment_id, period_key, charge_type, accrual_entry_id, period_role,
	       original_entry_id, reversing_entry_id,
	       created_at, created_by, last_updated_at, last_updated_by`

// insertEntryTx writes one entry header and its postings inside an existing
// transaction. Postings go through a batch to keep round trips down.
func (r *PgxLedgerRepository) insertEntryTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) error {
	modelEntry := mapping.ToModelEntry(entry)
	entryQuery := `
		INSERT INTO ledger_entries (
			entry_id, tenant_id, entry_date, description, source, status,
			payment_id, period_key, charge_type, accrual_entry_id, period_role,
			original_entry_id, reversing_entry_id,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := tx.Exec(ctx, entryQuery,
		modelEntry.EntryID,
		modelEntry.TenantID,
		modelEntry.EntryDate,
		modelEntry.Description,
		modelEntry.Source,
		modelEntry.Status,
		modelEntry.PaymentID,
		modelEntry.PeriodKey,
		modelEntry.ChargeType,
		modelEntry.AccrualEntryID,
		modelEntry.PeriodRole,
		modelEntry.OriginalEntryID,
		modelEntry.ReversingEntryID,
		modelEntry.CreatedAt,
		modelEntry.CreatedBy,
		modelEntry.LastUpdatedAt,
		modelEntry.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert ledger entry "+modelEntry.EntryID, err)
	}

	batch := &pgx.Batch{}
	postingQuery := `
		INSERT INTO postings (posting_id, entry_id, account_id, role, debit, credit, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	for _, p := range entry.Postings {
		modelPosting := mapping.ToModelPosting(p)
		batch.Queue(postingQuery,
			modelPosting.PostingID,
			modelPosting.EntryID,
			modelPosting.AccountID,
			modelPosting.Role,
			modelPosting.Debit,
			modelPosting.Credit,
			modelPosting.Description,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to execute posting batch for entry "+modelEntry.EntryID, err)
	}
	return nil
}

// AppendEntry writes a single balanced entry with its postings atomically.
func (r *PgxLedgerRepository) AppendEntry(ctx context.Context, entry domain.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrLedgerImbalance, err)
	}
	return r.runInTx(ctx, func(tx pgx.Tx) error {
		return r.insertEntryTx(ctx, tx, entry)
	})
}

// SaveAllocation writes every entry and allocation row produced for one
// payment as a single atomic unit. The unique constraint on
// (payment_id, charge_type, period_key, kind) turns a concurrent duplicate
// into ErrDuplicate with nothing written; a serialization failure surfaces as
// ErrConflict so the caller can re-aggregate and retry.
func (r *PgxLedgerRepository) SaveAllocation(ctx context.Context, entries []domain.LedgerEntry, allocations []domain.Allocation) error {
	if len(entries) == 0 && len(allocations) == 0 {
		return nil
	}
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrLedgerImbalance, err)
		}
	}

	tenantByEntry := make(map[string]string, len(entries))
	for _, e := range entries {
		tenantByEntry[e.EntryID] = e.TenantID
	}

	err := r.runInTx(ctx, func(tx pgx.Tx) error {
		for _, entry := range entries {
			if err := r.insertEntryTx(ctx, tx, entry); err != nil {
				return err
			}
		}

		batch := &pgx.Batch{}
		allocationQuery := `
			INSERT INTO allocations (
				allocation_id, payment_id, tenant_id, period_key, charge_type,
				amount_applied, outstanding_before, outstanding_after, kind, entry_id, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
		`
		now := time.Now()
		for _, a := range allocations {
			modelAllocation := mapping.ToModelAllocation(a, tenantByEntry[a.EntryID], uuid.NewString())
			batch.Queue(allocationQuery,
				modelAllocation.AllocationID,
				modelAllocation.PaymentID,
				modelAllocation.TenantID,
				modelAllocation.PeriodKey,
				modelAllocation.ChargeType,
				modelAllocation.AmountApplied,
				modelAllocation.OutstandingBefore,
				modelAllocation.OutstandingAfter,
				modelAllocation.Kind,
				modelAllocation.EntryID,
				now,
			)
		}
		br := tx.SendBatch(ctx, batch)
		if err := br.Close(); err != nil {
			return apperrors.NewAppError(500, "failed to execute allocation batch", err)
		}
		return nil
	})
	if err != nil {
		// The commit itself can raise 40001 under serializable isolation, so
		// the mapping sits outside the transaction closure.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return apperrors.ErrDuplicate
			}
			if pgErr.Code == "40001" { // serialization_failure
				return apperrors.ErrConflict
			}
		}
		return err
	}
	return nil
}

func scanEntryRow(row pgx.Row) (models.LedgerEntry, error) {
	var m models.LedgerEntry
	err := row.Scan(
		&m.EntryID,
		&m.TenantID,
		&m.EntryDate,
		&m.Description,
		&m.Source,
		&m.Status,
		&m.PaymentID,
		&m.PeriodKey,
		&m.ChargeType,
		&m.AccrualEntryID,
		&m.PeriodRole,
		&m.OriginalEntryID,
		&m.ReversingEntryID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// attachPostings loads the postings for the given entries and attaches them
// in place, preserving insertion order per entry.
func (r *PgxLedgerRepository) attachPostings(ctx context.Context, entries []domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	entryIDs := make([]string, 0, len(entries))
	indexByID := make(map[string]int, len(entries))
	for i, e := range entries {
		entryIDs = append(entryIDs, e.EntryID)
		indexByID[e.EntryID] = i
	}

	query := `
		SELECT posting_id, entry_id, account_id, role, debit, credit, description
		FROM postings
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, posting_id;
	`
	rows, err := r.Pool.Query(ctx, query, entryIDs)
	if err != nil {
		return apperrors.NewAppError(500, "failed to query postings", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Posting
		if err := rows.Scan(&p.PostingID, &p.EntryID, &p.AccountID, &p.Role, &p.Debit, &p.Credit, &p.Description); err != nil {
			return apperrors.NewAppError(500, "failed to scan posting row", err)
		}
		if i, ok := indexByID[p.EntryID]; ok {
			entries[i].Postings = append(entries[i].Postings, mapping.ToDomainPosting(p))
		}
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewAppError(500, "error iterating posting rows", err)
	}
	return nil
}

// FindEntriesByTenant retrieves every entry for the tenant, oldest first,
// with postings populated. The aggregator replays this slice in order.
func (r *PgxLedgerRepository) FindEntriesByTenant(ctx context.Context, tenantID string) ([]domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE tenant_id = $1
		ORDER BY entry_date, created_at;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query entries for tenant "+tenantID, err)
	}
	defer rows.Close()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		m, err := scanEntryRow(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan entry row for tenant "+tenantID, err)
		}
		entries = append(entries, mapping.ToDomainEntry(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating entry rows for tenant "+tenantID, err)
	}

	if err := r.attachPostings(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// FindEntryByID retrieves a single entry with its postings.
func (r *PgxLedgerRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE entry_id = $1;
	`
	m, err := scanEntryRow(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find entry "+entryID, err)
	}

	entries := []domain.LedgerEntry{mapping.ToDomainEntry(m)}
	if err := r.attachPostings(ctx, entries); err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// FindAllocationsByPayment retrieves the allocation rows previously written
// for a payment, in their original order.
func (r *PgxLedgerRepository) FindAllocationsByPayment(ctx context.Context, paymentID string) ([]domain.Allocation, error) {
	query := `
		SELECT allocation_id, payment_id, tenant_id, period_key, charge_type,
		       amount_applied, outstanding_before, outstanding_after, kind, entry_id, created_at
		FROM allocations
		WHERE payment_id = $1
		ORDER BY created_at, allocation_id;
	`
	rows, err := r.Pool.Query(ctx, query, paymentID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query allocations for payment "+paymentID, err)
	}
	defer rows.Close()

	allocations := []domain.Allocation{}
	for rows.Next() {
		var m models.Allocation
		err := rows.Scan(
			&m.AllocationID,
			&m.PaymentID,
			&m.TenantID,
			&m.PeriodKey,
			&m.ChargeType,
			&m.AmountApplied,
			&m.OutstandingBefore,
			&m.OutstandingAfter,
			&m.Kind,
			&m.EntryID,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan allocation row for payment "+paymentID, err)
		}
		allocations = append(allocations, mapping.ToDomainAllocation(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating allocation rows for payment "+paymentID, err)
	}
	return allocations, nil
}

// ListEntriesByTenant retrieves a paginated list of a tenant's entries using
// token-based pagination, oldest first. It returns the entries, a token for
// the next page, and an error.
func (r *PgxLedgerRepository) ListEntriesByTenant(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE tenant_id = $1
	`
	// Ordering must be stable; created_at breaks entry_date ties.
	orderByClause := `ORDER BY entry_date, created_at`

	var rows pgx.Rows
	var err error
	args := []interface{}{tenantID}

	if nextToken != nil && *nextToken != "" {
		lastEntryDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}

		// Tuple comparison keeps the cursor condition index-friendly.
		cursorClause := `AND (entry_date, created_at) > ($2, $3)`
		args = append(args, lastEntryDate, lastCreatedAt)

		query := baseQuery + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}

	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query entries for tenant "+tenantID, err)
	}
	defer rows.Close()

	modelEntries := make([]models.LedgerEntry, 0, fetchLimit)
	for rows.Next() {
		m, err := scanEntryRow(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan entry row for tenant "+tenantID, err)
		}
		modelEntries = append(modelEntries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating entry rows for tenant "+tenantID, err)
	}

	var nextTokenVal *string
	if len(modelEntries) > limit {
		last := modelEntries[limit-1] // The *actual* last item of the *current* page
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		nextTokenVal = &token
		modelEntries = modelEntries[:limit]
	}

	entries := make([]domain.LedgerEntry, 0, len(modelEntries))
	for _, m := range modelEntries {
		entries = append(entries, mapping.ToDomainEntry(m))
	}
	if err := r.attachPostings(ctx, entries); err != nil {
		return nil, nil, err
	}
	return entries, nextTokenVal, nil
}

// AppendReversal writes the offsetting entry and flips the original to
// REVERSED in one transaction; a failure on either side leaves the ledger
// untouched. Refuses an original that is no longer POSTED.
func (r *PgxLedgerRepository) AppendReversal(ctx context.Context, reversal domain.LedgerEntry, originalEntryID string, updatedBy string, updatedAt time.Time) error {
	if err := reversal.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrLedgerImbalance, err)
	}
	return r.runInTx(ctx, func(tx pgx.Tx) error {
		if err := r.insertEntryTx(ctx, tx, reversal); err != nil {
			return err
		}
		query := `
			UPDATE ledger_entries
			SET status = 'REVERSED', reversing_entry_id = $2, last_updated_at = $3, last_updated_by = $4
			WHERE entry_id = $1 AND status = 'POSTED';
		`
		tag, err := tx.Exec(ctx, query, originalEntryID, reversal.EntryID, updatedAt, updatedBy)
		if err != nil {
			return apperrors.NewAppError(500, "failed to mark entry "+originalEntryID+" reversed", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: entry %s is not in POSTED status", apperrors.ErrConflict, originalEntryID)
		}
		return nil
	})
}

// SumAccountActivityThrough returns the net movement (debits minus credits)
// on one account across a tenant's entries up to and including the given
// cursor position. The statement service uses it for the opening balance of
// a page, so the full ledger is never replayed per page.
func (r *PgxLedgerRepository) SumAccountActivityThrough(ctx context.Context, tenantID string, accountID string, entryDate time.Time, createdAt time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(p.debit - p.credit), 0)
		FROM postings p
		JOIN ledger_entries e ON e.entry_id = p.entry_id
		WHERE e.tenant_id = $1
		  AND p.account_id = $2
		  AND (e.entry_date, e.created_at) <= ($3, $4);
	`
	var sum decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, tenantID, accountID, entryDate, createdAt).Scan(&sum); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum account activity for tenant "+tenantID, err)
	}
	return sum, nil
}
