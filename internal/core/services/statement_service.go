package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sairosthedev/alamait-ledger/internal/apperrors"
	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	portsrepo "github.com/sairosthedev/alamait-ledger/internal/core/ports/repositories"
	portssvc "github.com/sairosthedev/alamait-ledger/internal/core/ports/services"
	"github.com/sairosthedev/alamait-ledger/internal/dto"
	"github.com/sairosthedev/alamait-ledger/internal/middleware"
	"github.com/sairosthedev/alamait-ledger/internal/observability/metrics"
	"github.com/sairosthedev/alamait-ledger/internal/utils/accounting"
	"github.com/sairosthedev/alamait-ledger/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

// statementService reads a tenant's ledger chronologically and reverses
// posted entries.
type statementService struct {
	ledgerRepo portsrepo.LedgerRepositoryFacade
	accountSvc portssvc.AccountSvcFacade
}

// NewStatementService creates a new StatementService.
func NewStatementService(ledgerRepo portsrepo.LedgerRepositoryFacade, accountSvc portssvc.AccountSvcFacade) portssvc.StatementSvcFacade {
	return &statementService{ledgerRepo: ledgerRepo, accountSvc: accountSvc}
}

var _ portssvc.StatementSvcFacade = (*statementService)(nil)

// GetStatement returns one page of the tenant's entries with a running
// balance over the receivable account. The opening balance comes from a
// single aggregate over the entries before the page, so the cost per page is
// the page itself, not the full history.
func (s *statementService) GetStatement(ctx context.Context, tenantID string, limit int, nextToken *string) (*dto.StatementResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountSvc.ResolveTenantAccount(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// The first page opens at zero; later pages open at the accumulated
	// movement up to the cursor position, which is exactly what the page
	// query excludes.
	opening := decimal.Zero
	if nextToken != nil && *nextToken != "" {
		entryDate, createdAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, decodeErr)
		}
		opening, err = s.ledgerRepo.SumAccountActivityThrough(ctx, tenantID, account.AccountID, entryDate, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to compute opening balance for tenant %s: %w", tenantID, err)
		}
	}

	if limit <= 0 {
		limit = 50
	}
	pageEntries, token, err := s.ledgerRepo.ListEntriesByTenant(ctx, tenantID, limit, nextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for tenant %s: %w", tenantID, err)
	}

	resp := &dto.StatementResponse{TenantID: tenantID, NextToken: token}
	resp.Entries = make([]dto.EntryResponse, len(pageEntries))
	running := opening
	for i := range pageEntries {
		running = running.Add(pageEntries[i].AmountOnAccount(account.AccountID))
		resp.Entries[i] = dto.ToEntryResponse(&pageEntries[i], running)
	}

	logger.Debug("Statement page built", slog.String("tenant_id", tenantID), slog.Int("entries", len(pageEntries)))
	return resp, nil
}

// ReverseEntry corrects a posted entry by appending the offsetting entry
// and marking the original reversed. Reversing a reversal is refused.
func (s *statementService) ReverseEntry(ctx context.Context, entryID string, userID string) (*domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.ledgerRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	if original.Status != domain.Posted {
		return nil, fmt.Errorf("%w: entry %s is not posted", apperrors.ErrConflict, entryID)
	}
	if original.OriginalEntryID != nil {
		return nil, fmt.Errorf("%w: cannot reverse a reversal", apperrors.ErrConflict)
	}

	now := time.Now().UTC()
	reversal := accounting.ReversalOf(original, userID, now)
	if err := reversal.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrLedgerImbalance, err)
	}

	// One atomic write: appending the offsetting entry and flipping the
	// original's status must not be separable, or a failure in between
	// leaves a reversal beside a still-posted original.
	if err := s.ledgerRepo.AppendReversal(ctx, reversal, original.EntryID, userID, now); err != nil {
		logger.Error("Failed to append reversal entry", slog.String("entry_id", entryID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to reverse entry: %w", err)
	}

	metrics.EntryAppended(string(domain.SourceAdjustment))
	logger.Info("Entry reversed", slog.String("entry_id", entryID), slog.String("reversing_entry_id", reversal.EntryID))
	return &reversal, nil
}
