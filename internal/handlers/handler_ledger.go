package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sairosthedev/alamait-ledger/internal/apperrors"
	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	portssvc "github.com/sairosthedev/alamait-ledger/internal/core/ports/services"
	"github.com/sairosthedev/alamait-ledger/internal/dto"
	"github.com/sairosthedev/alamait-ledger/internal/middleware"
)

// ledgerHandler handles HTTP requests for outstanding balances, statements,
// reversals and deferred income recognition.
type ledgerHandler struct {
	aggregatorService  portssvc.ObligationAggregatorSvcFacade
	statementService   portssvc.StatementSvcFacade
	recognitionService portssvc.RecognitionSvcFacade
}

// newLedgerHandler creates a new ledgerHandler.
func newLedgerHandler(
	aggregatorService portssvc.ObligationAggregatorSvcFacade,
	statementService portssvc.StatementSvcFacade,
	recognitionService portssvc.RecognitionSvcFacade,
) *ledgerHandler {
	return &ledgerHandler{
		aggregatorService:  aggregatorService,
		statementService:   statementService,
		recognitionService: recognitionService,
	}
}

// registerLedgerRoutes wires the ledger read and correction endpoints.
func registerLedgerRoutes(
	rg *gin.RouterGroup,
	aggregatorService portssvc.ObligationAggregatorSvcFacade,
	statementService portssvc.StatementSvcFacade,
	recognitionService portssvc.RecognitionSvcFacade,
) {
	h := newLedgerHandler(aggregatorService, statementService, recognitionService)

	tenants := rg.Group("/tenants")
	tenants.GET("/:tenantID/outstanding", h.getOutstanding)
	tenants.GET("/:tenantID/statement", h.getStatement)

	entries := rg.Group("/entries")
	entries.POST("/:entryID/reverse", h.reverseEntry)

	rg.POST("/recognitions", h.recognizeDeferred)
}

// getOutstanding replays the tenant's ledger and returns the open periods,
// oldest first. A tenant with no obligations gets an empty list.
func (h *ledgerHandler) getOutstanding(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")

	periods, err := h.aggregatorService.GetOutstanding(c.Request.Context(), tenantID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAccountResolution) {
			logger.Warn("Account resolution failed for tenant", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to aggregate outstanding obligations", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve outstanding obligations"})
		return
	}

	c.JSON(http.StatusOK, dto.ToOutstandingResponse(tenantID, periods))
}

// getStatement returns one page of the tenant's ledger with running
// receivable balances. Pagination uses an opaque nextToken.
func (h *ledgerHandler) getStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")

	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}
	var nextToken *string
	if token := c.Query("nextToken"); token != "" {
		nextToken = &token
	}

	statement, err := h.statementService.GetStatement(c.Request.Context(), tenantID, limit, nextToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrAccountResolution) {
			logger.Warn("Account resolution failed for tenant", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to build statement", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statement"})
		return
	}

	c.JSON(http.StatusOK, statement)
}

// reverseEntry posts a reversing entry for a posted entry and links the pair.
func (h *ledgerHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entryID")
	userID := actorID(c)

	reversal, err := h.statementService.ReverseEntry(c.Request.Context(), entryID, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Entry not found for reversal", slog.String("entry_id", entryID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Entry cannot be reversed", slog.String("entry_id", entryID), slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrConflict):
			logger.Warn("Entry already reversed", slog.String("entry_id", entryID), slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to reverse entry", slog.String("entry_id", entryID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reverse entry"})
		}
		return
	}

	logger.Info("Entry reversed", slog.String("entry_id", entryID), slog.String("reversal_entry_id", reversal.EntryID))
	c.JSON(http.StatusOK, gin.H{"reversalEntryID": reversal.EntryID})
}

// recognizeDeferred moves deferred income for a period into recognized rent
// income once the period's obligation has been accrued.
func (h *ledgerHandler) recognizeDeferred(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.RecognizeDeferredRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for RecognizeDeferred", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	period, err := domain.ParsePeriodKey(req.Period)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.recognitionService.RecognizeDeferred(c.Request.Context(), req.TenantID, period, actorID(c))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Nothing to recognize", slog.String("tenant_id", req.TenantID), slog.String("error", err.Error()))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrAccountResolution):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to recognize deferred income", slog.String("tenant_id", req.TenantID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to recognize deferred income"})
		}
		return
	}

	logger.Info("Deferred income recognized", slog.String("tenant_id", req.TenantID), slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusOK, gin.H{"entryID": entry.EntryID})
}
