package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sairosthedev/alamait-ledger/internal/apperrors"
	"github.com/sairosthedev/alamait-ledger/internal/core/domain"
	portssvc "github.com/sairosthedev/alamait-ledger/internal/core/ports/services"
	"github.com/sairosthedev/alamait-ledger/internal/dto"
	"github.com/sairosthedev/alamait-ledger/internal/middleware"
)

// accrualHandler handles HTTP requests that establish obligations.
type accrualHandler struct {
	accrualService portssvc.AccrualSvcFacade
}

// newAccrualHandler creates a new accrualHandler.
func newAccrualHandler(accrualService portssvc.AccrualSvcFacade) *accrualHandler {
	return &accrualHandler{
		accrualService: accrualService,
	}
}

// registerAccrualRoutes wires the accrual endpoints into the router group.
func registerAccrualRoutes(rg *gin.RouterGroup, accrualService portssvc.AccrualSvcFacade) {
	h := newAccrualHandler(accrualService)
	accruals := rg.Group("/accruals")
	accruals.POST("/lease-start", h.postLeaseStart)
	accruals.POST("/monthly-rent", h.postMonthlyRent)
	accruals.POST("/discounts", h.postDiscount)
}

// postLeaseStart raises the first-period obligation: rent plus the one-off
// admin fee and deposit, each as a distinct posting.
func (h *accrualHandler) postLeaseStart(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.LeaseStartRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for PostLeaseStart", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	lease := domain.Lease{
		LeaseID:     req.LeaseID,
		TenantID:    req.TenantID,
		StartDate:   req.StartDate,
		MonthlyRent: req.MonthlyRent,
		AdminFee:    req.AdminFee,
		Deposit:     req.Deposit,
	}

	entry, err := h.accrualService.PostLeaseStart(c.Request.Context(), lease, actorID(c))
	if err != nil {
		h.respondAccrualError(c, logger, req.TenantID, err)
		return
	}

	logger.Info("Lease start accrual posted", slog.String("tenant_id", req.TenantID), slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, gin.H{"entryID": entry.EntryID})
}

// postMonthlyRent raises the recurring rent obligation for one period.
func (h *accrualHandler) postMonthlyRent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.MonthlyRentRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for PostMonthlyRent", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	period, err := domain.ParsePeriodKey(req.Period)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.accrualService.PostMonthlyRent(c.Request.Context(), req.TenantID, period, req.Amount, actorID(c))
	if err != nil {
		h.respondAccrualError(c, logger, req.TenantID, err)
		return
	}

	logger.Info("Monthly rent accrual posted", slog.String("tenant_id", req.TenantID), slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, gin.H{"entryID": entry.EntryID})
}

// postDiscount reduces what is owed for one period and charge type.
func (h *accrualHandler) postDiscount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.DiscountRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for PostDiscount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	period, err := domain.ParsePeriodKey(req.Period)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	chargeType, err := domain.ParseChargeType(req.ChargeType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.accrualService.PostDiscount(c.Request.Context(), req.TenantID, period, chargeType, req.Amount, req.Reason, actorID(c))
	if err != nil {
		h.respondAccrualError(c, logger, req.TenantID, err)
		return
	}

	logger.Info("Discount posted", slog.String("tenant_id", req.TenantID), slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, gin.H{"entryID": entry.EntryID})
}

func (h *accrualHandler) respondAccrualError(c *gin.Context, logger *slog.Logger, tenantID string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error posting accrual", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrAccountResolution):
		logger.Warn("Account resolution failed for tenant", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		logger.Error("Failed to post accrual", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post accrual"})
	}
}
