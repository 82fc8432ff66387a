package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sairosthedev/alamait-ledger/internal/apperrors"
	portssvc "github.com/sairosthedev/alamait-ledger/internal/core/ports/services"
	"github.com/sairosthedev/alamait-ledger/internal/dto"
	"github.com/sairosthedev/alamait-ledger/internal/middleware"
)

// allocationHandler handles HTTP requests for payment allocation.
type allocationHandler struct {
	allocationService portssvc.AllocationSvcFacade
}

// newAllocationHandler creates a new allocationHandler.
func newAllocationHandler(allocationService portssvc.AllocationSvcFacade) *allocationHandler {
	return &allocationHandler{
		allocationService: allocationService,
	}
}

// registerAllocationRoutes wires the allocation endpoints into the router group.
func registerAllocationRoutes(rg *gin.RouterGroup, allocationService portssvc.AllocationSvcFacade) {
	h := newAllocationHandler(allocationService)
	allocations := rg.Group("/allocations")
	allocations.POST("/", h.allocatePayment)
}

// allocatePayment applies a payment against the tenant's outstanding
// obligations. Resubmitting an already-processed payment returns the stored
// result with replayed set, not an error.
func (h *allocationHandler) allocatePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.AllocateRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for AllocatePayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	userID := actorID(c)
	logger = logger.With(slog.String("payment_id", req.PaymentID), slog.String("tenant_id", req.TenantID))

	result, err := h.allocationService.Allocate(c.Request.Context(), req, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error allocating payment", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrAccountResolution):
			logger.Warn("Account resolution failed for tenant", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrConflict):
			logger.Warn("Allocation conflict not resolved after retries", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": "Concurrent allocation conflict, please retry"})
		default:
			logger.Error("Failed to allocate payment", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to allocate payment"})
		}
		return
	}

	logger.Info("Payment allocated",
		slog.Int("allocations", len(result.Allocations)),
		slog.Bool("replayed", result.Replayed))
	c.JSON(http.StatusOK, dto.ToAllocationResponse(result))
}
