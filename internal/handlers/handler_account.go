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

// accountHandler handles HTTP requests for tenant account provisioning and
// lookup.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(accountService portssvc.AccountSvcFacade) *accountHandler {
	return &accountHandler{
		accountService: accountService,
	}
}

// registerAccountRoutes wires the account endpoints into the router group.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade) {
	h := newAccountHandler(accountService)
	accounts := rg.Group("/accounts")
	accounts.POST("/tenants", h.provisionTenantAccount)
	accounts.GET("/tenants/:tenantID", h.getTenantAccount)
}

// provisionTenantAccount creates the tenant's receivable account and the
// authoritative mapping row. Provisioning the same tenant twice fails.
func (h *accountHandler) provisionTenantAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.ProvisionTenantAccountRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for ProvisionTenantAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	account, err := h.accountService.ProvisionTenantAccount(c.Request.Context(), req.TenantID, req.TenantName, actorID(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Tenant account already provisioned", slog.String("tenant_id", req.TenantID))
			c.JSON(http.StatusConflict, gin.H{"error": "Tenant account already exists"})
			return
		}
		logger.Error("Failed to provision tenant account", slog.String("tenant_id", req.TenantID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to provision tenant account"})
		return
	}

	logger.Info("Tenant account provisioned", slog.String("tenant_id", req.TenantID), slog.String("account_id", account.AccountID))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// getTenantAccount resolves a tenant to their receivable account by exact
// lookup of the mapping table.
func (h *accountHandler) getTenantAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")

	account, err := h.accountService.ResolveTenantAccount(c.Request.Context(), tenantID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAccountResolution) || errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Tenant account not found", slog.String("tenant_id", tenantID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Tenant account not found"})
			return
		}
		logger.Error("Failed to resolve tenant account", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve tenant account"})
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}
