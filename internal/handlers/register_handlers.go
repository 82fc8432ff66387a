package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	portssvc "github.com/sairosthedev/alamait-ledger/internal/core/ports/services"
	"github.com/sairosthedev/alamait-ledger/internal/middleware"
	"github.com/sairosthedev/alamait-ledger/pkg/config"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	limiterInstance *limiter.Limiter,
) {

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupAPIV1Routes(r, services, limiterInstance)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
	limiterInstance *limiter.Limiter,
) {
	v1 := r.Group("/api/v1")
	if limiterInstance != nil {
		v1.Use(middleware.RateLimit(limiterInstance))
	}

	registerAccountRoutes(v1, services.Account)
	registerAccrualRoutes(v1, services.Accrual)
	registerAllocationRoutes(v1, services.Allocation)
	registerLedgerRoutes(v1, services.Aggregator, services.Statement, services.Recognition)
}

// actorID identifies who performed a write, taken from the gateway-supplied
// header. Writes without one are attributed to the system user.
func actorID(c *gin.Context) string {
	if id := c.GetHeader("X-Actor-ID"); id != "" {
		return id
	}
	return "system"
}
