package router

import (
	"time"

	"hotelbilling/internal/config"
	"hotelbilling/internal/handler"
	"hotelbilling/internal/infra"
	"hotelbilling/internal/metrics"
	"hotelbilling/internal/middleware"
	"hotelbilling/internal/repository"
	"hotelbilling/internal/service"
	"hotelbilling/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the shared infrastructure handles built by the composition root.
// RDB, CB and Gatherer may be nil.
type Deps struct {
	DB       *gorm.DB
	RDB      *redis.Client
	CB       *infra.CircuitBreaker
	Metrics  *metrics.Billing
	Gatherer prometheus.Gatherer
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB
func New(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(deps.RDB, cfg.RateLimitPerMin, time.Minute))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	// ── Repositories ─────────────────────────────────────────────────────────
	invoiceRepo := repository.NewInvoiceRepository(deps.DB)
	reservationReader := repository.NewReservationReader(deps.DB)
	paymentReader := repository.NewPaymentReader(deps.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	invoiceSvc := service.NewInvoiceService(invoiceRepo, reservationReader, paymentReader, deps.Metrics)
	reconciliationSvc := service.NewReconciliationService(invoiceRepo, reservationReader, deps.Metrics)

	// ── Handlers ─────────────────────────────────────────────────────────────
	invoicesH := handler.NewInvoicesHandler(invoiceSvc)
	var queue worker.ReconciliationEnqueuer
	if deps.RDB != nil {
		queue = worker.NewDispatcher(deps.RDB)
	}
	reconciliationH := handler.NewReconciliationHandler(reconciliationSvc, queue)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(deps.DB, deps.RDB, deps.CB))
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		staff := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleStaff)

		inv := v1.Group("/invoices")
		{
			inv.POST("", staff, invoicesH.Generate)
			inv.GET("", staff, invoicesH.List)
			inv.GET("/mine", middleware.RequireRole(middleware.RoleClient), invoicesH.ListMine)
			inv.GET("/reservation/:reservation_id",
				middleware.RequireRole(middleware.RoleAdmin, middleware.RoleStaff, middleware.RoleClient),
				invoicesH.GetByReservation)
			inv.PATCH("/:id", staff, invoicesH.Update)
		}

		admin := v1.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
		{
			admin.POST("/invoices/repair", reconciliationH.Repair)
		}
	}

	// Swagger UI, only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
