package router

import (
	"fmt"
	"time"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/infrastructure/logger"
	"github.com/erp/leasing/internal/interfaces/http/handler"
	"github.com/erp/leasing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers is the set of HTTP handlers mounted by NewEngine
type Handlers struct {
	System       *handler.SystemHandler
	Accounts     *handler.AccountHandler
	Vouchers     *handler.JournalVoucherHandler
	Invoices     *handler.InvoiceHandler
	Receipts     *handler.ReceiptHandler
	Terminations *handler.TerminationHandler
}

// EngineConfig holds the middleware settings of the HTTP engine
type EngineConfig struct {
	Logger         *zap.Logger
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	TrustedProxies []string
	Tracing        middleware.TracingConfig
	Meter          metric.Meter // nil disables HTTP metrics
	Idempotency    shared.IdempotencyStore
	IdempotencyTTL time.Duration
}

// NewEngine builds the gin engine with the full middleware chain and all routes.
// The validator must already be set up with middleware.SetupValidator.
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	httpMetrics, err := middleware.HTTPMetrics(cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create http metrics: %w", err)
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.Tracing(cfg.Tracing),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.BodyLimit(cfg.MaxBodySize),
		httpMetrics,
		middleware.Tenant(middleware.DefaultTenantConfig()),
	)

	engine.GET("/health", h.System.Health)

	r := NewRouter(engine, WithAPIVersion("v1"))
	idempotent := middleware.Idempotency(cfg.Idempotency, cfg.IdempotencyTTL)
	r.Register(
		NewDomainGroup("system", "").GET("/health", h.System.Health),
		ledgerRoutes(h, idempotent),
		invoiceRoutes(h),
		receiptRoutes(h, idempotent),
		terminationRoutes(h, idempotent),
	)
	r.Setup()

	return engine, nil
}

func ledgerRoutes(h Handlers, idempotent gin.HandlerFunc) *DomainGroup {
	ledger := NewDomainGroup("ledger", "")
	ledger.Group("accounts", "/accounts").
		POST("", h.Accounts.Create).
		GET("", h.Accounts.List).
		PUT("/:id/active", h.Accounts.SetActive)

	ledger.Group("journal-vouchers", "/journal-vouchers").
		POST("", h.Vouchers.Create).
		GET("", h.Vouchers.List).
		POST("/validate", h.Vouchers.Validate).
		GET("/:id", h.Vouchers.Get).
		PUT("/:id/draft", h.Vouchers.SaveDraft).
		POST("/:id/commit", idempotent, h.Vouchers.Commit).
		POST("/:id/approve", h.Vouchers.Approve).
		POST("/:id/reject", h.Vouchers.Reject).
		POST("/:id/post", idempotent, h.Vouchers.Post).
		POST("/:id/reverse", h.Vouchers.Reverse).
		POST("/:id/cancel", h.Vouchers.Cancel).
		POST("/:id/reset", middleware.RequirePermission(middleware.PermissionVoucherUnlock), h.Vouchers.Reset).
		DELETE("/:id", h.Vouchers.Delete)
	return ledger
}

func invoiceRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("invoices", "/invoices").
		POST("", h.Invoices.Create).
		GET("", h.Invoices.List).
		GET("/outstanding", h.Invoices.Outstanding).
		GET("/:id", h.Invoices.Get).
		POST("/:id/post", h.Invoices.Post).
		POST("/:id/unpost", h.Invoices.Unpost).
		POST("/:id/cancel", h.Invoices.Cancel)
}

func receiptRoutes(h Handlers, idempotent gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("receipts", "/receipts").
		POST("", h.Receipts.Create).
		GET("", h.Receipts.List).
		GET("/:id", h.Receipts.Get).
		POST("/:id/auto-allocate", h.Receipts.AutoAllocate).
		PUT("/:id/allocations/:invoiceId", h.Receipts.SetAllocation).
		DELETE("/:id/allocations/:invoiceId", h.Receipts.RemoveAllocation).
		GET("/:id/commit-preview", h.Receipts.PreviewCommit).
		POST("/:id/commit", idempotent, h.Receipts.Commit).
		POST("/:id/cancel", h.Receipts.Cancel).
		DELETE("/:id", h.Receipts.Delete)
}

func terminationRoutes(h Handlers, idempotent gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("terminations", "/terminations").
		POST("", h.Terminations.Create).
		GET("", h.Terminations.List).
		POST("/settle", h.Terminations.Settle).
		GET("/:id", h.Terminations.Get).
		POST("/:id/deductions", h.Terminations.AddDeduction).
		PUT("/:id/deductions/:deductionId", h.Terminations.UpdateDeduction).
		DELETE("/:id/deductions/:deductionId", h.Terminations.RemoveDeduction).
		PUT("/:id/adjustment", h.Terminations.SetAdjustment).
		PUT("/:id/security-deposit", h.Terminations.SetSecurityDeposit).
		POST("/:id/recalculate", h.Terminations.Recalculate).
		POST("/:id/submit", h.Terminations.Submit).
		POST("/:id/approve", h.Terminations.Approve).
		POST("/:id/refund", idempotent, h.Terminations.Refund).
		POST("/:id/complete", h.Terminations.Complete).
		POST("/:id/cancel", h.Terminations.Cancel).
		DELETE("/:id", h.Terminations.Delete)
}
