package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appevent "github.com/erp/leasing/internal/application/event"
	ledgerapp "github.com/erp/leasing/internal/application/ledger"
	receivableapp "github.com/erp/leasing/internal/application/receivable"
	terminationapp "github.com/erp/leasing/internal/application/termination"
	"github.com/erp/leasing/internal/infrastructure/cache"
	"github.com/erp/leasing/internal/infrastructure/config"
	"github.com/erp/leasing/internal/infrastructure/event"
	"github.com/erp/leasing/internal/infrastructure/logger"
	"github.com/erp/leasing/internal/infrastructure/persistence"
	"github.com/erp/leasing/internal/infrastructure/telemetry"
	"github.com/erp/leasing/internal/interfaces/http/handler"
	"github.com/erp/leasing/internal/interfaces/http/middleware"
	"github.com/erp/leasing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting leasing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdown(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer shutdown(log, "meter provider", meterProvider.Shutdown)

	meter := meterProvider.Meter("github.com/erp/leasing")
	metrics, err := telemetry.NewAccountingMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create accounting metrics", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:   log,
		LogLevel: cfg.Log.Level,
		Tracing: telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log),
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	accountRepo := persistence.NewGormAccountRepository(db.DB)
	voucherRepo := persistence.NewGormJournalVoucherRepository(db.DB)
	auditLogRepo := persistence.NewGormVoucherAuditLogRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	receiptRepo := persistence.NewGormReceiptRepository(db.DB)
	terminationRepo := persistence.NewGormTerminationRepository(db.DB)

	eventBus := event.NewInMemoryEventBus(log)
	auditHandler := appevent.NewVoucherAuditHandler(auditLogRepo, log)
	eventBus.Subscribe(auditHandler)
	log.Info("Event handlers registered", zap.Strings("voucher_audit_events", auditHandler.EventTypes()))

	accountService := ledgerapp.NewAccountService(accountRepo)
	journalService := ledgerapp.NewJournalService(voucherRepo, accountRepo,
		ledgerapp.WithTransactionScope(persistence.NewGormLedgerTransactionScope(db.DB)),
		ledgerapp.WithEventPublisher(eventBus),
		ledgerapp.WithMetrics(metrics),
	)
	invoiceService := receivableapp.NewInvoiceService(invoiceRepo)
	invoiceService.SetEventPublisher(eventBus)
	receiptService := receivableapp.NewReceiptService(receiptRepo, invoiceRepo,
		receivableapp.WithTransactionScope(persistence.NewGormReceivableTransactionScope(db.DB)),
		receivableapp.WithDefaultStrategy(cfg.Accounting.Strategy()),
		receivableapp.WithEventPublisher(eventBus),
		receivableapp.WithMetrics(metrics),
	)
	terminationService := terminationapp.NewTerminationService(terminationRepo,
		terminationapp.WithEventPublisher(eventBus),
		terminationapp.WithMetrics(metrics),
	)

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Only a Redis-backed store is reported by the health endpoint
	var redisPinger handler.Pinger
	if redisStore, ok := idempotencyStore.(*cache.RedisIdempotencyStore); ok {
		redisPinger = redisStore
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engineConfig := router.EngineConfig{
		Logger:         log,
		CORS:           cors,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Idempotency:    idempotencyStore,
		IdempotencyTTL: cfg.Accounting.IdempotencyTTL,
	}
	if meterProvider.IsEnabled() {
		engineConfig.Meter = meter
	}

	engine, err := router.NewEngine(engineConfig, router.Handlers{
		System:       handler.NewSystemHandler(db, redisPinger, version),
		Accounts:     handler.NewAccountHandler(accountService),
		Vouchers:     handler.NewJournalVoucherHandler(journalService),
		Invoices:     handler.NewInvoiceHandler(invoiceService),
		Receipts:     handler.NewReceiptHandler(receiptService),
		Terminations: handler.NewTerminationHandler(terminationService),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func shutdown(log *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("Error shutting down "+name, zap.Error(err))
	}
}
