package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/erp/production/docs"
	dispatchapp "github.com/erp/production/internal/application/dispatch"
	packingapp "github.com/erp/production/internal/application/packing"
	productionapp "github.com/erp/production/internal/application/production"
	"github.com/erp/production/internal/domain/dispatch"
	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/infrastructure/barcode"
	"github.com/erp/production/internal/infrastructure/cache"
	"github.com/erp/production/internal/infrastructure/config"
	"github.com/erp/production/internal/infrastructure/event"
	"github.com/erp/production/internal/infrastructure/logger"
	"github.com/erp/production/internal/infrastructure/migration"
	"github.com/erp/production/internal/infrastructure/persistence"
	"github.com/erp/production/internal/infrastructure/storage"
	"github.com/erp/production/internal/infrastructure/telemetry"
	"github.com/erp/production/internal/interfaces/http/handler"
	"github.com/erp/production/internal/interfaces/http/middleware"
	"github.com/erp/production/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//go:generate swag init --dir ../../ --generalInfo cmd/server/main.go --output ../../docs --parseInternal

//	@title			Production Pipeline API
//	@version		1.0
//	@description	Job order allocation, process ledger, packing and dispatch

//	@host		localhost:8080
//	@BasePath	/api/v1

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, cfg.App.Name)
	defer logger.Sync(log)

	ctx := context.Background()

	// Telemetry providers. Each one is a no-op when telemetry is disabled.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer shutdownTelemetry(log, tracerProvider, meterProvider, loggerProvider)

	if loggerProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: loggerProvider,
			Level:          zapcore.InfoLevel,
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	log.Info("Starting production pipeline",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, cfg.Telemetry.DBSlowQueryThresh, log)
	if err != nil {
		log.Warn("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		defer dbMetrics.Stop()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get underlying sql.DB", zap.Error(err))
	}
	migrator, err := migration.New(sqlDB, log)
	if err != nil {
		log.Fatal("Failed to initialize migrations", zap.Error(err))
	}
	if err := migrator.Up(); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Documents, QR images and idempotency keys
	docs, err := storage.NewDocumentStore(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize document storage", zap.Error(err))
	}
	qrEncoder := barcode.NewQREncoder(cfg.Pipeline.QRImageSize)

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Repositories and transaction scopes
	jobOrderRepo := persistence.NewGormJobOrderRepository(db.DB)
	iwoRepo := persistence.NewGormIWORepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	bundleRepo := persistence.NewGormBundleRepository(db.DB)
	dispatchRepo := persistence.NewGormDispatchRepository(db.DB)

	productionScope := persistence.NewProductionTransactionScope(db.DB)
	packingScope := persistence.NewPackingTransactionScope(db.DB)
	dispatchScope := persistence.NewDispatchTransactionScope(db.DB)

	// Application services
	gating := production.GatingMode(cfg.Pipeline.ProcessGating)
	jobOrderService := productionapp.NewJobOrderService(productionScope, jobOrderRepo, iwoRepo, log)
	allocationService := productionapp.NewAllocationService(
		productionScope, iwoRepo, ledgerRepo, jobOrderRepo, docs, log,
		productionapp.WithGatingMode(gating),
	)
	ledgerService := productionapp.NewLedgerService(productionScope, ledgerRepo, gating, log)
	packingService := packingapp.NewPackingService(packingScope, bundleRepo, docs, qrEncoder, log)
	dispatchService := dispatchapp.NewDispatchService(
		dispatchScope, dispatchRepo, bundleRepo, iwoRepo, jobOrderRepo, docs,
		dispatch.NewNumberGenerator(dispatch.WithMaxAttempts(cfg.Pipeline.NumberMaxAttempts)),
		log,
	)

	// Event bus with audit logging and pipeline metrics
	eventSerializer := event.NewEventSerializer()
	event.RegisterPipelineEvents(eventSerializer)
	eventBus := event.NewInMemoryEventBus(log)

	idempotencyConfig := shared.IdempotencyConfig{TTL: cfg.Pipeline.IdempotencyTTL, Enabled: true}
	handlerStats := &event.IdempotencyMetrics{}
	eventBus.Subscribe(event.NewIdempotentHandler("audit", event.NewAuditLogHandler(eventSerializer, log),
		idempotencyStore, log, event.WithIdempotencyConfig(idempotencyConfig), event.WithIdempotencyMetrics(handlerStats)))

	pipelineMetrics, err := telemetry.NewPipelineMetrics(meterProvider.Meter("production.pipeline"), log)
	if err != nil {
		log.Warn("Failed to create pipeline metrics", zap.Error(err))
	} else {
		eventBus.Subscribe(event.NewIdempotentHandler("metrics", pipelineMetrics,
			idempotencyStore, log, event.WithIdempotencyConfig(idempotencyConfig), event.WithIdempotencyMetrics(handlerStats)))
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	allocationService.SetEventPublisher(eventBus)
	ledgerService.SetEventPublisher(eventBus)
	packingService.SetEventPublisher(eventBus)
	dispatchService.SetEventPublisher(eventBus)

	// HTTP handlers
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, map[string]handler.Pinger{"database": db})
	handlers := router.Handlers{
		JobOrder: handler.NewJobOrderHandler(jobOrderService),
		IWO:      handler.NewIWOHandler(allocationService),
		Ledger:   handler.NewLedgerHandler(ledgerService),
		Packing:  handler.NewPackingHandler(packingService),
		Dispatch: handler.NewDispatchHandler(dispatchService),
		System:   systemHandler,
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID and Recovery
	// 2. Tracing, then the request logger so log lines carry the trace id
	// 3. Metrics, security headers, CORS and body limit
	tracingConfig := middleware.DefaultTracingConfig()
	tracingConfig.ServiceName = cfg.Telemetry.ServiceName
	tracingConfig.Enabled = tracerProvider.IsEnabled()

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(tracingConfig))
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(meterProvider))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORS(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// API documentation, guarded by swagger.enabled and swagger.allowed_ips
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.Swagger.Enabled,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterPipelineRoutes(r, handlers,
		middleware.Idempotency(idempotencyStore, cfg.Pipeline.IdempotencyTTL, log))
	r.Setup()

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	stats := handlerStats.Stats()
	log.Info("Server exited gracefully",
		zap.Int64("event_handler_failures", eventBus.Failures()),
		zap.Int64("events_processed", stats.EventsProcessed),
		zap.Int64("events_duplicate", stats.EventsDuplicate),
	)
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdownTelemetry flushes and stops the providers in reverse start order
func shutdownTelemetry(log *zap.Logger, providers ...shutdowner) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := len(providers) - 1; i >= 0; i-- {
		if err := providers[i].Shutdown(ctx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}
}
