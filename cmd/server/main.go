package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appsync "github.com/storefront/syncengine/internal/application/sync"
	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
	domainsync "github.com/storefront/syncengine/internal/domain/sync"
	"github.com/storefront/syncengine/internal/infrastructure/cache"
	"github.com/storefront/syncengine/internal/infrastructure/config"
	"github.com/storefront/syncengine/internal/infrastructure/event"
	"github.com/storefront/syncengine/internal/infrastructure/logger"
	"github.com/storefront/syncengine/internal/infrastructure/persistence"
	"github.com/storefront/syncengine/internal/infrastructure/scheduler"
	"github.com/storefront/syncengine/internal/infrastructure/search"
	"github.com/storefront/syncengine/internal/infrastructure/storage"
	"github.com/storefront/syncengine/internal/infrastructure/telemetry"
	"github.com/storefront/syncengine/internal/infrastructure/trademaster"
	"github.com/storefront/syncengine/internal/interfaces/http/handler"
	"github.com/storefront/syncengine/internal/interfaces/http/middleware"
	"github.com/storefront/syncengine/internal/interfaces/http/router"
)

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

	log.Info("Starting sync engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer shutdownWithTimeout(tracerProvider.Shutdown, log, "tracer provider")

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer shutdownWithTimeout(meterProvider.Shutdown, log, "meter provider")

	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider.Meter("syncengine"))
	if err != nil {
		log.Fatal("Failed to create sync metrics", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithOptions(&cfg.Database, persistence.Options{
		Logger:       gormLog,
		TraceEnabled: cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// Schema migrations run via cmd/migrate in production
	if cfg.App.Env != "production" {
		if err := db.DB.AutoMigrate(
			&catalog.Category{},
			&catalog.Product{},
			&catalog.Attribute{},
			&catalog.Order{},
			&catalog.Image{},
		); err != nil {
			log.Fatal("Auto migration failed", zap.Error(err))
		}
	}

	// Redis backs the event idempotency store and the search index
	var redisClient *redis.Client
	if cfg.Event.IdempotencyEnabled || cfg.Search.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("Redis unavailable at startup", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
	}

	// Repositories
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	attributeRepo := persistence.NewGormAttributeRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	imageRepo := persistence.NewGormImageRepository(db.DB)

	// ERP gateway
	erpClient := trademaster.NewClient(trademaster.Config{
		Host:        cfg.ERP.Host,
		Version:     cfg.ERP.Version,
		APIKey:      cfg.ERP.APIKey,
		CacheHost:   cfg.ERP.CacheHost,
		CacheFolder: cfg.ERP.CacheFolder,
		Storage:     cfg.ERP.Storage,
		Timeout:     cfg.ERP.Timeout,
	}, log)

	settings, err := buildSettings(cfg)
	if err != nil {
		log.Fatal("Invalid sync policy configuration", zap.Error(err))
	}

	// Event bus with idempotent delivery
	eventBus := event.NewInMemoryEventBus(log)
	var idempotencyStore shared.IdempotencyStore
	if cfg.Event.IdempotencyEnabled {
		if redisClient != nil {
			idempotencyStore = cache.NewRedisIdempotencyStore(redisClient)
		} else {
			idempotencyStore = cache.NewInMemoryIdempotencyStore()
		}
	}
	registry := event.NewHandlerRegistry(eventBus, idempotencyStore, shared.IdempotencyConfig{
		Enabled: cfg.Event.IdempotencyEnabled,
		TTL:     cfg.Event.IdempotencyTTL,
	}, log)

	// Object storage for materialized images
	var objectStore storage.ObjectStorage
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		objectStore = s3Store
	} else {
		objectStore = storage.NewMemoryObjectStorage()
		log.Warn("Object storage disabled, materialized images are kept in memory")
	}

	// Search index
	var searchIndex search.Index
	if cfg.Search.Enabled && redisClient != nil {
		searchIndex = search.NewRedisIndex(redisClient, cfg.Search.Prefix, log)
	}

	// Application services
	attributeRegistry := appsync.NewAttributeRegistry(attributeRepo)
	reconciler := appsync.NewReconciler(erpClient, categoryRepo, productRepo, attributeRegistry, eventBus, settings, log)
	orderExporter := appsync.NewOrderExporter(erpClient, orderRepo, productRepo, eventBus, settings, log)
	catalogPublisher := appsync.NewCatalogPublisher(erpClient, productRepo, imageRepo, settings, log)
	imageMaterializer := appsync.NewImageMaterializer(erpClient, objectStore, imageRepo, eventBus, log)

	// Scheduler and executors
	schedulerConfig := scheduler.DefaultConfig()
	schedulerConfig.Workers = cfg.Scheduler.Workers
	schedulerConfig.QueueSize = cfg.Scheduler.QueueSize
	schedulerConfig.JobTimeout = cfg.Scheduler.JobTimeout
	jobScheduler, err := scheduler.NewScheduler(schedulerConfig, log)
	if err != nil {
		log.Fatal("Failed to create scheduler", zap.Error(err))
	}

	jobScheduler.Register(scheduler.JobTypeCatalogDownload,
		appsync.NewCatalogDownloadExecutor(reconciler, jobScheduler, settings, syncMetrics, log))
	jobScheduler.Register(scheduler.JobTypeCatalogUpload,
		appsync.NewCatalogUploadExecutor(catalogPublisher, syncMetrics))
	jobScheduler.Register(scheduler.JobTypeOrderExport,
		appsync.NewOrderExportExecutor(orderExporter, syncMetrics))
	jobScheduler.Register(scheduler.JobTypeImageDownload,
		appsync.NewImageDownloadExecutor(imageMaterializer, jobScheduler, syncMetrics, log))
	jobScheduler.Register(scheduler.JobTypeImageConvert,
		appsync.NewImageConvertExecutor(objectStore, log))
	if searchIndex != nil {
		jobScheduler.Register(scheduler.JobTypeSearchReindex,
			appsync.NewSearchReindexExecutor(searchIndex, productRepo, settings, log))
	}

	if err := jobScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer shutdownWithTimeout(jobScheduler.Stop, log, "scheduler")

	// Event-driven triggers
	registry.Register(appsync.NewOrderExportHandler(jobScheduler, log))
	registry.Register(appsync.NewAutoUploadHandler(jobScheduler, settings, log))

	// Periodic catalog refresh
	if cfg.ERP.AutoUpdate {
		trigger := scheduler.NewAutoUpdateTrigger(scheduler.DefaultAutoUpdateTriggerConfig(), jobScheduler, log)
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start auto update trigger", zap.Error(err))
		}
		defer trigger.Stop()
	}

	// HTTP surface
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinRecovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))

	handler.NewSystemHandler(db.DB, redisClient, cfg.App.Name, cfg.App.Env).RegisterRoutes(engine)

	router.NewRouter(engine).
		Register(handler.NewSyncHandler(jobScheduler, jobScheduler)).
		Register(handler.NewOrderHandler(orderRepo, eventBus, jobScheduler)).
		Register(handler.NewERPHandler(erpClient, log)).
		Setup()

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// buildSettings maps the validated ERP config onto the domain sync policies
func buildSettings(cfg *config.Config) (domainsync.Settings, error) {
	orphan, err := domainsync.ParseOrphanPolicy(cfg.ERP.OrphanPolicy)
	if err != nil {
		return domainsync.Settings{}, err
	}
	pricing, err := domainsync.ParsePricingPolicy(cfg.ERP.PricingPolicy)
	if err != nil {
		return domainsync.Settings{}, err
	}
	stockCheck, err := domainsync.ParseStockCheckPolicy(cfg.ERP.StockCheckPolicy)
	if err != nil {
		return domainsync.Settings{}, err
	}

	return domainsync.Settings{
		Source:          "trademaster",
		Storage:         cfg.ERP.Storage,
		LegalEntity:     cfg.ERP.LegalEntity,
		Scheme:          cfg.ERP.Scheme,
		Checkout:        cfg.ERP.Checkout,
		Contractor:      cfg.ERP.Contractor,
		UserID:          cfg.ERP.UserID,
		Currency:        cfg.ERP.Currency,
		PageSize:        cfg.ERP.PageSize,
		PageDelay:       cfg.ERP.PageDelay,
		ImageBaseURL:    cfg.Storage.PublicURL,
		GenerateAddress: cfg.ERP.GenerateAddress,
		DownloadImages:  cfg.ERP.DownloadImages,
		AutoUpdate:      cfg.ERP.AutoUpdate,
		ReindexSearch:   cfg.Search.Enabled && cfg.Search.Reindex,
		Orphan:          orphan,
		Pricing:         pricing,
		StockCheck:      stockCheck,
	}, nil
}

func shutdownWithTimeout(fn func(context.Context) error, log *zap.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("Shutdown error", zap.String("component", name), zap.Error(err))
	}
}
