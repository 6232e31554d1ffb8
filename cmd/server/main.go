package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	cartapp "github.com/printshop/personalizer/internal/application/cart"
	catalogapp "github.com/printshop/personalizer/internal/application/catalog"
	personalizationapp "github.com/printshop/personalizer/internal/application/personalization"
	"github.com/printshop/personalizer/internal/infrastructure/auth"
	"github.com/printshop/personalizer/internal/infrastructure/cache"
	"github.com/printshop/personalizer/internal/infrastructure/config"
	"github.com/printshop/personalizer/internal/infrastructure/imaging"
	"github.com/printshop/personalizer/internal/infrastructure/logger"
	"github.com/printshop/personalizer/internal/infrastructure/persistence"
	"github.com/printshop/personalizer/internal/infrastructure/storage"
	"github.com/printshop/personalizer/internal/infrastructure/telemetry"
	"github.com/printshop/personalizer/internal/interfaces/http/handler"
	"github.com/printshop/personalizer/internal/interfaces/http/middleware"
	"github.com/printshop/personalizer/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Product Personalizer API
//	@version		1.0
//	@description	Storefront design editor, personalized cart lines and design area administration

//	@host		localhost:8080
//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Admin bearer token minted by cmd/admintoken. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}

	// Bootstrap logger, replaced below once log export is known
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Tracing, metrics, log export and continuous profiling
	providers, err := telemetry.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		_ = providers.Shutdown(context.Background())
	}()

	if providers.Logs.IsEnabled() {
		log, err = logger.New(logCfg, providers.Logs.ZapCore(logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting personalizer",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithIgnoreRecordNotFoundError(true))

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.NewDBTracing(cfg.Telemetry, cfg.Database.Driver, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	// Drafts and line locks
	backends := cache.NewBackends(cfg.Redis, cfg.Drafts, cfg.LineLock, log)
	defer func() {
		if err := backends.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}()

	// Object storage for variant and design area images
	objectStorage, err := storage.New(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	designAreaRepo := persistence.NewGormDesignAreaRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	personalizationRepo := persistence.NewGormPersonalizationRepository(db.DB)

	// Initialize application services
	images := imaging.NewProcessor()
	registry := catalogapp.NewDesignAreaRegistry(productRepo, designAreaRepo, objectStorage)
	productService := catalogapp.NewProductService(productRepo, registry, objectStorage, images)
	designAreaService := catalogapp.NewDesignAreaService(productRepo, designAreaRepo, registry, objectStorage, images)

	personalizationService := personalizationapp.NewService(
		productRepo,
		registry,
		personalizationRepo,
		cartRepo,
		personalizationapp.NewCartLineBridge(cartRepo, productRepo),
	)
	personalizationService.SetDraftStore(backends.Drafts)
	personalizationService.SetLineLocker(backends.Locker)
	personalizationService.SetThumbnailer(images)

	metrics, err := telemetry.NewPersonalizationMetrics(providers.Meter.Meter("personalizer"))
	if err != nil {
		log.Warn("Personalization metrics unavailable", zap.Error(err))
	} else {
		personalizationService.SetMetrics(metrics)
	}

	cartService := cartapp.NewService(cartRepo, personalizationRepo, personalizationService.ImageURL)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		System: handler.NewSystemHandler(version, map[string]handler.Pinger{
			"database": db,
			"redis":    backends,
		}),
		Personalization: handler.NewPersonalizationHandler(personalizationService),
		Cart:            handler.NewCartHandler(cartService),
		Catalog:         handler.NewCatalogHandler(productService, designAreaService),
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
	}

	engine := router.NewEngine(router.Options{
		Logger:        log,
		HTTP:          cfg.HTTP,
		Cookie:        cfg.Cookie,
		JWTService:    auth.NewJWTService(cfg.JWT),
		ServiceName:   cfg.Telemetry.ServiceName,
		Tracing:       providers.Tracer.IsEnabled(),
		MeterProvider: providers.Meter,
		Profiling:     providers.Profiler.IsEnabled(),
		Production:    cfg.IsProduction(),
		RateLimiter:   limiter,
	}, handlers)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		return
	}

	log.Info("Server exited gracefully")
}
