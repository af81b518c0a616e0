// @title Fridge Price Service API
// @version 1.0
// @description Price trends, market comparison and shopping trip planning over the household price history.
// @BasePath /
// @securityDefinitions.apikey InternalAPIKey
// @in header
// @name X-Internal-API-Key
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/contatogonetwork/urban-space-broccoli/config"
	_ "github.com/contatogonetwork/urban-space-broccoli/docs"
	"github.com/contatogonetwork/urban-space-broccoli/internal/database"
	"github.com/contatogonetwork/urban-space-broccoli/internal/handlers"
	"github.com/contatogonetwork/urban-space-broccoli/internal/middleware"
	"github.com/contatogonetwork/urban-space-broccoli/internal/optimizer"
	"github.com/contatogonetwork/urban-space-broccoli/internal/store"
	"github.com/contatogonetwork/urban-space-broccoli/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.Database.URL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	logger.Info().Msg("Starting fridge price service")

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.ConfigFromEnv(cfg.Telemetry))
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry disabled")
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	if err := database.Connect(
		ctx,
		cfg.Database.URL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	if missing, err := database.MissingTables(ctx, store.RequiredTables); err != nil {
		logger.Warn().Err(err).Msg("Failed to check schema")
	} else if len(missing) > 0 {
		logger.Fatal().Strs("tables", missing).Msg("Price history tables missing")
	}

	loader := store.NewLoader(database.Pool(), &cfg.Snapshot)
	cache := optimizer.NewResultCache(&cfg.Analytics, optimizer.NewPlanner())
	handlers.InitAnalytics(loader, cache, cfg.Analytics.MaxRequestItems)

	// The first load runs in the background; requests wait on it via Current.
	go warmup(loader, cache, logger)
	loader.Start(cfg.Analytics.SnapshotRefreshInterval)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	done := make(chan struct{})
	router := setupRouter(cfg, *logger, done)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	close(done)
	loader.Close()
	cache.Close()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to flush telemetry")
	}

	logger.Info().Msg("Server exited")
}

func setupRouter(cfg *config.Config, logger zerolog.Logger, done <-chan struct{}) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.APIKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuth(cfg.Auth.APIKey))
	internal.Use(middleware.RateLimit(cfg.Auth.RateLimit, done))
	{
		internal.GET("/health", handlers.HealthCheck)

		prices := internal.Group("/prices")
		{
			prices.GET("/trends", handlers.ListTrends)
			prices.GET("/trends/:itemId", handlers.GetTrend)
			prices.GET("/comparison", handlers.GetComparison)
		}

		internal.GET("/locations", handlers.ListLocations)
		internal.POST("/shopping/plan", handlers.PlanShopping)
		internal.POST("/snapshot/refresh", handlers.RefreshSnapshot)
	}

	return router
}

// warmup loads the first snapshot and precomputes every item's summary.
func warmup(loader *store.Loader, cache *optimizer.ResultCache, logger *zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	snap, err := loader.Load(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Initial snapshot load failed; retrying on the refresh interval")
		return
	}

	items := snap.Items()
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	if err := cache.Warmup(ctx, snap, ids); err != nil {
		logger.Warn().Err(err).Msg("Cache warmup incomplete")
	}
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "fridge-price-service").Logger()
	// Components derive their loggers from the global one.
	log.Logger = logger
	return &logger
}
