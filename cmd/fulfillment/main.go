package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tair/fulfillment-ledger/internal/fulfillment"
	grpcDelivery "github.com/tair/fulfillment-ledger/internal/fulfillment/delivery/grpc"
	httpDelivery "github.com/tair/fulfillment-ledger/internal/fulfillment/delivery/http"
	_ "github.com/tair/fulfillment-ledger/internal/fulfillment/docs"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/domain"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/repository"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/usecase/command"
	"github.com/tair/fulfillment-ledger/internal/fulfillment/worker"
	"github.com/tair/fulfillment-ledger/internal/inventory/cache"
	"github.com/tair/fulfillment-ledger/kafka"
	"github.com/tair/fulfillment-ledger/pkg/config"
	"github.com/tair/fulfillment-ledger/pkg/database"
	"github.com/tair/fulfillment-ledger/pkg/logger"
	"github.com/tair/fulfillment-ledger/pkg/numbering"
	"github.com/tair/fulfillment-ledger/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("fulfillment-service", false)
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Str("reservation_policy", cfg.ReservationPolicy).
		Msg("Starting fulfillment service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize tracer
	tp, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.ServiceName,
		Enabled:        cfg.TracingEnabled,
		JaegerEndpoint: cfg.JaegerEndpoint,
	})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize tracer")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
		}
	}()

	// Connect to database
	db, err := database.NewGormConnection(cfg.Database())
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	if err := repository.Migrate(ctx, db, repository.DefaultMigrateOptions()); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	stockCache := cache.NewStockCache(newRedisClient(ctx, cfg.RedisURL), cfg.StockCacheTTL)

	publisher, closePublisher := newPublisher(cfg)
	defer closePublisher()

	numbers, err := numbering.NewGenerator(cfg.SnowflakeNode)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to create number generator")
	}

	// Initialize handlers with Wire DI
	handlers, err := fulfillment.InitializeHandlers(db, stockCache, publisher,
		command.ReservationPolicy(cfg.ReservationPolicy), numbers)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handlers")
	}

	// Setup router
	router := mux.NewRouter()
	mwConfig := httpDelivery.DefaultMiddlewareConfig(cfg.RequestTimeout)
	httpDelivery.RegisterMiddlewares(router, mwConfig)

	handlers.Fulfillment.RegisterRoutes(router)
	handlers.Catalog.RegisterRoutes(router)
	handlers.Fulfillment.RegisterHealthCheck(router, sqlDB)
	httpDelivery.RegisterSwaggerDocs(router, httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpDelivery.SetupCORS(mwConfig)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Logger.Info().
			Str("port", cfg.HTTPPort).
			Str("metrics_endpoint", "/metrics").
			Str("swagger", "/swagger/").
			Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	health := startGRPCServer(ctx, sqlDB, cfg.GRPCPort)

	scanner := worker.NewPaymentDueScanner(repository.NewGormSaleRepository(db), publisher, cfg.PaymentDueScanInterval)
	go scanner.Start(ctx)

	<-ctx.Done()
	logger.Logger.Info().Msg("Shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	health.Shutdown()

	logger.Logger.Info().Msg("Fulfillment service stopped")
}

func startGRPCServer(ctx context.Context, db grpcDelivery.Pinger, port string) *grpcDelivery.HealthServer {
	health := grpcDelivery.NewHealthServer(db)

	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		logger.Logger.Fatal().Err(err).Str("port", port).Msg("Failed to listen for gRPC")
	}

	go health.Watch(ctx, 10*time.Second)
	go func() {
		logger.Logger.Info().Str("port", port).Msg("gRPC health server started")
		if err := health.Server().Serve(lis); err != nil {
			logger.Logger.Error().Err(err).Msg("gRPC server stopped")
		}
	}()
	return health
}

// newRedisClient returns nil when no URL is configured or the server is
// unreachable, which leaves the stock cache disabled.
func newRedisClient(ctx context.Context, url string) *redis.Client {
	if url == "" {
		logger.Logger.Info().Msg("Redis not configured, stock cache disabled")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Invalid REDIS_URL, stock cache disabled")
		return nil
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Logger.Warn().Err(err).Msg("Redis unreachable, stock cache disabled")
		client.Close()
		return nil
	}

	logger.Logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
	return client
}

func newPublisher(cfg *config.Config) (domain.EventPublisher, func()) {
	if !cfg.KafkaEnabled {
		logger.Logger.Info().Msg("Kafka disabled, domain events are logged")
		return kafka.NewLoggingPublisher(), func() {}
	}

	publisher, err := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka publisher")
	}
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to close Kafka publisher")
		}
	}
}
