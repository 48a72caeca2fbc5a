package main

import (
	"log"
	"strconv"
	"time"

	"github.com/codares/order-ingestion/internal/config"
	"github.com/codares/order-ingestion/internal/domain"
	"github.com/codares/order-ingestion/internal/handler"
	"github.com/codares/order-ingestion/internal/infra/postgresql"
	"github.com/codares/order-ingestion/internal/infra/postgresql/migrations"
	infraredis "github.com/codares/order-ingestion/internal/infra/redis"
	"github.com/codares/order-ingestion/internal/observability"
	"github.com/codares/order-ingestion/internal/queue"
	"github.com/codares/order-ingestion/internal/repository"
	"github.com/codares/order-ingestion/internal/service"
	"github.com/codares/order-ingestion/internal/transport"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	businessTimezone, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		logger.Fatal("invalid business timezone", zap.String("timezone", cfg.BusinessTimezone), zap.Error(err))
	}

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer rabbit.Close()
	publisher := queue.NewRabbitMQPublisher(rabbit)

	var authenticator service.Authenticator
	if cfg.AuthStaticToken != "" {
		authenticator = service.NewStaticBearerAuthenticator(cfg.AuthStaticToken)
	} else {
		authenticator, err = service.NewHTTPIntrospectionAuthenticator(cfg.AuthIntrospectURL)
		if err != nil {
			logger.Fatal("authenticator initialization failed", zap.Error(err))
		}
	}

	limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	cache := infraredis.NewIdempotencyCacheWithTTL(rdb, time.Duration(cfg.IdempotencyCacheTTLSeconds)*time.Second)
	catalogRepo := repository.NewGormCatalogRepo(db)
	validator := domain.NewValidator(businessTimezone, cfg.StrictOrderNumberFormat)
	metrics := observability.NewMetrics()

	orchestrator := service.NewBatchOrchestrator(db, catalogRepo, cache, publisher, validator, logger, metrics)

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	handler.RegisterOrderLoadRoutes(app, orchestrator, authenticator, limiter, logger)

	logger.Info("order ingestion api started", zap.Int("port", cfg.APIPort))

	if err := app.Listen(":" + strconv.Itoa(cfg.APIPort)); err != nil {
		logger.Fatal("api server stopped", zap.Error(err))
	}
}
