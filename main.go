package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/Foullane-Mohamed/ProSets/internal/assets/asset_api"
	"github.com/Foullane-Mohamed/ProSets/internal/assets/cache"
	asset_db "github.com/Foullane-Mohamed/ProSets/internal/assets/db"
	assets "github.com/Foullane-Mohamed/ProSets/internal/assets/service"
	"github.com/Foullane-Mohamed/ProSets/internal/auth"
	"github.com/Foullane-Mohamed/ProSets/internal/config"
	"github.com/Foullane-Mohamed/ProSets/internal/database/migrations"
	"github.com/Foullane-Mohamed/ProSets/internal/kafka"
	"github.com/Foullane-Mohamed/ProSets/internal/logger"
	"github.com/Foullane-Mohamed/ProSets/internal/models"
	"github.com/Foullane-Mohamed/ProSets/internal/order"
	order_db "github.com/Foullane-Mohamed/ProSets/internal/order/db"
	"github.com/Foullane-Mohamed/ProSets/internal/order/order_api"
	"github.com/Foullane-Mohamed/ProSets/internal/storage"
	"github.com/Foullane-Mohamed/ProSets/internal/storage/storage_api"
)

// noopPublisher stands in for Kafka when event publishing is disabled.
type noopPublisher struct{}

func (noopPublisher) PublishOrderCreated(models.Order, []string) error { return nil }
func (noopPublisher) PublishOrderPaid(models.Order, []string) error    { return nil }

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err == nil {
			err = sqldb.Ping()
			if err == nil {
				break
			}
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		// The listing cache degrades to database reads, so Redis being down
		// is not fatal.
		log.Warn("REDIS", fmt.Sprintf("Redis connection error, listing cache disabled: %v", err))
		return nil
	}
	log.Info("REDIS", fmt.Sprintf("Redis connection successful to %s", cfg.Addr))
	return client
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting marketplace service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := connectPostgres(cfg.Database, logger)
	defer bunDB.Close()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.DefaultOptions(), logger)
		if err := runner.RunMigrations(); err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
	}

	redisClient := connectRedis(ctx, cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var publisher order.KafkaPublisher = noopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics)
		defer kafkaProducer.Close()

		requiredTopics := []string{cfg.Kafka.Topics.OrderCreated, cfg.Kafka.Topics.OrderPaid}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
		publisher = kafkaProducer
	} else {
		logger.Warn("KAFKA", "Kafka disabled, order events will not be published")
	}

	order.InitStripe()
	if cfg.Stripe.SecretKey == "" {
		logger.Warn("STRIPE", "STRIPE_SECRET_KEY not set, checkout creation will fail")
	}
	if cfg.Stripe.WebhookSecret == "" {
		logger.Warn("STRIPE", "STRIPE_WEBHOOK_SECRET not set, webhook processing will refuse all events")
	}

	presigner, err := storage.New(ctx, cfg.S3, logger)
	if err != nil {
		logger.Fatal("STORAGE", fmt.Sprintf("Failed to initialize S3 presigner: %v", err))
	}

	assetDB := &asset_db.DB{Bun: bunDB}
	orderDB := &order_db.DB{Bun: bunDB}

	orderService := order.NewOrderService(orderDB, assetDB, publisher, logger)
	assetService := assets.NewAssetService(assetDB, orderService, presigner, cache.NewListingCache(redisClient), logger)

	orderHandler := &order_api.Handler{
		OrderService: orderService,
		Logger:       logger,
	}
	assetHandler := &asset_api.Handler{
		AssetService: assetService,
		Logger:       logger,
	}
	storageHandler := &storage_api.Handler{
		Storage: presigner,
		Logger:  logger,
	}

	authMiddleware, err := auth.NewMiddleware(ctx, cfg.Auth.OIDCIssuer, logger)
	if err != nil {
		logger.Fatal("AUTH", fmt.Sprintf("Failed to set up auth middleware: %v", err))
	}

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Get("/api/assets", assetHandler.ListAssets)
	r.Get("/api/assets/{assetId}", assetHandler.GetAsset)
	r.Post("/api/payments/webhook", orderHandler.StripeWebhook)
	logger.Info("ROUTER", "Public asset listing and webhook endpoints registered")

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Route("/api", func(r chi.Router) {
			r.Route("/assets", func(r chi.Router) {
				r.Post("/", assetHandler.CreateAsset)
				r.Get("/my-assets", assetHandler.ListMyAssets)
				r.Patch("/{assetId}", assetHandler.UpdateAsset)
				r.Delete("/{assetId}", assetHandler.DeleteAsset)
				r.Get("/{assetId}/download", assetHandler.DownloadAsset)
			})
			logger.Info("ROUTER", "Asset routes registered under /api/assets")

			r.Route("/orders", func(r chi.Router) {
				r.Get("/me", orderHandler.ListMyOrders)
				r.Get("/{orderId}", orderHandler.GetOrder)
			})
			logger.Info("ROUTER", "Order routes registered under /api/orders")

			r.Post("/payments/checkout", orderHandler.CreateCheckout)
			r.Post("/storage/upload-url", storageHandler.GetUploadURL)
			logger.Info("ROUTER", "Checkout and storage routes registered")
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("Marketplace service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		logger.Info("HTTP", "Marketplace service shutdown complete")
	}
}
