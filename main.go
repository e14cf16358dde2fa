package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"ms-booking/internal/auth"
	"ms-booking/internal/booking"
	"ms-booking/internal/booking/booking_api"
	"ms-booking/internal/booking/db"
	bookingredis "ms-booking/internal/booking/redis"
	"ms-booking/internal/config"
	"ms-booking/internal/database"
	"ms-booking/internal/database/migrations"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/payment"
	"ms-booking/internal/payment/payment_api"
	"ms-booking/internal/tickets/boarding"
)

// publisher is what both workflows publish through.
type publisher interface {
	booking.EventPublisher
	Close() error
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if !cfg.Enabled {
		log.Warn("REDIS", "Redis disabled, seat claims rely on the storage constraint alone")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 10,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}

	log.Info("REDIS", fmt.Sprintf("Redis connection successful to %s (DB: %d)", cfg.Addr, cfg.DB))
	return client
}

func newPublisher(ctx context.Context, cfg config.KafkaConfig, log *logger.Logger) publisher {
	if !cfg.Enabled {
		log.Warn("KAFKA", "Kafka disabled, booking events are not published")
		return kafka.NoopPublisher{}
	}

	if err := kafka.EnsureTopicsExist(ctx, cfg.Brokers, kafka.TopicNames(cfg.Topics), log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}
	log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for brokers %v", cfg.Brokers))
	return kafka.NewProducer(cfg.Brokers, cfg.Topics, log)
}

func newVerifier(ctx context.Context, cfg config.AuthConfig, redisClient *redis.Client, log *logger.Logger) auth.Verifier {
	var verifier auth.Verifier
	if cfg.OIDCIssuer != "" {
		oidcVerifier, err := auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer)
		if err != nil {
			log.Fatal("AUTH", err.Error())
		}
		log.Info("AUTH", fmt.Sprintf("Verifying bearer tokens against issuer %s", cfg.OIDCIssuer))
		verifier = oidcVerifier
	} else {
		log.Info("AUTH", "Verifying HS256 bearer tokens with the shared secret")
		verifier = auth.NewHMACVerifier(cfg.JWTSecret)
	}

	if redisClient != nil {
		verifier = auth.NewCachedVerifier(verifier, redisClient, 5*time.Minute, log)
	}
	return verifier
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println(".env file not found, using environment variables")
	}
	cfg := config.Load()

	logger, err := logger.NewLogger(logger.WithFile(cfg.Log.Dir, "booking-service"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Info("APP", "Starting Booking Service initialization")
	if err := cfg.Validate(); err != nil {
		logger.Fatal("CONFIG", err.Error())
	}

	ctx := context.Background()

	bunDB, err := database.Connect(ctx, cfg.Database, database.DefaultConnectOptions(), logger)
	if err != nil {
		logger.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if cfg.Database.AutoMigrate {
		// The runner is not closed: closing it closes the shared pool.
		runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
			MigrationsDir: cfg.Database.MigrationsDir,
			AutoMigrate:   true,
		}, logger)
		if err := runner.RunMigrations(); err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Failed to run migrations: %v", err))
		}
	}

	redisClient := connectRedis(ctx, cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	events := newPublisher(ctx, cfg.Kafka, logger)
	defer events.Close()

	store := db.New(bunDB)

	var locker booking.SeatLocker
	if redisClient != nil {
		locker = bookingredis.NewSeatLocker(redisClient, cfg.Redis.SeatHoldTTL, logger)
	}

	bookingService := booking.NewBookingService(
		store,
		store,
		locker,
		events,
		boarding.NewQRGenerator(cfg.Booking.TicketSecret),
		logger,
		cfg.Booking.Location(),
	)

	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, logger)
	paymentService := payment.NewPaymentService(store, gateway, events, logger, cfg.Stripe.Currency, cfg.Booking.FrontendURL)
	if cfg.Stripe.WebhookSecret != "" {
		paymentService.Webhooks = gateway
	} else {
		logger.Warn("WEBHOOK", "STRIPE_WEBHOOK_SECRET not set, webhook events will be rejected")
	}

	bookingHandler := booking_api.NewHandler(bookingService, logger)
	paymentHandler := payment_api.NewHandler(paymentService, logger)
	verifier := newVerifier(ctx, cfg.Auth, redisClient, logger)

	logger.Info("HTTP", "Setting up router and middleware")
	r := newRouter(bookingHandler, paymentHandler, verifier, logger, bunDB.PingContext)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("Booking Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "Booking Service shutdown complete")
	}
}
