package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Stripe   StripeConfig
	Auth     AuthConfig
	Booking  BookingConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds the store endpoint and credential.
type DatabaseConfig struct {
	Endpoint      string
	Credential    string
	MaxOpenConns  int
	MaxIdleConns  int
	MaxLifetime   time.Duration
	AutoMigrate   bool
	MigrationsDir string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// SeatHoldTTL bounds how long a create-booking request may hold its seats.
	SeatHoldTTL time.Duration
	Enabled     bool
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
	Topics  TopicConfig
}

type TopicConfig struct {
	BookingCreated   string
	BookingConfirmed string
	BookingCancelled string
	SeatStatus       string
}

// StripeConfig holds the gateway secret.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

type AuthConfig struct {
	OIDCIssuer string
	JWTSecret  string
}

type BookingConfig struct {
	Timezone     string
	FrontendURL  string
	TicketSecret string
}

type LogConfig struct {
	Dir string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8084"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Endpoint:      getEnv("POSTGRES_DSN", ""),
			Credential:    getEnv("POSTGRES_PASSWORD", ""),
			MaxOpenConns:  getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:   time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			AutoMigrate:   getEnvBool("DB_AUTO_MIGRATE", false),
			MigrationsDir: getEnv("DB_MIGRATIONS_DIR", "./migrations"),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", "localhost:6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvInt("REDIS_DB", 0),
			SeatHoldTTL: getEnvDuration("SEAT_HOLD_TTL", 30*time.Second),
			Enabled:     getEnvBool("REDIS_ENABLED", true),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Topics: TopicConfig{
				BookingCreated:   getEnv("KAFKA_TOPIC_BOOKING_CREATED", "busbooking.booking.created"),
				BookingConfirmed: getEnv("KAFKA_TOPIC_BOOKING_CONFIRMED", "busbooking.booking.confirmed"),
				BookingCancelled: getEnv("KAFKA_TOPIC_BOOKING_CANCELLED", "busbooking.booking.cancelled"),
				SeatStatus:       getEnv("KAFKA_TOPIC_SEAT_STATUS", "busbooking.seats.status"),
			},
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:      strings.ToLower(getEnv("STRIPE_CURRENCY", "inr")),
		},
		Auth: AuthConfig{
			OIDCIssuer: getEnv("OIDC_ISSUER", ""),
			JWTSecret:  getEnv("AUTH_JWT_SECRET", ""),
		},
		Booking: BookingConfig{
			Timezone:     getEnv("BOOKING_TIMEZONE", "Asia/Kolkata"),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:5173"),
			TicketSecret: getEnv("TICKET_QR_SECRET", "change-me"),
		},
		Log: LogConfig{
			Dir: getEnv("LOG_DIR", "logs"),
		},
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Endpoint == "" {
		errs = append(errs, errors.New("POSTGRES_DSN not set"))
	}
	if c.Stripe.SecretKey == "" {
		errs = append(errs, errors.New("STRIPE_SECRET_KEY not set"))
	}
	if c.Auth.OIDCIssuer == "" && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("one of OIDC_ISSUER or AUTH_JWT_SECRET must be set"))
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid BOOKING_TIMEZONE %q: %w", c.Booking.Timezone, err))
	}
	return errors.Join(errs...)
}

// DSN returns the store endpoint with the credential applied when the
// endpoint does not already carry a password.
func (d DatabaseConfig) DSN() (string, error) {
	if d.Credential == "" {
		return d.Endpoint, nil
	}
	u, err := url.Parse(d.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parse POSTGRES_DSN: %w", err)
	}
	if u.User == nil {
		return "", errors.New("POSTGRES_PASSWORD set but POSTGRES_DSN has no user")
	}
	if _, ok := u.User.Password(); ok {
		return d.Endpoint, nil
	}
	u.User = url.UserPassword(u.User.Username(), d.Credential)
	return u.String(), nil
}

// Location resolves the booking timezone, falling back to UTC.
func (b BookingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
