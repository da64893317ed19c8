// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Notification backends accepted by NOTIFY_BACKEND.
const (
	NotifyLog      = "log"
	NotifyRabbitMQ = "rabbitmq"
	NotifyKafka    = "kafka"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"].
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// JWTSecret is the HS256 key bearer tokens are signed with. Required.
	JWTSecret string
	// JWTIssuer, when set, must match the token's iss claim.
	JWTIssuer string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
	// MigrateOnStart applies pending migrations before serving.
	MigrateOnStart bool

	// TxMaxAttempts bounds how often a transaction is retried after a
	// deadlock, serialization failure or lock timeout. Defaults to 3.
	TxMaxAttempts int
	// TxLockTimeout is the per-transaction lock_timeout. Defaults to 5s.
	TxLockTimeout time.Duration

	// RedisAddr enables distributed job leases and reminder dedup when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// NotifyBackend selects where notifications go: log, rabbitmq or kafka.
	NotifyBackend string
	RabbitMQURL   string
	NotifyQueue   string
	KafkaBrokers  []string
	KafkaTopic    string
	// NotifyBuffer is the in-memory notification queue size.
	NotifyBuffer int
	// NotifyRetries is the number of extra publish attempts per notification.
	NotifyRetries int

	// SweepInterval is how often expired bookings are completed. 0 disables.
	SweepInterval time.Duration
	// ReminderInterval is how often reminders are sent. 0 disables.
	ReminderInterval time.Duration
	// ReminderHorizonDays is how far ahead a trip start triggers a reminder.
	ReminderHorizonDays int
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set and any
// variables that could not be parsed.
func Load() (Config, error) {
	p := &parser{}
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		JWTIssuer:   os.Getenv("JWT_ISSUER"),

		MaxBodyBytes:   int64(p.int("MAX_BODY_BYTES", 1<<20)),
		MigrateOnStart: p.bool("MIGRATE_ON_START", false),

		TxMaxAttempts: p.int("TX_MAX_ATTEMPTS", 3),
		TxLockTimeout: p.duration("TX_LOCK_TIMEOUT", 5*time.Second),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       p.int("REDIS_DB", 0),

		NotifyBackend: strings.ToLower(getEnv("NOTIFY_BACKEND", NotifyLog)),
		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
		NotifyQueue:   getEnv("NOTIFY_QUEUE", "booking.notifications"),
		KafkaBrokers:  splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "booking.notifications"),
		NotifyBuffer:  p.int("NOTIFY_BUFFER", 256),
		NotifyRetries: p.int("NOTIFY_RETRIES", 3),

		SweepInterval:       p.duration("SWEEP_INTERVAL", time.Hour),
		ReminderInterval:    p.duration("REMINDER_INTERVAL", 6*time.Hour),
		ReminderHorizonDays: p.int("REMINDER_HORIZON_DAYS", 3),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	switch cfg.NotifyBackend {
	case NotifyLog:
	case NotifyRabbitMQ:
		if cfg.RabbitMQURL == "" {
			missing = append(missing, "RABBITMQ_URL")
		}
	case NotifyKafka:
		if len(cfg.KafkaBrokers) == 0 {
			missing = append(missing, "KAFKA_BROKERS")
		}
	default:
		p.invalid = append(p.invalid, "NOTIFY_BACKEND")
	}
	if cfg.TxMaxAttempts < 1 {
		p.invalid = append(p.invalid, "TX_MAX_ATTEMPTS")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(p.invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(p.invalid, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parser reads typed variables and records the names of those it could not
// parse, so Load can report them all at once.
type parser struct {
	invalid []string
}

func (p *parser) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return n
}

func (p *parser) bool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return b
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return d
}
