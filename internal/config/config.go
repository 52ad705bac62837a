// Package config loads application configuration from environment
// variables, after merging an optional .env file.
package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted in DB_DRIVER.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env      string         // application environment (e.g. "dev", "prod")
	Port     string         // HTTP port to listen on
	Timezone string         // IANA zone used to render booking times
	Location *time.Location // parsed Timezone

	AdminAuthSecret   string // HMAC secret for admin session tokens
	AdminPassword     string // plain shared admin password (optional when hash set)
	AdminPasswordHash string // bcrypt hash of the admin password (takes precedence)
	CookieSecure      bool   // Secure attribute on the admin cookie

	OpenHorizonDays           int // customer slot listing window
	AdminHorizonDays          int // admin slot listing window
	RecentBookingsLimit       int // max rows in the admin bookings list
	RecentBookingsHorizonDays int // slot start window for the admin bookings list

	LogLevel  string
	LogFormat string

	DB              DBConfig
	AMQPURL         string // RabbitMQ URL; empty means in-process notifications
	Notify          NotifyConfig
	ShutdownTimeout time.Duration
}

// DBConfig selects and parameterises the storage backend.
type DBConfig struct {
	Driver  string // mysql, postgres or memory
	User    string // database username
	Pass    string // database password (optional)
	Host    string // database host address
	Port    string // database port number
	Name    string // database name
	URL     string // Postgres connection URL
	Migrate bool   // apply embedded migrations at startup
}

// Load reads configuration values from the environment and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	cfg := Config{
		Env:      envStr("APP_ENV", "dev"),
		Port:     envStr("APP_PORT", "8080"),
		Timezone: envStr("APP_TIMEZONE", "UTC"),

		AdminAuthSecret:   must("ADMIN_AUTH_SECRET"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		CookieSecure:      envBool("COOKIE_SECURE", true),

		OpenHorizonDays:           envInt("OPEN_HORIZON_DAYS", 7),
		AdminHorizonDays:          envInt("ADMIN_HORIZON_DAYS", 30),
		RecentBookingsLimit:       envInt("RECENT_BOOKINGS_LIMIT", 200),
		RecentBookingsHorizonDays: envInt("RECENT_BOOKINGS_HORIZON_DAYS", 60),

		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "json"),

		AMQPURL:         firstEnv("RABBITMQ_URL", "AMQP_URL"),
		Notify:          LoadNotifyConfig(),
		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		log.Fatalf("missing required env var: ADMIN_PASSWORD or ADMIN_PASSWORD_HASH")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("invalid APP_TIMEZONE %q: %v", cfg.Timezone, err)
	}
	cfg.Location = loc

	cfg.DB = loadDBConfig()
	return cfg
}

func loadDBConfig() DBConfig {
	db := DBConfig{
		Driver:  strings.ToLower(envStr("DB_DRIVER", DriverMySQL)),
		Migrate: envBool("DB_MIGRATE", true),
	}
	switch db.Driver {
	case DriverMySQL:
		db.User = must("DB_USER")
		db.Pass = os.Getenv("DB_PASS")
		db.Host = must("DB_HOST")
		db.Port = envStr("DB_PORT", "3306")
		db.Name = must("DB_NAME")
	case DriverPostgres:
		db.URL = must("DATABASE_URL")
	case DriverMemory:
	default:
		log.Fatalf("unsupported DB_DRIVER %q (want mysql, postgres or memory)", db.Driver)
	}
	return db
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// firstEnv returns the first non-empty variable among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
