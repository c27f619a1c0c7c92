package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const BroadcastQueue = "devscope_broadcasts"

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DSN returns the postgres connection string, or "" when no host is set.
func (c DatabaseConfig) DSN() string {
	if c.Host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port)
}

type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Queue    string
}

// URL returns the AMQP url, or "" when no host is set.
func (c RabbitMQConfig) URL() string {
	if c.Host == "" {
		return ""
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.User, c.Password, c.Host, c.Port)
}

// AppConfig is the process configuration read from the environment.
type AppConfig struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	Database      DatabaseConfig
	RunMigrations bool
	MigrationsDir string
	RabbitMQ      RabbitMQConfig

	RPCEndpoint      string
	PumpPortalAPIKey string
	PumpPortalWSS    string
	PumpPortalTrade  string
	DexScreenerURL   string

	KeystorePath     string
	KeystorePassword string

	BrowserSessionDir string
	MetadataTimeout   time.Duration

	AdminSyncCron    string
	SessionCheckCron string
}

// LoadAppConfig reads the environment, applying defaults for unset values.
func LoadAppConfig() AppConfig {
	return AppConfig{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
		RunMigrations: getBool("RUN_MIGRATIONS", false),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
		RabbitMQ: RabbitMQConfig{
			Host:     os.Getenv("RABBITMQ_HOST"),
			Port:     getEnv("RABBITMQ_PORT", "5672"),
			User:     os.Getenv("RABBITMQ_USER"),
			Password: os.Getenv("RABBITMQ_PASSWORD"),
			Queue:    getEnv("RABBITMQ_QUEUE", BroadcastQueue),
		},

		RPCEndpoint:      os.Getenv("HELIUS_RPC"),
		PumpPortalAPIKey: os.Getenv("PUMP_PORTAL_API_KEY"),
		PumpPortalWSS:    getEnv("PUMP_PORTAL_WSS", "wss://pumpportal.fun/api/data"),
		PumpPortalTrade:  getEnv("PUMP_PORTAL_TRADE_URL", "https://pumpportal.fun/api/trade"),
		DexScreenerURL:   getEnv("DEXSCREENER_URL", "https://api.dexscreener.com/latest/dex/tokens/"),

		KeystorePath:     os.Getenv("KEYSTORE_PATH"),
		KeystorePassword: os.Getenv("KEYSTORE_PASSWORD"),

		BrowserSessionDir: getEnv("BROWSER_SESSION_DIR", "./session/twitter-session"),
		MetadataTimeout:   getDuration("METADATA_TIMEOUT", 5*time.Second),

		AdminSyncCron:    getEnv("ADMIN_SYNC_CRON", "@every 5m"),
		SessionCheckCron: getEnv("SESSION_CHECK_CRON", "@every 10m"),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// splitList splits a comma-separated list, e.g.
// "http://localhost:3000,http://localhost:3001".
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
