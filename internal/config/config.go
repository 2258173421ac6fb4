package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DatabaseURL string

	// Redis
	RedisURL string
	StashTTL time.Duration

	// Kafka
	KafkaBrokers      string
	KafkaCommandTopic string
	KafkaEventTopic   string
	KafkaGroupID      string

	// API Configuration
	APIPort            string
	APIHost            string
	CORSAllowedOrigins []string

	// Shopify Admin API
	ShopifyAdminURL   string
	ShopifyAdminToken string
	ShopifyAPIVersion string
	ShopifyRateLimit  int

	// External store registry and per-store CSV sources
	StoreRegistryURL string
	DataDir          string

	// Event relay
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	SessionTTL        time.Duration

	// Environment
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	return &Config{
		DatabaseURL:        getEnv("DATABASE_URL", "sqlite://hydrogen-admin.db"),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		StashTTL:           getEnvAsDuration("STASH_TTL", time.Hour),
		KafkaBrokers:       getEnv("KAFKA_BROKERS", "localhost:9092"),
		KafkaCommandTopic:  getEnv("KAFKA_COMMAND_TOPIC", "publish-commands"),
		KafkaEventTopic:    getEnv("KAFKA_EVENT_TOPIC", "publish-events"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "hydrogen-admin-worker"),
		APIPort:            getEnv("API_PORT", "8080"),
		APIHost:            getEnv("API_HOST", "0.0.0.0"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		ShopifyAdminURL:    getEnv("SHOPIFY_ADMIN_API_URL", ""),
		ShopifyAdminToken:  getEnv("SHOPIFY_ADMIN_ACCESS_TOKEN", ""),
		ShopifyAPIVersion:  getEnv("SHOPIFY_API_VERSION", "2025-07"),
		ShopifyRateLimit:   getEnvAsInt("SHOPIFY_RATE_LIMIT", 2),
		StoreRegistryURL:   getEnv("STORE_REGISTRY_URL", ""),
		DataDir:            getEnv("DATA_DIR", "data"),
		ReconnectAttempts:  getEnvAsInt("RECONNECT_ATTEMPTS", 5),
		ReconnectDelay:     getEnvAsDuration("RECONNECT_DELAY", 1500*time.Millisecond),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", time.Hour),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Brokers splits the comma separated broker list.
func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return splitList(value)
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
