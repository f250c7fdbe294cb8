package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// DatabaseURL selects the remote row store. When empty the API falls
	// back to the local persistent store for doctors/appointments/products.
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	SessionJWTSecret string
	SessionTokenTTL  time.Duration

	CORSAllowedOrigins []string

	// Outbox deliverer tuning (events worker).
	OutboxBatchSize    int
	OutboxPollInterval time.Duration

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	NotificationQueue   string

	// EmailProvider is "ses", "sendgrid", or "none".
	EmailProvider    string
	EmailFromAddress string
	EmailFromName    string
	SendGridAPIKey   string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SessionJWTSecret: getEnv("SESSION_JWT_SECRET", ""),
		SessionTokenTTL:  getEnvAsDuration("SESSION_TOKEN_TTL", 24*time.Hour),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		OutboxBatchSize:    getEnvAsInt("OUTBOX_BATCH_SIZE", 25),
		OutboxPollInterval: getEnvAsDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		NotificationQueue:   getEnv("NOTIFICATION_QUEUE_URL", ""),

		EmailProvider:    strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "none"))),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "MediWrap"),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// UseLocalStore reports whether the API should serve collections from the
// local persistent store instead of the remote row store.
func (c *Config) UseLocalStore() bool {
	return c.DatabaseURL == ""
}
