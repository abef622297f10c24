package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Environment string
	PublicURL   string
	FrontendURL string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Khalti configuration
	KhaltiBaseURL   string
	KhaltiSecretKey string
	WebsiteURL      string

	// Payment configuration
	PaymentSessionTTL time.Duration

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Upload configuration
	UploadDir     string
	MaxUploadSize int64

	// Callback rate limiting
	CallbackRateLimit  int
	CallbackRateWindow time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	cfg := &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),
		PublicURL:   getEnv("PUBLIC_URL", "http://localhost:8090"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Khalti
		KhaltiBaseURL:   getEnv("KHALTI_BASE_URL", "https://dev.khalti.com/api/v2"),
		KhaltiSecretKey: getEnv("KHALTI_SECRET_KEY", ""),
		WebsiteURL:      getEnv("WEBSITE_URL", "http://localhost:5173"),

		// Payments
		PaymentSessionTTL: getEnvAsDuration("PAYMENT_SESSION_TTL", "30m"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Uploads
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadSize: int64(getEnvAsInt("MAX_UPLOAD_SIZE", 5242880)),

		// Callback rate limiting
		CallbackRateLimit:  getEnvAsInt("CALLBACK_RATE_LIMIT", 30),
		CallbackRateWindow: getEnvAsDuration("CALLBACK_RATE_WINDOW", "1m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}

	// Downstream code parses these without rechecking; a malformed value
	// fails here instead of at request time.
	for name, value := range map[string]string{
		"PUBLIC_URL":      cfg.PublicURL,
		"FRONTEND_URL":    cfg.FrontendURL,
		"WEBSITE_URL":     cfg.WebsiteURL,
		"KHALTI_BASE_URL": cfg.KhaltiBaseURL,
	} {
		if err := validateURL(name, value); err != nil {
			log.Fatal(err)
		}
	}

	return cfg
}

func validateURL(name, value string) error {
	u, err := url.ParseRequestURI(value)
	if err != nil {
		return fmt.Errorf("config: %s %q is not a valid URL: %w", name, value, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: %s %q must be an absolute URL with scheme and host", name, value)
	}
	return nil
}

// CallbackURL is the public return URL the gateway redirects the
// browser to after a payment attempt.
func (c *Config) CallbackURL() string {
	return c.PublicURL + "/api/payment/callback"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
