// Package config loads the example server's own environment, per spec §6:
// "Environment variables (consumed by example configs, not required by the
// core): provider credentials and endpoints." The s3up library itself
// never reads the environment; only this demo entrypoint does.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// JWT (demo token minting only — see internal/pkg/jwt)
	JWTSecret    string
	JWTAccessTTL time.Duration

	// CORS
	AllowedOrigins []string

	// Provider selection
	ProviderKind    string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Endpoint        string
	AccountID       string
	UseSSL          bool
	CustomDomain    string

	// Rate limiting
	RateLimitMaxUploads int
	RateLimitWindow     time.Duration

	// Logging
	LogLevel string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		JWTSecret:    getEnv("JWT_SECRET", "super-secret-key-change-me"),
		JWTAccessTTL: parseDuration(getEnv("JWT_ACCESS_TTL", "15m"), 15*time.Minute),

		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		ProviderKind:    getEnv("S3UP_PROVIDER", "minio"),
		AccessKeyID:     getEnv("S3UP_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3UP_SECRET_ACCESS_KEY", ""),
		Region:          getEnv("S3UP_REGION", "us-east-1"),
		Bucket:          getEnv("S3UP_BUCKET", "s3up-dev"),
		Endpoint:        getEnv("S3UP_ENDPOINT", "localhost:9000"),
		AccountID:       getEnv("S3UP_ACCOUNT_ID", ""),
		UseSSL:          parseBool(getEnv("S3UP_USE_SSL", "false"), false),
		CustomDomain:    getEnv("S3UP_CUSTOM_DOMAIN", ""),

		RateLimitMaxUploads: parseInt(getEnv("S3UP_RATE_LIMIT_MAX", "30"), 30),
		RateLimitWindow:     parseDuration(getEnv("S3UP_RATE_LIMIT_WINDOW", "1m"), time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue
	}
	return d
}

func parseBool(s string, defaultValue bool) bool {
	value, err := strconv.ParseBool(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseInt(s string, defaultValue int) int {
	value, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseStringSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if start < i {
				result = append(result, s[start:i])
			}
			start = i + 1
		}
	}
	return result
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
