package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration values.
type Config struct {
	Environment          string
	HTTPPort             string
	BaseURL              string
	DatabaseURL          string
	RedisURL             string
	IdPEndpoint          string
	IdPClientID          string
	IdPClientSecret      string
	IdPProjectID         string
	AdminKeyID           string
	AdminPrivateKeyPEM   string
	AdminGraphQLEndpoint string
	AuthRelayHost        string
	TypesenseHost        string
	TypesenseAdminKey    string
	TypesenseSearchKey   string
	ServiceName          string
	RateLimitRPM         int
	CookieTTL            time.Duration
	TelemetryEndpoint    string
	TelemetryInsecure    bool
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:          getEnv("APP_ENV", "development"),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		BaseURL:              strings.TrimRight(os.Getenv("BASE_URL"), "/"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             getEnv("REDIS_URL", "redis://127.0.0.1:6379"),
		IdPEndpoint:          strings.TrimRight(os.Getenv("AUTHGEAR_ENDPOINT"), "/"),
		IdPClientID:          os.Getenv("AUTHGEAR_CLIENT_ID"),
		IdPClientSecret:      os.Getenv("AUTHGEAR_CLIENT_SECRET"),
		IdPProjectID:         os.Getenv("AUTHGEAR_PROJECT_ID"),
		AdminKeyID:           os.Getenv("AUTHGEAR_ADMIN_KEY_ID"),
		AdminPrivateKeyPEM:   os.Getenv("AUTHGEAR_ADMIN_PRIVATE_KEY_PEM"),
		AdminGraphQLEndpoint: os.Getenv("AUTHGEAR_ADMIN_GRAPHQL_ENDPOINT"),
		AuthRelayHost:        os.Getenv("AUTH_RELAY_HOST"),
		TypesenseHost:        os.Getenv("TYPESENSE_HOST"),
		TypesenseAdminKey:    os.Getenv("TYPESENSE_ADMIN_KEY"),
		TypesenseSearchKey:   os.Getenv("TYPESENSE_SEARCH_KEY"),
		ServiceName:          getEnv("SERVICE_NAME", "streamly-portal"),
		RateLimitRPM:         getInt("RATE_LIMIT_RPM", 600),
		CookieTTL:            getDuration("PROFILE_COOKIE_TTL", 30*24*time.Hour),
		TelemetryEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:    getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", true),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.BaseURL == "" {
		return Config{}, fmt.Errorf("BASE_URL is required")
	}
	if cfg.IdPEndpoint == "" {
		return Config{}, fmt.Errorf("AUTHGEAR_ENDPOINT is required")
	}
	if cfg.IdPClientID == "" || cfg.IdPClientSecret == "" {
		return Config{}, fmt.Errorf("AUTHGEAR_CLIENT_ID and AUTHGEAR_CLIENT_SECRET are required")
	}
	if cfg.TypesenseHost == "" || cfg.TypesenseAdminKey == "" || cfg.TypesenseSearchKey == "" {
		return Config{}, fmt.Errorf("TYPESENSE_HOST, TYPESENSE_ADMIN_KEY and TYPESENSE_SEARCH_KEY are required")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
