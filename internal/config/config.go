package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string

	PayopPublicKey string
	PayopSecretKey string
	PayopAPIURL    string
	PayopLanguage  string

	PublicBaseURL string
	ThankYouURL   string
	CancelURL     string

	CORSAllowedOrigins []string

	ReplayTTL       time.Duration
	PayopTimeout    time.Duration
	MaxCallbackBody int64

	CallbackRateLimit string

	SecurityHeaders bool
	EnableHSTS      bool

	OTLPEndpoint string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:      valueOrDefault(k.String("APP_ENV"), "development"),
		Port:        valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL: k.String("DATABASE_URL"),
		RedisURL:    k.String("REDIS_URL"),

		PayopPublicKey: strings.TrimSpace(k.String("PAYOP_PUBLIC_KEY")),
		PayopSecretKey: strings.TrimSpace(k.String("PAYOP_SECRET_KEY")),
		PayopAPIURL:    strings.TrimSpace(k.String("PAYOP_API_URL")),
		PayopLanguage:  valueOrDefault(k.String("PAYOP_LANGUAGE"), "en"),

		PublicBaseURL: strings.TrimRight(strings.TrimSpace(k.String("PUBLIC_BASE_URL")), "/"),
		ThankYouURL:   strings.TrimSpace(k.String("THANK_YOU_URL")),
		CancelURL:     strings.TrimSpace(k.String("CANCEL_URL")),

		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		ReplayTTL:       parseDuration(k.String("REPLAY_TTL"), "24h"),
		PayopTimeout:    parseDuration(k.String("PAYOP_TIMEOUT"), "15s"),
		MaxCallbackBody: parseInt64(k.String("MAX_CALLBACK_BODY"), 16<<10),

		CallbackRateLimit: valueOrDefault(k.String("CALLBACK_RATE_LIMIT"), "60-M"),

		SecurityHeaders: parseBool(valueOrDefault(k.String("SECURITY_HEADERS"), "true")),
		EnableHSTS:      parseBool(k.String("ENABLE_HSTS")),

		OTLPEndpoint: strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.PayopPublicKey == "" {
		return nil, errors.New("PAYOP_PUBLIC_KEY is required")
	}
	if cfg.PayopSecretKey == "" {
		return nil, errors.New("PAYOP_SECRET_KEY is required")
	}
	if cfg.PublicBaseURL == "" {
		return nil, errors.New("PUBLIC_BASE_URL is required")
	}
	if cfg.ThankYouURL == "" {
		return nil, errors.New("THANK_YOU_URL is required")
	}
	if cfg.CancelURL == "" {
		return nil, errors.New("CANCEL_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// ResultURL is the absolute success-return endpoint handed to the processor.
func (c *Config) ResultURL() string {
	return c.PublicBaseURL + "/v1/payop/return/success"
}

// FailURL is the absolute fail-return endpoint handed to the processor.
func (c *Config) FailURL() string {
	return c.PublicBaseURL + "/v1/payop/return/fail"
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt64(value string, fallback int64) int64 {
	base := strings.TrimSpace(value)
	if base == "" {
		return fallback
	}
	var n int64
	if _, err := fmt.Sscanf(base, "%d", &n); err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
