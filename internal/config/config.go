package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	CORSAllowedOrigins []string
	MigrateOnStart     bool

	Obs     ObsConfig
	Gateway GatewayConfig
	Billing BillingConfig
	Pricing PricingConfig
	HTTP    HTTPConfig
	Audit   AuditConfig
	Worker  WorkerConfig
}

type ObsConfig struct {
	ServiceName      string
	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	MetricsBuckets   string
	TracingExporter  string
	TracingEndpoint  string
	TracingRatio     float64
}

// GatewayConfig covers the platform gateway account and outbound call policy.
type GatewayConfig struct {
	PlatformSecretKey     string
	PlatformWebhookSecret string
	APIURL                string
	Timeout               time.Duration
	BreakerMinRequests    int
	BreakerFailureRatio   float64
	BreakerOpenFor        time.Duration
}

// BillingConfig maps purchasable plans to gateway price ids.
type BillingConfig struct {
	PriceStarter string
	PricePro     string
	SuccessURL   string
	CancelURL    string
}

type PricingConfig struct {
	TaxRateBps   int
	FlatShipping int64
	Currency     string
}

type HTTPConfig struct {
	WebhookMaxBodyBytes int64
	RateLimitCheckout   string
	IdempotencyTTL      time.Duration
}

type AuditConfig struct {
	Enabled      bool
	SamplingRate float64
}

type WorkerConfig struct {
	Concurrency int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		JWTIssuer:          valueOrDefault(k.String("JWT_ISSUER"), "toko-billing"),
		JWTAudience:        valueOrDefault(k.String("JWT_AUDIENCE"), "toko-billing-api"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		MigrateOnStart:     parseBool(k.String("DB_MIGRATE_ON_START")),
		Obs: ObsConfig{
			ServiceName:      valueOrDefault(k.String("OBS_SERVICE_NAME"), "toko-billing"),
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "toko"),
			MetricsBuckets:   k.String("OBS_METRICS_BUCKETS_MS"),
			TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "none"),
			TracingEndpoint:  k.String("OBS_TRACING_ENDPOINT"),
			TracingRatio:     parseFloat(k.String("OBS_TRACING_SAMPLE_RATIO"), 1),
		},
		Gateway: GatewayConfig{
			PlatformSecretKey:     k.String("PLATFORM_GATEWAY_SECRET_KEY"),
			PlatformWebhookSecret: k.String("PLATFORM_WEBHOOK_SECRET"),
			APIURL:                strings.TrimSpace(k.String("GATEWAY_API_URL")),
			Timeout:               parseDuration(k.String("GATEWAY_TIMEOUT"), "10s"),
			BreakerMinRequests:    parseInt(k.String("GATEWAY_BREAKER_MIN_REQUESTS"), 10),
			BreakerFailureRatio:   parseFloat(k.String("GATEWAY_BREAKER_FAILURE_RATIO"), 0.5),
			BreakerOpenFor:        parseDuration(k.String("GATEWAY_BREAKER_OPEN_FOR"), "30s"),
		},
		Billing: BillingConfig{
			PriceStarter: k.String("BILLING_PRICE_STARTER"),
			PricePro:     k.String("BILLING_PRICE_PRO"),
			SuccessURL:   valueOrDefault(k.String("BILLING_SUCCESS_URL"), "http://localhost:3000/billing/success"),
			CancelURL:    valueOrDefault(k.String("BILLING_CANCEL_URL"), "http://localhost:3000/billing/cancel"),
		},
		Pricing: PricingConfig{
			TaxRateBps:   parseInt(k.String("PRICING_TAX_RATE_BPS"), 900),
			FlatShipping: int64(parseInt(k.String("PRICING_FLAT_SHIPPING"), 0)),
			Currency:     strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "USD")),
		},
		HTTP: HTTPConfig{
			WebhookMaxBodyBytes: int64(parseInt(k.String("WEBHOOK_MAX_BODY_BYTES"), 65536)),
			RateLimitCheckout:   valueOrDefault(k.String("RATE_LIMIT_CHECKOUT"), "20-M"),
			IdempotencyTTL:      parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		},
		Audit: AuditConfig{
			Enabled:      parseBoolDefault(k.String("AUDIT_ENABLED"), true),
			SamplingRate: parseFloat(k.String("AUDIT_SAMPLING_RATE"), 1),
		},
		Worker: WorkerConfig{
			Concurrency: parseInt(k.String("WORKER_CONCURRENCY"), 10),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.Pricing.TaxRateBps < 0 {
		return nil, errors.New("PRICING_TAX_RATE_BPS must not be negative")
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

// PlanPrices returns the configured plan -> price id mapping.
func (c BillingConfig) PlanPrices() map[string]string {
	out := make(map[string]string, 2)
	if c.PriceStarter != "" {
		out["starter"] = c.PriceStarter
	}
	if c.PricePro != "" {
		out["pro"] = c.PricePro
	}
	return out
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
		return strings.TrimSpace(value)
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

func parseBool(value string) bool {
	return parseBoolDefault(value, false)
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return v
}

// MustLoad behaves like Load but panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests overrides environment variables for the duration of one Load.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]*string, len(env))
	for key, value := range env {
		if prev, ok := os.LookupEnv(key); ok {
			original[key] = &prev
		} else {
			original[key] = nil
		}
		if err := os.Setenv(key, value); err != nil {
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

func restoreEnv(values map[string]*string) error {
	var errs []string
	for key, value := range values {
		var err error
		if value == nil {
			err = os.Unsetenv(key)
		} else {
			err = os.Setenv(key, *value)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
