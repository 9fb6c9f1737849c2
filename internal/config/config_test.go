package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func required() map[string]string {
	return map[string]string{
		"DATABASE_URL": "postgres://localhost/toko",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "test-secret",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(required())
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 900, cfg.Pricing.TaxRateBps)
	require.Equal(t, "USD", cfg.Pricing.Currency)
	require.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	require.Equal(t, int64(65536), cfg.HTTP.WebhookMaxBodyBytes)
	require.Equal(t, "20-M", cfg.HTTP.RateLimitCheckout)
	require.True(t, cfg.Audit.Enabled)
	require.False(t, cfg.MigrateOnStart)
}

func TestLoadOverrides(t *testing.T) {
	env := required()
	env["PORT"] = ":9090"
	env["PRICING_TAX_RATE_BPS"] = "1100"
	env["CURRENCY_CODE"] = "jpy"
	env["GATEWAY_TIMEOUT"] = "bogus"
	env["AUDIT_ENABLED"] = "false"
	env["BILLING_PRICE_PRO"] = "price_pro"
	env["CORS_ALLOWED_ORIGINS"] = "https://a.example, ,https://b.example"
	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 1100, cfg.Pricing.TaxRateBps)
	require.Equal(t, "JPY", cfg.Pricing.Currency)
	require.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	require.False(t, cfg.Audit.Enabled)
	require.Equal(t, map[string]string{"pro": "price_pro"}, cfg.Billing.PlanPrices())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadRequiresSecrets(t *testing.T) {
	env := required()
	env["JWT_SECRET"] = ""
	_, err := LoadForTests(env)
	require.EqualError(t, err, "JWT_SECRET is required")
}
