package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/toko-billing/internal/app"
	"github.com/noah-isme/toko-billing/internal/audit"
	"github.com/noah-isme/toko-billing/internal/auth"
	"github.com/noah-isme/toko-billing/internal/billing"
	"github.com/noah-isme/toko-billing/internal/checkout"
	"github.com/noah-isme/toko-billing/internal/common"
	"github.com/noah-isme/toko-billing/internal/config"
	"github.com/noah-isme/toko-billing/internal/credentials"
	"github.com/noah-isme/toko-billing/internal/db"
	"github.com/noah-isme/toko-billing/internal/health"
	storemw "github.com/noah-isme/toko-billing/internal/http/middleware"
	"github.com/noah-isme/toko-billing/internal/lock"
	"github.com/noah-isme/toko-billing/internal/obs"
	"github.com/noah-isme/toko-billing/internal/order"
	"github.com/noah-isme/toko-billing/internal/payment"
	"github.com/noah-isme/toko-billing/internal/ratelimit"
	"github.com/noah-isme/toko-billing/internal/resilience"
	"github.com/noah-isme/toko-billing/internal/security"
	"github.com/noah-isme/toko-billing/internal/tenant"
	"github.com/noah-isme/toko-billing/internal/webhooks"
)

const (
	jsonBodyLimit   = 1 << 20
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
	resilience.MustRegisterMetrics(cfg.Obs.MetricsNamespace, nil)
	httpMetrics := obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), prometheus.DefaultRegisterer)

	tracingEnabled := cfg.Obs.TracingExporter != "none"
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   cfg.Obs.ServiceName,
			Endpoint:      cfg.Obs.TracingEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			SamplingRatio: cfg.Obs.TracingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if cfg.MigrateOnStart {
		if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	deps, err := app.New(startCtx, cfg, logger, cfg.Obs.ServiceName+"-api")
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Error().Err(err).Msg("close dependencies")
		}
	}()

	queries := deps.Store.Queries
	resolver := &credentials.Resolver{Store: queries}
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)

	limiter, err := ratelimit.New(deps.Redis, cfg.HTTP.RateLimitCheckout, "toko:ratelimit:checkout")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}
	limit := ratelimit.Handler{
		Limiter: limiter,
		Key:     ratelimit.CallerKey,
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}
	idem := common.Idem{R: deps.Redis, TTL: cfg.HTTP.IdempotencyTTL}

	checkoutSvc := &checkout.Service{
		Tx:       deps.Store,
		Settings: resolver,
		TaxBps:   cfg.Pricing.TaxRateBps,
		Shipping: cfg.Pricing.FlatShipping,
		Currency: cfg.Pricing.Currency,
		Events:   deps.Bus,
		Logger:   logger,
	}
	paymentSvc := &payment.Service{
		Orders:      queries,
		Credentials: resolver,
		Gateway:     deps.Gateway,
		Logger:      logger,
	}
	reconciler := &payment.Reconciler{Tx: deps.Store, Events: deps.Bus, Logger: logger}

	catalog := billing.NewCatalog(cfg.Billing.PlanPrices())
	billingCheckout := &billing.CheckoutService{
		Store:      queries,
		Locker:     lock.Locker{R: deps.Redis, Prefix: "toko:lock"},
		Gateway:    deps.Gateway,
		SecretKey:  cfg.Gateway.PlatformSecretKey,
		Catalog:    catalog,
		SuccessURL: cfg.Billing.SuccessURL,
		CancelURL:  cfg.Billing.CancelURL,
		Logger:     logger,
	}
	processor := &billing.Processor{Tx: deps.Store, Catalog: catalog, Events: deps.Bus, Logger: logger}

	auditSvc := &audit.Service{Store: queries, Enabled: cfg.Audit.Enabled, SamplingRate: cfg.Audit.SamplingRate}

	probes := []health.Probe{
		{Name: "db", Timeout: 500 * time.Millisecond, Check: func(ctx context.Context) error { return deps.Pool.Ping(ctx) }},
		{Name: "redis", Timeout: 300 * time.Millisecond, Check: func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() }},
		{Name: "gateway", Optional: true, Check: func(context.Context) error {
			if deps.Breaker.State() == resilience.Open {
				return errors.New("circuit open")
			}
			return nil
		}},
	}

	api := app.API{
		Logger:      logger,
		Auth:        auth.Middleware{Tokens: tokens},
		Tenant:      tenant.NewResolver(tenant.DefaultHeader),
		StoreGuard:  storemw.StoreGuard{Checker: resolver, Logger: logger},
		Audit:       audit.HTTPRecorder{Service: auditSvc, OnError: func(err error) { logger.Error().Err(err).Msg("record audit") }},
		Idempotency: idem.Middleware,
		RateLimit:   limit.Middleware,

		Orders:   &order.Handler{Svc: &order.Service{Q: queries}, Logger: logger},
		Checkout: &checkout.Handler{Svc: checkoutSvc, Logger: logger},
		Payments: &payment.Handler{Svc: paymentSvc, Logger: logger},
		PaymentWebhook: &payment.WebhookHandler{
			Verifier: &webhooks.Verifier{
				Source:       webhooks.StoreSecret{Resolver: resolver, URLParam: "storeId"},
				Surface:      "storefront",
				MaxBodyBytes: cfg.HTTP.WebhookMaxBodyBytes,
				Logger:       logger,
			},
			Reconciler: reconciler,
			Logger:     logger,
		},
		Billing: &billing.Handler{Checkout: billingCheckout, Subscriptions: queries, Logger: logger},
		BillingWebhook: &billing.WebhookHandler{
			Verifier: &webhooks.Verifier{
				Source:       webhooks.StaticSecret(cfg.Gateway.PlatformWebhookSecret),
				Surface:      "platform",
				MaxBodyBytes: cfg.HTTP.WebhookMaxBodyBytes,
				Logger:       logger,
			},
			Processor: processor,
			Logger:    logger,
		},
		Credentials: &credentials.Handler{Svc: &credentials.Service{Tx: deps.Store, Resolver: resolver}, Logger: logger},
		Health:      health.Handler{Probes: probes},

		HTTPMetrics:    httpMetrics,
		MetricsHandler: promhttp.Handler(),
		Tracing:        tracingEnabled,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		Headers:        security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production", HSTSMaxAge: 31536000, NoStore: true},
		BodyLimit:      security.BodyLimit{Max: jsonBodyLimit, SkipPrefixes: []string{"/api/v1/webhooks/", "/api/v1/billing/webhook"}},
	}

	if user := strings.TrimSpace(os.Getenv("SECURE_PPROF_BASIC_AUTH_USER")); user != "" {
		api.Debug = protectPprof(newPprofMux(), user, os.Getenv("SECURE_PPROF_BASIC_AUTH_PASS"))
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
		health.SetReady(false)
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}
}

// newPprofMux serves the profiles under their full /debug/pprof paths; chi's
// Mount leaves the request path untouched.
func newPprofMux() http.Handler {
	const prefix = "/debug/pprof"
	mux := http.NewServeMux()
	mux.HandleFunc(prefix+"/", pprof.Index)
	mux.HandleFunc(prefix+"/cmdline", pprof.Cmdline)
	mux.HandleFunc(prefix+"/profile", pprof.Profile)
	mux.HandleFunc(prefix+"/symbol", pprof.Symbol)
	mux.HandleFunc(prefix+"/trace", pprof.Trace)
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle(prefix+"/"+name, pprof.Handler(name))
	}
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	pass = strings.TrimSpace(pass)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
