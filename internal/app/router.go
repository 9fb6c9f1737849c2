package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-billing/internal/audit"
	"github.com/noah-isme/toko-billing/internal/auth"
	"github.com/noah-isme/toko-billing/internal/billing"
	"github.com/noah-isme/toko-billing/internal/checkout"
	"github.com/noah-isme/toko-billing/internal/credentials"
	"github.com/noah-isme/toko-billing/internal/health"
	storemw "github.com/noah-isme/toko-billing/internal/http/middleware"
	"github.com/noah-isme/toko-billing/internal/obs"
	"github.com/noah-isme/toko-billing/internal/order"
	"github.com/noah-isme/toko-billing/internal/payment"
	"github.com/noah-isme/toko-billing/internal/security"
	"github.com/noah-isme/toko-billing/internal/tenant"
)

// API collects the handlers and middleware the router mounts. Nil optional
// middleware is skipped.
type API struct {
	Logger zerolog.Logger

	Auth        auth.Middleware
	Tenant      *tenant.Resolver
	StoreGuard  storemw.StoreGuard
	Audit       audit.HTTPRecorder
	Idempotency func(http.Handler) http.Handler
	RateLimit   func(http.Handler) http.Handler

	Orders         *order.Handler
	Checkout       *checkout.Handler
	Payments       *payment.Handler
	PaymentWebhook *payment.WebhookHandler
	Billing        *billing.Handler
	BillingWebhook *billing.WebhookHandler
	Credentials    *credentials.Handler
	Health         health.Handler

	HTTPMetrics    *obs.HTTPMetrics
	MetricsHandler http.Handler
	// Debug is mounted at /debug/pprof when set.
	Debug          http.Handler
	Tracing        bool
	CORSOrigins    []string
	Headers        security.Headers
	BodyLimit      security.BodyLimit
}

func optional(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}

// Router builds the chi router. Business routes live under /api/v1; probes
// and metrics are at the root.
func (a API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if a.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if a.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: a.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: a.Logger}.Middleware)
	r.Use(a.Headers.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(a.CORSOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", tenant.DefaultHeader},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(a.BodyLimit.Middleware)

	if a.MetricsHandler != nil {
		r.Handle("/metrics", a.MetricsHandler)
	}
	if a.Debug != nil {
		r.Mount("/debug/pprof", a.Debug)
	}
	r.Get("/health/live", a.Health.Live)
	r.Get("/health/ready", a.Health.Ready)

	idem := optional(a.Idempotency)
	limit := optional(a.RateLimit)

	r.Route("/api/v1", func(v chi.Router) {
		// signed by the gateway, no bearer token
		v.Post("/webhooks/payment/{storeId}", a.PaymentWebhook.Handle)
		v.Post("/billing/webhook", a.BillingWebhook.Handle)

		v.Group(func(authed chi.Router) {
			authed.Use(a.Auth.Authenticate)

			authed.Group(func(u chi.Router) {
				u.Use(auth.RequireUser)
				u.Route("/stores/{storeId}", func(s chi.Router) {
					s.Use(a.Tenant.Middleware)
					s.With(limit, idem).Post("/orders", a.Checkout.CreateOrder)
				})
				u.Get("/orders/{orderId}", a.Orders.Get)
				u.With(limit, idem).Post("/checkout/{orderId}", a.Payments.Intent)
			})

			authed.Group(func(m chi.Router) {
				m.Use(auth.RequireMerchant)
				m.Route("/billing", func(b chi.Router) {
					b.With(limit, idem).Post("/checkout", a.Billing.CreateCheckout)
					b.Get("/subscription", a.Billing.Subscription)
				})
				m.Route("/integrations/payment-gateway", func(g chi.Router) {
					g.Use(a.Tenant.Middleware)
					g.Use(a.StoreGuard.Middleware)
					g.Get("/", a.Credentials.Get)
					g.With(a.Audit.Middleware(audit.HTTPConfig{
						Action:       "integration.payment_gateway.update",
						ResourceType: "payment_gateway",
						BodyFields:   true,
					})).Post("/", a.Credentials.Update)
				})
			})
		})
	})
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
