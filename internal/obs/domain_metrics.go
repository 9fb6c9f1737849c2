package obs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutIntentTotal counts checkout intent and session outcomes by surface.
	CheckoutIntentTotal *prometheus.CounterVec
	// WebhookVerificationTotal counts signature verification outcomes by surface.
	WebhookVerificationTotal *prometheus.CounterVec
	// PaymentReconcileTotal counts reconciler outcomes.
	PaymentReconcileTotal *prometheus.CounterVec
	// PaymentAmountMismatchTotal counts payments whose gateway amount differs from the order payable.
	PaymentAmountMismatchTotal prometheus.Counter
	// SubscriptionEventTotal counts subscription events by type and outcome.
	SubscriptionEventTotal *prometheus.CounterVec
	// GatewayRequestDuration records outbound gateway latency in milliseconds.
	GatewayRequestDuration *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutIntentTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_intent_total",
			Help:      "Checkout intent and session creation outcomes.",
		}, []string{"surface", "result"}))
		WebhookVerificationTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_verification_total",
			Help:      "Inbound webhook signature verification outcomes.",
		}, []string{"surface", "result"}))
		PaymentReconcileTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_reconcile_total",
			Help:      "Storefront payment reconciliation outcomes.",
		}, []string{"outcome"}))
		PaymentAmountMismatchTotal = registerOrReuse(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_amount_mismatch_total",
			Help:      "Payments recorded with an amount different from the order payable.",
		}))
		SubscriptionEventTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_event_total",
			Help:      "Platform billing events by type and outcome.",
		}, []string{"event", "outcome"}))
		GatewayRequestDuration = registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_ms",
			Help:      "Outbound payment gateway call latency in milliseconds.",
			Buckets:   []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"operation", "result"}))
	})
}

// registerOrReuse registers c, returning the already registered collector
// of the same type when one exists.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
	return c
}

// IncCounter increments a labelled counter when it is registered.
func IncCounter(vec *prometheus.CounterVec, labels ...string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(labels...).Inc()
}
