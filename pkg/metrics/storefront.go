package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "storefront"

// Outcome labels shared by the storefront collectors.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailure  = "failure"
)

// CartMetrics counts cart mutations and promotion attempts.
type CartMetrics struct {
	mutations  *prometheus.CounterVec
	promotions *prometheus.CounterVec
}

// NewCartMetrics registers the cart collectors on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Cart mutations by operation and outcome.",
	}, []string{"operation", "outcome"})
	promotions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_promotions_total",
		Help:      "Promotion code applications by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(mutations, promotions)
	return &CartMetrics{mutations: mutations, promotions: promotions}
}

// IncMutation records a cart operation outcome.
func (c *CartMetrics) IncMutation(operation, outcome string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// IncPromotion records whether a promotion code was accepted.
func (c *CartMetrics) IncPromotion(outcome string) {
	if c == nil || c.promotions == nil {
		return
	}
	c.promotions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// CheckoutMetrics records order placement results.
type CheckoutMetrics struct {
	orders          *prometheus.CounterVec
	orderValue      *prometheus.HistogramVec
	paymentDuration *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout collectors on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_total",
		Help:      "Checkout attempts by payment method and outcome.",
	}, []string{"payment_method", "outcome"})
	orderValue := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_value",
		Help:      "Order totals of placed orders, in store currency.",
		Buckets:   []float64{10, 25, 50, 100, 200, 500, 1000, 2500, 5000},
	}, []string{"currency"})
	paymentDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "payment_duration_seconds",
		Help:      "Latency of payment gateway charges.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"payment_method"})
	reg.MustRegister(orders, orderValue, paymentDuration)
	return &CheckoutMetrics{orders: orders, orderValue: orderValue, paymentDuration: paymentDuration}
}

// IncOrder records a checkout outcome.
func (c *CheckoutMetrics) IncOrder(paymentMethod, outcome string) {
	if c == nil || c.orders == nil {
		return
	}
	c.orders.WithLabelValues(normalizeLabel(paymentMethod), normalizeLabel(outcome)).Inc()
}

// ObserveOrderValue records the total of a placed order.
func (c *CheckoutMetrics) ObserveOrderValue(currency string, total decimal.Decimal) {
	if c == nil || c.orderValue == nil {
		return
	}
	c.orderValue.WithLabelValues(normalizeLabel(currency)).Observe(total.InexactFloat64())
}

// ObservePayment records how long a gateway charge took.
func (c *CheckoutMetrics) ObservePayment(paymentMethod string, duration time.Duration) {
	if c == nil || c.paymentDuration == nil {
		return
	}
	c.paymentDuration.WithLabelValues(normalizeLabel(paymentMethod)).Observe(duration.Seconds())
}

// HTTPMetrics records request latency by route pattern.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP collectors on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route, method and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
	reg.MustRegister(duration)
	return &HTTPMetrics{duration: duration}
}

// ObserveRequest records a finished request.
func (h *HTTPMetrics) ObserveRequest(route, method, status string, duration time.Duration) {
	if h == nil || h.duration == nil {
		return
	}
	h.duration.WithLabelValues(normalizeLabel(route), method, status).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
