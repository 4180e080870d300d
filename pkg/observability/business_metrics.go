package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Gateway call metrics (token, preOrder, queryOrder, refund)
	gatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telebirr_gateway_requests_total",
		Help: "Total number of requests to the Telebirr fabric gateway",
	}, []string{
		"operation", // token, preorder, query, refund
		"status",    // HTTP status code or "transport_error"
	})

	gatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "telebirr_gateway_request_duration_seconds",
		Help: "Duration of Telebirr gateway requests",
		// Gateway calls regularly take seconds during peak hours
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{
		"operation",
	})

	// Order lifecycle metrics
	ordersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_orders_total",
		Help: "Total number of payment orders created",
	}, []string{
		"result", // success, failed
	})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_notifications_total",
		Help: "Total number of asynchronous payment notifications processed",
	}, []string{
		"result", // accepted, invalid_signature, invalid_payload
		"status", // mapped local status, or "none" when rejected
	})

	refundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_refunds_total",
		Help: "Total number of refund requests submitted",
	}, []string{
		"result", // success, failed
	})

	// Token cache metrics
	tokenCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fabric_token_cache_hits_total",
		Help: "Total number of fabric token cache hits",
	})

	tokenCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fabric_token_cache_misses_total",
		Help: "Total number of fabric token cache misses",
	}, []string{"reason"}) // expired, not_found, forced
)

// RecordGatewayRequest records one outbound gateway call
func RecordGatewayRequest(operation, status string, duration time.Duration) {
	gatewayRequestsTotal.WithLabelValues(operation, status).Inc()
	gatewayRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordOrder records the outcome of an order creation
func RecordOrder(result string) {
	ordersTotal.WithLabelValues(result).Inc()
}

// RecordNotification records the outcome of a notification
func RecordNotification(result, status string) {
	notificationsTotal.WithLabelValues(result, status).Inc()
}

// RecordRefund records the outcome of a refund submission
func RecordRefund(result string) {
	refundsTotal.WithLabelValues(result).Inc()
}

// RecordTokenCacheHit records a fabric token served from cache
func RecordTokenCacheHit() {
	tokenCacheHits.Inc()
}

// RecordTokenCacheMiss records a fabric token cache miss
func RecordTokenCacheMiss(reason string) {
	tokenCacheMisses.WithLabelValues(reason).Inc()
}
