package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the storefront collectors.
	Registry = prometheus.NewRegistry()

	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Outbound API requests by method, host and status.",
		},
		[]string{"method", "host", "status"},
	)

	APIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound API requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "host"},
	)

	APIInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "api",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight outbound requests.",
		},
	)

	ExpiredTokenSends = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "auth",
			Name:      "expired_token_requests_total",
			Help:      "Requests sent with a token already past its expiry.",
		},
	)

	Unauthorized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "auth",
			Name:      "unauthorized_total",
			Help:      "401 responses by endpoint class.",
		},
		[]string{"class"},
	)

	CartMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Local cart mutations by operation.",
		},
		[]string{"op"},
	)

	CartSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "syncs_total",
			Help:      "Backend cart syncs by direction and result.",
		},
		[]string{"direction", "result"},
	)

	CartItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "items",
			Help:      "Units currently in the local cart.",
		},
	)

	WishlistItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "wishlist",
			Name:      "items",
			Help:      "Products currently saved in the wishlist.",
		},
	)

	NotificationsReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "notify",
			Name:      "received_total",
			Help:      "Order status notifications received.",
		},
	)

	NotifyState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "notify",
			Name:      "state",
			Help:      "1 for the current notification channel state.",
		},
		[]string{"state"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		APIRequests,
		APIDuration,
		APIInFlight,
		ExpiredTokenSends,
		Unauthorized,
		CartMutations,
		CartSyncs,
		CartItems,
		WishlistItems,
		NotificationsReceived,
		NotifyState,
	)
}

// Handler exposes Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
