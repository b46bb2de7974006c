package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront/internal/metrics"
)

// Logging logs every request with its outcome. Failures are logged at warn
// (HTTP errors) or error (transport errors), the rest at debug.
func Logging(log logrus.FieldLogger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			entry := log.WithFields(logrus.Fields{
				"method":     req.Method,
				"url":        req.URL.Redacted(),
				"request_id": req.Header.Get(RequestIDHeader),
				"duration":   time.Since(start),
			})
			switch {
			case err != nil:
				entry.WithError(err).Error("request failed")
			case resp.StatusCode >= http.StatusBadRequest:
				entry.WithField("status", resp.StatusCode).Warn("request returned error status")
			default:
				entry.WithField("status", resp.StatusCode).Debug("request completed")
			}
			return resp, err
		})
	}
}

// Metrics records request counts, latency and in-flight requests.
func Metrics() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			metrics.APIInFlight.Inc()
			defer metrics.APIInFlight.Dec()

			start := time.Now()
			resp, err := next.RoundTrip(req)
			metrics.APIDuration.WithLabelValues(req.Method, req.URL.Host).Observe(time.Since(start).Seconds())

			status := "error"
			if err == nil {
				status = strconv.Itoa(resp.StatusCode)
			}
			metrics.APIRequests.WithLabelValues(req.Method, req.URL.Host, status).Inc()
			return resp, err
		})
	}
}
