package middleware

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront/internal/metrics"
)

// EndpointPolicy reports whether a 401 from req must end the session.
type EndpointPolicy func(req *http.Request) bool

// DefaultEndpointPolicy treats authentication, order and checkout resources
// as critical. Cart paths are never critical, even when they live under an
// order service prefix.
func DefaultEndpointPolicy(req *http.Request) bool {
	path := req.URL.Path
	if strings.Contains(path, "/cart") {
		return false
	}
	return strings.Contains(path, "/auth/") ||
		strings.HasSuffix(path, "/orders") ||
		strings.Contains(path, "/orders/") ||
		strings.Contains(path, "/checkout")
}

// UnauthorizedHooks are called when a 401 is classified.
type UnauthorizedHooks struct {
	OnCritical    func(req *http.Request)
	OnNonCritical func(req *http.Request)
}

// Unauthorized classifies 401 responses. The response is passed through
// unchanged in both cases.
func Unauthorized(policy EndpointPolicy, hooks UnauthorizedHooks, log logrus.FieldLogger) Middleware {
	if policy == nil {
		policy = DefaultEndpointPolicy
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}

			entry := log.WithFields(logrus.Fields{
				"method":     req.Method,
				"url":        req.URL.Path,
				"request_id": req.Header.Get(RequestIDHeader),
				"has_auth":   req.Header.Get("Authorization") != "",
			})

			if policy(req) {
				metrics.Unauthorized.WithLabelValues("critical").Inc()
				entry.Error("authentication failed on critical endpoint, ending session")
				if hooks.OnCritical != nil {
					hooks.OnCritical(req)
				}
				return resp, nil
			}

			metrics.Unauthorized.WithLabelValues("non_critical").Inc()
			entry.Warn("401 on non-critical endpoint, session kept")
			if hooks.OnNonCritical != nil {
				hooks.OnNonCritical(req)
			}
			return resp, nil
		})
	}
}
