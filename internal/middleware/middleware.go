// Package middleware decorates the outbound API transport.
package middleware

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Middleware wraps a RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain wraps base so that mws[0] sees the request first.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	rt := base
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}

// NewTransport builds the outbound chain used by the API client:
// request id, logging, metrics, bearer auth, 401 classification, then the
// traced base transport.
func NewTransport(base http.RoundTripper, tokens TokenSource, hooks UnauthorizedHooks, log logrus.FieldLogger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return Chain(otelhttp.NewTransport(base),
		RequestID(),
		Logging(log),
		Metrics(),
		BearerAuth(tokens, log),
		Unauthorized(DefaultEndpointPolicy, hooks, log),
	)
}
