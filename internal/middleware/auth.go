package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront/internal/metrics"
)

// TokenSource supplies the current bearer token.
type TokenSource interface {
	Token() string
	TokenExpired(now time.Time) bool
}

func isAuthEndpoint(path string) bool {
	return strings.Contains(path, "/auth/login") || strings.Contains(path, "/auth/register")
}

// BearerAuth attaches "Authorization: Bearer <token>" to every request except
// login and registration. A token already known to be expired is still sent;
// the server decides, and the 401 that follows is classified downstream.
func BearerAuth(tokens TokenSource, log logrus.FieldLogger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if isAuthEndpoint(req.URL.Path) {
				return next.RoundTrip(req)
			}

			token := cleanToken(tokens.Token())
			if token == "" {
				log.WithField("url", req.URL.Path).Debug("no token available for request")
				return next.RoundTrip(req)
			}

			if tokens.TokenExpired(time.Now()) {
				metrics.ExpiredTokenSends.Inc()
				log.WithField("url", req.URL.Path).Warn("token is expired, request will likely fail with 401")
			}

			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+token)
			return next.RoundTrip(req)
		})
	}
}

// cleanToken drops surrounding quotes left by JSON-encoded storage.
func cleanToken(token string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(token), `"`))
}
