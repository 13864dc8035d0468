// Package middleware provides the cross-cutting pipeline stages riding on
// the router: CORS, structured request logging, fixed-window rate limiting,
// bearer-token authentication with role authorization, schema validation,
// and Prometheus metrics.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/menezmethod/salute/internal/router"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins is the origin policy: ["*"] for wildcard, or an explicit
	// allow-list. A request origin that misses an explicit list gets the
	// literal header value "null" rather than no header at all.
	AllowOrigins []string

	AllowMethods  []string
	AllowHeaders  []string
	ExposeHeaders []string

	// MaxAge is the preflight cache duration in seconds (0 = no header).
	MaxAge int

	AllowCredentials bool

	// PreflightContinue passes OPTIONS requests down the chain instead of
	// short-circuiting with 204.
	PreflightContinue bool
}

// DefaultCORSConfig returns the permissive defaults used by the demo API.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		MaxAge:       3600,
	}
}

// CORS returns middleware that injects the configured CORS headers on every
// response and answers OPTIONS preflights with an empty 204 unless
// PreflightContinue is set.
func CORS(cfg CORSConfig) router.Middleware {
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}
	allowMethods := strings.Join(cfg.AllowMethods, ", ")
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ", ")

	return func(req *router.Request, res *router.Response, next router.Next) error {
		h := res.Header()
		h.Set("Access-Control-Allow-Origin", allowedOrigin(req.Header.Get("Origin"), cfg.AllowOrigins))
		if allowMethods != "" {
			h.Set("Access-Control-Allow-Methods", allowMethods)
		}
		if allowHeaders != "" {
			h.Set("Access-Control-Allow-Headers", allowHeaders)
		}
		if exposeHeaders != "" {
			h.Set("Access-Control-Expose-Headers", exposeHeaders)
		}
		if cfg.MaxAge > 0 {
			h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}
		if cfg.AllowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if req.Method == http.MethodOptions && !cfg.PreflightContinue {
			return res.NoContent(http.StatusNoContent)
		}
		return next()
	}
}

// allowedOrigin resolves the Allow-Origin value for a request origin.
// Wildcard lists always yield "*"; an explicit list echoes a matching
// origin and yields the literal "null" for everything else.
func allowedOrigin(origin string, allowed []string) string {
	for _, a := range allowed {
		if a == "*" {
			return "*"
		}
		if a == origin && origin != "" {
			return origin
		}
	}
	return "null"
}
