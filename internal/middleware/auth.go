package middleware

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/menezmethod/salute/internal/apierror"
	"github.com/menezmethod/salute/internal/router"
)

// contextKey is an unexported type for per-request value keys in this package.
type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated identity decoded from a bearer token.
// Attached to the request for the remainder of the pipeline, never persisted.
type Principal struct {
	Subject   string
	Email     string
	Role      string
	IssuedAt  int64
	ExpiresAt int64
}

// AuthConfig configures the authentication middleware.
type AuthConfig struct {
	// Required rejects requests without a token. When false, a missing
	// token passes through silently; a present-but-invalid token is still
	// rejected.
	Required bool

	// now is the clock used for expiry checks, injectable for tests.
	now func() time.Time
}

// Auth returns middleware that decodes a three-part dot-delimited bearer
// token (the middle segment base64-decodes to a JSON claims object),
// validates the five required claims, and attaches the Principal to the
// request. No cryptographic signature verification is performed.
func Auth(cfg AuthConfig) router.Middleware {
	now := cfg.now
	if now == nil {
		now = time.Now
	}

	return func(req *router.Request, res *router.Response, next router.Next) error {
		token, ok := extractBearerToken(req)
		if !ok {
			if cfg.Required {
				return res.Fail(apierror.TokenMissing())
			}
			return next()
		}

		p, err := DecodeToken(token, now())
		if err != nil {
			return res.Fail(apierror.TokenInvalid(err.Error()))
		}

		req.SetValue(principalKey, p)
		return next()
	}
}

// PrincipalFrom retrieves the principal attached by Auth, if any.
func PrincipalFrom(req *router.Request) (*Principal, bool) {
	p, ok := req.Value(principalKey).(*Principal)
	return p, ok
}

// RequireRole returns middleware that demands an authenticated principal
// whose role is in the allowed set. Run it after Auth.
func RequireRole(roles ...string) router.Middleware {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(req *router.Request, res *router.Response, next router.Next) error {
		p, ok := PrincipalFrom(req)
		if !ok {
			return res.Fail(apierror.UserRequired())
		}
		if !allowed[p.Role] {
			return res.Fail(apierror.InsufficientRole(p.Role))
		}
		return next()
	}
}

// tokenError is a decode failure; its message ends up in the 401 envelope.
type tokenError string

func (e tokenError) Error() string { return string(e) }

// DecodeToken parses a three-part token and validates its claims. All five
// claims (sub, email, role, iat, exp) are type-checked, not just
// presence-checked, and exp at or before now is rejected.
func DecodeToken(token string, now time.Time) (*Principal, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, tokenError("token must have three dot-separated segments")
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, tokenError("token payload is not valid base64")
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, tokenError("token payload is not valid JSON")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, tokenError("token is missing claim sub")
	}
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return nil, tokenError("token is missing claim email")
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return nil, tokenError("token is missing claim role")
	}
	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, tokenError("token is missing claim iat")
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, tokenError("token is missing claim exp")
	}

	if int64(exp) <= now.Unix() {
		return nil, tokenError("token has expired")
	}

	return &Principal{
		Subject:   sub,
		Email:     email,
		Role:      role,
		IssuedAt:  int64(iat),
		ExpiresAt: int64(exp),
	}, nil
}

// decodeSegment accepts both URL-safe and standard base64, padded or not.
func decodeSegment(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// extractBearerToken parses the Authorization header for a Bearer token.
func extractBearerToken(req *router.Request) (string, bool) {
	h := req.Header.Get("Authorization")
	if h == "" {
		return "", false
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}

	token := strings.TrimSpace(h[len(prefix):])
	if token == "" {
		return "", false
	}

	return token, true
}
