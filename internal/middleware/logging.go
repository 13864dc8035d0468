package middleware

import (
	"log/slog"
	"math/rand"
	"strconv"
	"time"

	"github.com/menezmethod/salute/internal/router"
)

const (
	requestIDPrefix  = "req"
	requestIDRandLen = 9
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewRequestID generates an id of the form req_<unix-ms>_<9-char base36>.
func NewRequestID() string {
	suffix := make([]byte, requestIDRandLen)
	for i := range suffix {
		suffix[i] = base36[rand.Intn(len(base36))]
	}
	return requestIDPrefix + "_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + string(suffix)
}

// Logging returns middleware that assigns each request an id, echoes it as
// X-Request-ID, and emits one structured log line when the response is
// finalized, whichever stage finalizes it, including the router's own
// 404/500 synthesis. Emission happens on a separate goroutine so logging
// never blocks the response path.
func Logging(logger *slog.Logger) router.Middleware {
	return func(req *router.Request, res *router.Response, next router.Next) error {
		start := time.Now()
		req.ID = NewRequestID()
		res.Header().Set("X-Request-ID", req.ID)

		res.OnFinalize(func(r *router.Response) {
			attrs := []any{
				"requestId", req.ID,
				"method", req.Method,
				"path", req.Path,
				"ip", req.ClientIP(),
				"status", r.StatusCode(),
				"durationMs", time.Since(start).Milliseconds(),
				"bytes", len(r.Body()),
			}
			if r.StatusCode() >= 400 {
				attrs = append(attrs, "responseBody", string(r.Body()))
			}
			go logger.Info("request", attrs...)
		})

		return next()
	}
}
