package handler

import (
	"net/http"
	"time"

	"github.com/menezmethod/salute/internal/router"
	"github.com/menezmethod/salute/internal/version"
)

// Health handles GET /api/health. It always reports healthy while the
// process is up; uptime is seconds since the server was constructed.
func Health(started time.Time) router.Handler {
	return func(req *router.Request, res *router.Response) error {
		return res.Success(http.StatusOK, map[string]any{
			"healthy": true,
			"uptime":  time.Since(started).Seconds(),
			"version": version.Version,
		})
	}
}
