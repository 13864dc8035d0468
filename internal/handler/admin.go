package handler

import (
	"net/http"
	"time"

	"github.com/menezmethod/salute/internal/middleware"
	"github.com/menezmethod/salute/internal/router"
)

// AdminStats handles GET /api/admin/stats. The route is guarded by the
// auth and role middleware, so a principal is always attached here.
func AdminStats(started time.Time) router.Handler {
	return func(req *router.Request, res *router.Response) error {
		p, _ := middleware.PrincipalFrom(req)

		payload := map[string]any{
			"uptime":     time.Since(started).Seconds(),
			"totalUsers": len(mockUsers),
		}
		if p != nil {
			payload["requestedBy"] = p.Email
		}
		return res.Success(http.StatusOK, payload)
	}
}
