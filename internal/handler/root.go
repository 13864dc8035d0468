package handler

import (
	"net/http"
	"sort"

	"github.com/menezmethod/salute/internal/router"
	"github.com/menezmethod/salute/internal/version"
)

// Root handles GET / with a static discovery payload listing every
// registered endpoint. The route table is read after startup wiring, when
// it is already frozen.
func Root(rt *router.Router) router.Handler {
	return func(req *router.Request, res *router.Response) error {
		routes := rt.Routes()
		endpoints := make([]string, 0, len(routes))
		for _, r := range routes {
			endpoints = append(endpoints, r.Method+" "+r.Pattern)
		}
		sort.Strings(endpoints)

		return res.Success(http.StatusOK, map[string]any{
			"name":      "salute",
			"version":   version.Version,
			"endpoints": endpoints,
		})
	}
}
