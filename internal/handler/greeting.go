// Package handler implements the demo API endpoints: greeting, users,
// health, and the root discovery payload. Handlers are thin: they consume
// the router's request/response abstractions and lean on the envelope for
// output shape.
package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/menezmethod/salute/internal/router"
)

// Greeting handles GET /api. An empty or whitespace-only name falls back to
// "World". The x-trigger-error header forces an error escape so the 500
// path stays demonstrable.
func Greeting() router.Handler {
	return func(req *router.Request, res *router.Response) error {
		if req.Header.Get("x-trigger-error") == "true" {
			return errors.New("intentional error triggered for demonstration")
		}

		name := strings.TrimSpace(req.Query.Get("name"))
		if name == "" {
			name = "World"
		}

		return res.Success(http.StatusOK, map[string]any{
			"message": "Hello " + name,
		})
	}
}

// Echo handles POST /api: it answers 201 with the request body echoed back.
func Echo() router.Handler {
	return func(req *router.Request, res *router.Response) error {
		var body any
		if len(req.Body) > 0 {
			if err := req.JSON(&body); err != nil {
				return err
			}
		}
		return res.Success(http.StatusCreated, map[string]any{
			"received": body,
		})
	}
}
