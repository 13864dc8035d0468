// Package router implements the request routing and middleware pipeline
// engine: path-parameter matching, ordered middleware composition with a
// single-invocation-of-next guard, a buffered single-finalize response, and
// centralized conversion of escaped errors into error envelopes.
package router

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/menezmethod/salute/internal/apierror"
)

// Route is one entry in the route table: immutable once registered.
type Route struct {
	Method  string
	Pattern string
	Handler Handler
}

// Router owns the route table and the global middleware list. Both are
// written only during startup configuration and read-only at request time,
// so dispatch needs no locking.
type Router struct {
	routes     []Route
	middleware []Middleware
	logger     *slog.Logger

	// IncludeStacks controls whether converted 500s carry a stack trace
	// (development mode only).
	IncludeStacks bool
}

// New creates an empty Router. Construct one per server (or per test);
// there is no package-level singleton.
func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{logger: logger}
}

// Register appends a route. There is no deduplication or conflict
// detection: the first matching route in registration order wins.
func (rt *Router) Register(method, pattern string, h Handler) {
	rt.routes = append(rt.routes, Route{Method: method, Pattern: pattern, Handler: h})
}

// Use appends a global middleware, executed before route dispatch for every
// request in registration order.
func (rt *Router) Use(mw Middleware) {
	rt.middleware = append(rt.middleware, mw)
}

// Mount copies the sub-router's routes into this router's table with prefix
// prepended. A trailing slash on the prefix is trimmed, and a child pattern
// of "/" or "" maps to the bare prefix so the combined path does not gain a
// spurious trailing slash.
func (rt *Router) Mount(prefix string, sub *Router) {
	prefix = strings.TrimSuffix(prefix, "/")
	for _, r := range sub.routes {
		combined := prefix + r.Pattern
		if r.Pattern == "/" || r.Pattern == "" {
			combined = prefix
		}
		rt.routes = append(rt.routes, Route{Method: r.Method, Pattern: combined, Handler: r.Handler})
	}
}

// Routes returns a copy of the route table (for discovery payloads).
func (rt *Router) Routes() []Route {
	out := make([]Route, len(rt.routes))
	copy(out, rt.routes)
	return out
}

// ServeHTTP runs one request through the pipeline. It always answers
// exactly once: errors and panics escaping middleware or handlers are
// converted to error envelopes here, never propagated to the caller.
func (rt *Router) ServeHTTP(w http.ResponseWriter, raw *http.Request) {
	start := time.Now()

	req, err := newRequest(raw)
	if err != nil {
		req = &Request{
			Method: raw.Method,
			Path:   normalizePath(raw.URL.Path),
			URL:    raw.URL,
			Query:  raw.URL.Query(),
			Params: map[string]string{},
			Header: raw.Header,
			Raw:    raw,
		}
	}
	res := newResponse(req, start)

	rt.run(req, res, err)
	res.flush(w)
}

// run executes the pipeline against an already-built request/response pair.
// Split from ServeHTTP so the panic recovery window covers exactly the
// middleware chain and handler, not the final flush.
func (rt *Router) run(req *Request, res *Response, readErr error) {
	defer func() {
		if v := recover(); v != nil {
			rt.logger.Error("panic in request pipeline",
				"method", req.Method,
				"path", req.Path,
				"panic", v,
			)
			rt.respondError(res, apierror.FromPanic(v, rt.IncludeStacks))
		}
	}()

	if readErr != nil {
		rt.respondError(res, apierror.Internal("failed to read request body"))
		return
	}

	pipeline := Compose(rt.middleware, rt.dispatch)
	if err := pipeline(req, res); err != nil {
		rt.respondError(res, apierror.From(err, rt.IncludeStacks))
		return
	}

	// Middleware may legitimately finish without finalizing (e.g. a chain
	// that never calls next); everything else should have answered by now.
	if !res.Finalized() {
		rt.respondError(res, apierror.NotFound(req.Method, req.Path))
	}
}

// dispatch is the terminal stage of the global chain: scan the route table
// in registration order for a method + pattern match, bind params, invoke
// the handler. No match falls through to a 404; method mismatches are not
// distinguished from unknown paths (no 405 is ever emitted).
func (rt *Router) dispatch(req *Request, res *Response) error {
	if res.Finalized() {
		return nil
	}

	for _, r := range rt.routes {
		if r.Method != req.Method {
			continue
		}
		params, ok := MatchPath(r.Pattern, req.Path)
		if !ok {
			continue
		}
		for k, v := range params {
			req.Params[k] = v
		}
		req.Route = r.Pattern
		return r.Handler(req, res)
	}

	return res.Fail(apierror.NotFound(req.Method, req.Path))
}

// respondError finalizes the response with an error envelope unless a body
// was already sent, in which case the error is only logged: the single
// finalize invariant wins over the error report.
func (rt *Router) respondError(res *Response, apiErr *apierror.Error) {
	if err := res.Fail(apiErr); err != nil {
		rt.logger.Error("error after response finalized",
			"code", apiErr.Code,
			"err", apiErr.Message,
		)
	}
}
