package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxBodyBytes caps how much of a request body is buffered.
const maxBodyBytes = 1 << 20 // 1 MB

// Request is the per-request value object handed to middleware and
// handlers. It is created once by the Router and mutated only to attach
// derived fields (path params, request id, principal) as the pipeline runs.
type Request struct {
	Method string
	Path   string
	URL    *url.URL
	Query  url.Values
	Params map[string]string
	Header http.Header
	Body   []byte

	// ID is the request id, assigned by the logging middleware.
	ID string

	// Route is the pattern of the matched route, set at dispatch time.
	// Empty until a route matches (and for 404s).
	Route string

	// Raw is the origin request handle, for context access and anything
	// the value object does not model.
	Raw *http.Request

	values map[any]any
}

// newRequest builds a Request from the incoming http.Request, buffering
// the body so middleware and handlers can read it independently.
func newRequest(r *http.Request) (*Request, error) {
	var body []byte
	if r.Body != nil {
		b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}
		body = b
	}

	return &Request{
		Method: r.Method,
		Path:   normalizePath(r.URL.Path),
		URL:    r.URL,
		Query:  r.URL.Query(),
		Params: map[string]string{},
		Header: r.Header,
		Body:   body,
		Raw:    r,
	}, nil
}

// normalizePath trims a single trailing slash so "/api/" and "/api" hit the
// same route. The root path is left alone.
func normalizePath(p string) string {
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		return strings.TrimSuffix(p, "/")
	}
	return p
}

// JSON unmarshals the buffered body into v.
func (r *Request) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// SetValue attaches a derived per-request value (e.g. the authenticated
// principal) for downstream middleware and handlers.
func (r *Request) SetValue(key, val any) {
	if r.values == nil {
		r.values = map[any]any{}
	}
	r.values[key] = val
}

// Value retrieves a value previously attached with SetValue.
func (r *Request) Value(key any) any {
	if r.values == nil {
		return nil
	}
	return r.values[key]
}

// ClientIP derives the client address from proxy headers, preferring
// X-Forwarded-For, then X-Real-IP, falling back to a loopback placeholder.
func (r *Request) ClientIP() string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	return "127.0.0.1"
}
