package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/menezmethod/salute/internal/apierror"
	"github.com/menezmethod/salute/internal/envelope"
)

// ErrAlreadySent is returned when a finalize call races a response that has
// already been finalized. The original output is left untouched.
var ErrAlreadySent = errors.New("response already sent")

// respState tracks the response lifecycle. A response moves from pending to
// sent exactly once; the Router flushes the buffer to the wire after the
// pipeline returns.
type respState int

const (
	statePending respState = iota
	stateSent
)

// Response is the buffered, single-finalize response builder. Middleware
// and handlers set headers freely while pending; exactly one of Send, JSON,
// Success, or Fail finalizes it.
type Response struct {
	req    *Request
	start  time.Time
	state  respState
	status int
	header http.Header
	body   []byte
	hooks  []func(*Response)
}

func newResponse(req *Request, start time.Time) *Response {
	return &Response{
		req:    req,
		start:  start,
		status: http.StatusOK,
		header: http.Header{},
	}
}

// Header returns the mutable response header map.
func (r *Response) Header() http.Header {
	return r.header
}

// Finalized reports whether the response has been sent.
func (r *Response) Finalized() bool {
	return r.state == stateSent
}

// StatusCode returns the finalized status (200 until finalized).
func (r *Response) StatusCode() int {
	return r.status
}

// Body returns the buffered body bytes.
func (r *Response) Body() []byte {
	return r.body
}

// OnFinalize registers a hook invoked exactly once, when the response is
// finalized. Used by the logging middleware to observe the final status and
// body regardless of which stage produced them.
func (r *Response) OnFinalize(fn func(*Response)) {
	r.hooks = append(r.hooks, fn)
}

// Send finalizes the response with a raw body.
func (r *Response) Send(status int, contentType string, body []byte) error {
	if r.state == stateSent {
		return ErrAlreadySent
	}
	r.state = stateSent
	r.status = status
	if contentType != "" {
		r.header.Set("Content-Type", contentType)
	}
	r.body = body
	for _, fn := range r.hooks {
		fn(r)
	}
	return nil
}

// JSON finalizes the response with an arbitrary JSON body. Prefer Success
// and Fail, which wrap the payload in the standard envelope.
func (r *Response) JSON(status int, v any) error {
	if r.state == stateSent {
		return ErrAlreadySent
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.Send(status, "application/json", b)
}

// Success finalizes the response with a success envelope around payload.
func (r *Response) Success(status int, payload any) error {
	return r.JSON(status, envelope.Success(payload, r.metadata()))
}

// Fail finalizes the response with an error envelope. The HTTP status is
// taken from the error itself.
func (r *Response) Fail(apiErr *apierror.Error) error {
	return r.JSON(apiErr.Status, envelope.Failure(apiErr, r.metadata()))
}

// NoContent finalizes the response with the given status and an empty body
// (used by the CORS preflight short-circuit).
func (r *Response) NoContent(status int) error {
	return r.Send(status, "", nil)
}

func (r *Response) metadata() envelope.Metadata {
	return envelope.NewMetadata(r.req.ID, r.start)
}

// flush writes the buffered response to the wire. Called exactly once by
// the Router after the pipeline has returned.
func (r *Response) flush(w http.ResponseWriter) {
	for k, vs := range r.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(r.status)
	if len(r.body) > 0 {
		_, _ = w.Write(r.body)
	}
}
