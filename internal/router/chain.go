package router

import "fmt"

// Handler is the terminal pipeline stage: the business function for a route.
type Handler func(req *Request, res *Response) error

// Next advances the middleware chain by one step. Each middleware may call
// its Next at most once.
type Next func() error

// Middleware is a pipeline stage. It may finalize the response and return
// without calling next (short-circuit), or call next exactly once to hand
// off to the following stage.
type Middleware func(req *Request, res *Response, next Next) error

// nextState guards single invocation of a step's continuation.
type nextState int

const (
	nextNotCalled nextState = iota
	nextCalled
)

// Compose builds a single Handler that runs each middleware in order and
// then the terminal handler. Registration order is execution order; an
// empty middleware list degenerates to the terminal handler.
//
// Each step's next is bound to the step after it and tracks a
// NotCalled/Called state: a second invocation is a programming error and
// returns an error rather than re-entering the chain.
func Compose(mw []Middleware, terminal Handler) Handler {
	return func(req *Request, res *Response) error {
		var run func(i int) error
		run = func(i int) error {
			if i == len(mw) {
				return terminal(req, res)
			}
			state := nextNotCalled
			next := func() error {
				if state == nextCalled {
					return fmt.Errorf("next() called multiple times in middleware %d", i)
				}
				state = nextCalled
				return run(i + 1)
			}
			return mw[i](req, res, next)
		}
		return run(0)
	}
}

// Wrap applies route-level middleware around a handler, producing a new
// handler. The first middleware listed is the outermost.
func Wrap(h Handler, mw ...Middleware) Handler {
	return Compose(mw, h)
}
