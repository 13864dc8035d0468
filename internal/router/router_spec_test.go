package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/menezmethod/salute/internal/apierror"
)

func newTestRouter() *Router {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type testEnvelope struct {
	Status   string         `json:"status"`
	Payload  map[string]any `json:"payload"`
	Error    map[string]any `json:"error"`
	Metadata map[string]any `json:"metadata"`
}

func do(rt *Router, method, target string, body io.Reader) (*httptest.ResponseRecorder, testEnvelope) {
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	var env testEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

var _ = Describe("Router", func() {
	It("dispatches to the first matching route and binds params", func() {
		rt := newTestRouter()
		rt.Register(http.MethodGet, "/users/:id", func(req *Request, res *Response) error {
			return res.Success(http.StatusOK, map[string]any{"id": req.Params["id"]})
		})

		rec, env := do(rt, http.MethodGet, "/users/42", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(env.Status).To(Equal("success"))
		Expect(env.Payload["id"]).To(Equal("42"))
	})

	It("prefers the first registered route when several match", func() {
		rt := newTestRouter()
		rt.Register(http.MethodGet, "/things/:id", func(req *Request, res *Response) error {
			return res.Success(http.StatusOK, map[string]any{"which": "first"})
		})
		rt.Register(http.MethodGet, "/things/special", func(req *Request, res *Response) error {
			return res.Success(http.StatusOK, map[string]any{"which": "second"})
		})

		_, env := do(rt, http.MethodGet, "/things/special", nil)
		Expect(env.Payload["which"]).To(Equal("first"))
	})

	It("answers 404 NOT_FOUND for an unmatched path", func() {
		rt := newTestRouter()
		rt.Register(http.MethodGet, "/api", func(req *Request, res *Response) error {
			return res.Success(http.StatusOK, nil)
		})

		rec, env := do(rt, http.MethodGet, "/api/unknown-xyz", nil)
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(env.Status).To(Equal("error"))
		Expect(env.Error["code"]).To(Equal(apierror.CodeNotFound))
	})

	It("answers 404 for a known path with an unmatched method", func() {
		rt := newTestRouter()
		rt.Register(http.MethodGet, "/api", func(req *Request, res *Response) error {
			return res.Success(http.StatusOK, nil)
		})

		rec, env := do(rt, http.MethodDelete, "/api", nil)
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(env.Error["code"]).To(Equal(apierror.CodeNotFound))
	})

	It("converts a handler error into a 500 envelope", func() {
		rt := newTestRouter()
		rt.Register(http.MethodGet, "/boom", func(req *Request, res *Response) error {
			return errContent
		})

		rec, env := do(rt, http.MethodGet, "/boom", nil)
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(env.Error["code"]).To(Equal(apierror.CodeInternal))
		Expect(env.Error["message"]).To(ContainSubstring("middleware exploded"))
	})

	It("converts a handler panic into a 500 envelope", func() {
		rt := newTestRouter()
		rt.Register(http.MethodGet, "/panic", func(req *Request, res *Response) error {
			panic("kaboom")
		})

		rec, env := do(rt, http.MethodGet, "/panic", nil)
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(env.Status).To(Equal("error"))
		Expect(env.Error["code"]).To(Equal(apierror.CodeUnknown))
	})

	It("passes *apierror.Error statuses through unchanged", func() {
		rt := newTestRouter()
		rt.Register(http.MethodGet, "/conflict", func(req *Request, res *Response) error {
			return apierror.Conflict("already exists")
		})

		rec, env := do(rt, http.MethodGet, "/conflict", nil)
		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(env.Error["code"]).To(Equal(apierror.CodeConflict))
	})

	It("lets global middleware short-circuit before dispatch", func() {
		rt := newTestRouter()
		dispatched := false
		rt.Use(func(req *Request, res *Response, next Next) error {
			return res.NoContent(http.StatusNoContent)
		})
		rt.Register(http.MethodGet, "/", func(req *Request, res *Response) error {
			dispatched = true
			return nil
		})

		rec, _ := do(rt, http.MethodGet, "/", nil)
		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(dispatched).To(BeFalse())
	})

	It("runs global middleware in registration order", func() {
		rt := newTestRouter()
		var order []string
		mk := func(name string) Middleware {
			return func(req *Request, res *Response, next Next) error {
				order = append(order, name)
				return next()
			}
		}
		rt.Use(mk("a"))
		rt.Use(mk("b"))
		rt.Register(http.MethodGet, "/", func(req *Request, res *Response) error {
			order = append(order, "handler")
			return res.Success(http.StatusOK, nil)
		})

		do(rt, http.MethodGet, "/", nil)
		Expect(order).To(Equal([]string{"a", "b", "handler"}))
	})

	It("normalizes a trailing slash before matching", func() {
		rt := newTestRouter()
		rt.Register(http.MethodGet, "/api", func(req *Request, res *Response) error {
			return res.Success(http.StatusOK, map[string]any{"ok": true})
		})

		rec, _ := do(rt, http.MethodGet, "/api/", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("stamps metadata on every envelope, including synthesized errors", func() {
		rt := newTestRouter()

		_, env := do(rt, http.MethodGet, "/missing", nil)
		Expect(env.Metadata).To(HaveKey("timestamp"))
		Expect(env.Metadata).To(HaveKey("version"))
		Expect(env.Metadata).To(HaveKey("processingTimeMs"))
	})

	It("omits stack traces unless IncludeStacks is set", func() {
		rt := newTestRouter()
		rt.Register(http.MethodGet, "/boom", func(req *Request, res *Response) error {
			return errContent
		})

		_, env := do(rt, http.MethodGet, "/boom", nil)
		Expect(env.Error).NotTo(HaveKey("stack"))

		rt.IncludeStacks = true
		_, env = do(rt, http.MethodGet, "/boom", nil)
		Expect(env.Error).To(HaveKey("stack"))
	})
})

var _ = Describe("Mount", func() {
	echoPattern := func(req *Request, res *Response) error {
		return res.Success(http.StatusOK, map[string]any{"route": req.Route})
	}

	It("prefixes child patterns", func() {
		parent := newTestRouter()
		child := newTestRouter()
		child.Register(http.MethodGet, "/:id", echoPattern)
		parent.Mount("/api/users", child)

		_, env := do(parent, http.MethodGet, "/api/users/9", nil)
		Expect(env.Payload["route"]).To(Equal("/api/users/:id"))
	})

	It("maps a child pattern of / to the bare prefix", func() {
		parent := newTestRouter()
		child := newTestRouter()
		child.Register(http.MethodGet, "/", echoPattern)
		parent.Mount("/api/users", child)

		rec, env := do(parent, http.MethodGet, "/api/users", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(env.Payload["route"]).To(Equal("/api/users"))
	})

	It("trims a trailing slash on the prefix", func() {
		parent := newTestRouter()
		child := newTestRouter()
		child.Register(http.MethodGet, "/list", echoPattern)
		parent.Mount("/api/items/", child)

		rec, _ := do(parent, http.MethodGet, "/api/items/list", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})
})
