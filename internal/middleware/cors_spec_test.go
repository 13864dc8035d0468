package middleware

import (
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/menezmethod/salute/internal/router"
)

var _ = Describe("CORS", func() {
	send := func(cfg CORSConfig, method, origin string) (*httptest.ResponseRecorder, bool) {
		rt := router.New(discardLogger())
		rt.Use(CORS(cfg))
		dispatched := false
		rt.Register(method, "/api", func(req *router.Request, res *router.Response) error {
			dispatched = true
			return res.Success(http.StatusOK, nil)
		})

		req := httptest.NewRequest(method, "/api", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		rec := httptest.NewRecorder()
		rt.ServeHTTP(rec, req)
		return rec, dispatched
	}

	It("sets a wildcard origin for wildcard policy", func() {
		rec, _ := send(DefaultCORSConfig(), http.MethodGet, "https://anywhere.test")
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
	})

	It("echoes an origin found in an explicit allow-list", func() {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"https://a.test", "https://b.test"}
		rec, _ := send(cfg, http.MethodGet, "https://b.test")
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://b.test"))
	})

	It(`answers the literal "null" for an origin missing from an explicit list`, func() {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"https://a.test"}
		rec, _ := send(cfg, http.MethodGet, "https://evil.test")
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("null"))
	})

	It("short-circuits OPTIONS with an empty 204 and skips dispatch", func() {
		rec, dispatched := send(DefaultCORSConfig(), http.MethodOptions, "https://a.test")
		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(rec.Body.Len()).To(BeZero())
		// A bodyless 204 deliberately carries no Content-Type.
		Expect(rec.Header().Get("Content-Type")).To(BeEmpty())
		Expect(dispatched).To(BeFalse())
	})

	It("passes OPTIONS through when PreflightContinue is set", func() {
		cfg := DefaultCORSConfig()
		cfg.PreflightContinue = true
		rec, dispatched := send(cfg, http.MethodOptions, "https://a.test")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(dispatched).To(BeTrue())
	})

	It("sets methods, headers, max-age, and credentials headers from configuration", func() {
		cfg := CORSConfig{
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Content-Type"},
			ExposeHeaders:    []string{"X-Request-ID"},
			MaxAge:           600,
			AllowCredentials: true,
		}
		rec, _ := send(cfg, http.MethodGet, "https://a.test")
		Expect(rec.Header().Get("Access-Control-Allow-Methods")).To(Equal("GET, POST"))
		Expect(rec.Header().Get("Access-Control-Allow-Headers")).To(Equal("Content-Type"))
		Expect(rec.Header().Get("Access-Control-Expose-Headers")).To(Equal("X-Request-ID"))
		Expect(rec.Header().Get("Access-Control-Max-Age")).To(Equal("600"))
		Expect(rec.Header().Get("Access-Control-Allow-Credentials")).To(Equal("true"))
	})
})
