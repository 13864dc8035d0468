package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/menezmethod/salute/internal/router"
)

var _ = Describe("Validate", func() {
	intPtr := func(i int) *int { return &i }
	floatPtr := func(f float64) *float64 { return &f }

	post := func(schema Schema, body string) (*httptest.ResponseRecorder, []any) {
		rt := router.New(discardLogger())
		rt.Register(http.MethodPost, "/users", router.Wrap(okHandler, Validate(schema)))

		rec := httptest.NewRecorder()
		rt.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))

		var violations []any
		if rec.Code == http.StatusBadRequest {
			var env struct {
				Error struct {
					Code    string `json:"code"`
					Details struct {
						Errors []any `json:"errors"`
					} `json:"details"`
				} `json:"error"`
			}
			Expect(json.Unmarshal(rec.Body.Bytes(), &env)).To(Succeed())
			Expect(env.Error.Code).To(Equal("VALIDATION_FAILED"))
			violations = env.Error.Details.Errors
		}
		return rec, violations
	}

	It("passes a body satisfying the schema", func() {
		schema := Schema{Body: map[string]*Rule{
			"name": {Type: "string", Required: true},
		}}
		rec, _ := post(schema, `{"name":"Ada"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("aggregates all violations instead of failing on the first", func() {
		schema := Schema{Body: map[string]*Rule{
			"name": {Type: "string", Required: true},
			"age":  {Type: "number", Required: true, Min: floatPtr(0)},
		}}
		rec, violations := post(schema, `{"age":-1}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(violations).To(HaveLen(2))
	})

	It("reports field path, message, code, and offending value", func() {
		schema := Schema{Body: map[string]*Rule{
			"age": {Type: "number", Min: floatPtr(18)},
		}}
		_, violations := post(schema, `{"age":7}`)
		Expect(violations).To(HaveLen(1))
		v := violations[0].(map[string]any)
		Expect(v["field"]).To(Equal("age"))
		Expect(v["code"]).To(Equal("min"))
		Expect(v["message"]).To(ContainSubstring("age"))
		Expect(v["value"]).To(Equal(float64(7)))
	})

	It("checks string length and pattern", func() {
		schema := Schema{Body: map[string]*Rule{
			"email": {Type: "string", MinLen: intPtr(6), Pattern: regexp.MustCompile(`@`)},
		}}
		_, violations := post(schema, `{"email":"bad"}`)
		Expect(violations).To(HaveLen(2))
	})

	It("checks integer-ness and bounds", func() {
		schema := Schema{Body: map[string]*Rule{
			"count": {Type: "number", Integer: true, Max: floatPtr(10)},
		}}
		_, violations := post(schema, `{"count":11.5}`)
		Expect(violations).To(HaveLen(2))
	})

	It("recurses into array items", func() {
		schema := Schema{Body: map[string]*Rule{
			"tags": {Type: "array", Items: &Rule{Type: "string"}},
		}}
		_, violations := post(schema, `{"tags":["ok",7]}`)
		Expect(violations).To(HaveLen(1))
		v := violations[0].(map[string]any)
		Expect(v["field"]).To(Equal("tags[1]"))
	})

	It("recurses into object fields", func() {
		schema := Schema{Body: map[string]*Rule{
			"address": {Type: "object", Fields: map[string]*Rule{
				"city": {Type: "string", Required: true},
			}},
		}}
		_, violations := post(schema, `{"address":{}}`)
		Expect(violations).To(HaveLen(1))
		v := violations[0].(map[string]any)
		Expect(v["field"]).To(Equal("address.city"))
		Expect(v["code"]).To(Equal("required"))
	})

	It("rejects a non-object body when body rules exist", func() {
		schema := Schema{Body: map[string]*Rule{
			"name": {Type: "string"},
		}}
		rec, violations := post(schema, `[1,2,3]`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(violations).To(HaveLen(1))
	})

	It("coerces and validates query values", func() {
		schema := Schema{Query: map[string]*Rule{
			"limit": {Type: "number", Integer: true, Min: floatPtr(1)},
		}}
		rt := router.New(discardLogger())
		rt.Register(http.MethodGet, "/users", router.Wrap(okHandler, Validate(schema)))

		rec := httptest.NewRecorder()
		rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users?limit=0", nil))
		Expect(rec.Code).To(Equal(http.StatusBadRequest))

		rec = httptest.NewRecorder()
		rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users?limit=5", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("validates path parameters", func() {
		schema := Schema{Params: map[string]*Rule{
			"id": {Type: "number", Required: true},
		}}
		rt := router.New(discardLogger())
		rt.Register(http.MethodGet, "/users/:id", router.Wrap(okHandler, Validate(schema)))

		rec := httptest.NewRecorder()
		rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/abc", nil))
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("enforces enum membership", func() {
		schema := Schema{Body: map[string]*Rule{
			"role": {Type: "string", Enum: []any{"admin", "user"}},
		}}
		_, violations := post(schema, `{"role":"root"}`)
		Expect(violations).To(HaveLen(1))
		Expect(violations[0].(map[string]any)["code"]).To(Equal("enum"))
	})
})
