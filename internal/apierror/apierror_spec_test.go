package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Error", func() {
	It("implements error interface with message", func() {
		e := Internal("boom")
		Expect(e.Error()).To(Equal("boom"))
	})

	It("serializes without the HTTP status", func() {
		b, err := json.Marshal(Conflict("dup"))
		Expect(err).NotTo(HaveOccurred())
		var m map[string]any
		Expect(json.Unmarshal(b, &m)).To(Succeed())
		Expect(m).NotTo(HaveKey("Status"))
		Expect(m["code"]).To(Equal(CodeConflict))
	})

	It("omits empty details and stack", func() {
		b, _ := json.Marshal(NotFound("GET", "/x"))
		var m map[string]any
		Expect(json.Unmarshal(b, &m)).To(Succeed())
		Expect(m).NotTo(HaveKey("details"))
		Expect(m).NotTo(HaveKey("stack"))
	})
})

var _ = Describe("New", func() {
	It("maps every known code to its status", func() {
		for code, status := range map[string]int{
			CodeValidationFailed:  http.StatusBadRequest,
			CodeTokenMissing:      http.StatusUnauthorized,
			CodeTokenInvalid:      http.StatusUnauthorized,
			CodeUserRequired:      http.StatusUnauthorized,
			CodeInsufficientRole:  http.StatusForbidden,
			CodeAuthorization:     http.StatusForbidden,
			CodeNotFound:          http.StatusNotFound,
			CodeConflict:          http.StatusConflict,
			CodeRateLimitExceeded: http.StatusTooManyRequests,
			CodeInternal:          http.StatusInternalServerError,
			CodeUnknown:           http.StatusInternalServerError,
		} {
			Expect(New(code, "m").Status).To(Equal(status), "code %s", code)
		}
	})

	It("defaults unrecognized codes to 500", func() {
		Expect(New("SOMETHING_ELSE", "m").Status).To(Equal(http.StatusInternalServerError))
	})
})

var _ = Describe("From", func() {
	It("passes an *Error through unchanged", func() {
		orig := Conflict("dup")
		Expect(From(orig, false)).To(BeIdenticalTo(orig))
	})

	It("unwraps a wrapped *Error", func() {
		wrapped := fmt.Errorf("handler: %w", TokenMissing())
		Expect(From(wrapped, false).Code).To(Equal(CodeTokenMissing))
	})

	It("maps JSON syntax errors to VALIDATION_FAILED", func() {
		var v any
		jsonErr := json.Unmarshal([]byte("{nope"), &v)
		e := From(jsonErr, false)
		Expect(e.Code).To(Equal(CodeValidationFailed))
		Expect(e.Status).To(Equal(http.StatusBadRequest))
	})

	It("converts unrecognized errors to INTERNAL_ERROR", func() {
		e := From(errors.New("disk on fire"), false)
		Expect(e.Code).To(Equal(CodeInternal))
		Expect(e.Status).To(Equal(http.StatusInternalServerError))
		Expect(e.Message).To(Equal("disk on fire"))
		Expect(e.Stack).To(BeEmpty())
	})

	It("attaches a stack only when asked", func() {
		Expect(From(errors.New("x"), true).Stack).NotTo(BeEmpty())
	})
})

var _ = Describe("FromPanic", func() {
	It("treats error panics like From", func() {
		Expect(FromPanic(errors.New("x"), false).Code).To(Equal(CodeInternal))
	})

	It("reports non-error panic values as UNKNOWN_ERROR", func() {
		e := FromPanic("string panic", false)
		Expect(e.Code).To(Equal(CodeUnknown))
		Expect(e.Message).To(Equal("string panic"))
	})
})

var _ = Describe("WithDetails", func() {
	It("copies rather than mutating the receiver", func() {
		base := RateLimited(nil)
		withDetails := base.WithDetails(map[string]int{"limit": 5})
		Expect(base.Details).To(BeNil())
		Expect(withDetails.Details).NotTo(BeNil())
		Expect(withDetails.Code).To(Equal(base.Code))
	})
})
