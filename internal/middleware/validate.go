package middleware

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/menezmethod/salute/internal/apierror"
	"github.com/menezmethod/salute/internal/router"
)

// Rule is a declarative per-field constraint. Rules are stateless and
// shared across requests.
type Rule struct {
	// Type is one of "string", "number", "boolean", "array", "object".
	Type     string
	Required bool

	// Numeric constraints (Type "number").
	Min     *float64
	Max     *float64
	Integer bool

	// String constraints.
	MinLen  *int
	MaxLen  *int
	Pattern *regexp.Regexp

	// Enum restricts the value to a fixed set (after type checking).
	Enum []any

	// Items validates each element of an array.
	Items *Rule

	// Fields validates properties of a nested object.
	Fields map[string]*Rule
}

// Schema groups rules by request section. Query and path-parameter values
// arrive as strings and are coerced before number/boolean rules apply.
type Schema struct {
	Body   map[string]*Rule
	Query  map[string]*Rule
	Params map[string]*Rule
}

// Violation is one validation failure. All violations are aggregated; the
// checker never stops at the first.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Value   any    `json:"value,omitempty"`
}

// Validate returns middleware that checks the request against the schema
// and answers 400 VALIDATION_FAILED with the full violation list when any
// field fails.
func Validate(schema Schema) router.Middleware {
	return func(req *router.Request, res *router.Response, next router.Next) error {
		var violations []Violation

		if len(schema.Body) > 0 {
			body, err := parseBody(req)
			if err != nil {
				violations = append(violations, Violation{
					Field:   "body",
					Message: "request body must be a JSON object",
					Code:    "invalid_json",
				})
			} else {
				violations = append(violations, checkFields("", schema.Body, body)...)
			}
		}

		if len(schema.Query) > 0 {
			violations = append(violations, checkStringMap("query", schema.Query, flatten(req.Query))...)
		}
		if len(schema.Params) > 0 {
			violations = append(violations, checkStringMap("params", schema.Params, req.Params)...)
		}

		if len(violations) > 0 {
			return res.Fail(apierror.ValidationFailed(map[string]any{"errors": violations}))
		}
		return next()
	}
}

func parseBody(req *router.Request) (map[string]any, error) {
	if len(req.Body) == 0 {
		return map[string]any{}, nil
	}
	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func flatten(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// checkStringMap validates string-valued sections (query, params), coercing
// values to the rule's type first.
func checkStringMap(section string, rules map[string]*Rule, values map[string]string) []Violation {
	obj := make(map[string]any, len(values))
	for k, v := range values {
		rule, ok := rules[k]
		if !ok {
			obj[k] = v
			continue
		}
		obj[k] = coerce(v, rule.Type)
	}
	return checkFields(section, rules, obj)
}

// coerce converts a raw string to the rule's expected type where possible;
// failed coercions keep the string so the type check reports them.
func coerce(raw, typ string) any {
	switch typ {
	case "number":
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
	case "boolean":
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	return raw
}

func checkFields(prefix string, rules map[string]*Rule, obj map[string]any) []Violation {
	var out []Violation
	for name, rule := range rules {
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		val, present := obj[name]
		if !present || val == nil {
			if rule.Required {
				out = append(out, Violation{
					Field:   path,
					Message: fmt.Sprintf("%s is required", path),
					Code:    "required",
				})
			}
			continue
		}
		out = append(out, checkValue(path, rule, val)...)
	}
	return out
}

func checkValue(path string, rule *Rule, val any) []Violation {
	var out []Violation

	fail := func(code, msg string) {
		out = append(out, Violation{Field: path, Message: msg, Code: code, Value: val})
	}

	switch rule.Type {
	case "string":
		s, ok := val.(string)
		if !ok {
			fail("type", fmt.Sprintf("%s must be a string", path))
			return out
		}
		if rule.MinLen != nil && len(s) < *rule.MinLen {
			fail("min_length", fmt.Sprintf("%s must be at least %d characters", path, *rule.MinLen))
		}
		if rule.MaxLen != nil && len(s) > *rule.MaxLen {
			fail("max_length", fmt.Sprintf("%s must be at most %d characters", path, *rule.MaxLen))
		}
		if rule.Pattern != nil && !rule.Pattern.MatchString(s) {
			fail("pattern", fmt.Sprintf("%s does not match the required pattern", path))
		}

	case "number":
		n, ok := val.(float64)
		if !ok {
			fail("type", fmt.Sprintf("%s must be a number", path))
			return out
		}
		if rule.Integer && n != float64(int64(n)) {
			fail("integer", fmt.Sprintf("%s must be an integer", path))
		}
		if rule.Min != nil && n < *rule.Min {
			fail("min", fmt.Sprintf("%s must be at least %v", path, *rule.Min))
		}
		if rule.Max != nil && n > *rule.Max {
			fail("max", fmt.Sprintf("%s must be at most %v", path, *rule.Max))
		}

	case "boolean":
		if _, ok := val.(bool); !ok {
			fail("type", fmt.Sprintf("%s must be a boolean", path))
		}

	case "array":
		items, ok := val.([]any)
		if !ok {
			fail("type", fmt.Sprintf("%s must be an array", path))
			return out
		}
		if rule.MinLen != nil && len(items) < *rule.MinLen {
			fail("min_length", fmt.Sprintf("%s must have at least %d items", path, *rule.MinLen))
		}
		if rule.MaxLen != nil && len(items) > *rule.MaxLen {
			fail("max_length", fmt.Sprintf("%s must have at most %d items", path, *rule.MaxLen))
		}
		if rule.Items != nil {
			for i, item := range items {
				out = append(out, checkValue(fmt.Sprintf("%s[%d]", path, i), rule.Items, item)...)
			}
		}

	case "object":
		obj, ok := val.(map[string]any)
		if !ok {
			fail("type", fmt.Sprintf("%s must be an object", path))
			return out
		}
		if rule.Fields != nil {
			out = append(out, checkFields(path, rule.Fields, obj)...)
		}
	}

	if len(rule.Enum) > 0 {
		found := false
		for _, e := range rule.Enum {
			if e == val {
				found = true
				break
			}
		}
		if !found {
			fail("enum", fmt.Sprintf("%s must be one of the allowed values", path))
		}
	}

	return out
}
