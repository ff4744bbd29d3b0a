package dsl

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"

	schemabridge "github.com/reoring/schemabridge"
	js "github.com/reoring/schemabridge/jsonschema"
)

// StringSchema validates strings. Constraint methods mutate and return the
// receiver so they can be chained at construction time.
type StringSchema struct {
	min, max   *int
	pattern    string
	re         *regexp.Regexp
	patternErr error
	format     string
	base64     bool
}

// String returns a string schema.
func String() *StringSchema { return &StringSchema{} }

// Min sets the minimum length in runes.
func (s *StringSchema) Min(n int) *StringSchema { s.min = &n; return s }

// Max sets the maximum length in runes.
func (s *StringSchema) Max(n int) *StringSchema { s.max = &n; return s }

// Pattern requires the string to match the RE2 expression expr. An
// expression that does not compile makes every Parse fail.
func (s *StringSchema) Pattern(expr string) *StringSchema {
	s.pattern = expr
	s.re, s.patternErr = regexp.Compile(expr)
	return s
}

// Format sets a JSON Schema format. date, time (without offset), date-time,
// email, uri, url and uuid are checked; other names are only exported.
func (s *StringSchema) Format(name string) *StringSchema { s.format = name; return s }

// Base64 requires canonical, padded standard base64.
func (s *StringSchema) Base64() *StringSchema { s.base64 = true; return s }

func (s *StringSchema) Parse(ctx context.Context, v any) (any, error) {
	str, ok := v.(string)
	if !ok {
		return nil, invalidType("string")
	}
	n := len([]rune(str))
	if s.min != nil && n < *s.min {
		return nil, issue(schemabridge.CodeTooShort, "", map[string]any{"min": *s.min, "got": n})
	}
	if s.max != nil && n > *s.max {
		return nil, issue(schemabridge.CodeTooLong, "", map[string]any{"max": *s.max, "got": n})
	}
	if s.patternErr != nil {
		return nil, schemabridge.Issues{{Path: "/", Code: schemabridge.CodeParseError, Message: "invalid pattern " + s.pattern, Cause: s.patternErr}}
	}
	if s.re != nil && !s.re.MatchString(str) {
		return nil, issue(schemabridge.CodePattern, s.pattern, map[string]any{"pattern": s.pattern})
	}
	if s.format != "" && !CheckFormat(s.format, str) {
		return nil, issue(schemabridge.CodeInvalidFormat, s.format, map[string]any{"format": s.format})
	}
	if s.base64 && !IsBase64(str) {
		return nil, issue(schemabridge.CodeInvalidFormat, "base64", map[string]any{"format": "base64"})
	}
	return str, nil
}

func (s *StringSchema) Validate(ctx context.Context, v any) error { return validate(ctx, s, v) }
func (s *StringSchema) JSONSchema() (*js.Schema, error)         { return jsonSchema(s) }

func (s *StringSchema) emit(*emitter, string) (*js.Schema, error) {
	out := &js.Schema{Type: "string", MinLength: s.min, MaxLength: s.max, Pattern: s.pattern, Format: s.format}
	if s.base64 {
		out.ContentEncoding = "base64"
	}
	return out, nil
}

var (
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe  = regexp.MustCompile(`^(?:[01]\d|2[0-3]):[0-5]\d:[0-5]\d(?:\.\d+)?$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	uuidRe  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// CheckFormat reports whether s satisfies the named format. Unknown formats
// are accepted.
func CheckFormat(format, s string) bool {
	switch format {
	case "date":
		if !dateRe.MatchString(s) {
			return false
		}
		_, err := time.Parse(time.DateOnly, s)
		return err == nil
	case "time":
		return timeRe.MatchString(s)
	case "date-time":
		_, err := time.Parse(time.RFC3339Nano, s)
		return err == nil
	case "email":
		return emailRe.MatchString(s)
	case "uri", "url":
		u, err := url.Parse(s)
		return err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "")
	case "uuid":
		return uuidRe.MatchString(s)
	}
	return true
}

// IsBase64 reports whether s is padded standard base64 with canonical
// trailing bits. Line breaks are rejected.
func IsBase64(s string) bool {
	if strings.ContainsAny(s, "\r\n") {
		return false
	}
	_, err := base64.StdEncoding.Strict().DecodeString(s)
	return err == nil
}

// NumberSchema validates JSON numbers (json.Number or Go numeric values).
// The input value is returned unchanged.
type NumberSchema struct {
	integer          bool
	min, max         *float64
	exclMin, exclMax *float64
}

// Number returns a number schema.
func Number() *NumberSchema { return &NumberSchema{} }

// Integer returns a number schema that rejects fractional values.
func Integer() *NumberSchema { return &NumberSchema{integer: true} }

func (s *NumberSchema) Min(f float64) *NumberSchema { s.min = &f; return s }
func (s *NumberSchema) Max(f float64) *NumberSchema { s.max = &f; return s }

// Gt sets an exclusive minimum.
func (s *NumberSchema) Gt(f float64) *NumberSchema { s.exclMin = &f; return s }

// Lt sets an exclusive maximum.
func (s *NumberSchema) Lt(f float64) *NumberSchema { s.exclMax = &f; return s }

func (s *NumberSchema) Parse(ctx context.Context, v any) (any, error) {
	f, ok := toFloat(v)
	if !ok {
		if s.integer {
			return nil, invalidType("integer")
		}
		return nil, invalidType("number")
	}
	if s.integer && f != math.Trunc(f) {
		return nil, invalidType("integer")
	}
	if s.min != nil && f < *s.min {
		return nil, issue(schemabridge.CodeTooSmall, "", map[string]any{"min": *s.min, "got": f})
	}
	if s.exclMin != nil && f <= *s.exclMin {
		return nil, issue(schemabridge.CodeTooSmall, "exclusive", map[string]any{"min": *s.exclMin, "got": f})
	}
	if s.max != nil && f > *s.max {
		return nil, issue(schemabridge.CodeTooBig, "", map[string]any{"max": *s.max, "got": f})
	}
	if s.exclMax != nil && f >= *s.exclMax {
		return nil, issue(schemabridge.CodeTooBig, "exclusive", map[string]any{"max": *s.exclMax, "got": f})
	}
	return v, nil
}

func (s *NumberSchema) Validate(ctx context.Context, v any) error { return validate(ctx, s, v) }
func (s *NumberSchema) JSONSchema() (*js.Schema, error)         { return jsonSchema(s) }

func (s *NumberSchema) emit(*emitter, string) (*js.Schema, error) {
	out := &js.Schema{Type: "number", Minimum: s.min, Maximum: s.max, ExclusiveMinimum: s.exclMin, ExclusiveMaximum: s.exclMax}
	if s.integer {
		out.Type = "integer"
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

type boolSchema struct{}

// Bool returns a boolean schema.
func Bool() Node { return &boolSchema{} }

func (s *boolSchema) Parse(ctx context.Context, v any) (any, error) {
	if _, ok := v.(bool); !ok {
		return nil, invalidType("boolean")
	}
	return v, nil
}
func (s *boolSchema) Validate(ctx context.Context, v any) error { return validate(ctx, s, v) }
func (s *boolSchema) JSONSchema() (*js.Schema, error)         { return jsonSchema(s) }
func (s *boolSchema) emit(*emitter, string) (*js.Schema, error) {
	return &js.Schema{Type: "boolean"}, nil
}

type nullSchema struct{}

// Null returns a schema accepting only null (nil).
func Null() Node { return &nullSchema{} }

func (s *nullSchema) Parse(ctx context.Context, v any) (any, error) {
	if v != nil {
		return nil, invalidType("null")
	}
	return nil, nil
}
func (s *nullSchema) Validate(ctx context.Context, v any) error { return validate(ctx, s, v) }
func (s *nullSchema) JSONSchema() (*js.Schema, error)         { return jsonSchema(s) }
func (s *nullSchema) emit(*emitter, string) (*js.Schema, error) {
	return &js.Schema{Type: "null"}, nil
}

type anySchema struct{}

// Any returns a schema accepting every value unchanged.
func Any() Node { return &anySchema{} }

func (s *anySchema) Parse(ctx context.Context, v any) (any, error) { return v, nil }
func (s *anySchema) Validate(ctx context.Context, v any) error     { return nil }
func (s *anySchema) JSONSchema() (*js.Schema, error)             { return jsonSchema(s) }
func (s *anySchema) emit(*emitter, string) (*js.Schema, error)   { return &js.Schema{}, nil }

type enumSchema struct{ values []string }

// Enum returns a schema accepting one of the given strings.
func Enum(values ...string) Node {
	return &enumSchema{values: append([]string(nil), values...)}
}

func (s *enumSchema) Parse(ctx context.Context, v any) (any, error) {
	str, ok := v.(string)
	if !ok {
		return nil, invalidType("string")
	}
	for _, e := range s.values {
		if e == str {
			return str, nil
		}
	}
	return nil, issue(schemabridge.CodeInvalidEnum, strings.Join(s.values, "|"), map[string]any{"options": s.values})
}
func (s *enumSchema) Validate(ctx context.Context, v any) error { return validate(ctx, s, v) }
func (s *enumSchema) JSONSchema() (*js.Schema, error)         { return jsonSchema(s) }
func (s *enumSchema) emit(*emitter, string) (*js.Schema, error) {
	vals := make([]any, len(s.values))
	for i, e := range s.values {
		vals[i] = e
	}
	return &js.Schema{Type: "string", Enum: vals}, nil
}

type literalSchema struct{ value any }

// Literal returns a schema accepting exactly one JSON scalar (string, number,
// bool or nil). Numbers compare by value.
func Literal(v any) Node { return &literalSchema{value: v} }

func (s *literalSchema) Parse(ctx context.Context, v any) (any, error) {
	if !literalEqual(s.value, v) {
		return nil, issue(schemabridge.CodeInvalidLiteral, fmt.Sprint(s.value), map[string]any{"expected": s.value})
	}
	return v, nil
}
func (s *literalSchema) Validate(ctx context.Context, v any) error { return validate(ctx, s, v) }
func (s *literalSchema) JSONSchema() (*js.Schema, error)         { return jsonSchema(s) }
func (s *literalSchema) emit(*emitter, string) (*js.Schema, error) {
	out := &js.Schema{Const: s.value}
	switch s.value.(type) {
	case string:
		out.Type = "string"
	case bool:
		out.Type = "boolean"
	case nil:
		// omitempty drops a nil const, so spell null as a one-value enum.
		return &js.Schema{Type: "null", Enum: []any{nil}}, nil
	default:
		if _, ok := toFloat(s.value); ok {
			out.Type = "number"
		}
	}
	return out, nil
}

func literalEqual(want, got any) bool {
	if wf, ok := toFloat(want); ok {
		gf, ok := toFloat(got)
		return ok && wf == gf
	}
	switch w := want.(type) {
	case string:
		g, ok := got.(string)
		return ok && g == w
	case bool:
		g, ok := got.(bool)
		return ok && g == w
	case nil:
		return got == nil
	}
	return false
}
