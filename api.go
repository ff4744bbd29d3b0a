package schemabridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"

	js "github.com/reoring/schemabridge/jsonschema"
)

// Schema is a runtime validation schema over JSON-like values
// (map[string]any, []any, string, json.Number, bool, nil) plus the Go values
// the atom types accept on input ([]byte, io.Reader, pending values).
type Schema interface {
	// Parse validates v and returns the normalized output value. Transforms
	// (for example base64 -> []byte) are applied here. It returns Issues when
	// validation fails.
	Parse(ctx context.Context, v any) (any, error)

	// Validate runs Parse and discards the output.
	Validate(ctx context.Context, v any) error

	// JSONSchema projects the schema into a JSON Schema representation.
	JSONSchema() (*js.Schema, error)
}

// Codec performs bidirectional transformation and validation between the wire
// representation A and the domain representation B.
type Codec[A, B any] interface {
	Decode(ctx context.Context, a A) (B, error) // A (wire) -> B (domain).
	Encode(ctx context.Context, b B) (A, error) // B (domain) -> A (wire).
}

// ErrEmptyInput is returned by ParseJSON when no JSON value is present.
var ErrEmptyInput = errors.New("schemabridge: empty input")

// SafeParse parses v, returning (nil, false) on validation error.
func SafeParse(ctx context.Context, s Schema, v any) (any, bool) {
	out, err := s.Parse(ctx, v)
	if err != nil {
		return nil, false
	}
	return out, true
}

// Is returns true if v conforms to the schema s.
func Is(ctx context.Context, s Schema, v any) bool {
	return s.Validate(ctx, v) == nil
}

// DecodeJSON decodes data into a JSON-like value with numbers kept as
// json.Number so integer precision survives validation.
func DecodeJSON(data []byte) (any, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, Issues{{Path: "/", Code: CodeParseError, Message: err.Error(), Cause: err}}
	}
	if dec.More() {
		return nil, Issues{{Path: "/", Code: CodeParseError, Message: "trailing data after JSON value"}}
	}
	return v, nil
}

// ParseJSON decodes data and parses it with s.
func ParseJSON(ctx context.Context, s Schema, data []byte) (any, error) {
	v, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return s.Parse(ctx, v)
}

// MarshalSchema renders a JSON Schema with stable key order.
func MarshalSchema(s *js.Schema) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("schemabridge: nil schema")
	}
	return gojson.Marshal(s)
}
