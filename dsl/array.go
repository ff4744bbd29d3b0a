package dsl

import (
	"context"
	"strconv"

	schemabridge "github.com/reoring/schemabridge"
	js "github.com/reoring/schemabridge/jsonschema"
)

// ArraySchema validates []any values element by element.
type ArraySchema struct {
	elem     Node
	min, max *int
}

// Array returns an array schema with the given element schema.
func Array(elem Node) *ArraySchema { return &ArraySchema{elem: elem} }

// Min sets the minimum number of items.
func (a *ArraySchema) Min(n int) *ArraySchema { a.min = &n; return a }

// Max sets the maximum number of items.
func (a *ArraySchema) Max(n int) *ArraySchema { a.max = &n; return a }

// Elem returns the element schema.
func (a *ArraySchema) Elem() Node { return a.elem }

func (a *ArraySchema) Parse(ctx context.Context, v any) (any, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, invalidType("array")
	}
	if a.min != nil && len(arr) < *a.min {
		return nil, issue(schemabridge.CodeTooShort, "", map[string]any{"min": *a.min, "got": len(arr)})
	}
	if a.max != nil && len(arr) > *a.max {
		return nil, issue(schemabridge.CodeTooLong, "", map[string]any{"max": *a.max, "got": len(arr)})
	}
	out := make([]any, len(arr))
	var iss schemabridge.Issues
	for i, e := range arr {
		pv, err := a.elem.Parse(ctx, e)
		if err != nil {
			iss = schemabridge.AppendIssues(iss, schemabridge.Rebase(schemabridge.IndexPointer(i), err)...)
			continue
		}
		out[i] = pv
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (a *ArraySchema) Validate(ctx context.Context, v any) error { return validate(ctx, a, v) }
func (a *ArraySchema) JSONSchema() (*js.Schema, error)         { return jsonSchema(a) }

func (a *ArraySchema) emit(e *emitter, ptr string) (*js.Schema, error) {
	items, err := e.node(a.elem, ptr+"/items")
	if err != nil {
		return nil, err
	}
	return &js.Schema{Type: "array", Items: items, MinItems: a.min, MaxItems: a.max}, nil
}

type tupleSchema struct{ items []Node }

// Tuple returns a fixed-length array schema with one schema per position.
func Tuple(items ...Node) Node { return &tupleSchema{items: append([]Node(nil), items...)} }

func (t *tupleSchema) Parse(ctx context.Context, v any) (any, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, invalidType("array")
	}
	if len(arr) != len(t.items) {
		code := schemabridge.CodeTooShort
		if len(arr) > len(t.items) {
			code = schemabridge.CodeTooLong
		}
		return nil, issue(code, "", map[string]any{"len": len(t.items), "got": len(arr)})
	}
	out := make([]any, len(arr))
	var iss schemabridge.Issues
	for i, s := range t.items {
		pv, err := s.Parse(ctx, arr[i])
		if err != nil {
			iss = schemabridge.AppendIssues(iss, schemabridge.Rebase(schemabridge.IndexPointer(i), err)...)
			continue
		}
		out[i] = pv
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (t *tupleSchema) Validate(ctx context.Context, v any) error { return validate(ctx, t, v) }
func (t *tupleSchema) JSONSchema() (*js.Schema, error)         { return jsonSchema(t) }

func (t *tupleSchema) emit(e *emitter, ptr string) (*js.Schema, error) {
	out := &js.Schema{Type: "array", MinItems: js.Ptr(len(t.items)), MaxItems: js.Ptr(len(t.items))}
	for i, s := range t.items {
		ps, err := e.node(s, ptr+"/prefixItems/"+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		out.PrefixItems = append(out.PrefixItems, ps)
	}
	return out, nil
}
