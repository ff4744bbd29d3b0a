package dsl

import (
	"context"
	"fmt"
	"sync"

	js "github.com/reoring/schemabridge/jsonschema"
)

type describeSchema struct {
	inner Node
	text  string
}

// Describe attaches a description. Parsing is unchanged.
func Describe(s Node, text string) Node { return &describeSchema{inner: s, text: text} }

func (d *describeSchema) Parse(ctx context.Context, v any) (any, error) { return d.inner.Parse(ctx, v) }
func (d *describeSchema) Validate(ctx context.Context, v any) error     { return validate(ctx, d, v) }
func (d *describeSchema) JSONSchema() (*js.Schema, error)             { return jsonSchema(d) }

func (d *describeSchema) emit(e *emitter, ptr string) (*js.Schema, error) {
	s, err := e.node(d.inner, ptr)
	if err != nil {
		return nil, err
	}
	s.Description = d.text
	return s, nil
}

// TransformFunc maps an already validated value to its output form.
type TransformFunc func(ctx context.Context, v any) (any, error)

type transformSchema struct {
	inner Node
	fn    TransformFunc
	pre   bool
}

// Transform parses with s and then applies fn to the result. Errors from fn
// become custom issues. The JSON Schema is that of s.
func Transform(s Node, fn TransformFunc) Node { return &transformSchema{inner: s, fn: fn} }

// Preprocess applies fn to the raw input before s parses it.
func Preprocess(fn TransformFunc, s Node) Node { return &transformSchema{inner: s, fn: fn, pre: true} }

func (t *transformSchema) Parse(ctx context.Context, v any) (any, error) {
	if t.pre {
		pv, err := t.fn(ctx, v)
		if err != nil {
			return nil, customIssues("preprocess", err)
		}
		return t.inner.Parse(ctx, pv)
	}
	out, err := t.inner.Parse(ctx, v)
	if err != nil {
		return nil, err
	}
	res, err := t.fn(ctx, out)
	if err != nil {
		return nil, customIssues("transform", err)
	}
	return res, nil
}

func (t *transformSchema) Validate(ctx context.Context, v any) error { return validate(ctx, t, v) }
func (t *transformSchema) JSONSchema() (*js.Schema, error)         { return jsonSchema(t) }

func (t *transformSchema) emit(e *emitter, ptr string) (*js.Schema, error) {
	return e.node(t.inner, ptr)
}

type refineSchema struct {
	inner Node
	name  string
	fn    func(ctx context.Context, v any) error
}

// Refine adds a check that runs on the parsed value of s.
func Refine(s Node, name string, fn func(ctx context.Context, v any) error) Node {
	return &refineSchema{inner: s, name: name, fn: fn}
}

func (r *refineSchema) Parse(ctx context.Context, v any) (any, error) {
	out, err := r.inner.Parse(ctx, v)
	if err != nil {
		return nil, err
	}
	if err := r.fn(ctx, out); err != nil {
		return nil, customIssues(r.name, err)
	}
	return out, nil
}

func (r *refineSchema) Validate(ctx context.Context, v any) error { return validate(ctx, r, v) }
func (r *refineSchema) JSONSchema() (*js.Schema, error)         { return jsonSchema(r) }

func (r *refineSchema) emit(e *emitter, ptr string) (*js.Schema, error) {
	return e.node(r.inner, ptr)
}

type customSchema struct {
	name string
	fn   TransformFunc
}

// Custom wraps an arbitrary parser. It emits the empty schema.
func Custom(name string, fn TransformFunc) Node { return &customSchema{name: name, fn: fn} }

func (c *customSchema) Parse(ctx context.Context, v any) (any, error) {
	out, err := c.fn(ctx, v)
	if err != nil {
		return nil, customIssues(c.name, err)
	}
	return out, nil
}

func (c *customSchema) Validate(ctx context.Context, v any) error { return validate(ctx, c, v) }
func (c *customSchema) JSONSchema() (*js.Schema, error)         { return jsonSchema(c) }
func (c *customSchema) emit(*emitter, string) (*js.Schema, error) { return &js.Schema{}, nil }

// LazySchema defers construction of its target until first use, which allows
// recursive schemas.
type LazySchema struct {
	once   sync.Once
	fn     func() Node
	target Node
}

// Lazy returns a schema that calls fn once, on first use.
func Lazy(fn func() Node) *LazySchema { return &LazySchema{fn: fn} }

// Resolve returns the target schema.
func (l *LazySchema) Resolve() Node {
	l.once.Do(func() {
		if l.fn != nil {
			l.target = l.fn()
		}
		if l.target == nil {
			l.target = Any()
		}
	})
	return l.target
}

func (l *LazySchema) Parse(ctx context.Context, v any) (any, error) { return l.Resolve().Parse(ctx, v) }
func (l *LazySchema) Validate(ctx context.Context, v any) error     { return validate(ctx, l, v) }
func (l *LazySchema) JSONSchema() (*js.Schema, error)             { return jsonSchema(l) }

func (l *LazySchema) emit(e *emitter, ptr string) (*js.Schema, error) {
	return e.node(l.Resolve(), ptr)
}

// AtomID names a semantic type such as "image.input". Two atom nodes with the
// same ID are the same type for definition matching.
type AtomID string

// AtomSchema tags a structural schema with a semantic identity.
type AtomSchema struct {
	id    AtomID
	inner Node
}

// Atom tags inner with id.
func Atom(id AtomID, inner Node) *AtomSchema {
	if inner == nil {
		panic(fmt.Sprintf("dsl: atom %q has a nil schema", id))
	}
	return &AtomSchema{id: id, inner: inner}
}

func (a *AtomSchema) ID() AtomID  { return a.id }
func (a *AtomSchema) Inner() Node { return a.inner }

func (a *AtomSchema) Parse(ctx context.Context, v any) (any, error) { return a.inner.Parse(ctx, v) }
func (a *AtomSchema) Validate(ctx context.Context, v any) error     { return validate(ctx, a, v) }
func (a *AtomSchema) JSONSchema() (*js.Schema, error)             { return jsonSchema(a) }

func (a *AtomSchema) emit(e *emitter, ptr string) (*js.Schema, error) {
	return e.node(a.inner, ptr)
}
