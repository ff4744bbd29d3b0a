package dsl

import (
	"context"
	"strconv"

	schemabridge "github.com/reoring/schemabridge"
	"github.com/reoring/schemabridge/i18n"
	js "github.com/reoring/schemabridge/jsonschema"
)

type unionSchema struct{ options []Node }

// Union accepts the first option that parses v. When none does, the result is
// a single invalid_union issue whose Cause holds every option's issues.
func Union(options ...Node) Node {
	return &unionSchema{options: append([]Node(nil), options...)}
}

// Options returns the union members in order.
func (u *unionSchema) Options() []Node { return append([]Node(nil), u.options...) }

func (u *unionSchema) Parse(ctx context.Context, v any) (any, error) {
	var all schemabridge.Issues
	for _, o := range u.options {
		out, err := o.Parse(ctx, v)
		if err == nil {
			return out, nil
		}
		all = schemabridge.AppendIssues(all, schemabridge.Rebase("", err)...)
	}
	return nil, schemabridge.Issues{{
		Path:    "/",
		Code:    schemabridge.CodeInvalidUnion,
		Message: i18n.T(schemabridge.CodeInvalidUnion, nil),
		Cause:   all,
		Params:  map[string]any{"options": len(u.options)},
	}}
}

func (u *unionSchema) Validate(ctx context.Context, v any) error { return validate(ctx, u, v) }
func (u *unionSchema) JSONSchema() (*js.Schema, error)         { return jsonSchema(u) }

func (u *unionSchema) emit(e *emitter, ptr string) (*js.Schema, error) {
	out := &js.Schema{}
	for i, o := range u.options {
		s, err := e.node(o, ptr+"/anyOf/"+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		out.AnyOf = append(out.AnyOf, s)
	}
	return out, nil
}

type nullableSchema struct{ inner Node }

// Nullable accepts nil in addition to what inner accepts.
func Nullable(inner Node) Node { return &nullableSchema{inner: inner} }

func (n *nullableSchema) Inner() Node { return n.inner }

func (n *nullableSchema) Parse(ctx context.Context, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return n.inner.Parse(ctx, v)
}

func (n *nullableSchema) Validate(ctx context.Context, v any) error { return validate(ctx, n, v) }
func (n *nullableSchema) JSONSchema() (*js.Schema, error)         { return jsonSchema(n) }

func (n *nullableSchema) emit(e *emitter, ptr string) (*js.Schema, error) {
	s, err := e.node(n.inner, ptr)
	if err != nil {
		return nil, err
	}
	if s.Ref != "" {
		// siblings of $ref are ignored by older drafts
		return &js.Schema{AllOf: []*js.Schema{s}, Nullable: true}, nil
	}
	s.Nullable = true
	return s, nil
}
