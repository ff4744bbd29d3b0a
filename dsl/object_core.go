package dsl

import (
	"context"
	"sort"

	schemabridge "github.com/reoring/schemabridge"
	"github.com/reoring/schemabridge/i18n"
	js "github.com/reoring/schemabridge/jsonschema"
)

// ObjectSchema validates map[string]any values. Build it with Object().
type ObjectSchema struct {
	fields        []objectField
	index         map[string]int
	required      map[string]struct{}
	unknownPolicy schemabridge.UnknownPolicy
	refines       []objRefine
}

// FieldNames returns the declared field names in order.
func (o *ObjectSchema) FieldNames() []string {
	out := make([]string, len(o.fields))
	for i, f := range o.fields {
		out[i] = f.name
	}
	return out
}

// FieldSchema returns the schema of a declared field.
func (o *ObjectSchema) FieldSchema(name string) (Node, bool) {
	i, ok := o.index[name]
	if !ok {
		return nil, false
	}
	return o.fields[i].schema, true
}

// IsRequired reports whether name is a required field.
func (o *ObjectSchema) IsRequired(name string) bool {
	_, ok := o.required[name]
	return ok
}

// UnknownPolicy returns how unknown keys are handled.
func (o *ObjectSchema) UnknownPolicy() schemabridge.UnknownPolicy { return o.unknownPolicy }

func (o *ObjectSchema) Parse(ctx context.Context, v any) (any, error) {
	src, ok := v.(map[string]any)
	if !ok {
		return nil, invalidType("object")
	}
	out := make(map[string]any, len(src))
	var iss schemabridge.Issues

	for _, f := range o.fields {
		val, present := src[f.name]
		if !present {
			if _, req := o.required[f.name]; req {
				iss = schemabridge.AppendIssues(iss, schemabridge.Issue{
					Path:    schemabridge.FieldPointer(f.name),
					Code:    schemabridge.CodeRequired,
					Message: i18n.T(schemabridge.CodeRequired, nil),
					Hint:    "required property missing",
				})
			}
			continue
		}
		pv, err := f.schema.Parse(ctx, val)
		if err != nil {
			iss = schemabridge.AppendIssues(iss, schemabridge.Rebase(schemabridge.FieldPointer(f.name), err)...)
			continue
		}
		out[f.name] = pv
	}

	// unknown keys in key-sorted order
	var unknown []string
	for k := range src {
		if _, known := o.index[k]; !known {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		switch o.unknownPolicy {
		case schemabridge.UnknownStrict:
			iss = schemabridge.AppendIssues(iss, schemabridge.Issue{
				Path:    schemabridge.FieldPointer(k),
				Code:    schemabridge.CodeUnknownKey,
				Message: i18n.T(schemabridge.CodeUnknownKey, nil),
			})
		case schemabridge.UnknownPassthrough:
			out[k] = src[k]
		}
	}
	if len(iss) > 0 {
		return nil, iss
	}

	for _, r := range o.refines {
		if err := r.fn(ctx, out); err != nil {
			iss = schemabridge.AppendIssues(iss, customIssues(r.name, err)...)
		}
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (o *ObjectSchema) Validate(ctx context.Context, v any) error { return validate(ctx, o, v) }
func (o *ObjectSchema) JSONSchema() (*js.Schema, error)         { return jsonSchema(o) }

func (o *ObjectSchema) emit(e *emitter, ptr string) (*js.Schema, error) {
	out := &js.Schema{Type: "object", Properties: make(map[string]*js.Schema, len(o.fields))}
	for _, f := range o.fields {
		ps, err := e.node(f.schema, js.JoinPointer(ptr+"/properties", f.name))
		if err != nil {
			return nil, err
		}
		out.Properties[f.name] = ps
		if _, req := o.required[f.name]; req {
			out.Required = append(out.Required, f.name)
		}
	}
	if o.unknownPolicy != schemabridge.UnknownPassthrough {
		// Strip drops unknown keys, so they never reach the output either.
		out.AdditionalProperties = false
	}
	return out, nil
}

type recordSchema struct{ value Node }

// Record returns a schema for objects with arbitrary keys whose values all
// satisfy value.
func Record(value Node) Node { return &recordSchema{value: value} }

func (r *recordSchema) Parse(ctx context.Context, v any) (any, error) {
	src, ok := v.(map[string]any)
	if !ok {
		return nil, invalidType("object")
	}
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]any, len(src))
	var iss schemabridge.Issues
	for _, k := range keys {
		pv, err := r.value.Parse(ctx, src[k])
		if err != nil {
			iss = schemabridge.AppendIssues(iss, schemabridge.Rebase(schemabridge.FieldPointer(k), err)...)
			continue
		}
		out[k] = pv
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (r *recordSchema) Validate(ctx context.Context, v any) error { return validate(ctx, r, v) }
func (r *recordSchema) JSONSchema() (*js.Schema, error)         { return jsonSchema(r) }

func (r *recordSchema) emit(e *emitter, ptr string) (*js.Schema, error) {
	vs, err := e.node(r.value, ptr+"/additionalProperties")
	if err != nil {
		return nil, err
	}
	return &js.Schema{Type: "object", AdditionalProperties: vs}, nil
}
