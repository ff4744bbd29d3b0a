package dsl

import (
	"context"
	"fmt"

	schemabridge "github.com/reoring/schemabridge"
)

// ObjectBuilder declares an object schema. Fields keep declaration order.
type ObjectBuilder struct {
	fields        []objectField
	index         map[string]int
	required      map[string]struct{}
	unknownPolicy schemabridge.UnknownPolicy
	refines       []objRefine
	err           error
}

type objectField struct {
	name   string
	schema Node
}

type objRefine struct {
	name string
	fn   func(context.Context, map[string]any) error
}

// FieldStep is returned by Field so the field can be marked required.
type FieldStep struct {
	b    *ObjectBuilder
	name string
}

// Object creates a new object builder. Unknown keys are stripped by default.
func Object() *ObjectBuilder {
	return &ObjectBuilder{
		index:         map[string]int{},
		required:      map[string]struct{}{},
		unknownPolicy: schemabridge.UnknownStrip,
	}
}

// Field registers a field. Declaring the same name twice replaces the schema
// and keeps the first position.
func (b *ObjectBuilder) Field(name string, s Node) *FieldStep {
	if s == nil {
		if b.err == nil {
			b.err = fmt.Errorf("dsl: field %q has a nil schema", name)
		}
		s = Any()
	}
	if i, ok := b.index[name]; ok {
		b.fields[i].schema = s
	} else {
		b.index[name] = len(b.fields)
		b.fields = append(b.fields, objectField{name: name, schema: s})
	}
	return &FieldStep{b: b, name: name}
}

// Required marks the current field as required and returns the builder.
func (f *FieldStep) Required() *ObjectBuilder {
	f.b.required[f.name] = struct{}{}
	return f.b
}

// Optional marks the current field as optional (default) and returns the builder.
func (f *FieldStep) Optional() *ObjectBuilder {
	delete(f.b.required, f.name)
	return f.b
}

func (f *FieldStep) Field(name string, s Node) *FieldStep  { return f.b.Field(name, s) }
func (f *FieldStep) Require(names ...string) *ObjectBuilder { return f.b.Require(names...) }
func (f *FieldStep) UnknownStrict() *ObjectBuilder          { return f.b.UnknownStrict() }
func (f *FieldStep) UnknownStrip() *ObjectBuilder           { return f.b.UnknownStrip() }
func (f *FieldStep) UnknownPassthrough() *ObjectBuilder     { return f.b.UnknownPassthrough() }
func (f *FieldStep) Refine(name string, fn func(context.Context, map[string]any) error) *ObjectBuilder {
	return f.b.Refine(name, fn)
}
func (f *FieldStep) Build() (*ObjectSchema, error) { return f.b.Build() }
func (f *FieldStep) MustBuild() *ObjectSchema      { return f.b.MustBuild() }

// Require marks one or more fields as required.
func (b *ObjectBuilder) Require(names ...string) *ObjectBuilder {
	for _, n := range names {
		b.required[n] = struct{}{}
	}
	return b
}

// UnknownStrict rejects unknown keys.
func (b *ObjectBuilder) UnknownStrict() *ObjectBuilder {
	b.unknownPolicy = schemabridge.UnknownStrict
	return b
}

// UnknownStrip drops unknown keys.
func (b *ObjectBuilder) UnknownStrip() *ObjectBuilder {
	b.unknownPolicy = schemabridge.UnknownStrip
	return b
}

// UnknownPassthrough keeps unknown keys unchanged in the output.
func (b *ObjectBuilder) UnknownPassthrough() *ObjectBuilder {
	b.unknownPolicy = schemabridge.UnknownPassthrough
	return b
}

// Refine adds an object-level check executed after every field parsed.
// A plain error becomes an Issue with code "custom" at the object path.
func (b *ObjectBuilder) Refine(name string, fn func(context.Context, map[string]any) error) *ObjectBuilder {
	if fn == nil {
		return b
	}
	b.refines = append(b.refines, objRefine{name: name, fn: fn})
	return b
}

// Build validates the declaration and returns the schema.
func (b *ObjectBuilder) Build() (*ObjectSchema, error) {
	if b.err != nil {
		return nil, b.err
	}
	for name := range b.required {
		if _, ok := b.index[name]; !ok {
			return nil, fmt.Errorf("dsl: required field %q is not declared", name)
		}
	}
	o := &ObjectSchema{
		fields:        append([]objectField(nil), b.fields...),
		index:         make(map[string]int, len(b.index)),
		required:      make(map[string]struct{}, len(b.required)),
		unknownPolicy: b.unknownPolicy,
		refines:       append([]objRefine(nil), b.refines...),
	}
	for k, v := range b.index {
		o.index[k] = v
	}
	for k := range b.required {
		o.required[k] = struct{}{}
	}
	return o, nil
}

// MustBuild is like Build but panics on error.
func (b *ObjectBuilder) MustBuild() *ObjectSchema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
