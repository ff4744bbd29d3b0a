// Package irconv builds runtime dsl schemas from the shared IR.
package irconv

import (
	"encoding/json"
	"fmt"

	"github.com/reoring/schemabridge/dsl"
	ir "github.com/reoring/schemabridge/internal/ir"
)

// AtomFunc returns a fresh schema for a registered atom constructor name.
type AtomFunc func(name string) (dsl.Node, error)

// Build converts s into a runtime schema. Ref nodes become dsl.Lazy back
// references to the schema built for their target, so recursive graphs parse
// to any depth.
func Build(s ir.Schema, atom AtomFunc) (dsl.Node, error) {
	b := &builder{atom: atom, built: map[ir.Schema]dsl.Node{}}
	return b.build(s)
}

type builder struct {
	atom  AtomFunc
	built map[ir.Schema]dsl.Node
}

func (b *builder) build(s ir.Schema) (dsl.Node, error) {
	if s == nil {
		return nil, fmt.Errorf("irconv: nil IR node")
	}
	if n, ok := b.built[s]; ok {
		return n, nil
	}
	n, err := b.node(s)
	if err != nil {
		return nil, err
	}
	b.built[s] = n
	return n, nil
}

func (b *builder) list(items []ir.Schema) ([]dsl.Node, error) {
	out := make([]dsl.Node, len(items))
	for i, it := range items {
		n, err := b.build(it)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (b *builder) node(s ir.Schema) (dsl.Node, error) {
	switch n := s.(type) {
	case *ir.Primitive:
		return primitive(n)
	case *ir.Any:
		return dsl.Any(), nil
	case *ir.Ref:
		if n.Target == nil {
			return nil, fmt.Errorf("irconv: dangling back reference")
		}
		return dsl.Lazy(func() dsl.Node { return b.built[n.Target] }), nil
	case *ir.Array:
		item, err := b.build(n.Item)
		if err != nil {
			return nil, err
		}
		a := dsl.Array(item)
		if n.MinItems != nil {
			a.Min(*n.MinItems)
		}
		if n.MaxItems != nil {
			a.Max(*n.MaxItems)
		}
		return a, nil
	case *ir.Tuple:
		items, err := b.list(n.Items)
		if err != nil {
			return nil, err
		}
		return dsl.Tuple(items...), nil
	case *ir.Object:
		ob := dsl.Object()
		for _, f := range n.Fields {
			fs, err := b.build(f.Schema)
			if err != nil {
				return nil, fmt.Errorf("irconv: field %q: %w", f.Name, err)
			}
			step := ob.Field(f.Name, fs)
			if n.IsRequired(f.Name) {
				step.Required()
			}
		}
		switch n.UnknownPolicy {
		case 1:
			ob.UnknownStrict()
		case 2:
			ob.UnknownPassthrough()
		}
		return ob.Build()
	case *ir.Record:
		v, err := b.build(n.Value)
		if err != nil {
			return nil, err
		}
		return dsl.Record(v), nil
	case *ir.Union:
		opts, err := b.list(n.Options)
		if err != nil {
			return nil, err
		}
		return dsl.Union(opts...), nil
	case *ir.Nullable:
		inner, err := b.build(n.Inner)
		if err != nil {
			return nil, err
		}
		return dsl.Nullable(inner), nil
	case *ir.Enum:
		return dsl.Enum(n.Values...), nil
	case *ir.Literal:
		v := n.Value
		if num, ok := v.(json.Number); ok {
			f, err := num.Float64()
			if err != nil {
				return nil, fmt.Errorf("irconv: literal %q: %w", num, err)
			}
			v = f
		}
		return dsl.Literal(v), nil
	case *ir.Describe:
		inner, err := b.build(n.Inner)
		if err != nil {
			return nil, err
		}
		return dsl.Describe(inner, n.Text), nil
	case *ir.Atom:
		if b.atom == nil {
			return nil, fmt.Errorf("irconv: no atom constructors for %q", n.Name)
		}
		return b.atom(n.Name)
	}
	return nil, fmt.Errorf("irconv: unsupported IR node %T", s)
}

func primitive(p *ir.Primitive) (dsl.Node, error) {
	switch p.Name {
	case "string":
		s := dsl.String()
		if p.MinLength != nil {
			s.Min(*p.MinLength)
		}
		if p.MaxLength != nil {
			s.Max(*p.MaxLength)
		}
		if p.Pattern != "" {
			s.Pattern(p.Pattern)
		}
		if p.Format != "" {
			s.Format(p.Format)
		}
		if p.Base64 {
			s.Base64()
		}
		return s, nil
	case "number", "integer":
		s := dsl.Number()
		if p.Name == "integer" {
			s = dsl.Integer()
		}
		if p.Minimum != nil {
			s.Min(*p.Minimum)
		}
		if p.Maximum != nil {
			s.Max(*p.Maximum)
		}
		if p.ExclusiveMinimum != nil {
			s.Gt(*p.ExclusiveMinimum)
		}
		if p.ExclusiveMaximum != nil {
			s.Lt(*p.ExclusiveMaximum)
		}
		return s, nil
	case "boolean":
		return dsl.Bool(), nil
	case "null":
		return dsl.Null(), nil
	}
	return nil, fmt.Errorf("irconv: unsupported primitive %q", p.Name)
}
