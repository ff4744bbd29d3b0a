// Package ir defines the intermediate representation shared by the Go source
// renderer (internal/gen) and the runtime builder (dsl/irconv). The JSON
// Schema translator in package convert produces it. This package is internal
// and not part of the public API.
package ir

// NodeKind identifies an IR node type.
type NodeKind int

const (
	NodePrimitive NodeKind = iota
	NodeAny
	NodeArray
	NodeTuple
	NodeObject
	NodeRecord
	NodeUnion
	NodeNullable
	NodeEnum
	NodeLiteral
	NodeDescribe
	NodeAtom
	NodeRef
)

// Schema is the root IR node interface. Nodes are pointers; identity matters
// for Ref targets.
type Schema interface {
	Kind() NodeKind
}

// Primitive represents string/number/integer/boolean/null.
type Primitive struct {
	Name string // JSON Schema type name

	// string
	MinLength, MaxLength *int
	Pattern              string
	Format               string
	Base64               bool

	// number, integer
	Minimum, Maximum                   *float64
	ExclusiveMinimum, ExclusiveMaximum *float64
}

func (p *Primitive) Kind() NodeKind { return NodePrimitive }

// Any accepts every value.
type Any struct{}

func (a *Any) Kind() NodeKind { return NodeAny }

// Array represents an array of items.
type Array struct {
	Item               Schema
	MinItems, MaxItems *int
}

func (a *Array) Kind() NodeKind { return NodeArray }

// Tuple is a fixed-length array with one schema per position.
type Tuple struct {
	Items []Schema
}

func (t *Tuple) Kind() NodeKind { return NodeTuple }

// Object represents an object with fields and policies.
type Object struct {
	Fields        []Field
	Required      map[string]struct{}
	UnknownPolicy int // mirrors schemabridge.UnknownPolicy; kept as int to decouple layers
}

func (o *Object) Kind() NodeKind { return NodeObject }

// IsRequired reports whether the field is required.
func (o *Object) IsRequired(name string) bool {
	_, ok := o.Required[name]
	return ok
}

// Field maps a JSON name to a Schema.
type Field struct {
	Name   string
	Schema Schema
}

// Record is an object with arbitrary keys and uniform values.
type Record struct {
	Value Schema
}

func (r *Record) Kind() NodeKind { return NodeRecord }

// Union accepts the first matching option.
type Union struct {
	Options []Schema
}

func (u *Union) Kind() NodeKind { return NodeUnion }

// Nullable additionally accepts null.
type Nullable struct {
	Inner Schema
}

func (n *Nullable) Kind() NodeKind { return NodeNullable }

// Enum is a closed set of strings.
type Enum struct {
	Values []string
}

func (e *Enum) Kind() NodeKind { return NodeEnum }

// Literal is a single JSON scalar: string, json.Number, bool or nil.
type Literal struct {
	Value any
}

func (l *Literal) Kind() NodeKind { return NodeLiteral }

// Describe attaches a description to Inner.
type Describe struct {
	Inner Schema
	Text  string
}

func (d *Describe) Kind() NodeKind { return NodeDescribe }

// Atom is a call to a registered atom constructor.
type Atom struct {
	Name string // registry constructor name, e.g. imageInput
	Func string // exported Go function, e.g. ImageInput
}

func (a *Atom) Kind() NodeKind { return NodeAtom }

// Ref points back at an enclosing node and closes a cycle. Target is set once
// the enclosing node is complete.
type Ref struct {
	Target Schema
}

func (r *Ref) Kind() NodeKind { return NodeRef }

// Walk calls fn for s and every node below it in depth-first order. Ref
// targets are not followed.
func Walk(s Schema, fn func(Schema)) {
	if s == nil {
		return
	}
	fn(s)
	switch n := s.(type) {
	case *Array:
		Walk(n.Item, fn)
	case *Tuple:
		for _, it := range n.Items {
			Walk(it, fn)
		}
	case *Object:
		for _, f := range n.Fields {
			Walk(f.Schema, fn)
		}
	case *Record:
		Walk(n.Value, fn)
	case *Union:
		for _, o := range n.Options {
			Walk(o, fn)
		}
	case *Nullable:
		Walk(n.Inner, fn)
	case *Describe:
		Walk(n.Inner, fn)
	}
}

// Uses reports whether any node under s satisfies pred.
func Uses(s Schema, pred func(Schema) bool) bool {
	found := false
	Walk(s, func(n Schema) {
		if !found && pred(n) {
			found = true
		}
	})
	return found
}
