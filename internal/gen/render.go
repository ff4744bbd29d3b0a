// Package gen renders IR into Go source text that rebuilds the schema with
// the dsl and atoms packages.
package gen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"go/format"
	"strconv"
	"strings"

	ir "github.com/reoring/schemabridge/internal/ir"
)

// Qualifiers name the packages generated code refers to.
type Qualifiers struct {
	DSL   string // default "dsl"
	Atoms string // default "atoms"
}

func (q Qualifiers) withDefaults() Qualifiers {
	if q.DSL == "" {
		q.DSL = "dsl"
	}
	if q.Atoms == "" {
		q.Atoms = "atoms"
	}
	return q
}

// Expr renders s as a single Go expression. Back references (cycles) render
// as Any, since a Go expression cannot refer to itself.
func Expr(s ir.Schema, q Qualifiers) (string, error) {
	r := &renderer{q: q.withDefaults()}
	if err := r.expr(s); err != nil {
		return "", err
	}
	return r.b.String(), nil
}

type renderer struct {
	q Qualifiers
	b strings.Builder
}

func (r *renderer) call(name string) {
	r.b.WriteString(r.q.DSL)
	r.b.WriteByte('.')
	r.b.WriteString(name)
}

func (r *renderer) list(items []ir.Schema) error {
	for i, it := range items {
		if i > 0 {
			r.b.WriteString(", ")
		}
		if err := r.expr(it); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) expr(s ir.Schema) error {
	switch n := s.(type) {
	case nil:
		return fmt.Errorf("gen: nil IR node")
	case *ir.Primitive:
		return r.primitive(n)
	case *ir.Any, *ir.Ref:
		r.call("Any()")
	case *ir.Array:
		r.call("Array(")
		if err := r.expr(n.Item); err != nil {
			return err
		}
		r.b.WriteByte(')')
		if n.MinItems != nil {
			fmt.Fprintf(&r.b, ".Min(%d)", *n.MinItems)
		}
		if n.MaxItems != nil {
			fmt.Fprintf(&r.b, ".Max(%d)", *n.MaxItems)
		}
	case *ir.Tuple:
		r.call("Tuple(")
		if err := r.list(n.Items); err != nil {
			return err
		}
		r.b.WriteByte(')')
	case *ir.Object:
		r.call("Object()")
		for _, f := range n.Fields {
			fmt.Fprintf(&r.b, ".Field(%s, ", strconv.Quote(f.Name))
			if err := r.expr(f.Schema); err != nil {
				return err
			}
			r.b.WriteByte(')')
			if n.IsRequired(f.Name) {
				r.b.WriteString(".Required()")
			}
		}
		switch n.UnknownPolicy {
		case 1:
			r.b.WriteString(".UnknownStrict()")
		case 2:
			r.b.WriteString(".UnknownPassthrough()")
		}
		r.b.WriteString(".MustBuild()")
	case *ir.Record:
		r.call("Record(")
		if err := r.expr(n.Value); err != nil {
			return err
		}
		r.b.WriteByte(')')
	case *ir.Union:
		r.call("Union(")
		if err := r.list(n.Options); err != nil {
			return err
		}
		r.b.WriteByte(')')
	case *ir.Nullable:
		r.call("Nullable(")
		if err := r.expr(n.Inner); err != nil {
			return err
		}
		r.b.WriteByte(')')
	case *ir.Enum:
		r.call("Enum(")
		for i, v := range n.Values {
			if i > 0 {
				r.b.WriteString(", ")
			}
			r.b.WriteString(strconv.Quote(v))
		}
		r.b.WriteByte(')')
	case *ir.Literal:
		lit, err := literal(n.Value)
		if err != nil {
			return err
		}
		r.call("Literal(" + lit + ")")
	case *ir.Describe:
		r.call("Describe(")
		if err := r.expr(n.Inner); err != nil {
			return err
		}
		fmt.Fprintf(&r.b, ", %s)", strconv.Quote(n.Text))
	case *ir.Atom:
		if n.Func == "" {
			return fmt.Errorf("gen: atom %q has no function name", n.Name)
		}
		fmt.Fprintf(&r.b, "%s.%s()", r.q.Atoms, n.Func)
	default:
		return fmt.Errorf("gen: unsupported IR node %T", s)
	}
	return nil
}

func (r *renderer) primitive(p *ir.Primitive) error {
	switch p.Name {
	case "string":
		r.call("String()")
		if p.MinLength != nil {
			fmt.Fprintf(&r.b, ".Min(%d)", *p.MinLength)
		}
		if p.MaxLength != nil {
			fmt.Fprintf(&r.b, ".Max(%d)", *p.MaxLength)
		}
		if p.Pattern != "" {
			fmt.Fprintf(&r.b, ".Pattern(%s)", quoteRaw(p.Pattern))
		}
		if p.Format != "" {
			fmt.Fprintf(&r.b, ".Format(%s)", strconv.Quote(p.Format))
		}
		if p.Base64 {
			r.b.WriteString(".Base64()")
		}
	case "number", "integer":
		if p.Name == "integer" {
			r.call("Integer()")
		} else {
			r.call("Number()")
		}
		bound := func(method string, v *float64) {
			if v != nil {
				fmt.Fprintf(&r.b, ".%s(%s)", method, strconv.FormatFloat(*v, 'g', -1, 64))
			}
		}
		bound("Min", p.Minimum)
		bound("Max", p.Maximum)
		bound("Gt", p.ExclusiveMinimum)
		bound("Lt", p.ExclusiveMaximum)
	case "boolean":
		r.call("Bool()")
	case "null":
		r.call("Null()")
	default:
		return fmt.Errorf("gen: unsupported primitive %q", p.Name)
	}
	return nil
}

// quoteRaw prefers a raw string literal, which keeps regular expressions readable.
func quoteRaw(s string) string {
	if strconv.CanBackquote(s) {
		return "`" + s + "`"
	}
	return strconv.Quote(s)
}

func literal(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "nil", nil
	case string:
		return strconv.Quote(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return "", fmt.Errorf("gen: literal %q: %w", x, err)
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	}
	return "", fmt.Errorf("gen: unsupported literal %T", v)
}

// Import is a single import line of a generated file.
type Import struct {
	Name string // optional alias
	Path string
}

// Var is a package-level schema variable.
type Var struct {
	Name string
	Doc  string
	Expr string
}

// File describes a generated Go file.
type File struct {
	Package string
	Imports []Import
	Vars    []Var
}

// RenderFile produces a gofmt-formatted Go file.
func RenderFile(f File) ([]byte, error) {
	if f.Package == "" {
		return nil, fmt.Errorf("gen: package name is required")
	}
	var b bytes.Buffer
	b.WriteString("// Code generated by schemabridge. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", f.Package)
	if len(f.Imports) > 0 {
		b.WriteString("import (\n")
		for _, im := range f.Imports {
			if im.Name != "" {
				fmt.Fprintf(&b, "\t%s %s\n", im.Name, strconv.Quote(im.Path))
			} else {
				fmt.Fprintf(&b, "\t%s\n", strconv.Quote(im.Path))
			}
		}
		b.WriteString(")\n\n")
	}
	for _, v := range f.Vars {
		if v.Doc != "" {
			for _, line := range strings.Split(strings.TrimRight(v.Doc, "\n"), "\n") {
				fmt.Fprintf(&b, "// %s\n", line)
			}
		}
		fmt.Fprintf(&b, "var %s = %s\n\n", v.Name, v.Expr)
	}
	out, err := format.Source(b.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gen: format: %w", err)
	}
	return out, nil
}
