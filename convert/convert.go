// Package convert maps JSON Schema documents to runtime validation schemas
// (and Go source that builds them), and runtime schemas back to JSON Schema.
//
// JSON Schema to DSL runs, per call, on a private clone of the document:
// sanitize, hydrate references keeping each $ref as a marker, translate to IR
// with registered atoms substituted, then render or build. DSL to JSON Schema
// emits with the registry's definitions for the chosen side and removes them
// again, leaving bare {"$ref": "#/$defs/<Key>"} references for the backend to
// resolve.
package convert

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	schemabridge "github.com/reoring/schemabridge"
	"github.com/reoring/schemabridge/atoms"
	"github.com/reoring/schemabridge/dsl"
	"github.com/reoring/schemabridge/dsl/irconv"
	"github.com/reoring/schemabridge/internal/gen"
	ir "github.com/reoring/schemabridge/internal/ir"
	js "github.com/reoring/schemabridge/jsonschema"
	"github.com/reoring/schemabridge/refs"
	"github.com/reoring/schemabridge/sanitize"
)

const (
	dslImportPath   = "github.com/reoring/schemabridge/dsl"
	atomsImportPath = "github.com/reoring/schemabridge/atoms"
)

// Converter is safe for concurrent use.
type Converter struct {
	reg          *atoms.Registry
	quals        gen.Qualifiers
	defs         []dsl.Definition
	log          *slog.Logger
	unresolvable refs.Unresolvable
	cache        *lru.Cache[string, ir.Schema]
}

// Option configures a Converter.
type Option func(*Converter)

// WithPackageNames sets the qualifiers used in generated source.
func WithPackageNames(dslPkg, atomsPkg string) Option {
	return func(c *Converter) { c.quals = gen.Qualifiers{DSL: dslPkg, Atoms: atomsPkg} }
}

// WithDefinitions adds user definitions emitted into $defs by the DSL to
// JSON Schema direction. They are kept in the output.
func WithDefinitions(defs ...dsl.Definition) Option {
	return func(c *Converter) { c.defs = append(c.defs, defs...) }
}

// WithLogger sets the logger for non-fatal warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.log = l }
}

// WithUnresolvable sets the policy for references that cannot be resolved.
// The default is refs.Warn.
func WithUnresolvable(u refs.Unresolvable) Option {
	return func(c *Converter) { c.unresolvable = u }
}

// WithCache keeps the translations of up to size documents, keyed by side
// and document content. A size below one disables caching.
func WithCache(size int) Option {
	return func(c *Converter) {
		if size < 1 {
			c.cache = nil
			return
		}
		cache, err := lru.New[string, ir.Schema](size)
		if err != nil {
			return
		}
		c.cache = cache
	}
}

// New returns a Converter over reg. A nil reg uses atoms.NewRegistry().
func New(reg *atoms.Registry, opts ...Option) *Converter {
	if reg == nil {
		reg = atoms.NewRegistry()
	}
	c := &Converter{reg: reg}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Registry returns the atom registry in use.
func (c *Converter) Registry() *atoms.Registry { return c.reg }

// InputSchemaToDSL returns Go source building the input-side schema of doc.
func (c *Converter) InputSchemaToDSL(ctx context.Context, doc *js.Document) (string, error) {
	return c.SchemaToDSL(ctx, doc, schemabridge.Input)
}

// OutputSchemaToDSL returns Go source building the output-side schema of doc.
func (c *Converter) OutputSchemaToDSL(ctx context.Context, doc *js.Document) (string, error) {
	return c.SchemaToDSL(ctx, doc, schemabridge.Output)
}

// SchemaToDSL renders doc for side as a Go expression.
func (c *Converter) SchemaToDSL(ctx context.Context, doc *js.Document, side schemabridge.Side) (string, error) {
	s, err := c.toIR(ctx, doc, side)
	if err != nil {
		return "", err
	}
	return gen.Expr(s, c.quals)
}

// CompileInput returns the runtime input-side schema of doc.
func (c *Converter) CompileInput(ctx context.Context, doc *js.Document) (dsl.Node, error) {
	return c.Compile(ctx, doc, schemabridge.Input)
}

// CompileOutput returns the runtime output-side schema of doc.
func (c *Converter) CompileOutput(ctx context.Context, doc *js.Document) (dsl.Node, error) {
	return c.Compile(ctx, doc, schemabridge.Output)
}

// Compile builds the runtime schema of doc for side. Unlike the generated
// source, recursive references stay recursive.
func (c *Converter) Compile(ctx context.Context, doc *js.Document, side schemabridge.Side) (dsl.Node, error) {
	s, err := c.toIR(ctx, doc, side)
	if err != nil {
		return nil, err
	}
	return irconv.Build(s, c.atom)
}

// RenderFile renders doc for side as a formatted Go file declaring one
// variable. Imports are aliased to the configured qualifiers.
func (c *Converter) RenderFile(ctx context.Context, doc *js.Document, side schemabridge.Side, pkg, varName string) ([]byte, error) {
	s, err := c.toIR(ctx, doc, side)
	if err != nil {
		return nil, err
	}
	expr, err := gen.Expr(s, c.quals)
	if err != nil {
		return nil, err
	}
	q := c.qualifiers()
	imports := []gen.Import{{Name: alias(q.DSL, "dsl"), Path: dslImportPath}}
	if ir.Uses(s, func(n ir.Schema) bool { _, ok := n.(*ir.Atom); return ok }) {
		imports = append(imports, gen.Import{Name: alias(q.Atoms, "atoms"), Path: atomsImportPath})
	}
	return gen.RenderFile(gen.File{
		Package: pkg,
		Imports: imports,
		Vars:    []gen.Var{{Name: varName, Doc: fmt.Sprintf("%s is the %s schema.", varName, side), Expr: expr}},
	})
}

func (c *Converter) qualifiers() gen.Qualifiers {
	q := c.quals
	if q.DSL == "" {
		q.DSL = "dsl"
	}
	if q.Atoms == "" {
		q.Atoms = "atoms"
	}
	return q
}

func alias(name, pkg string) string {
	if name == pkg {
		return ""
	}
	return name
}

func (c *Converter) atom(name string) (dsl.Node, error) {
	for _, ctor := range c.reg.Constructors() {
		if ctor.Name == name {
			return ctor.New(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", atoms.ErrUnknownConstructor, name)
}

// toIR runs sanitize, hydrate and translate on a clone of doc. Translations
// are shared between calls when a cache is configured; IR is never mutated
// after translation.
func (c *Converter) toIR(ctx context.Context, doc *js.Document, side schemabridge.Side) (ir.Schema, error) {
	if doc == nil {
		return nil, js.ErrNilDocument
	}
	if doc.Root() == js.NoNode {
		return nil, fmt.Errorf("convert: empty document")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var key string
	if c.cache != nil {
		raw, err := doc.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("convert: cache key: %w", err)
		}
		key = side.String() + "\x00" + string(raw)
		if s, ok := c.cache.Get(key); ok {
			return s, nil
		}
	}
	s, err := c.translate(ctx, doc, side)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Add(key, s)
	}
	return s, nil
}

func (c *Converter) translate(ctx context.Context, doc *js.Document, side schemabridge.Side) (ir.Schema, error) {
	work := doc.Clone()
	if _, err := sanitize.Sanitize(work); err != nil {
		return nil, fmt.Errorf("convert: sanitize: %w", err)
	}
	diag, err := refs.Hydrate(work, refs.Options{
		Unresolvable: c.unresolvable,
		KeepRefs:     "$ref",
		SourcesFirst: true,
		Logger:       c.log,
	})
	if err != nil {
		return nil, fmt.Errorf("convert: hydrate: %w", err)
	}
	if diag.HasWarnings() && c.log != nil {
		c.log.Debug("hydrated with warnings", "component", "convert", "count", len(diag.Warnings()))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newTranslator(work, c.reg, side, c.log).schema(work.Root(), "#")
}

// InputDSLToSchema converts an input-side runtime schema to JSON Schema.
func (c *Converter) InputDSLToSchema(ctx context.Context, s dsl.Node) (*js.Schema, error) {
	return c.DSLToSchema(ctx, s, schemabridge.Input)
}

// OutputDSLToSchema converts an output-side runtime schema to JSON Schema.
func (c *Converter) OutputDSLToSchema(ctx context.Context, s dsl.Node) (*js.Schema, error) {
	return c.DSLToSchema(ctx, s, schemabridge.Output)
}

// DSLToSchema emits s with the registry definitions for side. Atoms become
// {"$ref": "#/$defs/<Key>"}; registry bodies are dropped from $defs, user
// definitions are kept, and an empty $defs is omitted.
func (c *Converter) DSLToSchema(ctx context.Context, s dsl.Node, side schemabridge.Side) (*js.Schema, error) {
	if s == nil {
		return nil, fmt.Errorf("convert: nil schema")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defs, err := c.reg.SchemaDefinitions(side)
	if err != nil {
		return nil, err
	}
	out, err := dsl.Emit(s, dsl.EmitOptions{
		DefinitionPath: "$defs",
		Definitions:    append(defs, c.defs...),
	})
	if err != nil {
		return nil, fmt.Errorf("convert: emit: %w", err)
	}
	for _, d := range defs {
		if !c.isUserDefinition(d.Name) {
			delete(out.Defs, d.Name)
		}
	}
	if len(out.Defs) == 0 {
		out.Defs = nil
	}
	return out, nil
}

func (c *Converter) isUserDefinition(name string) bool {
	for _, d := range c.defs {
		if d.Name == name {
			return true
		}
	}
	return false
}
