package dsl

import (
	"fmt"

	js "github.com/reoring/schemabridge/jsonschema"
)

// Definition is a named schema emitted once under the definition path and
// referenced everywhere else.
type Definition struct {
	Name   string
	Schema Node
}

// EmitOptions configures Emit.
type EmitOptions struct {
	// DefinitionPath is "$defs" (default) or "definitions".
	DefinitionPath string
	// Definitions are known schemas. A node matches a definition when it is
	// the same instance, or when both are atoms with the same ID.
	Definitions []Definition
}

// Emit projects n into JSON Schema. Nodes matching a definition become
// {"$ref": "#/<path>/<Name>"}; every definition body is emitted into the root.
// A node reached again while it is being emitted (a recursive Lazy) becomes a
// $ref to its first occurrence.
func Emit(n Node, opts EmitOptions) (*js.Schema, error) {
	if n == nil {
		return nil, fmt.Errorf("dsl: emit: nil schema")
	}
	path := opts.DefinitionPath
	switch path {
	case "":
		path = "$defs"
	case "$defs", "definitions":
	default:
		return nil, fmt.Errorf("dsl: emit: unsupported definition path %q", path)
	}
	e := &emitter{defs: opts.Definitions, path: path, onPath: map[Node]string{}}

	root, err := e.node(n, "#")
	if err != nil {
		return nil, err
	}
	if len(e.defs) == 0 {
		return root, nil
	}
	bodies := make(map[string]*js.Schema, len(e.defs))
	for _, d := range e.defs {
		if d.Schema == nil {
			return nil, fmt.Errorf("dsl: emit: definition %q has a nil schema", d.Name)
		}
		body, err := e.body(d.Schema, e.pointer(d.Name))
		if err != nil {
			return nil, fmt.Errorf("dsl: emit: definition %q: %w", d.Name, err)
		}
		bodies[d.Name] = body
	}
	if path == "definitions" {
		root.Definitions = bodies
	} else {
		root.Defs = bodies
	}
	return root, nil
}

type emitter struct {
	defs   []Definition
	path   string
	onPath map[Node]string
}

func (e *emitter) pointer(name string) string {
	return js.JoinPointer("#/"+e.path, name)
}

// node emits n at ptr, substituting definition and back references.
func (e *emitter) node(n Node, ptr string) (*js.Schema, error) {
	if n == nil {
		return nil, fmt.Errorf("dsl: emit: nil schema at %s", ptr)
	}
	if first, ok := e.onPath[n]; ok {
		return js.RefTo(first), nil
	}
	if name, ok := e.match(n); ok {
		return js.RefTo(e.pointer(name)), nil
	}
	return e.body(n, ptr)
}

// body emits n without trying to match it against a definition.
func (e *emitter) body(n Node, ptr string) (*js.Schema, error) {
	e.onPath[n] = ptr
	defer delete(e.onPath, n)
	s, err := n.emit(e, ptr)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrUnsupported
	}
	return s, nil
}

func (e *emitter) match(n Node) (string, bool) {
	atom, isAtom := n.(*AtomSchema)
	for _, d := range e.defs {
		if d.Schema == n {
			return d.Name, true
		}
		if isAtom {
			if da, ok := d.Schema.(*AtomSchema); ok && da.id == atom.id {
				return d.Name, true
			}
		}
	}
	return "", false
}
