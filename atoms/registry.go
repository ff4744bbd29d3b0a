package atoms

import (
	"errors"
	"fmt"
	"strings"

	schemabridge "github.com/reoring/schemabridge"
	"github.com/reoring/schemabridge/dsl"
)

// ErrUnknownConstructor is returned when a definition names a constructor
// that is not registered.
var ErrUnknownConstructor = errors.New("atoms: unknown constructor")

// Definition maps a JSON Schema definition key to the constructors used for
// each side.
type Definition struct {
	Key    string // e.g. "Image", referenced as #/$defs/Image
	Input  string // constructor name for the input side
	Output string // constructor name for the output side
}

// Constructor is a named schema factory. Func is the exported Go function in
// this package that New calls; generated source refers to it.
type Constructor struct {
	Name string
	Func string
	New  func() *dsl.AtomSchema
}

// Registry is the closed set of atom types. It is immutable.
type Registry struct {
	defs   []Definition
	ctors  []Constructor
	byName map[string]int
	byKey  map[string]int
}

// NewRegistry returns the registry of Image, DatetimeLocal and File.
func NewRegistry() *Registry {
	return newRegistry(
		[]Definition{
			{Key: "Image", Input: "imageInput", Output: "imageOutput"},
			{Key: "DatetimeLocal", Input: "datetimeLocal", Output: "datetimeLocal"},
			{Key: "File", Input: "fileInput", Output: "fileOutput"},
		},
		[]Constructor{
			{Name: "imageInput", Func: "ImageInput", New: ImageInput},
			{Name: "imageOutput", Func: "ImageOutput", New: ImageOutput},
			{Name: "datetimeLocal", Func: "DatetimeLocal", New: DatetimeLocal},
			{Name: "fileInput", Func: "FileInput", New: FileInput},
			{Name: "fileOutput", Func: "FileOutput", New: FileOutput},
		},
	)
}

func newRegistry(defs []Definition, ctors []Constructor) *Registry {
	r := &Registry{
		defs:   append([]Definition(nil), defs...),
		ctors:  append([]Constructor(nil), ctors...),
		byName: make(map[string]int, len(ctors)),
		byKey:  make(map[string]int, len(defs)),
	}
	for i, c := range r.ctors {
		if _, dup := r.byName[c.Name]; !dup {
			r.byName[c.Name] = i
		}
	}
	for i, d := range r.defs {
		r.byKey[d.Key] = i
	}
	return r
}

// Definitions returns the definitions in registry order.
func (r *Registry) Definitions() []Definition { return append([]Definition(nil), r.defs...) }

// Constructors returns the constructor table in order.
func (r *Registry) Constructors() []Constructor { return append([]Constructor(nil), r.ctors...) }

// Lookup returns the definition for a key such as "Image".
func (r *Registry) Lookup(key string) (Definition, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// IsKey reports whether key names a registered definition.
func (r *Registry) IsKey(key string) bool {
	_, ok := r.byKey[key]
	return ok
}

// MatchRef maps a "#/$defs/<Key>" reference to its definition. Other
// reference forms never match.
func (r *Registry) MatchRef(ref string) (Definition, bool) {
	key, ok := strings.CutPrefix(ref, "#/$defs/")
	if !ok || strings.Contains(key, "/") {
		return Definition{}, false
	}
	return r.Lookup(key)
}

// ConstructorFor returns the constructor serving side of d.
func (r *Registry) ConstructorFor(d Definition, side schemabridge.Side) (Constructor, error) {
	name := d.Input
	if side == schemabridge.Output {
		name = d.Output
	}
	i, ok := r.byName[name]
	if !ok {
		return Constructor{}, fmt.Errorf("%w: %q (definition %s, %s)", ErrUnknownConstructor, name, d.Key, side)
	}
	return r.ctors[i], nil
}

// SchemaDefinitions builds one fresh schema per definition for side, keyed by
// the definition key, in registry order.
func (r *Registry) SchemaDefinitions(side schemabridge.Side) ([]dsl.Definition, error) {
	out := make([]dsl.Definition, 0, len(r.defs))
	for _, d := range r.defs {
		c, err := r.ConstructorFor(d, side)
		if err != nil {
			return nil, err
		}
		out = append(out, dsl.Definition{Name: d.Key, Schema: c.New()})
	}
	return out, nil
}

// Check verifies that definitions and constructors correspond one to one and
// in order: walking the definitions, input before output, and keeping the
// first occurrence of each name must yield exactly the constructor table.
func (r *Registry) Check() error {
	seen := map[string]bool{}
	var walked []string
	for _, d := range r.defs {
		for _, name := range []string{d.Input, d.Output} {
			if _, ok := r.byName[name]; !ok {
				return fmt.Errorf("%w: %q (definition %s)", ErrUnknownConstructor, name, d.Key)
			}
			if !seen[name] {
				seen[name] = true
				walked = append(walked, name)
			}
		}
	}
	if len(walked) != len(r.ctors) {
		return fmt.Errorf("atoms: %d constructors used by definitions, %d registered", len(walked), len(r.ctors))
	}
	for i, c := range r.ctors {
		if walked[i] != c.Name {
			return fmt.Errorf("atoms: constructor %d is %q, definitions expect %q", i, c.Name, walked[i])
		}
		if c.New == nil {
			return fmt.Errorf("atoms: constructor %q has no factory", c.Name)
		}
	}
	return nil
}
