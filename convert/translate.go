package convert

import (
	"fmt"
	"log/slog"

	schemabridge "github.com/reoring/schemabridge"
	"github.com/reoring/schemabridge/atoms"
	ir "github.com/reoring/schemabridge/internal/ir"
	js "github.com/reoring/schemabridge/jsonschema"
)

// translator turns a sanitized, hydrated document into IR. Nodes whose kept
// $ref names a registry definition are replaced by the atom constructor for
// the selected side.
type translator struct {
	doc    *js.Document
	reg    *atoms.Registry
	side   schemabridge.Side
	log    *slog.Logger
	onPath map[js.NodeID]*ir.Ref
}

func newTranslator(doc *js.Document, reg *atoms.Registry, side schemabridge.Side, log *slog.Logger) *translator {
	return &translator{doc: doc, reg: reg, side: side, log: log, onPath: map[js.NodeID]*ir.Ref{}}
}

func (t *translator) warn(ptr, msg string, args ...any) {
	if t.log == nil {
		return
	}
	t.log.Warn(msg, append([]any{"component", "convert", "pointer", ptr}, args...)...)
}

// schema translates the node id found at ptr.
func (t *translator) schema(id js.NodeID, ptr string) (ir.Schema, error) {
	switch t.doc.Kind(id) {
	case js.KindBool:
		if b, _ := t.doc.Bool(id); b {
			return &ir.Any{}, nil
		}
		// false accepts nothing
		return &ir.Union{}, nil
	case js.KindObject:
	default:
		return nil, fmt.Errorf("convert: schema at %s is a %s, want object or boolean", ptr, t.doc.Kind(id))
	}

	if atom, ok, err := t.atom(id); ok || err != nil {
		return atom, err
	}
	if ref, ok := t.onPath[id]; ok {
		return ref, nil
	}
	back := &ir.Ref{}
	t.onPath[id] = back
	defer delete(t.onPath, id)

	s, err := t.structural(id, ptr)
	if err != nil {
		return nil, err
	}
	if b, ok := t.boolKey(id, "nullable"); ok && b {
		s = &ir.Nullable{Inner: s}
	}
	if d, ok := t.strKey(id, "description"); ok && d != "" {
		s = &ir.Describe{Inner: s, Text: d}
	}
	back.Target = s
	return s, nil
}

func (t *translator) atom(id js.NodeID) (ir.Schema, bool, error) {
	ref, ok := t.strKey(id, "$ref")
	if !ok {
		return nil, false, nil
	}
	def, ok := t.reg.MatchRef(ref)
	if !ok {
		return nil, false, nil
	}
	c, err := t.reg.ConstructorFor(def, t.side)
	if err != nil {
		return nil, true, err
	}
	return &ir.Atom{Name: c.Name, Func: c.Func}, true, nil
}

func (t *translator) structural(id js.NodeID, ptr string) (ir.Schema, error) {
	if e, ok := t.doc.Get(id, "enum"); ok {
		return t.enum(e, ptr)
	}
	if c, ok := t.doc.Get(id, "const"); ok {
		return t.literal(c, ptr+"/const"), nil
	}
	for _, key := range []string{"anyOf", "oneOf"} {
		if arr, ok := t.doc.Get(id, key); ok {
			opts, err := t.list(arr, ptr+"/"+key)
			if err != nil {
				return nil, err
			}
			return &ir.Union{Options: opts}, nil
		}
	}
	if arr, ok := t.doc.Get(id, "allOf"); ok {
		return t.allOf(id, arr, ptr)
	}

	typ, ok := t.doc.Get(id, "type")
	if !ok {
		return &ir.Any{}, nil
	}
	if name, ok := t.doc.Str(typ); ok {
		return t.typed(id, name, ptr)
	}
	names := t.doc.Items(typ)
	if t.doc.Kind(typ) != js.KindArray || len(names) == 0 {
		return nil, fmt.Errorf("convert: invalid type keyword at %s", ptr)
	}
	var opts []ir.Schema
	nullable := false
	for _, n := range names {
		name, ok := t.doc.Str(n)
		if !ok {
			return nil, fmt.Errorf("convert: invalid type keyword at %s", ptr)
		}
		if name == "null" && len(names) > 1 {
			nullable = true
			continue
		}
		s, err := t.typed(id, name, ptr)
		if err != nil {
			return nil, err
		}
		opts = append(opts, s)
	}
	var out ir.Schema = &ir.Union{Options: opts}
	if len(opts) == 1 {
		out = opts[0]
	}
	if nullable {
		out = &ir.Nullable{Inner: out}
	}
	return out, nil
}

func (t *translator) list(arr js.NodeID, ptr string) ([]ir.Schema, error) {
	if t.doc.Kind(arr) != js.KindArray {
		return nil, fmt.Errorf("convert: %s must be an array", ptr)
	}
	items := t.doc.Items(arr)
	out := make([]ir.Schema, 0, len(items))
	for i, it := range items {
		s, err := t.schema(it, fmt.Sprintf("%s/%d", ptr, i))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (t *translator) enum(arr js.NodeID, ptr string) (ir.Schema, error) {
	items := t.doc.Items(arr)
	if t.doc.Kind(arr) != js.KindArray || len(items) == 0 {
		return nil, fmt.Errorf("convert: enum at %s must be a non-empty array", ptr)
	}
	values := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := t.doc.Str(it)
		if !ok {
			values = nil
			break
		}
		values = append(values, s)
	}
	if values != nil {
		return &ir.Enum{Values: values}, nil
	}
	if len(items) == 1 {
		return t.literal(items[0], ptr+"/enum/0"), nil
	}
	opts := make([]ir.Schema, len(items))
	for i, it := range items {
		opts[i] = t.literal(it, fmt.Sprintf("%s/enum/%d", ptr, i))
	}
	return &ir.Union{Options: opts}, nil
}

func (t *translator) literal(id js.NodeID, ptr string) ir.Schema {
	switch t.doc.Kind(id) {
	case js.KindNull:
		return &ir.Literal{Value: nil}
	case js.KindBool:
		b, _ := t.doc.Bool(id)
		return &ir.Literal{Value: b}
	case js.KindNumber:
		n, _ := t.doc.Number(id)
		return &ir.Literal{Value: n}
	case js.KindString:
		s, _ := t.doc.Str(id)
		return &ir.Literal{Value: s}
	}
	t.warn(ptr, "non-scalar literal accepted as any")
	return &ir.Any{}
}

// allOf merges object members into one object: properties in order of
// appearance (later definitions win) and the union of required names.
// When a member is not object shaped the first member is used alone.
func (t *translator) allOf(id, arr js.NodeID, ptr string) (ir.Schema, error) {
	members, err := t.list(arr, ptr+"/allOf")
	if err != nil {
		return nil, err
	}
	if own, ok := t.doc.Get(id, "properties"); ok && t.doc.IsObject(own) {
		base, err := t.typed(id, "object", ptr)
		if err != nil {
			return nil, err
		}
		members = append([]ir.Schema{base}, members...)
	}
	if len(members) == 1 {
		return members[0], nil
	}
	merged := &ir.Object{Required: map[string]struct{}{}}
	index := map[string]int{}
	for _, m := range members {
		obj, ok := unwrapObject(m)
		if !ok {
			t.warn(ptr, "allOf member is not an object; using the first member")
			return members[0], nil
		}
		for _, f := range obj.Fields {
			if i, dup := index[f.Name]; dup {
				merged.Fields[i].Schema = f.Schema
				continue
			}
			index[f.Name] = len(merged.Fields)
			merged.Fields = append(merged.Fields, f)
		}
		for name := range obj.Required {
			merged.Required[name] = struct{}{}
		}
		if obj.UnknownPolicy > merged.UnknownPolicy {
			merged.UnknownPolicy = obj.UnknownPolicy
		}
	}
	return merged, nil
}

func unwrapObject(s ir.Schema) (*ir.Object, bool) {
	for {
		switch n := s.(type) {
		case *ir.Object:
			return n, true
		case *ir.Describe:
			s = n.Inner
		default:
			return nil, false
		}
	}
}

func (t *translator) typed(id js.NodeID, name, ptr string) (ir.Schema, error) {
	switch name {
	case "string":
		p := &ir.Primitive{Name: name}
		p.MinLength = t.intKey(id, "minLength")
		p.MaxLength = t.intKey(id, "maxLength")
		p.Pattern, _ = t.strKey(id, "pattern")
		p.Format, _ = t.strKey(id, "format")
		if enc, _ := t.strKey(id, "contentEncoding"); enc == "base64" {
			p.Base64 = true
		}
		return p, nil
	case "number", "integer":
		p := &ir.Primitive{Name: name}
		p.Minimum = t.floatKey(id, "minimum")
		p.Maximum = t.floatKey(id, "maximum")
		p.ExclusiveMinimum = t.exclusive(id, "exclusiveMinimum", &p.Minimum)
		p.ExclusiveMaximum = t.exclusive(id, "exclusiveMaximum", &p.Maximum)
		return p, nil
	case "boolean", "null":
		return &ir.Primitive{Name: name}, nil
	case "array":
		return t.array(id, ptr)
	case "object":
		return t.object(id, ptr)
	}
	return nil, fmt.Errorf("convert: unsupported type %q at %s", name, ptr)
}

// exclusive reads a numeric exclusive bound, or the draft-04 boolean form
// which turns the inclusive bound into an exclusive one.
func (t *translator) exclusive(id js.NodeID, key string, inclusive **float64) *float64 {
	if f := t.floatKey(id, key); f != nil {
		return f
	}
	if b, ok := t.boolKey(id, key); ok && b && *inclusive != nil {
		f := *inclusive
		*inclusive = nil
		return f
	}
	return nil
}

func (t *translator) array(id js.NodeID, ptr string) (ir.Schema, error) {
	if prefix, ok := t.doc.Get(id, "prefixItems"); ok {
		items, err := t.list(prefix, ptr+"/prefixItems")
		if err != nil {
			return nil, err
		}
		return &ir.Tuple{Items: items}, nil
	}
	a := &ir.Array{MinItems: t.intKey(id, "minItems"), MaxItems: t.intKey(id, "maxItems")}
	items, ok := t.doc.Get(id, "items")
	switch {
	case !ok:
		a.Item = &ir.Any{}
	case t.doc.Kind(items) == js.KindArray:
		// draft-04 tuple form
		list, err := t.list(items, ptr+"/items")
		if err != nil {
			return nil, err
		}
		return &ir.Tuple{Items: list}, nil
	default:
		item, err := t.schema(items, ptr+"/items")
		if err != nil {
			return nil, err
		}
		a.Item = item
	}
	return a, nil
}

func (t *translator) object(id js.NodeID, ptr string) (ir.Schema, error) {
	props, hasProps := t.doc.Get(id, "properties")
	hasProps = hasProps && t.doc.IsObject(props) && len(t.doc.Members(props)) > 0
	addl, hasAddl := t.doc.Get(id, "additionalProperties")

	if !hasProps {
		switch {
		case hasAddl && t.doc.IsObject(addl):
			v, err := t.schema(addl, ptr+"/additionalProperties")
			if err != nil {
				return nil, err
			}
			return &ir.Record{Value: v}, nil
		case hasAddl && t.doc.Kind(addl) == js.KindBool && !t.doc.Truthy(addl):
			return &ir.Object{Required: map[string]struct{}{}, UnknownPolicy: int(schemabridge.UnknownStrict)}, nil
		default:
			return &ir.Record{Value: &ir.Any{}}, nil
		}
	}

	obj := &ir.Object{Required: map[string]struct{}{}}
	declared := map[string]bool{}
	for _, m := range t.doc.Members(props) {
		fs, err := t.schema(m.Value, js.JoinPointer(ptr+"/properties", m.Key))
		if err != nil {
			return nil, err
		}
		obj.Fields = append(obj.Fields, ir.Field{Name: m.Key, Schema: fs})
		declared[m.Key] = true
	}
	if req, ok := t.doc.Get(id, "required"); ok {
		for _, r := range t.doc.Items(req) {
			name, ok := t.doc.Str(r)
			if !ok {
				continue
			}
			if !declared[name] {
				// required but undeclared: any value, as long as it is present
				obj.Fields = append(obj.Fields, ir.Field{Name: name, Schema: &ir.Any{}})
				declared[name] = true
			}
			obj.Required[name] = struct{}{}
		}
	}
	if hasAddl {
		if b, ok := t.doc.Bool(addl); ok && !b {
			obj.UnknownPolicy = int(schemabridge.UnknownStrict)
		} else {
			obj.UnknownPolicy = int(schemabridge.UnknownPassthrough)
		}
	}
	return obj, nil
}

func (t *translator) strKey(id js.NodeID, key string) (string, bool) {
	v, ok := t.doc.Get(id, key)
	if !ok {
		return "", false
	}
	return t.doc.Str(v)
}

func (t *translator) boolKey(id js.NodeID, key string) (bool, bool) {
	v, ok := t.doc.Get(id, key)
	if !ok {
		return false, false
	}
	return t.doc.Bool(v)
}

func (t *translator) floatKey(id js.NodeID, key string) *float64 {
	v, ok := t.doc.Get(id, key)
	if !ok {
		return nil
	}
	n, ok := t.doc.Number(v)
	if !ok {
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil
	}
	return &f
}

func (t *translator) intKey(id js.NodeID, key string) *int {
	f := t.floatKey(id, key)
	if f == nil || *f < 0 {
		return nil
	}
	n := int(*f)
	return &n
}
