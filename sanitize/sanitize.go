// Package sanitize infers a missing JSON Schema "type" keyword from
// structural hints so that the translator can dispatch on it.
package sanitize

import (
	js "github.com/reoring/schemabridge/jsonschema"
)

var (
	objectHints = []string{"properties", "patternProperties", "propertyNames", "minProperties", "maxProperties"}
	arrayHints  = []string{"items", "prefixItems", "contains", "uniqueItems", "minItems", "maxItems"}
)

// Members whose value maps names to schemas. The map itself is not a schema:
// it never receives an inferred type, so a property named "items" does not
// turn "properties" into an array. Only the named values are visited.
// Together with dataKeywords these are the only members the walk does not
// treat as schemas.
var namedSchemaMaps = map[string]bool{
	"properties":        true,
	"patternProperties": true,
	"$defs":             true,
	"definitions":       true,
	"dependentSchemas":  true,
}

// Members holding instance data rather than schemas. They are not descended.
var dataKeywords = map[string]bool{
	"enum":     true,
	"const":    true,
	"default":  true,
	"examples": true,
}

// Sanitize applies Node to the document root. It returns the number of
// nodes that received a type.
func Sanitize(doc *js.Document) (int, error) {
	if doc == nil {
		return 0, js.ErrNilDocument
	}
	return Node(doc, doc.Root()), nil
}

// Node sets type "object" on id when it has no type and carries an object
// hint, otherwise type "array" when it carries an array hint, then recurses
// into every container member except data keywords. Name-keyed maps are
// entered without being typed themselves. Already typed nodes are left alone.
// Shared and cyclic nodes are visited once.
func Node(doc *js.Document, id js.NodeID) int {
	s := &sanitizer{doc: doc, seen: map[js.NodeID]bool{}}
	s.schema(id)
	return s.typed
}

type sanitizer struct {
	doc   *js.Document
	seen  map[js.NodeID]bool
	typed int
}

func (s *sanitizer) schema(id js.NodeID) {
	if s.seen[id] {
		return
	}
	s.seen[id] = true
	d := s.doc

	switch d.Kind(id) {
	case js.KindArray:
		for _, it := range d.Items(id) {
			s.schema(it)
		}
		return
	case js.KindObject:
	default:
		return
	}

	if !d.Has(id, "type") {
		switch {
		case hasAny(d, id, objectHints):
			d.Set(id, "type", d.NewString("object"))
			s.typed++
		case hasAny(d, id, arrayHints):
			d.Set(id, "type", d.NewString("array"))
			s.typed++
		}
	}

	for _, m := range d.Members(id) {
		switch {
		case dataKeywords[m.Key]:
		case namedSchemaMaps[m.Key] && d.IsObject(m.Value):
			if s.seen[m.Value] {
				continue
			}
			s.seen[m.Value] = true
			for _, named := range d.Members(m.Value) {
				s.schema(named.Value)
			}
		default:
			s.schema(m.Value)
		}
	}
}

func hasAny(d *js.Document, id js.NodeID, keys []string) bool {
	for _, k := range keys {
		if d.Has(id, k) {
			return true
		}
	}
	return false
}
