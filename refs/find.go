// Package refs discovers and resolves local $ref pointers inside a
// jsonschema.Document.
//
// Find collects reference edges and flattens pointer chains as it goes, so
// Resolve is a single pass over the edges. Resolution rewrites the document in
// place: by default a reference node is replaced by its source node, which
// makes both locations share one NodeID. Self references therefore produce
// cyclic graphs without copying.
package refs

import (
	"strconv"

	js "github.com/reoring/schemabridge/jsonschema"
)

// Ref is a reference edge. Target is the pointer of the node holding $ref,
// Source the pointer it refers to. Malformed marks a $ref whose value is not
// a string; Source is empty in that case.
type Ref struct {
	Target    string
	Source    string
	Malformed bool
}

func (r Ref) describeSource() string {
	if r.Malformed {
		return "<non-string $ref>"
	}
	return r.Source
}

// Find walks every container child of node depth-first in member order and
// appends an edge for each child object carrying a truthy $ref. Children
// holding a $ref are not descended into.
//
// After recording an edge (P, T), every recorded edge whose source is P is
// rewritten to T, so chains collapse onto their final destination.
func Find(doc *js.Document, node js.NodeID, acc []Ref, pointer string) []Ref {
	if doc == nil {
		return acc
	}
	onPath := map[js.NodeID]bool{}
	return find(doc, node, acc, pointer, onPath)
}

func find(doc *js.Document, node js.NodeID, acc []Ref, pointer string, onPath map[js.NodeID]bool) []Ref {
	if onPath[node] {
		return acc
	}
	onPath[node] = true
	defer delete(onPath, node)

	visit := func(key string, child js.NodeID) {
		if !doc.IsContainer(child) {
			return
		}
		keyPath := js.JoinPointer(pointer, key)
		if ref, ok := doc.Get(child, "$ref"); ok && doc.Truthy(ref) {
			s, isStr := doc.Str(ref)
			edge := Ref{Target: keyPath, Source: s, Malformed: !isStr}
			acc = append(acc, edge)
			for i := range acc {
				if !acc[i].Malformed && acc[i].Source == keyPath {
					acc[i].Source, acc[i].Malformed = edge.Source, edge.Malformed
				}
			}
			return
		}
		acc = find(doc, child, acc, keyPath, onPath)
	}

	switch doc.Kind(node) {
	case js.KindObject:
		for _, m := range doc.Members(node) {
			visit(m.Key, m.Value)
		}
	case js.KindArray:
		for i, it := range doc.Items(node) {
			visit(strconv.Itoa(i), it)
		}
	}
	return acc
}
