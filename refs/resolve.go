package refs

import (
	js "github.com/reoring/schemabridge/jsonschema"
)

const refKey = "$ref"

// Resolve rewrites doc in place for every edge, in order.
//
// A source that is missing, malformed or falsy (null, false, 0, "") is
// unresolvable and handled per Options.Unresolvable. Merging and KeepRefs only
// apply when both the reference node and its source are objects; otherwise the
// reference node is replaced by the source node.
func Resolve(doc *js.Document, refs []Ref, opts Options) (Diag, error) {
	d := &simpleDiag{log: opts.Logger}
	if doc == nil {
		return d, js.ErrNilDocument
	}
	for _, r := range refs {
		if err := resolveOne(doc, r, opts, d); err != nil {
			return d, err
		}
	}
	return d, nil
}

func resolveOne(doc *js.Document, r Ref, opts Options, d *simpleDiag) error {
	source, ok := lookupSource(doc, r)
	if !ok {
		return unresolvable(r, opts, d)
	}
	current, assign, ok := targetSlot(doc, r.Target)
	if !ok {
		return unresolvable(r, opts, d)
	}

	bothObjects := doc.IsObject(current) && doc.IsObject(source)
	switch {
	case opts.Merge != MergeNone && bothObjects:
		assign(mergeMembers(doc, current, source, opts))
	case opts.KeepRefs != "" && bothObjects:
		members := doc.Members(source)
		if orig, ok := doc.Get(current, refKey); ok {
			members = append(members, js.Member{Key: opts.KeepRefs, Value: orig})
		}
		assign(doc.NewObject(members...))
	default:
		assign(source)
	}
	return nil
}

func lookupSource(doc *js.Document, r Ref) (js.NodeID, bool) {
	if r.Malformed {
		return js.NoNode, false
	}
	id, ok := doc.Lookup(r.Source)
	if !ok || !doc.Truthy(id) {
		return js.NoNode, false
	}
	return id, true
}

// targetSlot returns the node currently at pointer and a setter replacing it.
// The root pointer "#" replaces the document root.
func targetSlot(doc *js.Document, pointer string) (js.NodeID, func(js.NodeID), bool) {
	if pointer == "#" {
		return doc.Root(), doc.SetRoot, true
	}
	parentPtr, key, ok := js.ParentPointer(pointer)
	if !ok {
		return js.NoNode, nil, false
	}
	parent, ok := doc.Lookup(parentPtr)
	if !ok || !doc.IsContainer(parent) {
		return js.NoNode, nil, false
	}
	current, _ := doc.Child(parent, key)
	if doc.Kind(parent) == js.KindArray && current == js.NoNode {
		return js.NoNode, nil, false
	}
	return current, func(v js.NodeID) { doc.SetChild(parent, key, v) }, true
}

// mergeMembers builds a new object from the target and source members.
// Later duplicates overwrite values but keep the first position.
func mergeMembers(doc *js.Document, target, source js.NodeID, opts Options) js.NodeID {
	tm := doc.Members(target)
	sm := doc.Members(source)

	var entries []js.Member
	switch opts.Merge {
	case MergeFavorTarget:
		entries = append(append(entries, sm...), tm...)
	case MergeFavorSource:
		entries = append(append(entries, tm...), sm...)
	default:
		at := doc.Index(target, refKey)
		if at < 0 {
			// Without a $ref the slot is before the last sibling.
			at = max(len(tm)-1, 0)
		}
		entries = append(entries, tm[:at]...)
		entries = append(entries, sm...)
		entries = append(entries, tm[at:]...)
	}

	out := make([]js.Member, 0, len(entries))
	for _, e := range entries {
		if e.Key == refKey {
			if opts.KeepRefs == "" {
				continue
			}
			e.Key = opts.KeepRefs
		}
		out = append(out, e)
	}
	return doc.NewObject(out...)
}

func unresolvable(r Ref, opts Options, d *simpleDiag) error {
	switch opts.Unresolvable {
	case Throw:
		return &UnresolvableError{Ref: r}
	case Skip:
		return nil
	default:
		d.warnf("could not resolve $ref from %s to %s", r.Target, r.describeSource())
		return nil
	}
}

// Hydrate finds every edge under the root, filters them with
// Options.RefFilter (default: well-formed edges only) and resolves them.
func Hydrate(doc *js.Document, opts Options) (Diag, error) {
	if doc == nil {
		return &simpleDiag{}, js.ErrNilDocument
	}
	if doc.Root() == js.NoNode {
		return &simpleDiag{}, nil
	}
	keep := opts.RefFilter
	if keep == nil {
		keep = func(r Ref) bool { return !r.Malformed }
	}
	all := Find(doc, doc.Root(), nil, "#")
	edges := all[:0]
	for _, r := range all {
		if keep(r) {
			edges = append(edges, r)
		}
	}
	if opts.SourcesFirst {
		edges = SourcesFirst(edges)
	}
	return Resolve(doc, edges, opts)
}
