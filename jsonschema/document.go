package jsonschema

import (
	"errors"
	"strconv"

	gojson "github.com/goccy/go-json"
)

// ErrNilDocument is returned by operations that require a document with a root.
var ErrNilDocument = errors.New("jsonschema: nil document")

// NodeID addresses a node inside a Document arena.
type NodeID int

// NoNode is returned when a lookup does not find a node.
const NoNode NodeID = -1

// Kind identifies the JSON type of a node.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Member is one key/value entry of an object node. Members keep insertion order.
type Member struct {
	Key   string
	Value NodeID
}

type node struct {
	kind    Kind
	b       bool
	s       string // string value or number text
	members []Member
	items   []NodeID
}

// Document is a JSON value stored as an arena of nodes.
//
// Containers refer to their children by NodeID, so assigning an existing ID to
// a member makes two locations identity-equal. Reference hydration uses this to
// alias (and, for self references, to close cycles) without copying.
// A Document is not safe for concurrent mutation.
type Document struct {
	nodes []node
	root  NodeID
}

// New returns an empty document without a root.
func New() *Document { return &Document{root: NoNode} }

// Root returns the root node, or NoNode for an empty document.
func (d *Document) Root() NodeID { return d.root }

// SetRoot replaces the root node.
func (d *Document) SetRoot(id NodeID) { d.root = id }

// Len reports the number of nodes in the arena (including unreachable ones).
func (d *Document) Len() int { return len(d.nodes) }

func (d *Document) valid(id NodeID) bool { return id >= 0 && int(id) < len(d.nodes) }

// Kind returns the kind of id; invalid IDs report KindNull.
func (d *Document) Kind(id NodeID) Kind {
	if !d.valid(id) {
		return KindNull
	}
	return d.nodes[id].kind
}

// IsObject reports whether id is an object node.
func (d *Document) IsObject(id NodeID) bool { return d.Kind(id) == KindObject }

// IsContainer reports whether id is an object or array node.
func (d *Document) IsContainer(id NodeID) bool {
	k := d.Kind(id)
	return k == KindObject || k == KindArray
}

// Members returns a copy of the members of an object node.
func (d *Document) Members(id NodeID) []Member {
	if d.Kind(id) != KindObject {
		return nil
	}
	return append([]Member(nil), d.nodes[id].members...)
}

// Keys returns the member keys of an object node in order.
func (d *Document) Keys(id NodeID) []string {
	if d.Kind(id) != KindObject {
		return nil
	}
	ks := make([]string, len(d.nodes[id].members))
	for i, m := range d.nodes[id].members {
		ks[i] = m.Key
	}
	return ks
}

// Index returns the position of key in an object node, or -1.
func (d *Document) Index(id NodeID, key string) int {
	if d.Kind(id) != KindObject {
		return -1
	}
	for i, m := range d.nodes[id].members {
		if m.Key == key {
			return i
		}
	}
	return -1
}

// Get returns the value of key in an object node.
func (d *Document) Get(id NodeID, key string) (NodeID, bool) {
	i := d.Index(id, key)
	if i < 0 {
		return NoNode, false
	}
	return d.nodes[id].members[i].Value, true
}

// Has reports whether an object node contains key.
func (d *Document) Has(id NodeID, key string) bool { return d.Index(id, key) >= 0 }

// Items returns a copy of the elements of an array node.
func (d *Document) Items(id NodeID) []NodeID {
	if d.Kind(id) != KindArray {
		return nil
	}
	return append([]NodeID(nil), d.nodes[id].items...)
}

// Str returns the value of a string node.
func (d *Document) Str(id NodeID) (string, bool) {
	if d.Kind(id) != KindString {
		return "", false
	}
	return d.nodes[id].s, true
}

// Number returns the value of a number node.
func (d *Document) Number(id NodeID) (gojson.Number, bool) {
	if d.Kind(id) != KindNumber {
		return "", false
	}
	return gojson.Number(d.nodes[id].s), true
}

// Bool returns the value of a boolean node.
func (d *Document) Bool(id NodeID) (bool, bool) {
	if d.Kind(id) != KindBool {
		return false, false
	}
	return d.nodes[id].b, true
}

// Truthy applies JavaScript truthiness: null, false, 0 and "" are falsy;
// every container is truthy.
func (d *Document) Truthy(id NodeID) bool {
	if !d.valid(id) {
		return false
	}
	n := d.nodes[id]
	switch n.kind {
	case KindBool:
		return n.b
	case KindNumber:
		f, err := strconv.ParseFloat(n.s, 64)
		return err != nil || f != 0
	case KindString:
		return n.s != ""
	case KindArray, KindObject:
		return true
	default:
		return false
	}
}

func (d *Document) add(n node) NodeID {
	d.nodes = append(d.nodes, n)
	return NodeID(len(d.nodes) - 1)
}

// NewNull appends a null node.
func (d *Document) NewNull() NodeID { return d.add(node{kind: KindNull}) }

// NewBool appends a boolean node.
func (d *Document) NewBool(b bool) NodeID { return d.add(node{kind: KindBool, b: b}) }

// NewNumber appends a number node. n must be valid JSON number text.
func (d *Document) NewNumber(n gojson.Number) NodeID {
	return d.add(node{kind: KindNumber, s: string(n)})
}

// NewString appends a string node.
func (d *Document) NewString(s string) NodeID { return d.add(node{kind: KindString, s: s}) }

// NewObject appends an object node with the given members. Duplicate keys keep
// the first position and the last value.
func (d *Document) NewObject(members ...Member) NodeID {
	id := d.add(node{kind: KindObject, members: make([]Member, 0, len(members))})
	for _, m := range members {
		d.Set(id, m.Key, m.Value)
	}
	return id
}

// NewArray appends an array node.
func (d *Document) NewArray(items ...NodeID) NodeID {
	return d.add(node{kind: KindArray, items: append([]NodeID(nil), items...)})
}

// Set assigns key on an object node. An existing key keeps its position.
func (d *Document) Set(obj NodeID, key string, v NodeID) bool {
	if d.Kind(obj) != KindObject {
		return false
	}
	if i := d.Index(obj, key); i >= 0 {
		d.nodes[obj].members[i].Value = v
		return true
	}
	d.nodes[obj].members = append(d.nodes[obj].members, Member{Key: key, Value: v})
	return true
}

// SetItem replaces element i of an array node.
func (d *Document) SetItem(arr NodeID, i int, v NodeID) bool {
	if d.Kind(arr) != KindArray || i < 0 || i >= len(d.nodes[arr].items) {
		return false
	}
	d.nodes[arr].items[i] = v
	return true
}

// Delete removes key from an object node.
func (d *Document) Delete(obj NodeID, key string) bool {
	i := d.Index(obj, key)
	if i < 0 {
		return false
	}
	ms := d.nodes[obj].members
	d.nodes[obj].members = append(ms[:i:i], ms[i+1:]...)
	return true
}

// Child returns the child of a container addressed by an unescaped pointer
// segment: a member key for objects, a decimal index for arrays.
func (d *Document) Child(parent NodeID, seg string) (NodeID, bool) {
	switch d.Kind(parent) {
	case KindObject:
		return d.Get(parent, seg)
	case KindArray:
		i, ok := arrayIndex(seg)
		if !ok || i >= len(d.nodes[parent].items) {
			return NoNode, false
		}
		return d.nodes[parent].items[i], true
	}
	return NoNode, false
}

// SetChild assigns the child of a container addressed by a pointer segment.
// Arrays only accept existing indexes.
func (d *Document) SetChild(parent NodeID, seg string, v NodeID) bool {
	switch d.Kind(parent) {
	case KindObject:
		return d.Set(parent, seg, v)
	case KindArray:
		i, ok := arrayIndex(seg)
		if !ok {
			return false
		}
		return d.SetItem(parent, i, v)
	}
	return false
}

func arrayIndex(seg string) (int, bool) {
	if seg == "" || (len(seg) > 1 && seg[0] == '0') {
		return 0, false
	}
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// Lookup resolves a local pointer ("#", "#/a/b") from the root.
func (d *Document) Lookup(pointer string) (NodeID, bool) {
	segs, ok := SplitPointer(pointer)
	if !ok {
		return NoNode, false
	}
	return d.Walk(d.root, segs)
}

// Walk follows unescaped segments starting at from.
func (d *Document) Walk(from NodeID, segs []string) (NodeID, bool) {
	if !d.valid(from) {
		return NoNode, false
	}
	cur := from
	for _, s := range segs {
		next, ok := d.Child(cur, s)
		if !ok {
			return NoNode, false
		}
		cur = next
	}
	return cur, true
}

// Clone returns an independent copy of the document. NodeIDs are preserved,
// so aliasing in d is aliasing in the copy.
func (d *Document) Clone() *Document {
	out := &Document{root: d.root, nodes: make([]node, len(d.nodes))}
	for i, n := range d.nodes {
		n.members = append([]Member(nil), n.members...)
		n.items = append([]NodeID(nil), n.items...)
		out.nodes[i] = n
	}
	return out
}
