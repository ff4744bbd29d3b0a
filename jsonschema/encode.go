package jsonschema

import (
	"bytes"
	"strconv"

	gojson "github.com/goccy/go-json"
)

// MarshalJSON encodes the document from its root. Member order is preserved.
//
// A node met again while it is still on the current path (a reference cycle
// closed by hydration) is written as {"$ref": "<pointer of its first
// occurrence>"}. Shared nodes that do not form a cycle are written in full.
func (d *Document) MarshalJSON() ([]byte, error) {
	if d == nil || !d.valid(d.root) {
		return []byte("null"), nil
	}
	return d.Encode(d.root)
}

// Encode encodes the subtree rooted at id.
func (d *Document) Encode(id NodeID) ([]byte, error) {
	e := &encoder{d: d, first: map[NodeID]string{}, onPath: map[NodeID]bool{}}
	if err := e.write(id, "#"); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	d      *Document
	buf    bytes.Buffer
	first  map[NodeID]string
	onPath map[NodeID]bool
}

func (e *encoder) writeString(s string) error {
	b, err := gojson.MarshalNoEscape(s)
	if err != nil {
		return err
	}
	e.buf.Write(b)
	return nil
}

func (e *encoder) write(id NodeID, ptr string) error {
	if !e.d.valid(id) {
		e.buf.WriteString("null")
		return nil
	}
	n := &e.d.nodes[id]
	switch n.kind {
	case KindNull:
		e.buf.WriteString("null")
		return nil
	case KindBool:
		if n.b {
			e.buf.WriteString("true")
		} else {
			e.buf.WriteString("false")
		}
		return nil
	case KindNumber:
		e.buf.WriteString(n.s)
		return nil
	case KindString:
		return e.writeString(n.s)
	}

	if e.onPath[id] {
		e.buf.WriteString(`{"$ref":`)
		if err := e.writeString(e.first[id]); err != nil {
			return err
		}
		e.buf.WriteByte('}')
		return nil
	}
	if _, ok := e.first[id]; !ok {
		e.first[id] = ptr
	}
	e.onPath[id] = true
	defer delete(e.onPath, id)

	if n.kind == KindArray {
		e.buf.WriteByte('[')
		for i, it := range n.items {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			if err := e.write(it, ptr+"/"+strconv.Itoa(i)); err != nil {
				return err
			}
		}
		e.buf.WriteByte(']')
		return nil
	}
	e.buf.WriteByte('{')
	for i, m := range n.members {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		if err := e.writeString(m.Key); err != nil {
			return err
		}
		e.buf.WriteByte(':')
		if err := e.write(m.Value, JoinPointer(ptr, m.Key)); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

// Value converts the document into plain Go values (map[string]any, []any,
// string, json.Number, bool, nil). Cycles are cut the same way as in
// MarshalJSON.
func (d *Document) Value() any {
	if d == nil || !d.valid(d.root) {
		return nil
	}
	return d.ValueOf(d.root)
}

// ValueOf converts the subtree rooted at id into plain Go values.
func (d *Document) ValueOf(id NodeID) any {
	first := map[NodeID]string{}
	onPath := map[NodeID]bool{}
	var conv func(id NodeID, ptr string) any
	conv = func(id NodeID, ptr string) any {
		if !d.valid(id) {
			return nil
		}
		n := &d.nodes[id]
		switch n.kind {
		case KindBool:
			return n.b
		case KindNumber:
			return gojson.Number(n.s)
		case KindString:
			return n.s
		case KindNull:
			return nil
		}
		if onPath[id] {
			return map[string]any{"$ref": first[id]}
		}
		if _, ok := first[id]; !ok {
			first[id] = ptr
		}
		onPath[id] = true
		defer delete(onPath, id)
		if n.kind == KindArray {
			out := make([]any, len(n.items))
			for i, it := range n.items {
				out[i] = conv(it, ptr+"/"+strconv.Itoa(i))
			}
			return out
		}
		out := make(map[string]any, len(n.members))
		for _, m := range n.members {
			out[m.Key] = conv(m.Value, JoinPointer(ptr, m.Key))
		}
		return out
	}
	return conv(id, "#")
}
