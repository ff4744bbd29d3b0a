package jsonschema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedValue is returned by FromValue for Go values with no JSON form.
var ErrUnsupportedValue = errors.New("jsonschema: unsupported value")

// Parse decodes a JSON document preserving object member order.
// Numbers are kept as their literal text.
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("jsonschema: empty document")
	}
	// The token stream does not check separators, so validate first.
	if !gojson.Valid(data) {
		return nil, fmt.Errorf("jsonschema: invalid JSON")
	}
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	d := New()
	root, err := d.decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("jsonschema: invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("jsonschema: invalid JSON: trailing data")
	}
	d.root = root
	return d, nil
}

func (d *Document) decodeValue(dec *gojson.Decoder) (NodeID, error) {
	tok, err := dec.Token()
	if err != nil {
		return NoNode, err
	}
	return d.decodeToken(dec, tok)
}

func (d *Document) decodeToken(dec *gojson.Decoder, tok gojson.Token) (NodeID, error) {
	switch v := tok.(type) {
	case gojson.Delim:
		switch v {
		case '{':
			obj := d.NewObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return NoNode, err
				}
				key, ok := kt.(string)
				if !ok {
					return NoNode, fmt.Errorf("object key is %T", kt)
				}
				val, err := d.decodeValue(dec)
				if err != nil {
					return NoNode, err
				}
				d.Set(obj, key, val)
			}
			if _, err := dec.Token(); err != nil { // '}'
				return NoNode, err
			}
			return obj, nil
		case '[':
			arr := d.NewArray()
			for dec.More() {
				val, err := d.decodeValue(dec)
				if err != nil {
					return NoNode, err
				}
				d.nodes[arr].items = append(d.nodes[arr].items, val)
			}
			if _, err := dec.Token(); err != nil { // ']'
				return NoNode, err
			}
			return arr, nil
		}
		return NoNode, fmt.Errorf("unexpected delimiter %q", rune(v))
	case string:
		return d.NewString(v), nil
	case bool:
		return d.NewBool(v), nil
	case gojson.Number:
		// The decoder may hand out number text backed by its read buffer.
		return d.NewNumber(gojson.Number(strings.Clone(string(v)))), nil
	case float64:
		return d.NewNumber(gojson.Number(strconv.FormatFloat(v, 'g', -1, 64))), nil
	case nil:
		return d.NewNull(), nil
	}
	return NoNode, fmt.Errorf("unexpected token %T", tok)
}

// ParseYAML decodes a single YAML document preserving mapping order.
// YAML aliases become shared nodes.
func ParseYAML(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("jsonschema: invalid YAML: %w", err)
	}
	if root.Kind == 0 {
		return nil, fmt.Errorf("jsonschema: empty document")
	}
	d := New()
	seen := make(map[*yaml.Node]NodeID)
	id, err := d.fromYAML(&root, seen)
	if err != nil {
		return nil, fmt.Errorf("jsonschema: %w", err)
	}
	d.root = id
	return d, nil
}

func (d *Document) fromYAML(n *yaml.Node, seen map[*yaml.Node]NodeID) (NodeID, error) {
	if id, ok := seen[n]; ok {
		return id, nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return d.NewNull(), nil
		}
		return d.fromYAML(n.Content[0], seen)
	case yaml.AliasNode:
		return d.fromYAML(n.Alias, seen)
	case yaml.MappingNode:
		obj := d.NewObject()
		seen[n] = obj
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return NoNode, fmt.Errorf("line %d: non-scalar mapping key", k.Line)
			}
			val, err := d.fromYAML(v, seen)
			if err != nil {
				return NoNode, err
			}
			d.Set(obj, k.Value, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := d.NewArray()
		seen[n] = arr
		for _, c := range n.Content {
			val, err := d.fromYAML(c, seen)
			if err != nil {
				return NoNode, err
			}
			d.nodes[arr].items = append(d.nodes[arr].items, val)
		}
		return arr, nil
	case yaml.ScalarNode:
		id, err := d.fromYAMLScalar(n)
		if err == nil {
			seen[n] = id
		}
		return id, err
	}
	return NoNode, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

func (d *Document) fromYAMLScalar(n *yaml.Node) (NodeID, error) {
	switch n.ShortTag() {
	case "!!null":
		return d.NewNull(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return NoNode, err
		}
		return d.NewBool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return NoNode, err
		}
		return d.NewNumber(gojson.Number(strconv.FormatInt(i, 10))), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return NoNode, err
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return NoNode, fmt.Errorf("line %d: %s has no JSON representation", n.Line, n.Value)
		}
		return d.NewNumber(gojson.Number(strconv.FormatFloat(f, 'g', -1, 64))), nil
	default:
		return d.NewString(n.Value), nil
	}
}

// FromValue builds a document from a decoded Go value (map[string]any,
// []any, string, bool, nil, numbers). Go maps carry no order, so object keys
// are sorted.
func FromValue(v any) (*Document, error) {
	d := New()
	id, err := d.fromValue(v)
	if err != nil {
		return nil, err
	}
	d.root = id
	return d, nil
}

func (d *Document) fromValue(v any) (NodeID, error) {
	switch t := v.(type) {
	case nil:
		return d.NewNull(), nil
	case bool:
		return d.NewBool(t), nil
	case string:
		return d.NewString(t), nil
	case gojson.Number:
		return d.NewNumber(t), nil
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) {
			return NoNode, fmt.Errorf("%w: %v", ErrUnsupportedValue, t)
		}
		return d.NewNumber(gojson.Number(strconv.FormatFloat(t, 'g', -1, 64))), nil
	case float32:
		return d.fromValue(float64(t))
	case int:
		return d.NewNumber(gojson.Number(strconv.Itoa(t))), nil
	case int64:
		return d.NewNumber(gojson.Number(strconv.FormatInt(t, 10))), nil
	case int32:
		return d.NewNumber(gojson.Number(strconv.FormatInt(int64(t), 10))), nil
	case uint64:
		return d.NewNumber(gojson.Number(strconv.FormatUint(t, 10))), nil
	case []any:
		items := make([]NodeID, 0, len(t))
		for _, e := range t {
			id, err := d.fromValue(e)
			if err != nil {
				return NoNode, err
			}
			items = append(items, id)
		}
		return d.NewArray(items...), nil
	case []string:
		items := make([]NodeID, 0, len(t))
		for _, e := range t {
			items = append(items, d.NewString(e))
		}
		return d.NewArray(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := d.NewObject()
		for _, k := range keys {
			id, err := d.fromValue(t[k])
			if err != nil {
				return NoNode, err
			}
			d.Set(obj, k, id)
		}
		return obj, nil
	}
	return NoNode, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}
