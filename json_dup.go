package schemabridge

import (
	"bytes"
	"errors"
	"io"

	gojson "github.com/goccy/go-json"
)

type dupFrame struct {
	object    bool
	keys      map[string]struct{}
	expectKey bool
	key       string
	index     int
	ptr       string
}

// DuplicateKeys reports every object key that appears more than once in the
// same object of data, one duplicate_key issue per repeat, pointing at the
// repeated member. Malformed input yields a parse_error.
func DuplicateKeys(data []byte) (Issues, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var (
		iss   Issues
		stack []*dupFrame
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return iss, nil
		}
		if err != nil {
			return iss, Issues{{Path: "/", Code: CodeParseError, Message: err.Error(), Cause: err}}
		}
		if d, ok := tok.(gojson.Delim); ok && (d == '}' || d == ']') {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			continue
		}

		var top *dupFrame
		if n := len(stack); n > 0 {
			top = stack[n-1]
		}
		if top != nil && top.object && top.expectKey {
			key, _ := tok.(string)
			if _, dup := top.keys[key]; dup {
				iss = append(iss, Issue{
					Path:    top.ptr + FieldPointer(key),
					Code:    CodeDuplicateKey,
					Message: "key '" + key + "' duplicated",
				})
			}
			top.keys[key] = struct{}{}
			top.key = key
			top.expectKey = false
			continue
		}

		ptr := ""
		if top != nil {
			if top.object {
				ptr = top.ptr + FieldPointer(top.key)
				top.expectKey = true
			} else {
				ptr = top.ptr + IndexPointer(top.index)
				top.index++
			}
		}
		if d, ok := tok.(gojson.Delim); ok {
			f := &dupFrame{object: d == '{', ptr: ptr}
			if f.object {
				f.keys = map[string]struct{}{}
				f.expectKey = true
			}
			stack = append(stack, f)
		}
	}
}

// DecodeJSONStrict is DecodeJSON that rejects duplicate object keys instead
// of keeping the last value.
func DecodeJSONStrict(data []byte) (any, error) {
	iss, err := DuplicateKeys(data)
	if err != nil {
		return nil, err
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return DecodeJSON(data)
}
