package schemabridge

import (
	"strconv"
	"strings"
)

// IssueAt creates an Issue at the given path with provided code, message and params map.
func IssueAt(path, code, msg string, params map[string]any) Issue {
	return Issue{Path: path, Code: code, Message: msg, Params: params}
}

// Rebase converts err into Issues whose paths are nested under base
// (a JSON Pointer such as "/data" or "/items/3"). Errors that are not Issues
// are wrapped with CodeParseError.
func Rebase(base string, err error) Issues {
	if err == nil {
		return nil
	}
	child, ok := AsIssues(err)
	if !ok {
		return Issues{Issue{Path: base, Code: CodeParseError, Message: err.Error(), Cause: err}}
	}
	out := make(Issues, 0, len(child))
	for _, it := range child {
		p := it.Path
		switch {
		case p == "" || p == "/":
			p = base
		case p[0] == '/':
			p = base + p
		default:
			p = base + "/" + p
		}
		if p == "" {
			p = "/"
		}
		it.Path = p
		out = append(out, it)
	}
	return out
}

// FieldPointer returns the JSON Pointer segment for an object key, escaping
// '~' and '/' per RFC 6901.
func FieldPointer(name string) string {
	return "/" + strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
}

// IndexPointer returns the JSON Pointer segment for an array index.
func IndexPointer(i int) string { return "/" + strconv.Itoa(i) }
