package jsonschema

import "strings"

// SplitPointer splits a local JSON Pointer reference ("#", "#/a/b") into
// unescaped segments. References that are not document-local report false.
func SplitPointer(p string) ([]string, bool) {
	if p == "#" {
		return nil, true
	}
	if !strings.HasPrefix(p, "#/") {
		return nil, false
	}
	parts := strings.Split(p[2:], "/")
	for i, s := range parts {
		parts[i] = unescape(s)
	}
	return parts, true
}

// JoinPointer appends a raw key as an escaped segment to a local pointer.
func JoinPointer(base, key string) string {
	return base + "/" + escape(key)
}

// ParentPointer splits p into its parent pointer and the unescaped last
// segment. The root pointer has no parent.
func ParentPointer(p string) (parent, last string, ok bool) {
	i := strings.LastIndexByte(p, '/')
	if i < 0 || !strings.HasPrefix(p, "#") {
		return "", "", false
	}
	return p[:i], unescape(p[i+1:]), true
}

func escape(s string) string {
	if !strings.ContainsAny(s, "~/") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

func unescape(s string) string {
	if !strings.Contains(s, "~") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}
