package schemabridge_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	schemabridge "github.com/reoring/schemabridge"
	g "github.com/reoring/schemabridge/dsl"
	js "github.com/reoring/schemabridge/jsonschema"
)

func userSchema() *g.ObjectSchema {
	return g.Object().
		Field("id", g.String()).Required().
		Field("email", g.String().Format("email")).Required().
		UnknownStrict().
		MustBuild()
}

// TestErrorModel_CollectAndAsIssues checks that every issue is collected and
// reachable through both AsIssues and errors.As.
func TestErrorModel_CollectAndAsIssues(t *testing.T) {
	ctx := context.Background()
	_, err := schemabridge.ParseJSON(ctx, userSchema(), []byte(`{"email": 1, "zzz": true}`))
	if err == nil {
		t.Fatalf("expected issues")
	}
	var iss schemabridge.Issues
	if !errors.As(err, &iss) {
		t.Fatalf("errors.As should extract Issues: %T", err)
	}
	got := map[string]string{}
	for _, it := range iss {
		got[it.Path] = it.Code
	}
	want := map[string]string{
		"/id":    schemabridge.CodeRequired,
		"/email": schemabridge.CodeInvalidType,
		"/zzz":   schemabridge.CodeUnknownKey,
	}
	for p, c := range want {
		if got[p] != c {
			t.Fatalf("path %s: got %q, want %q (all: %v)", p, got[p], c, iss)
		}
	}
	if again, ok := schemabridge.AsIssues(err); !ok || len(again) != len(iss) {
		t.Fatalf("AsIssues mismatch")
	}
	if !strings.Contains(err.Error(), "at /") {
		t.Fatalf("summary should name paths: %s", err.Error())
	}
}

func TestSafeParseAndIs(t *testing.T) {
	ctx := context.Background()
	s := userSchema()
	ok := map[string]any{"id": "u1", "email": "a@example.com"}
	if out, fine := schemabridge.SafeParse(ctx, s, ok); !fine || out == nil {
		t.Fatalf("expected success")
	}
	if _, fine := schemabridge.SafeParse(ctx, s, map[string]any{"id": "u1"}); fine {
		t.Fatalf("expected failure")
	}
	if !schemabridge.Is(ctx, s, ok) || schemabridge.Is(ctx, s, "x") {
		t.Fatalf("Is mismatch")
	}
}

func TestDecodeJSON(t *testing.T) {
	v, err := schemabridge.DecodeJSON([]byte(`{"n": 12345678901234567890}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n, ok := v.(map[string]any)["n"].(json.Number); !ok || n.String() != "12345678901234567890" {
		t.Fatalf("number precision lost: %#v", v)
	}
	if _, err := schemabridge.DecodeJSON([]byte("  ")); !errors.Is(err, schemabridge.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := schemabridge.DecodeJSON([]byte(`{} {}`)); !schemabridge.HasCode(err, schemabridge.CodeParseError) {
		t.Fatalf("expected parse_error for trailing data, got %v", err)
	}
	if _, err := schemabridge.DecodeJSON([]byte(`{"a":`)); !schemabridge.HasCode(err, schemabridge.CodeParseError) {
		t.Fatalf("expected parse_error, got %v", err)
	}
}

func TestRebase(t *testing.T) {
	child := schemabridge.Issues{
		{Path: "/", Code: schemabridge.CodeInvalidType},
		{Path: "/name", Code: schemabridge.CodeRequired},
	}
	got := schemabridge.Rebase("/items/3", child)
	if got[0].Path != "/items/3" || got[1].Path != "/items/3/name" {
		t.Fatalf("unexpected paths: %v", got)
	}
	plain := schemabridge.Rebase("/data", errors.New("boom"))
	if len(plain) != 1 || plain[0].Code != schemabridge.CodeParseError || plain[0].Path != "/data" {
		t.Fatalf("plain errors should become parse_error: %v", plain)
	}
	if schemabridge.Rebase("/x", nil) != nil {
		t.Fatalf("nil error should rebase to nil")
	}
}

func TestMarshalSchema_StableKeys(t *testing.T) {
	s := &js.Schema{
		Type:       "object",
		Properties: map[string]*js.Schema{"b": {Type: "string"}, "a": {Type: "integer"}},
		Required:   []string{"b"},
	}
	b, err := schemabridge.MarshalSchema(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Index(string(b), `"a"`) > strings.Index(string(b), `"b"`) {
		t.Fatalf("properties should be sorted: %s", b)
	}
	if _, err := schemabridge.MarshalSchema(nil); err == nil {
		t.Fatalf("expected error for nil schema")
	}
}

func TestSideString(t *testing.T) {
	if schemabridge.Input.String() != "input" || schemabridge.Output.String() != "output" {
		t.Fatalf("unexpected side names")
	}
}
