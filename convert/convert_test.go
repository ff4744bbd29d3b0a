package convert_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	schemabridge "github.com/reoring/schemabridge"
	"github.com/reoring/schemabridge/atoms"
	"github.com/reoring/schemabridge/convert"
	"github.com/reoring/schemabridge/dsl"
	js "github.com/reoring/schemabridge/jsonschema"
	"github.com/reoring/schemabridge/refs"
)

func mustDoc(t *testing.T, src string) *js.Document {
	t.Helper()
	doc, err := js.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

const imageDoc = `{
	"type": "object",
	"properties": {"i": {"$ref": "#/$defs/Image"}},
	"$defs": {"Image": {"type": "object", "properties": {"url": {"type": "string"}}}}
}`

func TestSchemaToDSL_ImageAtom(t *testing.T) {
	ctx := context.Background()
	c := convert.New(nil)
	doc := mustDoc(t, imageDoc)

	in, err := c.InputSchemaToDSL(ctx, doc)
	if err != nil {
		t.Fatalf("input: %v", err)
	}
	if want := `dsl.Object().Field("i", atoms.ImageInput()).MustBuild()`; in != want {
		t.Fatalf("input source\n got=%s\nwant=%s", in, want)
	}
	out, err := c.OutputSchemaToDSL(ctx, doc)
	if err != nil {
		t.Fatalf("output: %v", err)
	}
	if want := `dsl.Object().Field("i", atoms.ImageOutput()).MustBuild()`; out != want {
		t.Fatalf("output source\n got=%s\nwant=%s", out, want)
	}

	// the caller's document is untouched
	if _, ok := doc.Lookup("#/properties/i/$ref"); !ok {
		t.Fatalf("input document was modified")
	}
}

func TestSchemaToDSL_DatetimeLocalAndRequired(t *testing.T) {
	doc := mustDoc(t, `{
		"properties": {
			"when": {"$ref": "#/$defs/DatetimeLocal"},
			"note": {"type": "string", "description": "free text"}
		},
		"required": ["when"]
	}`)
	src, err := convert.New(nil).InputSchemaToDSL(context.Background(), doc)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	want := `dsl.Object().Field("when", atoms.DatetimeLocal()).Required().Field("note", dsl.Describe(dsl.String(), "free text")).MustBuild()`
	if src != want {
		t.Fatalf("got  %s\nwant %s", src, want)
	}
}

func TestSchemaToDSL_PackageNames(t *testing.T) {
	c := convert.New(nil, convert.WithPackageNames("d", "a"))
	src, err := c.InputSchemaToDSL(context.Background(), mustDoc(t, `{"type":"array","items":{"$ref":"#/$defs/File"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if src != "d.Array(a.FileInput())" {
		t.Fatalf("got %s", src)
	}
}

func TestSchemaToDSL_Translation(t *testing.T) {
	cases := []struct {
		schema string
		want   string
	}{
		{`{"type":"string","minLength":1,"maxLength":5,"pattern":"^a","format":"email"}`,
			"dsl.String().Min(1).Max(5).Pattern(`^a`).Format(\"email\")"},
		{`{"type":"string","contentEncoding":"base64"}`, `dsl.String().Base64()`},
		{`{"type":"integer","minimum":0,"exclusiveMaximum":10}`, `dsl.Integer().Min(0).Lt(10)`},
		{`{"type":"number","minimum":1,"exclusiveMinimum":true}`, `dsl.Number().Gt(1)`},
		{`{"type":"boolean"}`, `dsl.Bool()`},
		{`{"type":"null"}`, `dsl.Null()`},
		{`{}`, `dsl.Any()`},
		{`true`, `dsl.Any()`},
		{`{"enum":["a","b"]}`, `dsl.Enum("a", "b")`},
		{`{"enum":[1,"a"]}`, `dsl.Union(dsl.Literal(1), dsl.Literal("a"))`},
		{`{"const":true}`, `dsl.Literal(true)`},
		{`{"anyOf":[{"type":"string"},{"type":"integer"}]}`, `dsl.Union(dsl.String(), dsl.Integer())`},
		{`{"type":["string","null"]}`, `dsl.Nullable(dsl.String())`},
		{`{"type":["string","boolean"]}`, `dsl.Union(dsl.String(), dsl.Bool())`},
		{`{"type":"string","nullable":true}`, `dsl.Nullable(dsl.String())`},
		{`{"items":{"type":"string"},"minItems":1}`, `dsl.Array(dsl.String()).Min(1)`},
		{`{"type":"array","prefixItems":[{"type":"string"},{"type":"number"}]}`, `dsl.Tuple(dsl.String(), dsl.Number())`},
		{`{"type":"object"}`, `dsl.Record(dsl.Any())`},
		{`{"type":"object","additionalProperties":{"type":"integer"}}`, `dsl.Record(dsl.Integer())`},
		{`{"type":"object","additionalProperties":false}`, `dsl.Object().UnknownStrict().MustBuild()`},
		{`{"properties":{"a":{"type":"string"}},"additionalProperties":false}`,
			`dsl.Object().Field("a", dsl.String()).UnknownStrict().MustBuild()`},
		{`{"properties":{"a":{"type":"string"}},"additionalProperties":true}`,
			`dsl.Object().Field("a", dsl.String()).UnknownPassthrough().MustBuild()`},
		{`{"properties":{"a":{"type":"string"}},"required":["a","b"]}`,
			`dsl.Object().Field("a", dsl.String()).Required().Field("b", dsl.Any()).Required().MustBuild()`},
		{`{"allOf":[{"properties":{"a":{"type":"string"}},"required":["a"]},{"properties":{"b":{"type":"integer"}}}]}`,
			`dsl.Object().Field("a", dsl.String()).Required().Field("b", dsl.Integer()).MustBuild()`},
		{`{"allOf":[{"type":"string"}]}`, `dsl.String()`},
	}
	c := convert.New(nil)
	for _, tc := range cases {
		got, err := c.InputSchemaToDSL(context.Background(), mustDoc(t, tc.schema))
		if err != nil {
			t.Fatalf("%s: %v", tc.schema, err)
		}
		if got != tc.want {
			t.Fatalf("%s\n got=%s\nwant=%s", tc.schema, got, tc.want)
		}
	}
}

func TestSchemaToDSL_Errors(t *testing.T) {
	c := convert.New(nil)
	ctx := context.Background()
	for _, src := range []string{`{"type":"decimal"}`, `"text"`, `{"enum":[]}`, `{"anyOf":{}}`} {
		if _, err := c.InputSchemaToDSL(ctx, mustDoc(t, src)); err == nil {
			t.Fatalf("%s: expected error", src)
		}
	}
	if _, err := c.InputSchemaToDSL(ctx, nil); !errors.Is(err, js.ErrNilDocument) {
		t.Fatalf("expected ErrNilDocument, got %v", err)
	}
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := c.InputSchemaToDSL(cctx, mustDoc(t, `{}`)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSchemaToDSL_Unresolvable(t *testing.T) {
	doc := mustDoc(t, `{"properties":{"a":{"$ref":"#/$defs/Missing"}}}`)
	src, err := convert.New(nil).InputSchemaToDSL(context.Background(), doc)
	if err != nil {
		t.Fatalf("warn policy must not fail: %v", err)
	}
	if src != `dsl.Object().Field("a", dsl.Any()).MustBuild()` {
		t.Fatalf("got %s", src)
	}
	_, err = convert.New(nil, convert.WithUnresolvable(refs.Throw)).InputSchemaToDSL(context.Background(), doc)
	if !errors.Is(err, refs.ErrUnresolvable) {
		t.Fatalf("expected ErrUnresolvable, got %v", err)
	}
}

func TestSchemaToDSL_NestedRefIndependentOfKeyOrder(t *testing.T) {
	const defs = `"$defs": {
		"A": {"type": "array", "items": {"$ref": "#/$defs/B"}},
		"B": {"type": "string"}
	}`
	const props = `"properties": {"a": {"$ref": "#/$defs/A"}}`
	const want = `dsl.Object().Field("a", dsl.Array(dsl.String())).MustBuild()`

	for name, src := range map[string]string{
		"defs first":       "{" + defs + "," + props + "}",
		"properties first": "{" + props + "," + defs + "}",
	} {
		got, err := convert.New(nil).InputSchemaToDSL(context.Background(), mustDoc(t, src))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != want {
			t.Fatalf("%s: got %s, want %s", name, got, want)
		}
	}
}

const treeDoc = `{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"children": {"type": "array", "items": {"$ref": "#"}}
	},
	"required": ["name"]
}`

func TestSchemaToDSL_RecursiveRendersAny(t *testing.T) {
	src, err := convert.New(nil).InputSchemaToDSL(context.Background(), mustDoc(t, treeDoc))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.HasPrefix(src, `dsl.Object().Field("name", dsl.String()).Required().Field("children", dsl.Array(dsl.Object()`) {
		t.Fatalf("unexpected source: %s", src)
	}
	if !strings.Contains(src, `Field("children", dsl.Any())`) {
		t.Fatalf("cycle should close with Any: %s", src)
	}
}

func TestCompile_Recursive(t *testing.T) {
	ctx := context.Background()
	s, err := convert.New(nil).CompileInput(ctx, mustDoc(t, treeDoc))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	deep := map[string]any{"name": "a", "children": []any{
		map[string]any{"name": "b", "children": []any{
			map[string]any{"name": "c", "children": []any{
				map[string]any{"name": "d"},
			}},
		}},
	}}
	if _, err := s.Parse(ctx, deep); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	bad := map[string]any{"name": "a", "children": []any{
		map[string]any{"name": "b", "children": []any{
			map[string]any{"name": "c", "children": []any{map[string]any{}}},
		}},
	}}
	_, err = s.Parse(ctx, bad)
	iss, ok := schemabridge.AsIssues(err)
	if !ok || iss[0].Path != "/children/0/children/0/children/0/name" || iss[0].Code != schemabridge.CodeRequired {
		t.Fatalf("expected deep required issue, got %v", err)
	}
}

func TestCompile_AtomsBySide(t *testing.T) {
	ctx := context.Background()
	c := convert.New(nil)
	doc := mustDoc(t, imageDoc)

	in, err := c.CompileInput(ctx, doc)
	if err != nil {
		t.Fatal(err)
	}
	v, err := in.Parse(ctx, map[string]any{"i": map[string]any{"content_type": "image/png", "data": []byte("png")}})
	if err != nil {
		t.Fatalf("input parse: %v", err)
	}
	if got := v.(map[string]any)["i"].(map[string]any)["data"]; got != "cG5n" {
		t.Fatalf("input data should be base64: %v", got)
	}

	out, err := c.CompileOutput(ctx, doc)
	if err != nil {
		t.Fatal(err)
	}
	v, err = out.Parse(ctx, map[string]any{"i": map[string]any{"content_type": "image/png", "data": "cG5n"}})
	if err != nil {
		t.Fatalf("output parse: %v", err)
	}
	if got, ok := v.(map[string]any)["i"].(map[string]any)["data"].([]byte); !ok || string(got) != "png" {
		t.Fatalf("output data should be bytes: %v", got)
	}
}

func TestDSLToSchema_AtomBecomesRef(t *testing.T) {
	ctx := context.Background()
	c := convert.New(nil)

	s := dsl.Object().Field("i", atoms.ImageInput()).MustBuild()
	got, err := c.InputDSLToSchema(ctx, s)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if got.Type != "object" || got.Properties["i"].Ref != "#/$defs/Image" {
		t.Fatalf("unexpected schema: %+v", got)
	}
	if got.Defs != nil {
		t.Fatalf("registry definitions must be removed: %v", got.Defs)
	}

	out := dsl.Object().Field("o", atoms.ImageOutput()).Field("when", atoms.DatetimeLocal()).MustBuild()
	got, err = c.OutputDSLToSchema(ctx, out)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if got.Properties["o"].Ref != "#/$defs/Image" || got.Properties["when"].Ref != "#/$defs/DatetimeLocal" {
		t.Fatalf("unexpected output schema: %+v", got.Properties)
	}

	// an output atom on the input side is not a definition of that side
	got, err = c.InputDSLToSchema(ctx, dsl.Object().Field("o", atoms.ImageOutput()).MustBuild())
	if err != nil {
		t.Fatal(err)
	}
	if got.Properties["o"] == nil || got.Properties["o"].Ref != "" {
		t.Fatalf("expected structural emission: %+v", got.Properties["o"])
	}
}

func TestDSLToSchema_UserDefinitionsKept(t *testing.T) {
	addr := dsl.Object().Field("city", dsl.String()).MustBuild()
	c := convert.New(nil, convert.WithDefinitions(dsl.Definition{Name: "Address", Schema: addr}))
	got, err := c.InputDSLToSchema(context.Background(), dsl.Object().
		Field("home", addr).
		Field("pic", atoms.ImageInput()).
		MustBuild())
	if err != nil {
		t.Fatal(err)
	}
	if got.Properties["home"].Ref != "#/$defs/Address" {
		t.Fatalf("user definition not referenced: %+v", got.Properties["home"])
	}
	if len(got.Defs) != 1 || got.Defs["Address"] == nil {
		t.Fatalf("expected only Address in $defs: %v", got.Defs)
	}
}

func TestRoundTrip_SchemaToDSLToSchema(t *testing.T) {
	ctx := context.Background()
	c := convert.New(nil)
	s, err := c.CompileInput(ctx, mustDoc(t, `{
		"type": "object",
		"properties": {
			"img": {"$ref": "#/$defs/Image"},
			"n": {"type": "integer", "minimum": 1}
		},
		"required": ["n"],
		"additionalProperties": false
	}`))
	if err != nil {
		t.Fatal(err)
	}
	back, err := c.InputDSLToSchema(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if back.Properties["img"].Ref != "#/$defs/Image" || back.Properties["n"].Type != "integer" {
		t.Fatalf("round trip lost shape: %+v", back.Properties)
	}
	if len(back.Required) != 1 || back.Required[0] != "n" || back.AdditionalProperties != false {
		t.Fatalf("round trip lost object policy: %+v", back)
	}
}

func TestRenderFile(t *testing.T) {
	c := convert.New(nil)
	out, err := c.RenderFile(context.Background(), mustDoc(t, imageDoc), schemabridge.Input, "tasks", "Input")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	src := string(out)
	for _, want := range []string{
		"package tasks",
		`"github.com/reoring/schemabridge/atoms"`,
		`"github.com/reoring/schemabridge/dsl"`,
		`var Input = dsl.Object().Field("i", atoms.ImageInput()).MustBuild()`,
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("missing %q in\n%s", want, src)
		}
	}

	plain, err := c.RenderFile(context.Background(), mustDoc(t, `{"type":"string"}`), schemabridge.Output, "tasks", "Output")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(plain), "schemabridge/atoms") {
		t.Fatalf("atoms import should be omitted when unused:\n%s", plain)
	}
}

func TestConverter_CacheIsKeyedByContentAndSide(t *testing.T) {
	ctx := context.Background()
	c := convert.New(nil, convert.WithCache(4))
	doc := mustDoc(t, imageDoc)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			side := schemabridge.Input
			if i%2 == 1 {
				side = schemabridge.Output
			}
			src, err := c.SchemaToDSL(ctx, doc, side)
			if err != nil {
				t.Errorf("convert: %v", err)
				return
			}
			results[i] = src
		}(i)
	}
	wg.Wait()
	for i, src := range results {
		want := "atoms.ImageInput()"
		if i%2 == 1 {
			want = "atoms.ImageOutput()"
		}
		if !strings.Contains(src, want) {
			t.Fatalf("result %d: %s", i, src)
		}
	}

	other, err := c.InputSchemaToDSL(ctx, mustDoc(t, `{"type":"string"}`))
	if err != nil || other != "dsl.String()" {
		t.Fatalf("different content must not hit the cache: %s %v", other, err)
	}
}
