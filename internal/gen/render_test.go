package gen

import (
	"encoding/json"
	"strings"
	"testing"

	ir "github.com/reoring/schemabridge/internal/ir"
)

func TestExpr_Object(t *testing.T) {
	obj := &ir.Object{
		Fields: []ir.Field{
			{Name: "name", Schema: &ir.Primitive{Name: "string", MinLength: ptr(1)}},
			{Name: "i", Schema: &ir.Atom{Name: "imageInput", Func: "ImageInput"}},
		},
		Required:      map[string]struct{}{"name": {}},
		UnknownPolicy: 1,
	}
	got, err := Expr(obj, Qualifiers{})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	want := `dsl.Object().Field("name", dsl.String().Min(1)).Required().Field("i", atoms.ImageInput()).UnknownStrict().MustBuild()`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestExpr_Qualifiers(t *testing.T) {
	got, err := Expr(&ir.Array{Item: &ir.Atom{Name: "fileOutput", Func: "FileOutput"}, MinItems: ptr(1)}, Qualifiers{DSL: "d", Atoms: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "d.Array(a.FileOutput()).Min(1)" {
		t.Fatalf("got %s", got)
	}
}

func TestExpr_Scalars(t *testing.T) {
	lo, hi := 0.5, 10.0
	cases := []struct {
		s    ir.Schema
		want string
	}{
		{&ir.Primitive{Name: "integer", Minimum: &lo, ExclusiveMaximum: &hi}, "dsl.Integer().Min(0.5).Lt(10)"},
		{&ir.Primitive{Name: "string", Pattern: `^\d+$`, Format: "date"}, "dsl.String().Pattern(`^\\d+$`).Format(\"date\")"},
		{&ir.Primitive{Name: "string", Base64: true}, "dsl.String().Base64()"},
		{&ir.Primitive{Name: "boolean"}, "dsl.Bool()"},
		{&ir.Primitive{Name: "null"}, "dsl.Null()"},
		{&ir.Enum{Values: []string{"a", "b\"c"}}, `dsl.Enum("a", "b\"c")`},
		{&ir.Literal{Value: json.Number("42")}, "dsl.Literal(42)"},
		{&ir.Literal{Value: nil}, "dsl.Literal(nil)"},
		{&ir.Union{Options: []ir.Schema{&ir.Primitive{Name: "string"}, &ir.Any{}}}, "dsl.Union(dsl.String(), dsl.Any())"},
		{&ir.Nullable{Inner: &ir.Record{Value: &ir.Primitive{Name: "number"}}}, "dsl.Nullable(dsl.Record(dsl.Number()))"},
		{&ir.Describe{Inner: &ir.Tuple{Items: []ir.Schema{&ir.Any{}}}, Text: "pair"}, `dsl.Describe(dsl.Tuple(dsl.Any()), "pair")`},
	}
	for _, c := range cases {
		got, err := Expr(c.s, Qualifiers{})
		if err != nil {
			t.Fatalf("%s: %v", c.want, err)
		}
		if got != c.want {
			t.Fatalf("got  %s\nwant %s", got, c.want)
		}
	}
}

func TestExpr_CycleRendersAny(t *testing.T) {
	obj := &ir.Object{Required: map[string]struct{}{}}
	obj.Fields = []ir.Field{{Name: "next", Schema: &ir.Ref{Target: obj}}}
	got, err := Expr(obj, Qualifiers{})
	if err != nil {
		t.Fatal(err)
	}
	if got != `dsl.Object().Field("next", dsl.Any()).MustBuild()` {
		t.Fatalf("got %s", got)
	}
}

func TestExpr_Errors(t *testing.T) {
	if _, err := Expr(&ir.Primitive{Name: "decimal"}, Qualifiers{}); err == nil {
		t.Fatalf("expected error for unknown primitive")
	}
	if _, err := Expr(&ir.Atom{Name: "x"}, Qualifiers{}); err == nil {
		t.Fatalf("expected error for atom without function")
	}
	if _, err := Expr(&ir.Literal{Value: []int{1}}, Qualifiers{}); err == nil {
		t.Fatalf("expected error for non-scalar literal")
	}
}

func TestRenderFile(t *testing.T) {
	out, err := RenderFile(File{
		Package: "foo",
		Imports: []Import{{Path: "github.com/reoring/schemabridge/dsl"}},
		Vars:    []Var{{Name: "Input", Doc: "Input is the task input.", Expr: `dsl.Object().Field("a", dsl.String()).MustBuild()`}},
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	s := string(out)
	for _, want := range []string{"package foo", "// Input is the task input.", `var Input = dsl.Object()`, "DO NOT EDIT"} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %q in\n%s", want, s)
		}
	}
	if _, err := RenderFile(File{Package: "foo", Vars: []Var{{Name: "X", Expr: "dsl.("}}}); err == nil {
		t.Fatalf("expected format error")
	}
	if _, err := RenderFile(File{}); err == nil {
		t.Fatalf("expected error for missing package")
	}
}

func ptr(n int) *int { return &n }
