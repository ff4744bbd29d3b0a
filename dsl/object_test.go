package dsl_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	schemabridge "github.com/reoring/schemabridge"
	g "github.com/reoring/schemabridge/dsl"
)

func TestObject_RequiredAndUnknown(t *testing.T) {
	ctx := context.Background()
	s := g.Object().
		Field("name", g.String()).Required().
		Field("age", g.Integer()).
		UnknownStrict().
		MustBuild()

	_, err := s.Parse(ctx, map[string]any{"age": 3, "extra": true})
	iss, ok := schemabridge.AsIssues(err)
	if !ok || len(iss) != 2 {
		t.Fatalf("expected 2 issues, got %v", err)
	}
	if iss[0].Code != schemabridge.CodeRequired || iss[0].Path != "/name" {
		t.Fatalf("first issue: %+v", iss[0])
	}
	if iss[1].Code != schemabridge.CodeUnknownKey || iss[1].Path != "/extra" {
		t.Fatalf("second issue: %+v", iss[1])
	}

	out, err := s.Parse(ctx, map[string]any{"name": "a"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !reflect.DeepEqual(out, map[string]any{"name": "a"}) {
		t.Fatalf("got %v", out)
	}
}

func TestObject_DefaultStripsUnknown(t *testing.T) {
	s := g.Object().Field("a", g.String()).MustBuild()
	out, err := s.Parse(context.Background(), map[string]any{"a": "x", "b": 1})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !reflect.DeepEqual(out, map[string]any{"a": "x"}) {
		t.Fatalf("unknown key not stripped: %v", out)
	}
	if s.UnknownPolicy() != schemabridge.UnknownStrip {
		t.Fatalf("default policy: %v", s.UnknownPolicy())
	}
}

func TestObject_Passthrough(t *testing.T) {
	s := g.Object().Field("a", g.String()).UnknownPassthrough().MustBuild()
	out, err := s.Parse(context.Background(), map[string]any{"a": "x", "b": 1})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.(map[string]any)["b"] != 1 {
		t.Fatalf("unknown key dropped: %v", out)
	}
	js, err := s.JSONSchema()
	if err != nil {
		t.Fatal(err)
	}
	if js.AdditionalProperties != nil {
		t.Fatalf("passthrough must not close the object: %v", js.AdditionalProperties)
	}
}

func TestObject_NestedPath(t *testing.T) {
	s := g.Object().
		Field("items", g.Array(g.Object().Field("id", g.String()).Required().MustBuild())).Required().
		MustBuild()
	_, err := s.Parse(context.Background(), map[string]any{
		"items": []any{map[string]any{"id": "a"}, map[string]any{"id": 2}},
	})
	iss, ok := schemabridge.AsIssues(err)
	if !ok || len(iss) != 1 {
		t.Fatalf("expected 1 issue, got %v", err)
	}
	if iss[0].Path != "/items/1/id" || iss[0].Code != schemabridge.CodeInvalidType {
		t.Fatalf("issue: %+v", iss[0])
	}
}

func TestObject_Refine(t *testing.T) {
	ctx := context.Background()
	s, err := g.Object().
		Field("password", g.String()).
		Field("confirm", g.String()).
		Require("password", "confirm").
		Refine("password==confirm", func(ctx context.Context, v map[string]any) error {
			if v["password"] != v["confirm"] {
				return errors.New("password mismatch")
			}
			return nil
		}).
		Build()
	if err != nil {
		t.Fatalf("unexpected build err: %v", err)
	}

	// ng: mismatch
	_, err = s.Parse(ctx, map[string]any{"password": "x", "confirm": "y"})
	iss, ok := schemabridge.AsIssues(err)
	if !ok || iss[0].Code != schemabridge.CodeCustom || iss[0].Path != "/" || iss[0].Rule != "password==confirm" {
		t.Fatalf("expected custom issue, got %v", err)
	}
	// ok: match
	if _, err := s.Parse(ctx, map[string]any{"password": "x", "confirm": "x"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestObject_BuildErrors(t *testing.T) {
	if _, err := g.Object().Field("a", g.String()).Require("b").Build(); err == nil {
		t.Fatalf("expected error for undeclared required field")
	}
	if _, err := g.Object().Field("a", nil).Build(); err == nil {
		t.Fatalf("expected error for nil field schema")
	}
}

func TestObject_FieldOrderAndRedeclare(t *testing.T) {
	s := g.Object().
		Field("b", g.String()).
		Field("a", g.String()).
		Field("b", g.Integer()).Required().
		MustBuild()
	if got := s.FieldNames(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("field order: %v", got)
	}
	if !s.IsRequired("b") || s.IsRequired("a") {
		t.Fatalf("required flags wrong")
	}
	if _, err := s.Parse(context.Background(), map[string]any{"b": "text"}); err == nil {
		t.Fatalf("redeclared field should use the last schema")
	}
}

func TestRecord(t *testing.T) {
	s := g.Record(g.Integer())
	if _, err := s.Parse(context.Background(), map[string]any{"x": 1, "y": 2}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	_, err := s.Parse(context.Background(), map[string]any{"x": 1, "y": "no"})
	iss, ok := schemabridge.AsIssues(err)
	if !ok || iss[0].Path != "/y" {
		t.Fatalf("expected issue at /y, got %v", err)
	}
}
