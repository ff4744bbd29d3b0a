package dsl_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	schemabridge "github.com/reoring/schemabridge"
	g "github.com/reoring/schemabridge/dsl"
)

func TestUnion_FirstMatchWins(t *testing.T) {
	ctx := context.Background()
	upper := g.Transform(g.String(), func(_ context.Context, v any) (any, error) {
		return strings.ToUpper(v.(string)), nil
	})
	s := g.Union(upper, g.String())
	out, err := s.Parse(ctx, "abc")
	if err != nil || out != "ABC" {
		t.Fatalf("got %v, %v", out, err)
	}

	_, err = s.Parse(ctx, 1)
	iss, ok := schemabridge.AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Code != schemabridge.CodeInvalidUnion {
		t.Fatalf("expected invalid_union, got %v", err)
	}
	cause, ok := schemabridge.AsIssues(iss[0].Cause)
	if !ok || len(cause) != 2 {
		t.Fatalf("cause should carry both option failures: %v", iss[0].Cause)
	}
}

func TestNullable(t *testing.T) {
	s := g.Nullable(g.String())
	if out, err := s.Parse(context.Background(), nil); err != nil || out != nil {
		t.Fatalf("nil should pass: %v %v", out, err)
	}
	if _, err := s.Parse(context.Background(), 1); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPreprocessAndCustom(t *testing.T) {
	ctx := context.Background()
	trim := g.Preprocess(func(_ context.Context, v any) (any, error) {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s), nil
		}
		return v, nil
	}, g.String().Min(1))
	if out, err := trim.Parse(ctx, "  x "); err != nil || out != "x" {
		t.Fatalf("got %v, %v", out, err)
	}
	if _, err := trim.Parse(ctx, "   "); !schemabridge.HasCode(err, schemabridge.CodeTooShort) {
		t.Fatalf("expected too_short, got %v", err)
	}

	even := g.Custom("even", func(_ context.Context, v any) (any, error) {
		if n, ok := v.(int); ok && n%2 == 0 {
			return n, nil
		}
		return nil, errors.New("not even")
	})
	_, err := even.Parse(ctx, 3)
	iss, ok := schemabridge.AsIssues(err)
	if !ok || iss[0].Code != schemabridge.CodeCustom || iss[0].Rule != "even" {
		t.Fatalf("expected custom issue, got %v", err)
	}
	s, err := even.JSONSchema()
	if err != nil || s.Type != "" {
		t.Fatalf("custom should emit the empty schema: %+v %v", s, err)
	}
}

func TestRefineValue(t *testing.T) {
	s := g.Refine(g.String(), "no-spaces", func(_ context.Context, v any) error {
		if strings.Contains(v.(string), " ") {
			return errors.New("contains a space")
		}
		return nil
	})
	if _, err := s.Parse(context.Background(), "a b"); !schemabridge.HasCode(err, schemabridge.CodeCustom) {
		t.Fatalf("expected custom, got %v", err)
	}
}

func TestAtomAccessors(t *testing.T) {
	inner := g.String()
	a := g.Atom("x.input", inner)
	if a.ID() != "x.input" || a.Inner() != g.Node(inner) {
		t.Fatalf("accessors broken")
	}
}
