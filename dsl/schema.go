package dsl

import (
	"context"
	"errors"

	schemabridge "github.com/reoring/schemabridge"
	"github.com/reoring/schemabridge/i18n"
	js "github.com/reoring/schemabridge/jsonschema"
)

// Node is a schema built by this package. Every Node can be projected to JSON
// Schema by Emit; the unexported method keeps the set of node kinds closed.
//
// Nodes are pointers and compared by identity, which is what Emit uses to
// recognise known definitions and recursive back references.
type Node interface {
	schemabridge.Schema
	emit(e *emitter, ptr string) (*js.Schema, error)
}

func invalidType(expected string) schemabridge.Issues {
	return schemabridge.Issues{{
		Path:    "/",
		Code:    schemabridge.CodeInvalidType,
		Message: i18n.T(schemabridge.CodeInvalidType, nil),
		Hint:    "expected " + expected,
	}}
}

func issue(code, hint string, params map[string]any) schemabridge.Issues {
	return schemabridge.Issues{{
		Path:    "/",
		Code:    code,
		Message: i18n.T(code, nil),
		Hint:    hint,
		Params:  params,
	}}
}

// customIssues turns a refinement or custom parser error into Issues.
// Issues pass through unchanged.
func customIssues(rule string, err error) schemabridge.Issues {
	if iss, ok := schemabridge.AsIssues(err); ok {
		return iss
	}
	return schemabridge.Issues{{
		Path:    "/",
		Code:    schemabridge.CodeCustom,
		Message: err.Error(),
		Cause:   err,
		Rule:    rule,
	}}
}

func validate(ctx context.Context, n Node, v any) error {
	_, err := n.Parse(ctx, v)
	return err
}

func jsonSchema(n Node) (*js.Schema, error) { return Emit(n, EmitOptions{}) }

// ErrUnsupported is returned by Emit for nodes without a JSON Schema form.
var ErrUnsupported = errors.New("dsl: schema has no JSON Schema representation")
