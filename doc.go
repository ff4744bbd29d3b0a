// Package schemabridge converts between JSON Schema documents and runtime
// validation schemas for a remote task-execution API.
//
// The module provides:
//
//   - A runtime validation model (Schema, Issues with JSON Pointer paths and stable codes).
//   - A Zod-like construction DSL under dsl/ and custom semantic "atom" types under atoms/
//     (Image, File, DatetimeLocal, buffers/base64) whose input and output representations differ.
//   - An arena-backed JSON Schema document model under jsonschema/ with a cycle-safe
//     $ref resolver (refs/) and a type-inferring sanitizer (sanitize/).
//   - Bidirectional mappers under convert/: JSON Schema -> Go source text or runtime schema,
//     and runtime schema -> JSON Schema with registry-known $defs stripped.
//
// Design policy:
//   - Keep only the shared runtime model in the root package; put details in subpackages.
//   - Registries and converters are explicit values; there are no package-level singletons
//     other than the i18n translator.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	doc, _ := jsonschema.Parse(inputSchemaJSON)
//	conv := convert.New(atoms.NewRegistry())
//	src, _ := conv.InputSchemaToDSL(ctx, doc)     // Go source text
//	s, _ := conv.CompileInput(ctx, doc)           // runtime schema
//	v, err := schemabridge.ParseJSON(ctx, s, payload)
//
//	out, _ := conv.OutputDSLToSchema(ctx, dsl.Object().Field("i", atoms.ImageOutput()).MustBuild())
package schemabridge
