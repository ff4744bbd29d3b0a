// Package dsl provides the runtime validation-schema constructors used by
// schemabridge and the emitter that projects them back to JSON Schema.
//
// Overview
//   - Primitives: String()/Number()/Integer()/Bool()/Null()/Any()/Enum()/Literal().
//   - Containers: Array(elem), Tuple(items...), Record(value) and the Object() builder
//     (Field/Required/Require/UnknownStrict/UnknownStrip/UnknownPassthrough/Refine/MustBuild).
//   - Composition: Union(options...), Nullable(s), Describe, Transform, Preprocess, Refine,
//     Custom and Lazy for recursive graphs.
//   - Semantic types: Atom(id, s) tags a structural schema so Emit can replace it with a
//     reference to a known definition.
//
// Every Node is immutable once built and safe for concurrent Parse. Parse
// returns schemabridge.Issues whose paths are JSON Pointers relative to the
// value being parsed.
//
// File layout (roles)
//   - schema.go: Node interface and issue helpers.
//   - primitives.go: scalar schemas and format checks.
//   - array.go: Array and Tuple.
//   - object_builder.go / object_core.go: Object builder, ObjectSchema and Record.
//   - union.go: Union and Nullable.
//   - wrap.go: wrappers (Describe, Transform, Preprocess, Refine, Custom, Lazy, Atom).
//   - emit.go: JSON Schema projection with definitions and back references.
package dsl
