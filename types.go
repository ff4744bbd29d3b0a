package schemabridge

// UnknownPolicy controls how unknown object keys are handled.
type UnknownPolicy int

const (
	UnknownStrip       UnknownPolicy = iota // Drop unknown keys (default).
	UnknownStrict                           // Reject unknown keys with an error.
	UnknownPassthrough                      // Preserve unknown keys as-is.
)

// Side selects one half of an asymmetric schema pair.
//
// Input is the lenient representation accepted when submitting a task
// (for example base64 text, a data URL or raw bytes for file data); Output is
// the canonical representation produced by the backend (decoded bytes).
type Side int

const (
	Input Side = iota
	Output
)

func (s Side) String() string {
	if s == Output {
		return "output"
	}
	return "input"
}
