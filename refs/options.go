package refs

import (
	"errors"
	"fmt"
	"log/slog"
)

// Unresolvable selects what happens when a $ref source cannot be found.
type Unresolvable int

const (
	Warn  Unresolvable = iota // Record a warning and leave the $ref in place (default).
	Throw                     // Abort resolution with an *UnresolvableError.
	Skip                      // Leave the $ref in place silently.
)

func (u Unresolvable) String() string {
	switch u {
	case Throw:
		return "throw"
	case Skip:
		return "skip"
	default:
		return "warn"
	}
}

// ParseUnresolvable maps "warn", "throw" and "skip" to a policy.
func ParseUnresolvable(s string) (Unresolvable, error) {
	switch s {
	case "", "warn":
		return Warn, nil
	case "throw":
		return Throw, nil
	case "skip":
		return Skip, nil
	}
	return Warn, fmt.Errorf("refs: unknown unresolvable policy %q", s)
}

// Merge selects how a reference node is combined with its resolved source.
type Merge int

const (
	// MergeNone replaces the reference node by the source node itself (aliasing).
	MergeNone Merge = iota
	// MergeDefault injects the source members at the position of $ref,
	// keeping the sibling members around it.
	MergeDefault
	// MergeFavorTarget lists source members first; sibling values win.
	MergeFavorTarget
	// MergeFavorSource lists sibling members first; source values win.
	MergeFavorSource
)

// Options controls Resolve and Hydrate. The zero value warns on unresolvable
// references, does not merge and drops $ref keys.
type Options struct {
	Unresolvable Unresolvable
	Merge        Merge
	// KeepRefs, when non-empty, names the member that keeps the original
	// $ref string on merged nodes. Use "$ref" to keep the key as is.
	KeepRefs string
	// RefFilter selects the edges Hydrate resolves. Nil keeps every
	// well-formed edge.
	RefFilter func(Ref) bool
	// SourcesFirst makes Hydrate run an edge before every edge whose source
	// subtree contains its target. KeepRefs copies a source's members, so
	// without it the result depends on key order.
	SourcesFirst bool
	// Logger receives warnings in addition to the returned Diag.
	Logger *slog.Logger
}

// ErrUnresolvable is wrapped by errors returned under the Throw policy.
var ErrUnresolvable = errors.New("refs: unresolvable $ref")

// UnresolvableError reports the edge that could not be resolved.
type UnresolvableError struct {
	Ref Ref
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("refs: could not resolve $ref from %s to %s", e.Ref.Target, e.Ref.describeSource())
}

func (e *UnresolvableError) Unwrap() error { return ErrUnresolvable }

// Diag carries non-fatal warnings produced during resolution.
type Diag interface {
	HasWarnings() bool
	Warnings() []string
}

type simpleDiag struct {
	ws  []string
	log *slog.Logger
}

func (d *simpleDiag) HasWarnings() bool  { return len(d.ws) > 0 }
func (d *simpleDiag) Warnings() []string { return append([]string(nil), d.ws...) }

func (d *simpleDiag) warnf(f string, a ...any) {
	msg := fmt.Sprintf(f, a...)
	d.ws = append(d.ws, msg)
	if d.log != nil {
		d.log.Warn(msg, slog.String("component", "refs"))
	}
}
