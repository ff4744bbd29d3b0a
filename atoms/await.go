package atoms

import (
	"context"
	"errors"

	schemabridge "github.com/reoring/schemabridge"
	"github.com/reoring/schemabridge/dsl"
	"github.com/reoring/schemabridge/i18n"
)

// Future is a value that may not be available yet, such as file bytes being
// read in the background. Schemas wrapped with Resolved await it before
// validating.
type Future interface {
	Await(ctx context.Context) (any, error)
}

// FutureFunc adapts a function to Future.
type FutureFunc func(ctx context.Context) (any, error)

func (f FutureFunc) Await(ctx context.Context) (any, error) { return f(ctx) }

// Go runs fn in a new goroutine and returns a Future for its result.
func Go(fn func() (any, error)) Future {
	f := &goFuture{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.v, f.err = fn()
	}()
	return f
}

type goFuture struct {
	done chan struct{}
	v    any
	err  error
}

func (f *goFuture) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.v, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Await resolves v when it is a Future (repeatedly, for futures of futures)
// and returns plain values unchanged. Failures are reported as a
// dependency_unavailable issue carrying the cause.
func Await(ctx context.Context, v any) (any, error) {
	for {
		f, ok := v.(Future)
		if !ok {
			return v, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, unavailable(err)
		}
		next, err := f.Await(ctx)
		if err != nil {
			if _, ok := schemabridge.AsIssues(err); ok {
				return nil, err
			}
			return nil, unavailable(err)
		}
		v = next
	}
}

func unavailable(cause error) schemabridge.Issues {
	hint := "pending value failed"
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		hint = "context done before the pending value resolved"
	}
	return schemabridge.Issues{{
		Path:    "/",
		Code:    schemabridge.CodeDependencyUnavailable,
		Message: i18n.T(schemabridge.CodeDependencyUnavailable, nil),
		Hint:    hint,
		Cause:   cause,
	}}
}

// Resolved accepts either a value conforming to s or a Future of one.
func Resolved(s dsl.Node) dsl.Node { return dsl.Preprocess(Await, s) }
