package synth

import (
	"context"
	"errors"
)

// Synthesizer turns a question into untrusted text that should be a single
// arithmetic expression.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string) (string, error)
}

// Func adapts a function to a Synthesizer.
type Func func(ctx context.Context, question string) (string, error)

// Synthesize calls f.
func (f Func) Synthesize(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

// ErrNoCompletion indicates an upstream response with no choices.
var ErrNoCompletion = errors.New("synth: response contained no completion")
