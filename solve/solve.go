// Package solve connects a Synthesizer to the safe evaluator. It is the one
// place where failures of either are caught, logged, and classified.
package solve

import (
	"context"
	"errors"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/zephyrtronium/wordmath"
	"github.com/zephyrtronium/wordmath/synth"
)

// Kind classifies an Outcome.
type Kind int

const (
	// Answered means the question was interpreted and evaluated.
	Answered Kind = iota
	// NeedsInput means the question was empty.
	NeedsInput
	// Unsafe means the synthesized expression failed the character-set gate.
	Unsafe
	// Malformed means the synthesized expression passed the gate but was not
	// a valid expression or had no defined value.
	Malformed
	// Upstream means the synthesizer failed.
	Upstream
)

var kindNames = [...]string{
	Answered:   "answered",
	NeedsInput: "needs_input",
	Unsafe:     "unsafe",
	Malformed:  "malformed",
	Upstream:   "upstream",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// MarshalText encodes k as its name.
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, errors.New("solve: invalid kind " + k.String())
	}
	return []byte(kindNames[k]), nil
}

// Notices shown to users.
const (
	NoticeNeedsInput = "Please enter a question."
	NoticeFailed     = "Failed to solve the problem."
)

// Outcome is the result of solving one question. Expression is set whenever
// the synthesizer produced one, even if it could not be evaluated. Answer is
// set only when Kind is Answered, and Err only when it is not.
type Outcome struct {
	Question   string
	Expression string
	Answer     string
	Kind       Kind
	Err        error
}

// Failed reports whether the outcome is an error.
func (o Outcome) Failed() bool {
	return o.Kind != Answered && o.Kind != NeedsInput
}

// Notice returns the message to show in place of an answer, or the empty
// string for an answered question.
func (o Outcome) Notice() string {
	switch {
	case o.Kind == NeedsInput:
		return NoticeNeedsInput
	case o.Failed():
		return NoticeFailed
	default:
		return ""
	}
}

// Solver answers word problems. A Solver is safe for concurrent use provided
// its Synthesizer is.
type Solver struct {
	synth synth.Synthesizer
	log   *log.Logger
	prec  uint
}

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the logger for failures. A nil logger discards them.
func WithLogger(l *log.Logger) Option {
	return func(s *Solver) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		s.log = l
	}
}

// WithPrec sets the evaluation precision in bits. Zero means
// wordmath.DefaultPrec.
func WithPrec(prec uint) Option {
	return func(s *Solver) {
		s.prec = prec
	}
}

// New creates a solver. The default logger is log.Default.
func New(syn synth.Synthesizer, opts ...Option) *Solver {
	s := Solver{
		synth: syn,
		log:   log.Default(),
		prec:  wordmath.DefaultPrec,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.prec == 0 {
		s.prec = wordmath.DefaultPrec
	}
	return &s
}

// Prec returns the precision the solver evaluates with.
func (s *Solver) Prec() uint {
	return s.prec
}

// Solve interprets question as an expression and evaluates it. A blank
// question never reaches the synthesizer.
func (s *Solver) Solve(ctx context.Context, question string) Outcome {
	o := Outcome{Question: question}
	if strings.TrimSpace(question) == "" {
		o.Kind = NeedsInput
		return o
	}
	expr, err := s.synth.Synthesize(ctx, question)
	if err != nil {
		o.Kind = Upstream
		o.Err = err
		s.log.Printf("synthesize: %v", err)
		return o
	}
	o.Expression = expr
	r, err := wordmath.EvalString(expr, wordmath.Prec(s.prec))
	if err != nil {
		o.Kind = classify(err)
		o.Err = err
		s.log.Printf("evaluate %q: %v", expr, err)
		return o
	}
	o.Answer = wordmath.Format(r)
	return o
}

// classify maps an evaluator error to a kind. Anything past the gate is
// malformed, including operations with no defined value.
func classify(err error) Kind {
	var ve *wordmath.ValidationError
	if errors.As(err, &ve) {
		return Unsafe
	}
	return Malformed
}
