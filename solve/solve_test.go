package solve_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/zephyrtronium/wordmath"
	"github.com/zephyrtronium/wordmath/solve"
	"github.com/zephyrtronium/wordmath/synth"
)

// fake returns a fixed expression or error and counts calls.
type fake struct {
	expr  string
	err   error
	calls atomic.Int32
	last  string
}

func (f *fake) Synthesize(_ context.Context, q string) (string, error) {
	f.calls.Add(1)
	f.last = q
	return f.expr, f.err
}

var _ synth.Synthesizer = (*fake)(nil)

func newSolver(f *fake) (*solve.Solver, *bytes.Buffer) {
	var buf bytes.Buffer
	return solve.New(f, solve.WithLogger(log.New(&buf, "", 0))), &buf
}

func TestSolve(t *testing.T) {
	upstream := errors.New("rate limited")
	cases := []struct {
		name   string
		q      string
		expr   string
		err    error
		kind   solve.Kind
		answer string
		calls  int32
		logged bool
	}{
		{"fruit", "I have 5 bananas...", "(5-2) + (7-3) + 12 + 2*25", nil, solve.Answered, "69", 1, false},
		{"division", "split 7 in 2", "7/2", nil, solve.Answered, "3.5", 1, false},
		{"empty", "", "", nil, solve.NeedsInput, "", 0, false},
		{"blank", " \n\t ", "", nil, solve.NeedsInput, "", 0, false},
		{"unsafe", "q", "5 + abc", nil, solve.Unsafe, "", 1, true},
		{"prose", "q", "The answer is 65", nil, solve.Unsafe, "", 1, true},
		{"empty-expr", "q", "", nil, solve.Unsafe, "", 1, true},
		{"malformed", "q", "5 + * 3", nil, solve.Malformed, "", 1, true},
		{"unclosed", "q", "(5 + 3", nil, solve.Malformed, "", 1, true},
		{"pow", "q", "2**3", nil, solve.Malformed, "", 1, true},
		{"undefined", "q", "0/0", nil, solve.Malformed, "", 1, true},
		{"upstream", "q", "", upstream, solve.Upstream, "", 1, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := &fake{expr: c.expr, err: c.err}
			s, buf := newSolver(f)
			o := s.Solve(context.Background(), c.q)
			if o.Kind != c.kind {
				t.Errorf("kind = %v, want %v (err %v)", o.Kind, c.kind, o.Err)
			}
			if o.Answer != c.answer {
				t.Errorf("answer = %q, want %q", o.Answer, c.answer)
			}
			if o.Question != c.q {
				t.Errorf("question = %q, want %q", o.Question, c.q)
			}
			if got := f.calls.Load(); got != c.calls {
				t.Errorf("synthesizer calls = %d, want %d", got, c.calls)
			}
			if c.calls > 0 && f.last != c.q {
				t.Errorf("synthesizer saw %q, want %q", f.last, c.q)
			}
			if o.Failed() != (o.Err != nil) {
				t.Errorf("Failed() = %t with err %v", o.Failed(), o.Err)
			}
			if logged := buf.Len() > 0; logged != c.logged {
				t.Errorf("logged = %t, want %t: %q", logged, c.logged, buf.String())
			}
			if c.kind != solve.Upstream && c.kind != solve.NeedsInput && o.Expression != c.expr {
				t.Errorf("expression = %q, want %q", o.Expression, c.expr)
			}
		})
	}
}

func TestSolveErrorTypes(t *testing.T) {
	s, _ := newSolver(&fake{expr: "5 + abc"})
	o := s.Solve(context.Background(), "q")
	var ve *wordmath.ValidationError
	if !errors.As(o.Err, &ve) {
		t.Errorf("unsafe outcome error %#v is not *ValidationError", o.Err)
	}

	s, _ = newSolver(&fake{expr: "(1"})
	o = s.Solve(context.Background(), "q")
	var se *wordmath.SyntaxError
	if !errors.As(o.Err, &se) {
		t.Errorf("malformed outcome error %#v is not *SyntaxError", o.Err)
	}

	upstream := errors.New("boom")
	s, _ = newSolver(&fake{err: upstream})
	o = s.Solve(context.Background(), "q")
	if !errors.Is(o.Err, upstream) {
		t.Errorf("upstream outcome error %v does not wrap the synthesizer error", o.Err)
	}
	if o.Expression != "" {
		t.Errorf("upstream outcome has expression %q", o.Expression)
	}
}

func TestNotice(t *testing.T) {
	cases := []struct {
		kind solve.Kind
		want string
	}{
		{solve.Answered, ""},
		{solve.NeedsInput, "Please enter a question."},
		{solve.Unsafe, "Failed to solve the problem."},
		{solve.Malformed, "Failed to solve the problem."},
		{solve.Upstream, "Failed to solve the problem."},
	}
	for _, c := range cases {
		if got := (solve.Outcome{Kind: c.kind}).Notice(); got != c.want {
			t.Errorf("%v notice = %q, want %q", c.kind, got, c.want)
		}
	}
}

func TestKindText(t *testing.T) {
	cases := []struct {
		kind solve.Kind
		want string
	}{
		{solve.Answered, "answered"},
		{solve.NeedsInput, "needs_input"},
		{solve.Unsafe, "unsafe"},
		{solve.Malformed, "malformed"},
		{solve.Upstream, "upstream"},
	}
	for _, c := range cases {
		b, err := c.kind.MarshalText()
		if err != nil {
			t.Errorf("%d: %v", c.kind, err)
			continue
		}
		if string(b) != c.want {
			t.Errorf("%d: want %q, got %q", c.kind, c.want, b)
		}
	}
	if _, err := solve.Kind(99).MarshalText(); err == nil {
		t.Error("invalid kind marshaled")
	}
	if got := solve.Kind(99).String(); got != "Kind(99)" {
		t.Errorf("invalid kind string %q", got)
	}
}

func TestWithPrec(t *testing.T) {
	f := &fake{expr: "1/3"}
	s := solve.New(f, solve.WithPrec(200), solve.WithLogger(nil))
	if s.Prec() != 200 {
		t.Fatalf("prec = %d, want 200", s.Prec())
	}
	o := s.Solve(context.Background(), "a third")
	if o.Kind != solve.Answered {
		t.Fatalf("kind %v: %v", o.Kind, o.Err)
	}
	if len(o.Answer) < 50 || !strings.HasPrefix(o.Answer, "0.3333333333") {
		t.Errorf("200-bit third = %q", o.Answer)
	}
	if def := solve.New(f, solve.WithPrec(0)); def.Prec() != wordmath.DefaultPrec {
		t.Errorf("zero prec gives %d", def.Prec())
	}
}

func TestSolveDeterministic(t *testing.T) {
	s, _ := newSolver(&fake{expr: "(5-2) + (7-3) + 12 + 2*25 / 3"})
	first := s.Solve(context.Background(), "q")
	for i := 0; i < 5; i++ {
		o := s.Solve(context.Background(), "q")
		if o.Answer != first.Answer || o.Kind != first.Kind {
			t.Fatalf("solve %d gave %+v, first gave %+v", i, o, first)
		}
	}
}
