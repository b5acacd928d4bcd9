package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/zephyrtronium/wordmath/solve"
)

// Page text.
const (
	Title   = "Text → Math Problem Solver"
	Caption = "LLM for interpretation, Go for calculation (correct & deterministic)"
	Label   = "Enter your math word problem:"
)

// Example is the question the form starts with.
const Example = "I have 5 bananas and 7 grapes. " +
	"I eat 2 bananas and give away 3 grapes. " +
	"Then I buy a dozen apples and 2 packs of blueberries. " +
	"Each pack of blueberries contains 25 berries. " +
	"How many total pieces of fruit do I have at the end?"

// page is the state of the single page: the question in the form and the
// outcome of solving it, if it has been.
type page struct {
	Question string
	Outcome  *solve.Outcome
}

// writer accumulates the first write error so components read as straight
// lines of markup.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

// layout wraps body in the document shell.
func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.raw(`<title>`)
		w.text(title)
		w.raw(`</title><style>` + style + `</style></head><body><main id="main">`)
		if w.err != nil {
			return w.err
		}
		if err := body.Render(ctx, out); err != nil {
			return err
		}
		w.raw(`</main></body></html>`)
		return w.err
	})
}

const style = `body{font-family:system-ui,sans-serif;max-width:44rem;margin:2rem auto;padding:0 1rem}` +
	`textarea{width:100%;box-sizing:border-box;font:inherit}` +
	`.caption{color:#666}.notice{padding:.75rem;border-radius:.25rem}` +
	`.warning{background:#fff4d6}.error{background:#fde2e1}.success{background:#e3f6e5}` +
	`pre{background:#f4f4f4;padding:.75rem;overflow-x:auto}`

// solver renders the form and whatever the last submission produced.
func solver(p page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<h1>`)
		w.text(Title)
		w.raw(`</h1><p class="caption">`)
		w.text(Caption)
		w.raw(`</p><form method="post" action="/"><label for="question">`)
		w.text(Label)
		w.raw(`</label><textarea id="question" name="question" rows="8">`)
		w.text(p.Question)
		w.raw(`</textarea><p><button type="submit">Solve</button></p></form>`)
		if p.Outcome != nil {
			result(w, *p.Outcome)
		}
		return w.err
	})
}

func result(w *writer, o solve.Outcome) {
	switch o.Kind {
	case solve.Answered:
		w.raw(`<section id="result"><h2>Interpreted Expression</h2><pre><code>`)
		w.text(o.Expression)
		w.raw(`</code></pre><h2>Final Answer</h2><p class="notice success" id="answer">`)
		w.text(o.Answer)
		w.raw(`</p></section>`)
	case solve.NeedsInput:
		w.raw(`<p class="notice warning" id="notice">`)
		w.text(o.Notice())
		w.raw(`</p>`)
	default:
		w.raw(`<section id="result"><p class="notice error" id="notice">`)
		w.text(o.Notice())
		w.raw(`</p>`)
		if o.Expression != "" {
			w.raw(`<h2>Interpreted Expression</h2><pre><code>`)
			w.text(o.Expression)
			w.raw(`</code></pre>`)
		}
		w.raw(`<pre id="detail">`)
		w.text(detail(o))
		w.raw(`</pre></section>`)
	}
}

// detail is the diagnostic shown under a failure notice.
func detail(o solve.Outcome) string {
	if o.Err == nil {
		return o.Kind.String()
	}
	return o.Kind.String() + ": " + strings.TrimSpace(o.Err.Error())
}
