package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/zephyrtronium/wordmath/solve"
	"github.com/zephyrtronium/wordmath/synth"
)

type solveFunc func(ctx context.Context, q string) solve.Outcome

func (f solveFunc) Solve(ctx context.Context, q string) solve.Outcome {
	return f(ctx, q)
}

// realSolver solves with a canned synthesizer and the real evaluator.
func realSolver(expr string, err error) *solve.Solver {
	syn := synth.Func(func(context.Context, string) (string, error) {
		return expr, err
	})
	return solve.New(syn, solve.WithLogger(log.New(io.Discard, "", 0)))
}

func newTestServer(s Solver) *Server {
	return New(s, log.New(io.Discard, "", 0))
}

func postForm(t *testing.T, h http.Handler, q string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"question": {q}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIndex(t *testing.T) {
	t.Parallel()

	srv := newTestServer(solveFunc(func(context.Context, string) solve.Outcome {
		t.Fatal("GET should not solve")
		return solve.Outcome{}
	}))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Fatalf("content-type = %q", got)
	}
	body := rr.Body.String()
	for _, marker := range []string{
		"<!DOCTYPE html>",
		"<title>Text → Math Problem Solver</title>",
		"<h1>Text → Math Problem Solver</h1>",
		"LLM for interpretation, Go for calculation (correct &amp; deterministic)",
		"I have 5 bananas and 7 grapes.",
		`<textarea id="question" name="question"`,
		`<button type="submit">Solve</button>`,
	} {
		if !strings.Contains(body, marker) {
			t.Errorf("body missing %q", marker)
		}
	}
	if strings.Contains(body, `id="result"`) || strings.Contains(body, `id="notice"`) {
		t.Error("fresh page shows a result")
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(realSolver("1", nil))
	for _, path := range []string{"/other", "/api/solve"} {
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusNotFound && rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("GET %s status = %d", path, rr.Code)
		}
	}
}

func TestSubmit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		q       string
		expr    string
		err     error
		want    []string
		notWant []string
	}{
		{
			name: "answered",
			q:    Example,
			expr: "(5-2) + (7-3) + 12 + 2*25",
			want: []string{
				"Interpreted Expression",
				"<code>(5-2) + (7-3) + 12 + 2*25</code>",
				"Final Answer",
				`id="answer">69</p>`,
			},
			notWant: []string{"Failed to solve the problem."},
		},
		{
			name:    "blank",
			q:       "   ",
			want:    []string{"Please enter a question."},
			notWant: []string{"Final Answer", "Failed to solve the problem."},
		},
		{
			name: "unsafe",
			q:    "q",
			expr: "The answer is 65",
			want: []string{
				"Failed to solve the problem.",
				"unsafe: unsafe expression: The answer is 65",
			},
			notWant: []string{"Final Answer"},
		},
		{
			name: "malformed",
			q:    "q",
			expr: "5 + * 3",
			want: []string{
				"Failed to solve the problem.",
				"<code>5 + * 3</code>",
				"malformed: malformed expression &#34;5 + * 3&#34;",
			},
		},
		{
			name: "upstream",
			q:    "q",
			err:  errors.New("connection refused"),
			want: []string{"Failed to solve the problem.", "upstream: connection refused"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			rr := postForm(t, newTestServer(realSolver(c.expr, c.err)), c.q)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d", rr.Code)
			}
			body := rr.Body.String()
			for _, m := range c.want {
				if !strings.Contains(body, m) {
					t.Errorf("body missing %q:\n%s", m, body)
				}
			}
			for _, m := range c.notWant {
				if strings.Contains(body, m) {
					t.Errorf("body has %q", m)
				}
			}
		})
	}
}

func TestSubmitEscapes(t *testing.T) {
	t.Parallel()

	const q = `</textarea><script>alert(1)</script>`
	rr := postForm(t, newTestServer(realSolver("<b>1</b>", nil)), q)
	body := rr.Body.String()
	if strings.Contains(body, "<script>") || strings.Contains(body, "<b>") {
		t.Fatalf("unescaped input in body:\n%s", body)
	}
	if !strings.Contains(body, "&lt;/textarea&gt;&lt;script&gt;") {
		t.Errorf("question not echoed escaped:\n%s", body)
	}
}

func TestAPI(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		body   string
		expr   string
		err    error
		status int
		want   Response
	}{
		{
			name:   "answered",
			body:   `{"question":"half of seven"}`,
			expr:   "7/2",
			status: http.StatusOK,
			want:   Response{Kind: solve.Answered, Question: "half of seven", Expression: "7/2", Answer: "3.5"},
		},
		{
			name:   "blank",
			body:   `{"question":""}`,
			status: http.StatusBadRequest,
			want:   Response{Kind: solve.NeedsInput, Notice: "Please enter a question."},
		},
		{
			name:   "unsafe",
			body:   `{"question":"q"}`,
			expr:   "5 + abc",
			status: http.StatusUnprocessableEntity,
			want: Response{
				Kind:       solve.Unsafe,
				Question:   "q",
				Expression: "5 + abc",
				Notice:     "Failed to solve the problem.",
				Error:      "unsafe expression: 5 + abc",
			},
		},
		{
			name:   "upstream",
			body:   `{"question":"q"}`,
			err:    errors.New("boom"),
			status: http.StatusBadGateway,
			want:   Response{Kind: solve.Upstream, Question: "q", Notice: "Failed to solve the problem.", Error: "boom"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(realSolver(c.expr, c.err))
			req := httptest.NewRequest(http.MethodPost, "/api/solve", strings.NewReader(c.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			srv.ServeHTTP(rr, req)
			if rr.Code != c.status {
				t.Fatalf("status = %d, want %d: %s", rr.Code, c.status, rr.Body)
			}
			if got := rr.Header().Get("Content-Type"); got != "application/json" {
				t.Errorf("content-type = %q", got)
			}
			var raw map[string]any
			if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
				t.Fatalf("decode %s: %v", rr.Body, err)
			}
			if raw["kind"] != c.want.Kind.String() {
				t.Errorf("kind = %v, want %v", raw["kind"], c.want.Kind)
			}
			got := Response{Kind: c.want.Kind}
			got.Question, _ = raw["question"].(string)
			got.Expression, _ = raw["expression"].(string)
			got.Answer, _ = raw["answer"].(string)
			got.Notice, _ = raw["notice"].(string)
			got.Error, _ = raw["error"].(string)
			if got != c.want {
				t.Errorf("response = %+v, want %+v", got, c.want)
			}
		})
	}
}

func TestAPIBadRequest(t *testing.T) {
	t.Parallel()

	srv := newTestServer(solveFunc(func(context.Context, string) solve.Outcome {
		t.Fatal("bad request should not solve")
		return solve.Outcome{}
	}))
	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"not json", "question=1", http.StatusBadRequest},
		{"unknown field", `{"q":"x"}`, http.StatusBadRequest},
		{"trailing", `{"question":"x"} {}`, http.StatusBadRequest},
		{"too big", `{"question":"` + strings.Repeat("1", maxBody) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/solve", bytes.NewBufferString(c.body))
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, req)
		if rr.Code != c.status {
			t.Errorf("%s: status = %d, want %d", c.name, rr.Code, c.status)
		}
		if !strings.Contains(rr.Body.String(), `"error":"invalid request`) {
			t.Errorf("%s: body = %s", c.name, rr.Body)
		}
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestLayoutWriteError(t *testing.T) {
	t.Parallel()

	err := layout(Title, solver(page{Question: "x"})).Render(context.Background(), failWriter{})
	if err == nil || err.Error() != "disk full" {
		t.Fatalf("Render error = %v, want disk full", err)
	}
}
