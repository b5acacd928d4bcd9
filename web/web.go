// Package web serves the word problem solver as a single HTML page and a small
// JSON API.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/zephyrtronium/wordmath/solve"
)

// maxBody bounds request bodies.
const maxBody = 64 << 10

// Solver answers questions.
type Solver interface {
	Solve(ctx context.Context, question string) solve.Outcome
}

// Server is the HTTP surface for a Solver.
type Server struct {
	solver Solver
	log    *log.Logger
	mux    *http.ServeMux
}

// New creates a server. A nil logger means log.Default.
func New(s Solver, l *log.Logger) *Server {
	if l == nil {
		l = log.Default()
	}
	srv := Server{solver: s, log: l, mux: http.NewServeMux()}
	srv.mux.HandleFunc(http.MethodGet+" /{$}", srv.index)
	srv.mux.HandleFunc(http.MethodPost+" /{$}", srv.submit)
	srv.mux.HandleFunc(http.MethodPost+" /api/solve", srv.api)
	return &srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, page{Question: Example})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	q := r.PostForm.Get("question")
	o := s.solver.Solve(r.Context(), q)
	s.render(w, r, http.StatusOK, page{Question: q, Outcome: &o})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, p page) {
	var buf bytes.Buffer
	if err := layout(Title, solver(p)).Render(r.Context(), &buf); err != nil {
		s.log.Printf("render page: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// Request is the body of a POST to /api/solve.
type Request struct {
	Question string `json:"question"`
}

// Response is the reply from /api/solve.
type Response struct {
	Kind       solve.Kind `json:"kind"`
	Question   string     `json:"question"`
	Expression string     `json:"expression,omitempty"`
	Answer     string     `json:"answer,omitempty"`
	Notice     string     `json:"notice,omitempty"`
	Error      string     `json:"error,omitempty"`
}

func (s *Server) api(w http.ResponseWriter, r *http.Request) {
	var req Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		status := http.StatusBadRequest
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, map[string]string{"error": "invalid request: " + err.Error()})
		return
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request: trailing data"})
		return
	}
	o := s.solver.Solve(r.Context(), req.Question)
	resp := Response{
		Kind:       o.Kind,
		Question:   o.Question,
		Expression: o.Expression,
		Answer:     o.Answer,
		Notice:     o.Notice(),
	}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}
	writeJSON(w, statusOf(o.Kind), resp)
}

// statusOf maps outcomes to HTTP statuses.
func statusOf(k solve.Kind) int {
	switch k {
	case solve.Answered:
		return http.StatusOK
	case solve.NeedsInput:
		return http.StatusBadRequest
	case solve.Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
