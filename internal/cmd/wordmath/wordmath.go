// Package wordmath parses wordmath command configuration and runs the modes of
// the command.
package wordmath

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/big"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/zephyrtronium/wordmath"
	"github.com/zephyrtronium/wordmath/internal/config"
	"github.com/zephyrtronium/wordmath/internal/otel"
	"github.com/zephyrtronium/wordmath/solve"
	"github.com/zephyrtronium/wordmath/synth"
	"github.com/zephyrtronium/wordmath/web"
)

// ServiceName identifies the command in telemetry.
const ServiceName = "wordmath"

const shutdownTimeout = 5 * time.Second

// Config holds command configuration. Fields with env tags are read from the
// environment first and may then be overridden by flags.
type Config struct {
	APIKey      string        `env:"GROQ_API_KEY"`
	BaseURL     string        `env:"WORDMATH_BASE_URL" envDefault:"https://api.groq.com/openai/v1/"`
	Model       string        `env:"WORDMATH_MODEL" envDefault:"llama-3.1-8b-instant"`
	Temperature float64       `env:"WORDMATH_TEMPERATURE" envDefault:"0"`
	PromptFile  string        `env:"WORDMATH_PROMPT_FILE"`
	Timeout     time.Duration `env:"WORDMATH_TIMEOUT" envDefault:"30s"`
	Addr        string        `env:"WORDMATH_ADDR"`
	Prec        uint          `env:"WORDMATH_PREC" envDefault:"53"`
	Telemetry   otel.Config

	// In names a file to read input from. "-" is stdin.
	In string
	// Eval evaluates input as expressions without asking a model.
	Eval bool
	// Echo prints parse trees in eval mode.
	Echo bool
	// Args are the positional arguments.
	Args []string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "OpenAI-compatible API root")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "chat model to ask")
	fs.Float64Var(&cfg.Temperature, "temperature", cfg.Temperature, "sampling temperature")
	fs.StringVar(&cfg.PromptFile, "prompt", cfg.PromptFile, "prompt template file containing "+synth.Placeholder)
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout for each model request")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "serve the web UI on this address instead of answering once")
	fs.UintVar(&cfg.Prec, "p", cfg.Prec, "precision of calculations in bits")
	fs.StringVar(&cfg.Telemetry.Endpoint, "otel-endpoint", cfg.Telemetry.Endpoint, "OTLP/HTTP trace endpoint (tracing is off when empty)")
	fs.StringVar(&cfg.In, "in", "", "input file (default stdin if no args given)")
	fs.BoolVar(&cfg.Eval, "eval", false, "evaluate input as expressions without a model")
	fs.BoolVar(&cfg.Echo, "echo", false, "print parse trees (with -eval)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Args = fs.Args()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.Prec == 0 || cfg.Prec > big.MaxPrec {
		return fmt.Errorf("precision (%d) must be between 1 and %d", cfg.Prec, uint(big.MaxPrec))
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return fmt.Errorf("temperature (%g) must be between 0 and 2", cfg.Temperature)
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout (%v) must not be negative", cfg.Timeout)
	}
	return cfg.Telemetry.Validate()
}

// ErrFailed is returned when some input could not be answered. The details
// have already been written to the output.
var ErrFailed = errors.New("failed to solve")

// Run executes the mode cfg selects, with tracing configured for the duration.
func Run(ctx context.Context, cfg Config, stdin io.Reader, stdout io.Writer) error {
	shutdown, err := otel.Setup(ctx, ServiceName, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()
	switch {
	case cfg.Eval:
		return evaluate(cfg, stdin, stdout)
	case cfg.Addr != "":
		s, err := newSolver(cfg)
		if err != nil {
			return err
		}
		return serve(ctx, cfg.Addr, web.New(s, log.Default()))
	default:
		s, err := newSolver(cfg)
		if err != nil {
			return err
		}
		return answer(ctx, cfg, s, stdin, stdout)
	}
}

// newSolver creates the synthesizer and solver cfg describes.
func newSolver(cfg Config) (*solve.Solver, error) {
	tmpl := synth.DefaultTemplate()
	if cfg.PromptFile != "" {
		b, err := os.ReadFile(cfg.PromptFile)
		if err != nil {
			return nil, fmt.Errorf("read prompt: %w", err)
		}
		tmpl, err = synth.NewTemplate(string(b))
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", cfg.PromptFile, err)
		}
	}
	client, err := synth.New(synth.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Template:    tmpl,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		if errors.Is(err, synth.ErrNoAPIKey) {
			return nil, fmt.Errorf("GROQ_API_KEY is required: %w", err)
		}
		return nil, err
	}
	return solve.New(client, solve.WithLogger(log.Default()), solve.WithPrec(cfg.Prec)), nil
}

// answer solves one question taken from the arguments or the input file.
func answer(ctx context.Context, cfg Config, s *solve.Solver, stdin io.Reader, stdout io.Writer) error {
	q := strings.Join(cfg.Args, " ")
	if len(cfg.Args) == 0 || cfg.In != "" {
		f, closer, err := infile(cfg.In, stdin)
		if err != nil {
			return err
		}
		b, err := io.ReadAll(f)
		closer()
		if err != nil {
			return fmt.Errorf("read question: %w", err)
		}
		q = strings.TrimSpace(strings.Join(append([]string{string(b)}, cfg.Args...), " "))
	}
	o := s.Solve(ctx, q)
	if o.Expression != "" {
		fmt.Fprintf(stdout, "Interpreted Expression: %s\n", o.Expression)
	}
	switch {
	case o.Kind == solve.Answered:
		fmt.Fprintf(stdout, "Final Answer: %s\n", o.Answer)
		return nil
	case o.Err != nil:
		fmt.Fprintf(stdout, "%s\n%v\n", o.Notice(), o.Err)
	default:
		fmt.Fprintln(stdout, o.Notice())
	}
	return ErrFailed
}

// evaluate evaluates each argument, and each non-blank line of the input
// file, as an expression.
func evaluate(cfg Config, stdin io.Reader, stdout io.Writer) error {
	var srcs []string
	if len(cfg.Args) == 0 || cfg.In != "" {
		f, closer, err := infile(cfg.In, stdin)
		if err != nil {
			return err
		}
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				srcs = append(srcs, line)
			}
		}
		closer()
		if err := sc.Err(); err != nil {
			return fmt.Errorf("read input: %w", err)
		}
	}
	srcs = append(srcs, cfg.Args...)

	failed := false
	ctx := wordmath.NewContext(wordmath.Prec(cfg.Prec))
	for _, src := range srcs {
		if err := wordmath.Check(src); err != nil {
			fmt.Fprintln(stdout, err)
			failed = true
			continue
		}
		a, err := wordmath.Parse(strings.NewReader(src))
		if err != nil {
			var ie wordmath.InputError
			if errors.As(err, &ie) {
				err = &wordmath.SyntaxError{Expr: src, Err: ie}
			}
			fmt.Fprintln(stdout, err)
			failed = true
			continue
		}
		if cfg.Echo {
			fmt.Fprintf(stdout, "%v : ", a)
		}
		r := ctx.Eval(a)
		if r == nil {
			fmt.Fprintln(stdout, ctx.Err())
			failed = true
			continue
		}
		fmt.Fprintln(stdout, wordmath.Format(r))
	}
	if failed {
		return ErrFailed
	}
	return nil
}

// infile opens the named input, or stdin for "" and "-".
func infile(name string, stdin io.Reader) (io.Reader, func(), error) {
	if name == "" || name == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// serve serves h on addr until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, addr string, h http.Handler) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return serveOn(ctx, l, h)
}

func serveOn(ctx context.Context, l net.Listener, h http.Handler) error {
	srv := http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		log.Printf("serving on http://%s", l.Addr())
		errs <- srv.Serve(l)
	}()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
