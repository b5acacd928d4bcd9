package synth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible API root.
	DefaultBaseURL = "https://api.groq.com/openai/v1/"
	// DefaultModel is the model asked when none is configured.
	DefaultModel = "llama-3.1-8b-instant"
)

// ErrNoAPIKey indicates a Config without an API key.
var ErrNoAPIKey = errors.New("synth: no API key")

// Config configures a Client.
type Config struct {
	// APIKey is sent as a bearer token.
	APIKey string
	// BaseURL is the root of an OpenAI-compatible API. Empty means
	// DefaultBaseURL.
	BaseURL string
	// Model names the chat model. Empty means DefaultModel.
	Model string
	// Temperature is the sampling temperature. Zero asks for the most
	// deterministic output the provider offers.
	Temperature float64
	// Template renders questions into prompts. The zero Template is
	// DefaultTemplate.
	Template Template
	// HTTPClient sends requests. Nil means http.DefaultClient.
	HTTPClient *http.Client
}

// Client is a Synthesizer backed by a chat completions API. A Client is safe
// for concurrent use.
type Client struct {
	cfg    Config
	api    openai.Client
	tracer trace.Tracer
}

// New creates a client. It does not contact the API.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	api := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(cfg.HTTPClient),
		// Each question is one request. Failures go straight to the caller.
		option.WithMaxRetries(0),
	)
	c := Client{
		cfg:    cfg,
		api:    api,
		tracer: otel.Tracer("github.com/zephyrtronium/wordmath/synth"),
	}
	return &c, nil
}

// Model returns the model the client asks.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Synthesize sends one prompt containing question as a single user message
// and returns the first choice with surrounding whitespace removed.
func (c *Client) Synthesize(ctx context.Context, question string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "synth.Synthesize", trace.WithAttributes(
		attribute.String("synth.model", c.cfg.Model),
		attribute.Int("synth.question_len", len(question)),
	))
	defer span.End()

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(c.cfg.Template.Render(question)),
		},
		Temperature: openai.Float(c.cfg.Temperature),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion failed")
		return "", fmt.Errorf("synth: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		span.SetStatus(codes.Error, "no completion")
		return "", ErrNoCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	span.SetAttributes(attribute.Int("synth.expression_len", len(text)))
	return text, nil
}
