package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rubenlestaa/ideabank/internal/classify"
	"github.com/rubenlestaa/ideabank/internal/decode"
	"github.com/rubenlestaa/ideabank/internal/tree"
)

// Default configuration values.
const (
	defaultServerURL   = "http://localhost:11434"
	defaultModel       = "llama3.1"
	defaultTemperature = 0.1
	defaultMaxRetries  = 2
	defaultBaseBackoff = 500 * time.Millisecond
)

// Rate limiter defaults: local models choke on concurrent prompts, so
// keep requests serialized with a small burst.
const (
	defaultRateLimit = 2.0
	defaultBurst     = 2
)

// Config holds the classifier backend settings.
type Config struct {
	ServerURL   string  `koanf:"server_url"`
	Model       string  `koanf:"model"`
	Temperature float64 `koanf:"temperature"`
	MaxRetries  int     `koanf:"max_retries"`
}

// completer is the slice of the model API the client needs. The
// production implementation is the ollama client; tests swap in a fake.
type completer interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Client classifies notes through an Ollama-served model.
type Client struct {
	llm         completer
	logger      *zap.Logger
	limiter     *rate.Limiter
	temperature float64
	maxRetries  int
}

// NewClient creates a classifier client against an Ollama server.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serverURL := cfg.ServerURL
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}

	return newClient(llm, cfg, logger), nil
}

func newClient(llm completer, cfg Config, logger *zap.Logger) *Client {
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Client{
		llm:         llm,
		logger:      logger,
		limiter:     rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		temperature: temperature,
		maxRetries:  maxRetries,
	}
}

// Classify sends the note plus the tree snapshot to the model and
// parses whatever comes back through the resilient decoder. Transport
// failures surface as ErrUnavailable after retries; unusable output
// surfaces as *decode.DecodeError.
func (c *Client) Classify(ctx context.Context, note string, snapshot tree.Tree, locale string) ([]classify.Proposal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	prompt, err := buildPrompt(note, snapshot, locale)
	if err != nil {
		return nil, err
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}

	completion, err := c.generate(ctx, messages)
	if err != nil {
		return nil, err
	}

	value, err := decode.Extract(completion)
	if err != nil {
		c.logger.Warn("classifier returned undecodable output",
			zap.Int("completion_len", len(completion)),
			zap.Error(err))
		return nil, err
	}

	proposals, err := classify.ParseProposals(value)
	if err != nil {
		// Decoded JSON of the wrong shape is the same failure mode as
		// undecodable text as far as callers are concerned.
		return nil, &decode.DecodeError{Raw: completion}
	}
	return proposals, nil
}

// generate performs the model call with retries and exponential
// backoff. Every transport failure is wrapped in ErrUnavailable so
// callers can route the note to the inbox.
func (c *Client) generate(ctx context.Context, messages []llms.MessageContent) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			c.logger.Debug("retrying classifier call",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			}
		}

		resp, err := c.llm.GenerateContent(ctx, messages, llms.WithTemperature(c.temperature))
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("empty response from model")
			continue
		}
		return resp.Choices[0].Content, nil
	}

	return "", fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

var _ Oracle = (*Client)(nil)
