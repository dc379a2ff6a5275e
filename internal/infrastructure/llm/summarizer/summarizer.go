package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"browsegpt/internal/application/port/output"
	"browsegpt/internal/domain/entity"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var _ output.SummarizerPort = (*Summarizer)(nil)

const (
	providerName = "summarizer"

	defaultModel         = "gpt-4-turbo"
	defaultTimeout       = 30 * time.Second
	defaultMaxInputRunes = 48000
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	// MaxInputRunes bounds the prompt; longer input is cut before sending.
	MaxInputRunes int
	Logger        output.LoggerPort
}

func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:        apiKey,
		Model:         defaultModel,
		Timeout:       defaultTimeout,
		MaxInputRunes: defaultMaxInputRunes,
	}
}

type Summarizer struct {
	llm      llms.Model
	timeout  time.Duration
	maxRunes int
	logger   output.LoggerPort
}

func New(cfg Config) (*Summarizer, error) {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxInputRunes <= 0 {
		cfg.MaxInputRunes = defaultMaxInputRunes
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create summarizer model: %w", err)
	}

	return newWithModel(llm, cfg), nil
}

func newWithModel(llm llms.Model, cfg Config) *Summarizer {
	return &Summarizer{
		llm:      llm,
		timeout:  cfg.Timeout,
		maxRunes: cfg.MaxInputRunes,
		logger:   cfg.Logger,
	}
}

// Summarize sends text as a single prompt and returns the completion.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	prompt, truncated := truncateRunes(text, s.maxRunes)
	if truncated && s.logger != nil {
		s.logger.Debug("Summary input truncated", "runes", s.maxRunes)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	completion, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt)
	if err != nil {
		return "", &entity.ProviderError{Provider: providerName, Err: err}
	}

	if s.logger != nil {
		s.logger.Debug("Summary generated", "durationMs", time.Since(start).Milliseconds(), "chars", len(completion))
	}
	return strings.TrimSpace(completion), nil
}

func truncateRunes(s string, max int) (string, bool) {
	if max <= 0 {
		return s, false
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s, false
	}
	return string(runes[:max]), true
}
