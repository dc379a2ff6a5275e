package openaichat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"browsegpt/internal/application/port/output"
	"browsegpt/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
)

var _ output.LLMPort = (*ChatAdapter)(nil)

const providerName = "chat model"

type ChatAdapter struct {
	client *openai.Client
	model  string
	logger output.LoggerPort
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  output.LoggerPort
}

func DefaultConfig(apiKey, model string) Config {
	return Config{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://api.openai.com/v1",
	}
}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.logger.Debug("HTTP Request",
		"method", req.Method,
		"url", req.URL.String(),
		"bodyBytes", req.ContentLength,
	)

	resp, err := t.base.RoundTrip(req)

	if resp != nil {
		t.logger.Debug("HTTP Response",
			"status", resp.Status,
			"statusCode", resp.StatusCode,
		)
	}

	return resp, err
}

func NewChatAdapter(cfg Config) *ChatAdapter {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	if cfg.Logger != nil {
		config.HTTPClient = &http.Client{
			Transport: &loggingTransport{
				base:   http.DefaultTransport,
				logger: cfg.Logger,
			},
		}
	}

	return &ChatAdapter{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// ChatStream streams one completion. Text deltas go to handler.OnText as they
// arrive; a tool call is handed to handler.OnToolCall once the stream moves
// on to the next call index or ends, since only then are its arguments
// complete.
func (a *ChatAdapter) ChatStream(ctx context.Context, req output.ChatRequest, handler output.StreamHandler) (*output.ChatResponse, error) {
	messages := convertMessages(req.Messages)
	tools := convertTools(req.Tools)

	a.debug("Creating chat completion stream",
		"model", a.model,
		"messagesCount", len(messages),
		"toolsCount", len(tools),
		"temperature", req.Temperature)

	request := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: req.Temperature,
		Stream:      true,
	}
	if len(tools) > 0 {
		request.Tools = tools
		request.ToolChoice = "auto"
	}

	stream, err := a.client.CreateChatCompletionStream(ctx, request)
	if err != nil {
		return nil, providerError(err)
	}
	defer stream.Close()

	acc := newToolCallAccumulator(handler.OnToolCall)
	var text strings.Builder
	var finishReason string
	chunkCount := 0

	for {
		chunk, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return nil, fmt.Errorf("stream interrupted: %w", ctx.Err())
			}
			a.logError("Stream recv error", "error", err, "chunks", chunkCount)
			return nil, providerError(err)
		}

		chunkCount++
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			finishReason = string(choice.FinishReason)
		}

		delta := choice.Delta
		if delta.Content != "" {
			text.WriteString(delta.Content)
			if handler.OnText != nil {
				handler.OnText(delta.Content)
			}
		}

		for _, tc := range delta.ToolCalls {
			acc.add(tc)
		}
	}

	toolCalls := acc.flush()
	a.debug("Stream completed",
		"chunks", chunkCount,
		"textLen", text.Len(),
		"toolCalls", len(toolCalls),
		"finishReason", finishReason)

	return &output.ChatResponse{
		Message: entity.Message{
			Role:      entity.RoleAssistant,
			Content:   text.String(),
			ToolCalls: toolCalls,
		},
		FinishReason: finishReason,
	}, nil
}

func (a *ChatAdapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func (a *ChatAdapter) logError(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Error(msg, args...)
	}
}

// toolCallAccumulator merges streamed tool-call fragments by index.
type toolCallAccumulator struct {
	calls   map[int]*entity.ToolCall
	emitted map[int]bool
	current int
	started bool
	onReady func(entity.ToolCall)
}

func newToolCallAccumulator(onReady func(entity.ToolCall)) *toolCallAccumulator {
	return &toolCallAccumulator{
		calls:   make(map[int]*entity.ToolCall),
		emitted: make(map[int]bool),
		onReady: onReady,
	}
}

func (acc *toolCallAccumulator) add(tc openai.ToolCall) {
	idx := len(acc.calls)
	switch {
	case tc.Index != nil:
		idx = *tc.Index
	case tc.ID == "" && acc.started:
		// Fragments without index or id continue the current call.
		idx = acc.current
	}

	if acc.started && idx != acc.current {
		acc.emit(acc.current)
	}
	acc.current = idx
	acc.started = true

	existing, ok := acc.calls[idx]
	if !ok {
		acc.calls[idx] = &entity.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}
		return
	}

	existing.Arguments += tc.Function.Arguments
	if tc.Function.Name != "" {
		existing.Name = tc.Function.Name
	}
	if tc.ID != "" {
		existing.ID = tc.ID
	}
}

func (acc *toolCallAccumulator) emit(idx int) {
	if acc.emitted[idx] {
		return
	}
	acc.emitted[idx] = true
	if call, ok := acc.calls[idx]; ok && acc.onReady != nil {
		acc.onReady(*call)
	}
}

// flush emits every pending call and returns all calls in index order.
func (acc *toolCallAccumulator) flush() []entity.ToolCall {
	indices := make([]int, 0, len(acc.calls))
	for idx := range acc.calls {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	calls := make([]entity.ToolCall, 0, len(indices))
	for _, idx := range indices {
		acc.emit(idx)
		calls = append(calls, *acc.calls[idx])
	}
	return calls
}

func providerError(err error) error {
	pe := &entity.ProviderError{Provider: providerName, Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		pe.StatusCode = reqErr.HTTPStatusCode
	}
	return pe
}

func convertMessages(messages []entity.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}

		if msg.ToolCallID != "" {
			oaiMsg.ToolCallID = msg.ToolCallID
		}
		if msg.Name != "" && msg.Role != entity.RoleTool {
			oaiMsg.Name = msg.Name
		}

		for _, tc := range msg.ToolCalls {
			oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}

		result = append(result, oaiMsg)
	}
	return result
}

func convertTools(tools []entity.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return result
}
