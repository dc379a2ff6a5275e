package output

import (
	"context"

	"browsegpt/internal/domain/entity"
)

type LLMPort interface {
	ChatStream(ctx context.Context, req ChatRequest, handler StreamHandler) (*ChatResponse, error)
}

type ChatRequest struct {
	Messages    []entity.Message
	Tools       []entity.ToolDefinition
	Temperature float32
}

type ChatResponse struct {
	Message      entity.Message
	FinishReason string
}

// StreamHandler receives model output while it streams. OnToolCall fires once
// per tool call, as soon as its arguments are complete.
type StreamHandler struct {
	OnText     func(delta string)
	OnToolCall func(call entity.ToolCall)
}
