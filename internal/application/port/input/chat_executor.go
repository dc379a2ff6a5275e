package input

import (
	"context"

	"browsegpt/internal/domain/entity"
)

type ChatResult struct {
	FinalAnswer string
	Steps       int
	Messages    []entity.Message
	// Pending holds tool calls awaiting an answer from the client.
	Pending []entity.ToolCall
	// BudgetExceeded is set when the loop stopped at the step limit.
	BudgetExceeded bool
}

type ChatExecutor interface {
	Run(ctx context.Context, history []entity.Message, events chan<- entity.StreamEvent) (*ChatResult, error)
}
