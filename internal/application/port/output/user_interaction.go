package output

import "context"

type UserInteractionPort interface {
	AskQuestion(ctx context.Context, question string) (string, error)

	ShowStep(ctx context.Context, step, maxSteps int)
	ShowText(ctx context.Context, delta string)
	ShowToolStart(ctx context.Context, toolName, arguments string)
	ShowToolResult(ctx context.Context, toolName string, result any, isError bool)
}
