package tool

import (
	"browsegpt/internal/application/port/output"
	"browsegpt/internal/domain/entity"
)

var _ output.ToolPort = (*RequestConfirmationTool)(nil)

// RequestConfirmationTool has no server-side handler: the client shows the
// message and sends the user's answer back with the next request.
type RequestConfirmationTool struct{}

func NewRequestConfirmationTool() *RequestConfirmationTool {
	return &RequestConfirmationTool{}
}

func (t *RequestConfirmationTool) Name() entity.ToolName { return entity.ToolRequestConfirmation }
func (t *RequestConfirmationTool) Description() string {
	return "Ask the user for confirmation."
}
func (t *RequestConfirmationTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"message": stringParam("The message to ask for confirmation."),
	}, "message")
}
