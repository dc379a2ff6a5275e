package output

import (
	"context"
	"encoding/json"

	"browsegpt/internal/domain/entity"
)

type ToolPort interface {
	Name() entity.ToolName
	Description() string
	Parameters() map[string]interface{}
}

// ToolHandler is a tool executed server-side. Execute returns the tool result
// or an error; Failure turns that error into the payload the model sees.
type ToolHandler interface {
	ToolPort
	Execute(ctx context.Context, arguments json.RawMessage) (any, error)
	Failure(err error) any
}

// BrowserTool is implemented by tools that drive a browser session. Calls
// sharing a session id are serialized.
type BrowserTool interface {
	SessionID(arguments json.RawMessage) string
}

type ToolRegistry interface {
	Register(tool ToolPort)
	Get(name entity.ToolName) (ToolPort, bool)
	All() []ToolPort
	Definitions() []entity.ToolDefinition
}
