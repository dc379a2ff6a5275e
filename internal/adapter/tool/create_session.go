package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"browsegpt/internal/application/port/output"
	"browsegpt/internal/domain/entity"
)

var _ output.ToolHandler = (*CreateSessionTool)(nil)

type CreateSessionTool struct {
	sessions output.SessionProviderPort
	logger   output.LoggerPort
}

func NewCreateSessionTool(sessions output.SessionProviderPort, logger output.LoggerPort) *CreateSessionTool {
	return &CreateSessionTool{sessions: sessions, logger: logger}
}

func (t *CreateSessionTool) Name() entity.ToolName { return entity.ToolCreateSession }
func (t *CreateSessionTool) Description() string {
	return "Create a new remote browser session. Call this once per conversation, before any tool that needs " +
		"a sessionId, and reuse the returned sessionId and debugUrl afterwards."
}
func (t *CreateSessionTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{})
}

func (t *CreateSessionTool) Execute(ctx context.Context, _ json.RawMessage) (any, error) {
	session, err := t.sessions.CreateSession(ctx)
	if err != nil {
		return nil, err
	}

	debugURL := session.DebugURL
	info, err := t.sessions.GetDebugInfo(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if info.DebuggerFullscreenURL != "" {
		debugURL = info.DebuggerFullscreenURL
	}
	if debugURL == "" {
		return nil, fmt.Errorf("session %s: provider returned no debug url", session.ID)
	}

	t.logger.Info("Session created", "sessionId", session.ID, "debugUrl", debugURL)

	return CreateSessionResult{
		SessionID: session.ID,
		DebugURL:  debugURL,
		ToolName:  entity.LabelCreateSession,
	}, nil
}

func (t *CreateSessionTool) Failure(err error) any {
	return CreateSessionResult{
		ToolName: entity.LabelCreateSession,
		Error:    fmt.Sprintf("Error creating session: %v", err),
	}
}
