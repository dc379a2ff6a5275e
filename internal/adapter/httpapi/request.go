package httpapi

import (
	"encoding/json"
	"fmt"

	"browsegpt/internal/domain/entity"
)

type chatRequest struct {
	Messages []clientMessage `json:"messages"`
}

type clientMessage struct {
	Role            string                 `json:"role"`
	Content         string                 `json:"content"`
	ToolCallID      string                 `json:"toolCallId,omitempty"`
	ToolName        string                 `json:"toolName,omitempty"`
	ToolInvocations []clientToolInvocation `json:"toolInvocations,omitempty"`
}

// clientToolInvocation is a tool call as the chat client keeps it. Only
// invocations in the "result" state carry an answer worth replaying.
type clientToolInvocation struct {
	ToolCallID string          `json:"toolCallId"`
	ToolName   string          `json:"toolName"`
	Args       json.RawMessage `json:"args"`
	State      string          `json:"state"`
	Result     json.RawMessage `json:"result"`
}

const invocationStateResult = "result"

// toHistory converts client messages into a conversation. System messages
// from the client are dropped: the server owns the system prompt.
func toHistory(messages []clientMessage) ([]entity.Message, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("messages must not be empty")
	}

	history := make([]entity.Message, 0, len(messages))
	for i, m := range messages {
		switch entity.MessageRole(m.Role) {
		case entity.RoleUser:
			history = append(history, entity.Message{Role: entity.RoleUser, Content: m.Content})
		case entity.RoleAssistant:
			history = append(history, assistantTurn(m)...)
		case entity.RoleTool:
			if m.ToolCallID == "" {
				return nil, fmt.Errorf("messages[%d]: tool message without toolCallId", i)
			}
			history = append(history, entity.Message{
				Role:       entity.RoleTool,
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
				Name:       m.ToolName,
			})
		case entity.RoleSystem:
			continue
		default:
			return nil, fmt.Errorf("messages[%d]: unsupported role %q", i, m.Role)
		}
	}

	if len(history) == 0 {
		return nil, fmt.Errorf("messages contain no conversation content")
	}
	return history, nil
}

func assistantTurn(m clientMessage) []entity.Message {
	assistant := entity.Message{Role: entity.RoleAssistant, Content: m.Content}
	var results []entity.Message

	for _, inv := range m.ToolInvocations {
		if inv.State != invocationStateResult || inv.ToolCallID == "" {
			continue
		}
		assistant.ToolCalls = append(assistant.ToolCalls, entity.ToolCall{
			ID:        inv.ToolCallID,
			Name:      inv.ToolName,
			Arguments: rawOr(inv.Args, "{}"),
		})
		results = append(results, entity.Message{
			Role:       entity.RoleTool,
			ToolCallID: inv.ToolCallID,
			Name:       inv.ToolName,
			Content:    rawOr(inv.Result, "null"),
		})
	}

	if assistant.Content == "" && len(assistant.ToolCalls) == 0 {
		return nil
	}
	return append([]entity.Message{assistant}, results...)
}

func rawOr(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	return string(raw)
}
