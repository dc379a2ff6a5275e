package tool

import (
	"encoding/json"
	"fmt"
	"strings"
)

const summaryInstruction = "Evaluate the following web page content: "

// SummaryPrompt is the prompt both browsing tools hand to the summarizer.
func SummaryPrompt(text string) string {
	return summaryInstruction + text
}

func stringParam(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	if required == nil {
		required = []string{}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// browserSessionParams are shared by every tool that works inside an
// existing session.
func browserSessionParams() map[string]interface{} {
	return map[string]interface{}{
		"toolName": stringParam("What the tool is doing"),
		"sessionId": stringParam("The session ID to use. If there is no session ID, create a new session with the " +
			"create-session tool."),
		"debugUrl": stringParam("The fullscreen debug URL of the session. If there is no debug URL, create a new " +
			"session with the create-session tool."),
	}
}

func decodeArgs(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}

func sessionIDOf(raw json.RawMessage) string {
	var args struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return ""
	}
	return strings.TrimSpace(args.SessionID)
}
