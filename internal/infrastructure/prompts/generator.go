package prompts

import (
	"bytes"
	"fmt"
	"text/template"

	"browsegpt/internal/application/port/output"
)

type ToolInfo struct {
	Name        string
	Description string
}

type SystemPromptData struct {
	Tools    []ToolInfo
	MaxSteps int
}

// GenerateSystemPrompt renders baseTemplate with the registered tools in
// registry order.
func GenerateSystemPrompt(baseTemplate string, registry output.ToolRegistry, maxSteps int) (string, error) {
	tools := registry.All()
	infos := make([]ToolInfo, 0, len(tools))

	for _, tool := range tools {
		infos = append(infos, ToolInfo{
			Name:        tool.Name().String(),
			Description: tool.Description(),
		})
	}

	tmpl, err := template.New("system").Option("missingkey=error").Parse(baseTemplate)
	if err != nil {
		return "", fmt.Errorf("parse system prompt: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, SystemPromptData{Tools: infos, MaxSteps: maxSteps}); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}

	return buf.String(), nil
}
