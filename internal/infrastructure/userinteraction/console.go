package userinteraction

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"browsegpt/internal/application/port/output"
	"browsegpt/internal/domain/entity"

	"github.com/fatih/color"
)

var _ output.UserInteractionPort = (*ConsoleUserInteraction)(nil)

type ConsoleUserInteraction struct {
	reader *bufio.Reader
	out    io.Writer

	// One goroutine reads lines for the console's lifetime. An answer typed
	// after a cancelled question is delivered to the next one.
	startReader sync.Once
	lines       chan line
}

type line struct {
	text string
	err  error
}

func NewConsoleUserInteraction() *ConsoleUserInteraction {
	return NewConsole(os.Stdin, color.Output)
}

// NewConsole reads answers from in and writes everything else to out.
func NewConsole(in io.Reader, out io.Writer) *ConsoleUserInteraction {
	return &ConsoleUserInteraction{
		reader: bufio.NewReader(in),
		out:    out,
		lines:  make(chan line),
	}
}

func (u *ConsoleUserInteraction) AskQuestion(ctx context.Context, question string) (string, error) {
	color.New(color.FgMagenta, color.Bold).Fprintf(u.out, "\n[CONFIRMATION REQUIRED] %s\n> ", question)

	u.startReader.Do(func() { go u.readLines() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-u.lines:
		if l.err != nil {
			return "", fmt.Errorf("failed to read user input: %w", l.err)
		}
		return strings.TrimSpace(l.text), nil
	}
}

// readLines feeds u.lines until the input fails. The last line may lack a
// newline; after that the read error is delivered on every request.
func (u *ConsoleUserInteraction) readLines() {
	for {
		text, err := u.reader.ReadString('\n')
		if err != nil && text == "" {
			for {
				u.lines <- line{err: err}
			}
		}
		u.lines <- line{text: text}
	}
}

func (u *ConsoleUserInteraction) ShowStep(ctx context.Context, step, maxSteps int) {
	color.New(color.FgCyan, color.Bold).Fprintf(u.out, "\n━━━ Step %d/%d ━━━\n", step, maxSteps)
}

func (u *ConsoleUserInteraction) ShowText(ctx context.Context, delta string) {
	fmt.Fprint(u.out, delta)
}

func (u *ConsoleUserInteraction) ShowToolStart(ctx context.Context, toolName, arguments string) {
	icon, label := toolDisplay(toolName)
	color.New(color.FgYellow, color.Bold).Fprintf(u.out, "\n%s %s\n", icon, label)

	if summary := formatToolArguments(toolName, arguments); summary != "" {
		color.New(color.Faint).Fprintf(u.out, "   %s\n", summary)
	}
}

func (u *ConsoleUserInteraction) ShowToolResult(ctx context.Context, toolName string, result any, isError bool) {
	if isError {
		color.New(color.FgRed).Fprint(u.out, "❌ Error: ")
		color.New(color.Faint).Fprintln(u.out, truncate(resultContent(result), 300))
		return
	}
	color.New(color.FgGreen).Fprintf(u.out, "✓ %s\n", formatToolResult(toolName, result))
}

func toolDisplay(toolName string) (string, string) {
	displays := map[entity.ToolName][2]string{
		entity.ToolCreateSession:       {"🌐", entity.LabelCreateSession},
		entity.ToolWebSearch:           {"🔎", entity.LabelWebSearch},
		entity.ToolFetchPageContent:    {"📄", entity.LabelFetchPageContent},
		entity.ToolRequestConfirmation: {"❓", "Asking for confirmation"},
	}
	if display, ok := displays[entity.ToolName(toolName)]; ok {
		return display[0], display[1]
	}
	return "🔧", toolName
}

func formatToolArguments(toolName, arguments string) string {
	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return ""
	}

	switch entity.ToolName(toolName) {
	case entity.ToolWebSearch:
		if query, ok := args["query"].(string); ok {
			return fmt.Sprintf("Query: %s", truncate(query, 80))
		}
	case entity.ToolFetchPageContent:
		if url, ok := args["url"].(string); ok {
			return fmt.Sprintf("URL: %s", url)
		}
	case entity.ToolRequestConfirmation:
		if message, ok := args["message"].(string); ok {
			return truncate(message, 80)
		}
	}
	return ""
}

func formatToolResult(toolName string, result any) string {
	fields := asMap(result)

	switch entity.ToolName(toolName) {
	case entity.ToolCreateSession:
		if id, ok := fields["sessionId"].(string); ok {
			return fmt.Sprintf("Session %s | live view: %v", id, fields["debugUrl"])
		}
	case entity.ToolWebSearch:
		if collected, ok := fields["dataCollected"].(bool); ok && !collected {
			return "No data collected"
		}
	}
	return truncate(resultContent(result), 150)
}

// asMap flattens a tool result struct into its JSON fields.
func asMap(result any) map[string]any {
	if m, ok := result.(map[string]any); ok {
		return m
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

func resultContent(result any) string {
	fields := asMap(result)
	for _, key := range []string{"content", "error"} {
		if s, ok := fields[key].(string); ok && s != "" {
			return s
		}
	}
	if s, ok := result.(string); ok {
		return s
	}
	data, _ := json.Marshal(result)
	return string(data)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
