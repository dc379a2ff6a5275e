package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"browsegpt/internal/application/port/output"
	"browsegpt/internal/domain/entity"
)

var (
	_ output.ToolHandler = (*WebSearchTool)(nil)
	_ output.BrowserTool = (*WebSearchTool)(nil)
)

type WebSearchArgs struct {
	ToolName  string `json:"toolName"`
	Query     string `json:"query"`
	SessionID string `json:"sessionId"`
	DebugURL  string `json:"debugUrl"`
}

type WebSearchTool struct {
	browser    output.BrowserPort
	summarizer output.SummarizerPort
	logger     output.LoggerPort
}

func NewWebSearchTool(browser output.BrowserPort, summarizer output.SummarizerPort, logger output.LoggerPort) *WebSearchTool {
	return &WebSearchTool{browser: browser, summarizer: summarizer, logger: logger}
}

func (t *WebSearchTool) Name() entity.ToolName { return entity.ToolWebSearch }
func (t *WebSearchTool) Description() string {
	return "Search Google for a query inside the existing browser session and summarize the results."
}
func (t *WebSearchTool) Parameters() map[string]interface{} {
	props := browserSessionParams()
	props["query"] = stringParam("The exact and complete search query as provided by the user. Do not modify this in any way.")
	return objectSchema(props, "toolName", "query", "sessionId", "debugUrl")
}

func (t *WebSearchTool) SessionID(arguments json.RawMessage) string {
	return sessionIDOf(arguments)
}

func (t *WebSearchTool) Execute(ctx context.Context, arguments json.RawMessage) (any, error) {
	var args WebSearchArgs
	if err := decodeArgs(arguments, &args); err != nil {
		return nil, err
	}

	t.logger.Info("Google search", "query", args.Query, "sessionId", args.SessionID)

	results, err := t.browser.Search(ctx, args.SessionID, args.Query)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("Search results extracted", "count", len(results))

	summary, err := t.summarizer.Summarize(ctx, SummaryPrompt(FormatSearchResults(results)))
	if err != nil {
		return nil, err
	}

	return WebSearchResult{
		ToolName:      entity.LabelWebSearch,
		Content:       summary,
		DataCollected: true,
	}, nil
}

func (t *WebSearchTool) Failure(err error) any {
	return WebSearchResult{
		ToolName:      entity.LabelWebSearch,
		Content:       fmt.Sprintf("Error performing Google search: %v", err),
		DataCollected: false,
	}
}

// FormatSearchResults joins title/snippet pairs with blank lines.
func FormatSearchResults(results []entity.SearchResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Title+"\n"+r.Description)
	}
	return strings.Join(parts, "\n\n")
}
