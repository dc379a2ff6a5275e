package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"browsegpt/internal/application/port/output"
	"browsegpt/internal/domain/entity"
)

var (
	_ output.ToolHandler = (*FetchPageTool)(nil)
	_ output.BrowserTool = (*FetchPageTool)(nil)
)

type FetchPageArgs struct {
	ToolName  string `json:"toolName"`
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
	DebugURL  string `json:"debugUrl"`
}

type FetchPageTool struct {
	browser    output.BrowserPort
	extractor  output.ContentExtractorPort
	summarizer output.SummarizerPort
	policy     *URLPolicy
	logger     output.LoggerPort
}

func NewFetchPageTool(
	browser output.BrowserPort,
	extractor output.ContentExtractorPort,
	summarizer output.SummarizerPort,
	policy *URLPolicy,
	logger output.LoggerPort,
) *FetchPageTool {
	if policy == nil {
		policy = NewURLPolicy(nil)
	}
	return &FetchPageTool{
		browser:    browser,
		extractor:  extractor,
		summarizer: summarizer,
		policy:     policy,
		logger:     logger,
	}
}

func (t *FetchPageTool) Name() entity.ToolName { return entity.ToolFetchPageContent }
func (t *FetchPageTool) Description() string {
	return "Get the content of a page in the existing browser session and summarize it."
}
func (t *FetchPageTool) Parameters() map[string]interface{} {
	props := browserSessionParams()
	props["url"] = stringParam("The url to get the content of")
	return objectSchema(props, "toolName", "url", "sessionId", "debugUrl")
}

func (t *FetchPageTool) SessionID(arguments json.RawMessage) string {
	return sessionIDOf(arguments)
}

func (t *FetchPageTool) Execute(ctx context.Context, arguments json.RawMessage) (any, error) {
	var args FetchPageArgs
	if err := decodeArgs(arguments, &args); err != nil {
		return nil, err
	}
	if err := t.policy.Check(args.URL); err != nil {
		return nil, err
	}

	t.logger.Info("Navigating to URL", "url", args.URL, "sessionId", args.SessionID)

	page, err := t.browser.PageContent(ctx, args.SessionID, args.URL)
	if err != nil {
		return nil, err
	}

	extracted := t.extractor.Extract(page.HTML, page.URL)
	if extracted.Empty() {
		t.logger.Warn("No readable content extracted", "url", page.URL)
	}

	text := extracted.Title + "\n" + extracted.TextContent
	summary, err := t.summarizer.Summarize(ctx, SummaryPrompt(text))
	if err != nil {
		return nil, err
	}

	return PageContentResult{
		ToolName: entity.LabelFetchPageContent,
		Content:  summary,
	}, nil
}

func (t *FetchPageTool) Failure(err error) any {
	return PageContentResult{
		ToolName: entity.LabelFetchPageContent,
		Content:  fmt.Sprintf("Error fetching page content: %v", err),
	}
}
