package chat

import (
	"context"
	"fmt"
	"sync"

	"browsegpt/internal/adapter/tool"
	"browsegpt/internal/application/port/input"
	"browsegpt/internal/application/port/output"
	"browsegpt/internal/application/service"
	"browsegpt/internal/domain/entity"
	"browsegpt/internal/infrastructure/logger"
)

// scriptStep is what the fake model emits on one call.
type scriptStep struct {
	text   []string
	calls  []entity.ToolCall
	finish string
	err    error
}

type scriptedLLM struct {
	mu       sync.Mutex
	steps    []func(req output.ChatRequest) scriptStep
	requests []output.ChatRequest
}

func (l *scriptedLLM) ChatStream(ctx context.Context, req output.ChatRequest, handler output.StreamHandler) (*output.ChatResponse, error) {
	l.mu.Lock()
	n := len(l.requests)
	l.requests = append(l.requests, req)
	next := l.steps[len(l.steps)-1]
	if n < len(l.steps) {
		next = l.steps[n]
	}
	l.mu.Unlock()

	step := next(req)
	if step.err != nil {
		return nil, step.err
	}

	content := ""
	for _, delta := range step.text {
		content += delta
		handler.OnText(delta)
	}
	for _, call := range step.calls {
		handler.OnToolCall(call)
	}

	finish := step.finish
	if finish == "" {
		finish = "stop"
		if len(step.calls) > 0 {
			finish = "tool_calls"
		}
	}
	return &output.ChatResponse{
		Message:      entity.Message{Role: entity.RoleAssistant, Content: content, ToolCalls: step.calls},
		FinishReason: finish,
	}, nil
}

func (l *scriptedLLM) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}

type fakeSessions struct {
	mu      sync.Mutex
	created int
}

func (f *fakeSessions) CreateSession(ctx context.Context) (*entity.BrowserSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	return &entity.BrowserSession{ID: fmt.Sprintf("sess-%d", f.created)}, nil
}

func (f *fakeSessions) GetDebugInfo(ctx context.Context, sessionID string) (*entity.SessionDebugInfo, error) {
	return &entity.SessionDebugInfo{DebuggerFullscreenURL: "https://live.example/" + sessionID}, nil
}

type fakeBrowser struct {
	results []entity.SearchResult
	pageErr error
}

func (f *fakeBrowser) Search(ctx context.Context, sessionID, query string) ([]entity.SearchResult, error) {
	return f.results, nil
}

func (f *fakeBrowser) PageContent(ctx context.Context, sessionID, url string) (*entity.PageContent, error) {
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	return &entity.PageContent{URL: url, HTML: "<html><body><p>page</p></body></html>"}, nil
}

func (f *fakeBrowser) Screenshot(ctx context.Context, sessionID string) (*entity.Screenshot, error) {
	return nil, entity.ErrNoPage
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(html, pageURL string) entity.ExtractedPage {
	return entity.ExtractedPage{Title: "T", TextContent: "B"}
}

type fakeSummarizer struct {
	mu      sync.Mutex
	prompts []string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, text)
	return "summary", nil
}

type harness struct {
	llm        *scriptedLLM
	browser    *fakeBrowser
	summarizer *fakeSummarizer
	uc         *UseCase
}

func newHarness(maxSteps int, steps ...func(req output.ChatRequest) scriptStep) (*harness, error) {
	log := logger.NewNop()
	h := &harness{
		llm:        &scriptedLLM{steps: steps},
		browser:    &fakeBrowser{},
		summarizer: &fakeSummarizer{},
	}

	registry := service.NewToolRegistry()
	registry.Register(tool.NewCreateSessionTool(&fakeSessions{}, log))
	registry.Register(tool.NewRequestConfirmationTool())
	registry.Register(tool.NewWebSearchTool(h.browser, h.summarizer, log))
	registry.Register(tool.NewFetchPageTool(h.browser, fakeExtractor{}, h.summarizer, nil, log))

	dispatcher, err := service.NewDispatcher(registry, log, service.DefaultDispatcherConfig())
	if err != nil {
		return nil, err
	}

	h.uc = New(h.llm, registry, dispatcher, log, "system prompt", Config{MaxSteps: maxSteps})
	return h, nil
}

func (h *harness) run(ctx context.Context, history ...entity.Message) (*runOutput, error) {
	events := make(chan entity.StreamEvent, 256)
	result, err := h.uc.Run(ctx, history, events)
	close(events)

	out := &runOutput{result: result}
	for ev := range events {
		out.events = append(out.events, ev)
	}
	return out, err
}

type runOutput struct {
	result *input.ChatResult
	events []entity.StreamEvent
}

func (o *runOutput) types() []entity.EventType {
	types := make([]entity.EventType, 0, len(o.events))
	for _, ev := range o.events {
		types = append(types, ev.Type)
	}
	return types
}

func (o *runOutput) ofType(t entity.EventType) []entity.StreamEvent {
	var out []entity.StreamEvent
	for _, ev := range o.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func userMessage(content string) entity.Message {
	return entity.Message{Role: entity.RoleUser, Content: content}
}

func textStep(text ...string) func(output.ChatRequest) scriptStep {
	return func(output.ChatRequest) scriptStep { return scriptStep{text: text} }
}

func callStep(calls ...entity.ToolCall) func(output.ChatRequest) scriptStep {
	return func(output.ChatRequest) scriptStep { return scriptStep{calls: calls} }
}
