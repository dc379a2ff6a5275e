package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"browsegpt/internal/application/port/output"
	"browsegpt/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_FinalAnswerWithoutTools(t *testing.T) {
	h, err := newHarness(5, textStep("Hello, ", "world"))
	require.NoError(t, err)

	out, err := h.run(context.Background(), userMessage("hi"))
	require.NoError(t, err)

	assert.Equal(t, "Hello, world", out.result.FinalAnswer)
	assert.Equal(t, 1, out.result.Steps)
	assert.False(t, out.result.BudgetExceeded)
	assert.Equal(t, []entity.EventType{
		entity.EventStepStart,
		entity.EventTextDelta,
		entity.EventTextDelta,
		entity.EventStepFinish,
		entity.EventFinish,
	}, out.types())
	assert.Equal(t, entity.FinishStop, out.events[len(out.events)-1].FinishReason)

	require.Len(t, out.result.Messages, 2)
	assert.Equal(t, entity.RoleUser, out.result.Messages[0].Role)
	assert.Equal(t, entity.RoleAssistant, out.result.Messages[1].Role)

	req := h.llm.requests[0]
	assert.Equal(t, entity.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, "system prompt", req.Messages[0].Content)
	assert.Len(t, req.Tools, 4)
}

func TestRun_NeverExceedsMaxSteps(t *testing.T) {
	for _, maxSteps := range []int{1, 3, 5} {
		h, err := newHarness(maxSteps, callStep(
			entity.ToolCall{ID: "a", Name: "create-session", Arguments: `{}`},
			entity.ToolCall{ID: "b", Name: "create-session", Arguments: `{}`},
		))
		require.NoError(t, err)

		out, err := h.run(context.Background(), userMessage("loop forever"))
		require.NoError(t, err)

		assert.Equal(t, maxSteps, h.llm.calls())
		assert.True(t, out.result.BudgetExceeded)
		assert.Equal(t, maxSteps, out.result.Steps)
		assert.Len(t, out.ofType(entity.EventStepStart), maxSteps)
		assert.Len(t, out.ofType(entity.EventToolResult), 2*maxSteps)
		assert.Equal(t, entity.EventFinish, out.events[len(out.events)-1].Type)
	}
}

func TestRun_SessionThenSearchScenario(t *testing.T) {
	var sessionID, debugURL string

	h, err := newHarness(5,
		callStep(entity.ToolCall{ID: "call_1", Name: "create-session", Arguments: `{}`}),
		func(req output.ChatRequest) scriptStep {
			last := req.Messages[len(req.Messages)-1]
			var res struct {
				SessionID string `json:"sessionId"`
				DebugURL  string `json:"debugUrl"`
			}
			_ = json.Unmarshal([]byte(last.Content), &res)
			sessionID, debugURL = res.SessionID, res.DebugURL

			args, _ := json.Marshal(map[string]string{
				"toolName":  "Searching Google",
				"query":     "Browserbase",
				"sessionId": res.SessionID,
				"debugUrl":  res.DebugURL,
			})
			return scriptStep{calls: []entity.ToolCall{{ID: "call_2", Name: "web-search", Arguments: string(args)}}}
		},
		textStep("Browserbase runs headless browsers in the cloud."),
	)
	require.NoError(t, err)
	h.browser.results = []entity.SearchResult{{Title: "Browserbase", Description: "Headless browsers"}}

	out, err := h.run(context.Background(), userMessage("Tell me about Browserbase"))
	require.NoError(t, err)

	assert.Equal(t, "sess-1", sessionID)
	assert.Equal(t, "https://live.example/sess-1", debugURL)
	assert.Equal(t, 3, out.result.Steps)

	msgs := out.result.Messages
	require.Len(t, msgs, 6)
	assert.Equal(t, entity.RoleTool, msgs[2].Role)
	assert.Equal(t, "call_1", msgs[2].ToolCallID)
	assert.JSONEq(t, `{"sessionId":"sess-1","debugUrl":"https://live.example/sess-1","toolName":"Creating a new session"}`, msgs[2].Content)
	assert.JSONEq(t, `{"toolName":"Searching Google","content":"summary","dataCollected":true}`, msgs[4].Content)

	require.Len(t, h.summarizer.prompts, 1)
	assert.Contains(t, h.summarizer.prompts[0], "Browserbase\nHeadless browsers")

	results := out.ofType(entity.EventToolResult)
	require.Len(t, results, 2)
	assert.Equal(t, "call_1", results[0].ToolCall.ID)
}

func TestRun_ToolFailureDoesNotAbortTurn(t *testing.T) {
	h, err := newHarness(5,
		callStep(entity.ToolCall{ID: "f1", Name: "fetch-page-content", Arguments: `{"toolName":"x","url":"https://unreachable.invalid","sessionId":"s1","debugUrl":"d"}`}),
		textStep("Sorry, that page is unreachable."),
	)
	require.NoError(t, err)
	h.browser.pageErr = &entity.ProviderError{Provider: "remote browser", Err: errors.New("net::ERR_NAME_NOT_RESOLVED")}

	out, err := h.run(context.Background(), userMessage("read it"))
	require.NoError(t, err)

	assert.Equal(t, 2, out.result.Steps)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out.result.Messages[2].Content), &res))
	assert.Equal(t, "Getting page content", res["toolName"])
	assert.Contains(t, res["content"], "Error fetching page content: ")
	assert.Contains(t, res["content"], "ERR_NAME_NOT_RESOLVED")

	results := out.ofType(entity.EventToolResult)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, entity.ErrProviderUnavailable)
}

func TestRun_SchemaViolationReportedToModel(t *testing.T) {
	h, err := newHarness(5,
		callStep(entity.ToolCall{ID: "w1", Name: "web-search", Arguments: `{"toolName":"x","sessionId":"s1","debugUrl":"d"}`}),
		textStep("I need a query."),
	)
	require.NoError(t, err)

	out, err := h.run(context.Background(), userMessage("search"))
	require.NoError(t, err)

	assert.Contains(t, out.result.Messages[2].Content, `\"query\"`)
	assert.Contains(t, out.result.Messages[2].Content, `"dataCollected":false`)
	assert.Empty(t, h.summarizer.prompts)
}

func TestRun_DeferredConfirmationPausesTurn(t *testing.T) {
	h, err := newHarness(5,
		callStep(entity.ToolCall{ID: "c1", Name: "request-confirmation", Arguments: `{"message":"Open the page?"}`}),
		textStep("should not be reached"),
	)
	require.NoError(t, err)

	out, err := h.run(context.Background(), userMessage("open it"))
	require.NoError(t, err)

	assert.Equal(t, 1, h.llm.calls())
	require.Len(t, out.result.Pending, 1)
	assert.Equal(t, "c1", out.result.Pending[0].ID)
	assert.Empty(t, out.ofType(entity.EventToolResult))
	require.Len(t, out.ofType(entity.EventToolCall), 1)
	assert.Equal(t, "Open the page?", out.ofType(entity.EventToolCall)[0].Args["message"])

	last := out.events[len(out.events)-1]
	assert.Equal(t, entity.EventFinish, last.Type)
	assert.Equal(t, entity.FinishToolCalls, last.FinishReason)
}

func TestRun_ParallelCallsKeepEmissionOrder(t *testing.T) {
	h, err := newHarness(5,
		callStep(
			entity.ToolCall{ID: "p1", Name: "fetch-page-content", Arguments: `{"toolName":"x","url":"https://a.example","sessionId":"s1","debugUrl":"d"}`},
			entity.ToolCall{ID: "p2", Name: "fetch-page-content", Arguments: `{"toolName":"x","url":"https://b.example","sessionId":"s2","debugUrl":"d"}`},
			entity.ToolCall{ID: "p3", Name: "create-session", Arguments: ``},
		),
		textStep("done"),
	)
	require.NoError(t, err)

	out, err := h.run(context.Background(), userMessage("read both"))
	require.NoError(t, err)

	msgs := out.result.Messages
	require.Len(t, msgs, 6)
	require.Len(t, msgs[1].ToolCalls, 3)
	assert.Equal(t, "p1", msgs[2].ToolCallID)
	assert.Equal(t, "p2", msgs[3].ToolCallID)
	assert.Equal(t, "p3", msgs[4].ToolCallID)
	assert.Len(t, out.ofType(entity.EventToolResult), 3)
}

func TestRun_ModelFailureEndsTurnWithErrorEvent(t *testing.T) {
	providerErr := &entity.ProviderError{Provider: "chat model", StatusCode: 503, Err: errors.New("overloaded")}
	h, err := newHarness(5, func(output.ChatRequest) scriptStep { return scriptStep{err: providerErr} })
	require.NoError(t, err)

	out, err := h.run(context.Background(), userMessage("hi"))
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrProviderUnavailable)
	assert.Nil(t, out.result)

	last := out.events[len(out.events)-1]
	assert.Equal(t, entity.EventError, last.Type)
	assert.ErrorIs(t, last.Err, entity.ErrProviderUnavailable)
}

func TestRun_MissingCallIDIsFilled(t *testing.T) {
	h, err := newHarness(5,
		callStep(entity.ToolCall{Name: "create-session", Arguments: `{}`}),
		textStep("ok"),
	)
	require.NoError(t, err)

	out, err := h.run(context.Background(), userMessage("go"))
	require.NoError(t, err)

	id := out.result.Messages[1].ToolCalls[0].ID
	assert.NotEmpty(t, id)
	assert.Equal(t, id, out.result.Messages[2].ToolCallID)
}

func TestFinishReason(t *testing.T) {
	assert.Equal(t, entity.FinishStop, finishReason("stop"))
	assert.Equal(t, entity.FinishStop, finishReason(""))
	assert.Equal(t, entity.FinishLength, finishReason("length"))
	assert.Equal(t, entity.FinishToolCalls, finishReason("tool_calls"))
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, map[string]any{"q": "x"}, parseArgs(`{"q":"x"}`))
	assert.Equal(t, map[string]any{}, parseArgs(""))
	assert.Equal(t, map[string]any{}, parseArgs("not json"))
}
