package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"browsegpt/internal/application/port/input"
	"browsegpt/internal/application/port/output"
	"browsegpt/internal/domain/entity"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var _ input.ChatExecutor = (*UseCase)(nil)

const defaultMaxSteps = 5

// Dispatcher runs one tool call and always returns a resolved or deferred
// invocation.
type Dispatcher interface {
	Dispatch(ctx context.Context, call entity.ToolCall) *entity.ToolInvocation
}

type Config struct {
	MaxSteps    int
	Temperature float32
}

func DefaultConfig() Config {
	return Config{MaxSteps: defaultMaxSteps}
}

type UseCase struct {
	llm          output.LLMPort
	tools        output.ToolRegistry
	dispatcher   Dispatcher
	logger       output.LoggerPort
	systemPrompt string
	cfg          Config
}

func New(
	llm output.LLMPort,
	tools output.ToolRegistry,
	dispatcher Dispatcher,
	logger output.LoggerPort,
	systemPrompt string,
	cfg Config,
) *UseCase {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = defaultMaxSteps
	}
	return &UseCase{
		llm:          llm,
		tools:        tools,
		dispatcher:   dispatcher,
		logger:       logger,
		systemPrompt: systemPrompt,
		cfg:          cfg,
	}
}

// pendingCall keeps a dispatched call in emission order; inv is written by
// the dispatching goroutine and read after the step's group is done.
type pendingCall struct {
	call entity.ToolCall
	inv  *entity.ToolInvocation
}

// Run drives the model over history until a final answer, a tool deferred to
// the client, or the step limit. Events are sent to events in order; the
// caller owns and closes the channel after Run returns.
func (uc *UseCase) Run(ctx context.Context, history []entity.Message, events chan<- entity.StreamEvent) (*input.ChatResult, error) {
	messages := make([]entity.Message, 0, len(history)+1+2*uc.cfg.MaxSteps)
	if uc.systemPrompt != "" {
		messages = append(messages, entity.Message{Role: entity.RoleSystem, Content: uc.systemPrompt})
	}
	offset := len(messages)
	messages = append(messages, history...)

	toolDefs := uc.tools.Definitions()
	var answer strings.Builder

	for step := 1; step <= uc.cfg.MaxSteps; step++ {
		messageID := "msg-" + uuid.NewString()
		log := uc.logger.WithFields(map[string]any{"step": step, "messageId": messageID})
		log.Debug("Starting step", "messages", len(messages))
		uc.emit(ctx, events, entity.StreamEvent{Type: entity.EventStepStart, MessageID: messageID})

		resp, calls, err := uc.streamStep(ctx, messages, toolDefs, events)
		if err != nil {
			log.Error("Model step failed", "error", err)
			uc.emit(ctx, events, entity.StreamEvent{Type: entity.EventError, Err: err})
			return nil, fmt.Errorf("step %d: %w", step, err)
		}

		messages = append(messages, resp.Message)
		answer.WriteString(resp.Message.Content)

		if len(calls) == 0 {
			reason := finishReason(resp.FinishReason)
			log.Info("Final answer produced", "steps", step)
			uc.emit(ctx, events, entity.StreamEvent{Type: entity.EventStepFinish, FinishReason: reason})
			uc.emit(ctx, events, entity.StreamEvent{Type: entity.EventFinish, FinishReason: reason})
			return &input.ChatResult{
				FinalAnswer: answer.String(),
				Steps:       step,
				Messages:    messages[offset:],
			}, nil
		}

		var deferred []entity.ToolCall
		for _, pc := range calls {
			if pc.inv.State == entity.InvocationDeferred {
				deferred = append(deferred, pc.call)
				continue
			}
			messages = append(messages, toolMessage(pc))
		}

		uc.emit(ctx, events, entity.StreamEvent{Type: entity.EventStepFinish, FinishReason: entity.FinishToolCalls})

		if len(deferred) > 0 {
			log.Info("Waiting for client tool results", "pending", len(deferred))
			uc.emit(ctx, events, entity.StreamEvent{Type: entity.EventFinish, FinishReason: entity.FinishToolCalls})
			return &input.ChatResult{
				FinalAnswer: answer.String(),
				Steps:       step,
				Messages:    messages[offset:],
				Pending:     deferred,
			}, nil
		}
	}

	uc.logger.Warn("Stopping turn", "error", entity.ErrStepBudgetExceeded, "maxSteps", uc.cfg.MaxSteps)
	uc.emit(ctx, events, entity.StreamEvent{Type: entity.EventFinish, FinishReason: entity.FinishToolCalls})
	return &input.ChatResult{
		FinalAnswer:    answer.String(),
		Steps:          uc.cfg.MaxSteps,
		Messages:       messages[offset:],
		BudgetExceeded: true,
	}, nil
}

// streamStep runs one model call. Each tool call is dispatched as soon as the
// stream reports it complete; the step returns once every dispatched call is
// done.
func (uc *UseCase) streamStep(
	ctx context.Context,
	messages []entity.Message,
	toolDefs []entity.ToolDefinition,
	events chan<- entity.StreamEvent,
) (*output.ChatResponse, []*pendingCall, error) {
	stepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g errgroup.Group
	var calls []*pendingCall

	handler := output.StreamHandler{
		OnText: func(delta string) {
			uc.emit(ctx, events, entity.StreamEvent{Type: entity.EventTextDelta, Text: delta})
		},
		OnToolCall: func(call entity.ToolCall) {
			if call.ID == "" {
				call.ID = "call-" + uuid.NewString()
			}
			pc := &pendingCall{call: call}
			calls = append(calls, pc)

			c := call
			uc.emit(ctx, events, entity.StreamEvent{Type: entity.EventToolCall, ToolCall: &c, Args: parseArgs(call.Arguments)})

			g.Go(func() error {
				pc.inv = uc.dispatcher.Dispatch(stepCtx, pc.call)
				if pc.inv.State != entity.InvocationDeferred {
					uc.emit(ctx, events, entity.StreamEvent{Type: entity.EventToolResult, ToolCall: &c, Result: pc.inv.Result, Err: pc.inv.Err})
				}
				return nil
			})
		},
	}

	resp, err := uc.llm.ChatStream(ctx, output.ChatRequest{
		Messages:    messages,
		Tools:       toolDefs,
		Temperature: uc.cfg.Temperature,
	}, handler)
	if err != nil {
		cancel()
		_ = g.Wait()
		return nil, nil, err
	}

	_ = g.Wait()

	// Ids filled in above must match the assistant message the model sees
	// on the next step.
	resp.Message.ToolCalls = make([]entity.ToolCall, 0, len(calls))
	for _, pc := range calls {
		resp.Message.ToolCalls = append(resp.Message.ToolCalls, pc.call)
	}
	resp.Message.Role = entity.RoleAssistant
	return resp, calls, nil
}

func (uc *UseCase) emit(ctx context.Context, events chan<- entity.StreamEvent, ev entity.StreamEvent) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

func toolMessage(pc *pendingCall) entity.Message {
	content, err := json.Marshal(pc.inv.Result)
	if err != nil {
		content = []byte(fmt.Sprintf(`{"content":%q}`, "Error: unserializable tool result: "+err.Error()))
	}
	return entity.Message{
		Role:       entity.RoleTool,
		ToolCallID: pc.call.ID,
		Name:       pc.call.Name,
		Content:    string(content),
	}
}

func parseArgs(raw string) map[string]any {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}
	}
	return args
}

func finishReason(provider string) entity.FinishReason {
	switch provider {
	case "length":
		return entity.FinishLength
	case "tool_calls", "function_call":
		return entity.FinishToolCalls
	default:
		return entity.FinishStop
	}
}
