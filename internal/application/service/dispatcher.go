package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"browsegpt/internal/application/port/output"
	"browsegpt/internal/domain/entity"

	"github.com/xeipuuv/gojsonschema"
)

const defaultToolTimeout = 90 * time.Second

type DispatcherConfig struct {
	// Timeout bounds a single handler run.
	Timeout time.Duration
}

func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{Timeout: defaultToolTimeout}
}

// Dispatcher validates tool calls from the model and runs their handlers.
// It never returns an error to the caller: every failure ends up in the
// invocation as a result the model can read.
type Dispatcher struct {
	registry output.ToolRegistry
	logger   output.LoggerPort
	locks    *SessionLocks
	schemas  map[entity.ToolName]*gojsonschema.Schema
	timeout  time.Duration
}

// NewDispatcher compiles the argument schema of every registered tool.
func NewDispatcher(registry output.ToolRegistry, logger output.LoggerPort, cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultToolTimeout
	}

	schemas := make(map[entity.ToolName]*gojsonschema.Schema)
	for _, tool := range registry.All() {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(tool.Parameters()))
		if err != nil {
			return nil, fmt.Errorf("compile schema for %s: %w", tool.Name(), err)
		}
		schemas[tool.Name()] = schema
	}

	return &Dispatcher{
		registry: registry,
		logger:   logger,
		locks:    NewSessionLocks(),
		schemas:  schemas,
		timeout:  cfg.Timeout,
	}, nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, call entity.ToolCall) *entity.ToolInvocation {
	inv := entity.NewToolInvocation(call)
	log := d.logger.WithFields(map[string]any{"tool": call.Name, "callId": call.ID})

	name := entity.ToolName(call.Name)
	tool, ok := d.registry.Get(name)
	if !ok {
		err := fmt.Errorf("%w: %q", entity.ErrUnknownTool, call.Name)
		log.Warn("Unknown tool called")
		_ = inv.Fail(err, map[string]any{
			"toolName": call.Name,
			"content":  fmt.Sprintf("Error: unknown tool '%s'", call.Name),
		})
		return inv
	}

	args := normalizeArguments(call.Arguments)
	handler, executable := tool.(output.ToolHandler)

	if err := d.validate(name, args); err != nil {
		log.Warn("Tool arguments rejected", "error", err)
		_ = inv.Fail(err, failurePayload(tool, err))
		return inv
	}

	if !executable {
		log.Info("Tool deferred to client")
		_ = inv.Defer()
		return inv
	}

	_ = inv.Start()
	start := time.Now()
	log.Info("Executing tool", "args", string(args))

	result, err := d.run(ctx, tool, handler, args)
	if err != nil {
		log.Error("Tool execution failed", "error", err, "durationMs", time.Since(start).Milliseconds())
		_ = inv.Fail(err, handler.Failure(err))
		return inv
	}

	log.Info("Tool completed", "durationMs", time.Since(start).Milliseconds())
	_ = inv.Succeed(result)
	return inv
}

func (d *Dispatcher) run(ctx context.Context, tool output.ToolPort, handler output.ToolHandler, args json.RawMessage) (result any, err error) {
	if bt, ok := tool.(output.BrowserTool); ok {
		if sessionID := bt.SessionID(args); sessionID != "" {
			unlock, lockErr := d.locks.Lock(ctx, sessionID)
			if lockErr != nil {
				return nil, fmt.Errorf("wait for session %s: %w", sessionID, lockErr)
			}
			defer unlock()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", tool.Name(), r)
		}
	}()

	return handler.Execute(ctx, args)
}

func (d *Dispatcher) validate(name entity.ToolName, args json.RawMessage) error {
	schema, ok := d.schemas[name]
	if !ok {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return &entity.SchemaViolationError{Tool: name, Field: "(root)", Reason: "arguments are not a valid JSON object"}
	}
	if result.Valid() {
		return nil
	}

	first := result.Errors()[0]
	field := first.Field()
	if first.Type() == "required" {
		if property, ok := first.Details()["property"].(string); ok {
			field = property
		}
	}
	return &entity.SchemaViolationError{Tool: name, Field: field, Reason: first.Description()}
}

func normalizeArguments(raw string) json.RawMessage {
	if strings.TrimSpace(raw) == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(raw)
}

func failurePayload(tool output.ToolPort, err error) any {
	if handler, ok := tool.(output.ToolHandler); ok {
		return handler.Failure(err)
	}
	return map[string]any{"toolName": tool.Name().String(), "content": err.Error()}
}
