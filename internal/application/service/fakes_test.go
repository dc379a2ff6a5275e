package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"browsegpt/internal/domain/entity"
	"browsegpt/internal/infrastructure/logger"
)

var testLogger = logger.NewNop()

// fakeTool is a configurable handler; sessionAware makes it a browser tool.
type fakeTool struct {
	name     entity.ToolName
	schema   map[string]interface{}
	calls    atomic.Int32
	result   any
	err      error
	panicMsg string
	delay    time.Duration

	mu      sync.Mutex
	active  int
	maxSeen int
}

func (f *fakeTool) Name() entity.ToolName { return f.name }

func (f *fakeTool) Description() string { return "fake " + f.name.String() }

func (f *fakeTool) Parameters() map[string]interface{} {
	if f.schema != nil {
		return f.schema
	}
	return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
}

func (f *fakeTool) Execute(ctx context.Context, arguments json.RawMessage) (any, error) {
	f.calls.Add(1)

	f.mu.Lock()
	f.active++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

func (f *fakeTool) Failure(err error) any {
	return map[string]any{"toolName": "Fake", "content": "Error: " + err.Error()}
}

func (f *fakeTool) maxConcurrent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxSeen
}

type fakeBrowserTool struct {
	*fakeTool
}

func (f fakeBrowserTool) SessionID(arguments json.RawMessage) string {
	var args struct {
		SessionID string `json:"sessionId"`
	}
	_ = json.Unmarshal(arguments, &args)
	return args.SessionID
}

// schemaOnlyTool has no handler.
type schemaOnlyTool struct{}

func (schemaOnlyTool) Name() entity.ToolName { return entity.ToolRequestConfirmation }
func (schemaOnlyTool) Description() string    { return "confirm" }
func (schemaOnlyTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"message": map[string]interface{}{"type": "string"}},
		"required":   []string{"message"},
	}
}

var errBoom = errors.New("boom")

func searchSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query":     map[string]interface{}{"type": "string"},
			"sessionId": map[string]interface{}{"type": "string"},
		},
		"required": []string{"query", "sessionId"},
	}
}
