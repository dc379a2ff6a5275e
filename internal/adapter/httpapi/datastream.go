package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"browsegpt/internal/domain/entity"
)

// Line prefixes of the AI data-stream protocol, version 1.
const (
	prefixText       = "0"
	prefixError      = "3"
	prefixToolCall   = "9"
	prefixToolResult = "a"
	prefixStepFinish = "e"
	prefixFinish     = "d"
	prefixStepStart  = "f"

	dataStreamHeader  = "X-Vercel-AI-Data-Stream"
	dataStreamVersion = "v1"
)

type usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

type stepStartPart struct {
	MessageID string `json:"messageId"`
}

type toolCallPart struct {
	ToolCallID string         `json:"toolCallId"`
	ToolName   string         `json:"toolName"`
	Args       map[string]any `json:"args"`
}

type toolResultPart struct {
	ToolCallID string `json:"toolCallId"`
	Result     any    `json:"result"`
}

type stepFinishPart struct {
	FinishReason entity.FinishReason `json:"finishReason"`
	Usage        usage               `json:"usage"`
	IsContinued  bool                `json:"isContinued"`
}

type finishPart struct {
	FinishReason entity.FinishReason `json:"finishReason"`
	Usage        usage               `json:"usage"`
}

// DataStream writes stream events as newline-terminated protocol parts and
// flushes after each one.
type DataStream struct {
	w     io.Writer
	flush func() error
}

// NewDataStream sets the protocol headers on w. It must be called before the
// status is written.
func NewDataStream(w http.ResponseWriter) *DataStream {
	headers := w.Header()
	headers.Set("Content-Type", "text/plain; charset=utf-8")
	headers.Set(dataStreamHeader, dataStreamVersion)
	headers.Set("Cache-Control", "no-cache")
	headers.Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	flush := func() error {
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
		return nil
	}
	return &DataStream{w: w, flush: flush}
}

func NewDataStreamWriter(w io.Writer) *DataStream {
	return &DataStream{w: w}
}

// Stream writes events until the channel is closed. After a write error the
// rest of the channel is drained so the producer never blocks.
func (s *DataStream) Stream(ctx context.Context, events <-chan entity.StreamEvent) error {
	var firstErr error
	for ev := range events {
		if firstErr != nil {
			continue
		}
		if err := s.WriteEvent(ev); err != nil {
			firstErr = err
		}
	}
	if firstErr == nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return firstErr
}

func (s *DataStream) WriteEvent(ev entity.StreamEvent) error {
	prefix, payload, ok := encodeEvent(ev)
	if !ok {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s part: %w", ev.Type, err)
	}

	if _, err := fmt.Fprintf(s.w, "%s:%s\n", prefix, data); err != nil {
		return fmt.Errorf("write %s part: %w", ev.Type, err)
	}
	if s.flush != nil {
		if err := s.flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
	}
	return nil
}

func encodeEvent(ev entity.StreamEvent) (string, any, bool) {
	switch ev.Type {
	case entity.EventStepStart:
		return prefixStepStart, stepStartPart{MessageID: ev.MessageID}, true
	case entity.EventTextDelta:
		return prefixText, ev.Text, true
	case entity.EventToolCall:
		if ev.ToolCall == nil {
			return "", nil, false
		}
		args := ev.Args
		if args == nil {
			args = map[string]any{}
		}
		return prefixToolCall, toolCallPart{ToolCallID: ev.ToolCall.ID, ToolName: ev.ToolCall.Name, Args: args}, true
	case entity.EventToolResult:
		if ev.ToolCall == nil {
			return "", nil, false
		}
		return prefixToolResult, toolResultPart{ToolCallID: ev.ToolCall.ID, Result: ev.Result}, true
	case entity.EventStepFinish:
		return prefixStepFinish, stepFinishPart{FinishReason: ev.FinishReason, IsContinued: ev.Continued}, true
	case entity.EventFinish:
		return prefixFinish, finishPart{FinishReason: ev.FinishReason}, true
	case entity.EventError:
		msg := "An error occurred."
		if ev.Err != nil {
			msg = ev.Err.Error()
		}
		return prefixError, msg, true
	}
	return "", nil, false
}
