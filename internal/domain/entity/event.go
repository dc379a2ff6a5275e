package entity

type EventType string

const (
	EventStepStart  EventType = "step-start"
	EventTextDelta  EventType = "text-delta"
	EventToolCall   EventType = "tool-call"
	EventToolResult EventType = "tool-result"
	EventStepFinish EventType = "step-finish"
	EventFinish     EventType = "finish"
	EventError      EventType = "error"
)

type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool-calls"
	FinishLength    FinishReason = "length"
	FinishError     FinishReason = "error"
)

// StreamEvent is pushed to the transport while a turn is running.
type StreamEvent struct {
	Type         EventType
	MessageID    string
	Text         string
	ToolCall     *ToolCall
	Args         map[string]any
	Result       any
	FinishReason FinishReason
	Continued    bool
	// Err is set on error events and on results of failed tool calls.
	Err          error
}
