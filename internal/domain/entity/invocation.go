package entity

import "fmt"

type InvocationState string

const (
	InvocationRequested InvocationState = "requested"
	InvocationExecuting InvocationState = "executing"
	InvocationSucceeded InvocationState = "succeeded"
	InvocationFailed    InvocationState = "failed"
	InvocationDeferred  InvocationState = "deferred"
)

// ToolInvocation tracks one tool call from the model until its result is
// attached. Result and Err are set exactly once.
type ToolInvocation struct {
	Call   ToolCall
	State  InvocationState
	Result any
	Err    error
}

func NewToolInvocation(call ToolCall) *ToolInvocation {
	return &ToolInvocation{Call: call, State: InvocationRequested}
}

func (inv *ToolInvocation) Start() error {
	if inv.State != InvocationRequested {
		return fmt.Errorf("start %s from %s: %w", inv.Call.Name, inv.State, ErrInvocationResolved)
	}
	inv.State = InvocationExecuting
	return nil
}

func (inv *ToolInvocation) Succeed(result any) error {
	if inv.State != InvocationExecuting {
		return fmt.Errorf("succeed %s from %s: %w", inv.Call.Name, inv.State, ErrInvocationResolved)
	}
	inv.State = InvocationSucceeded
	inv.Result = result
	return nil
}

// Fail records a failure. result is the failure payload handed to the model.
// Invalid arguments fail straight from requested.
func (inv *ToolInvocation) Fail(err error, result any) error {
	if inv.State != InvocationRequested && inv.State != InvocationExecuting {
		return fmt.Errorf("fail %s from %s: %w", inv.Call.Name, inv.State, ErrInvocationResolved)
	}
	inv.State = InvocationFailed
	inv.Err = err
	inv.Result = result
	return nil
}

func (inv *ToolInvocation) Defer() error {
	if inv.State != InvocationRequested {
		return fmt.Errorf("defer %s from %s: %w", inv.Call.Name, inv.State, ErrInvocationResolved)
	}
	inv.State = InvocationDeferred
	return nil
}

func (inv *ToolInvocation) Resolved() bool {
	switch inv.State {
	case InvocationSucceeded, InvocationFailed:
		return true
	}
	return false
}
