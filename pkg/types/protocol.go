package types

import "github.com/avi3tal/emflow/pkg/state"

// NodeResponse encapsulates the execution result.
// Interrupt is only set when Status is StatusPending.
type NodeResponse[T state.GraphState[T]] struct {
	State     T
	Status    NodeExecutionStatus
	Interrupt *Interrupt
}

// Completed is a shorthand for a node that finished its unit of work.
func Completed[T state.GraphState[T]](s T) NodeResponse[T] {
	return NodeResponse[T]{State: s, Status: StatusCompleted}
}

// Suspend is a shorthand for a node that needs external input before it can finish.
func Suspend[T state.GraphState[T]](s T, kind, message string, data any) NodeResponse[T] {
	return NodeResponse[T]{
		State:  s,
		Status: StatusPending,
		Interrupt: &Interrupt{
			Kind:    kind,
			Message: message,
			Data:    data,
		},
	}
}
