// Package agents adapts plain step functions to the workflow Agent interface.
package agents

import (
	"context"
	"maps"

	"github.com/avi3tal/emflow/pkg/state"
	"github.com/avi3tal/emflow/pkg/types"
)

// MetaSuspends marks an agent that may pause for external input.
const MetaSuspends = "suspends"

// BaseAgent is a straightforward in-process function agent.
type BaseAgent[T state.GraphState[T]] struct {
	name     string
	fn       func(context.Context, T, types.Config[T]) (types.NodeResponse[T], error)
	metadata map[string]any
}

// NewSimpleAgent helper to create an inline agent
func NewSimpleAgent[T state.GraphState[T]](
	name string,
	fn func(context.Context, T, types.Config[T]) (types.NodeResponse[T], error),
	meta map[string]any,
) *BaseAgent[T] {
	return &BaseAgent[T]{name: name, fn: fn, metadata: meta}
}

// NewSuspendingAgent is NewSimpleAgent for steps that wait on a human answer.
func NewSuspendingAgent[T state.GraphState[T]](
	name string,
	fn func(context.Context, T, types.Config[T]) (types.NodeResponse[T], error),
) *BaseAgent[T] {
	return &BaseAgent[T]{name: name, fn: fn, metadata: map[string]any{MetaSuspends: true}}
}

func (a *BaseAgent[T]) Name() string {
	return a.name
}

func (a *BaseAgent[T]) Execute(ctx context.Context, s T, cfg types.Config[T]) (types.NodeResponse[T], error) {
	return a.fn(ctx, s, cfg)
}

func (a *BaseAgent[T]) Metadata() map[string]any {
	return maps.Clone(a.metadata)
}
