package graph

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/avi3tal/emflow/pkg/state"
	"github.com/avi3tal/emflow/pkg/types"
)

// CompiledGraph represents an immutable, executable version of the graph
type CompiledGraph[T state.GraphState[T]] struct {
	graph  *Graph[T]
	config types.Config[T]
}

// ID returns the graph identifier.
func (cg *CompiledGraph[T]) ID() string {
	return cg.graph.graphID
}

// Graph exposes the underlying structure for inspection.
func (cg *CompiledGraph[T]) Graph() *Graph[T] {
	return cg.graph
}

func (cg *CompiledGraph[T]) runConfig(opts []ExecutionOption[T]) types.Config[T] {
	cfg := cg.config.Clone()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Run starts a fresh execution from the entry point. Any checkpoint left on
// the thread is replaced.
func (cg *CompiledGraph[T]) Run(ctx context.Context, initial T, opts ...ExecutionOption[T]) (types.NodeResponse[T], error) {
	cfg := cg.runConfig(opts)
	dp := types.DataPoint[T]{
		State:       initial,
		CurrentNode: cg.graph.entryPoint,
		Status:      types.StatusReady,
	}
	return execute(ctx, cg.graph, dp, cfg)
}

// Resume delivers value to the suspended node of the thread and continues
// execution from there.
func (cg *CompiledGraph[T]) Resume(ctx context.Context, value any, opts ...ExecutionOption[T]) (types.NodeResponse[T], error) {
	cfg := cg.runConfig(opts)
	dp, err := loadPending(ctx, cfg)
	if err != nil {
		return types.NodeResponse[T]{}, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return types.NodeResponse[T]{}, errors.Wrap(err, "failed to encode resume value")
	}
	dp.Resumes = append(dp.Resumes, raw)
	dp.Status = types.StatusReady
	return execute(ctx, cg.graph, *dp, cfg)
}

// Pending returns the interrupt a suspended thread is waiting on.
func (cg *CompiledGraph[T]) Pending(ctx context.Context, opts ...ExecutionOption[T]) (*types.Interrupt, error) {
	dp, err := loadPending(ctx, cg.runConfig(opts))
	if err != nil {
		return nil, err
	}
	if dp.Interrupt == nil {
		return &types.Interrupt{}, nil
	}
	return dp.Interrupt, nil
}

// Snapshot returns the last checkpoint of a thread, whatever its status.
func (cg *CompiledGraph[T]) Snapshot(ctx context.Context, opts ...ExecutionOption[T]) (*types.DataPoint[T], error) {
	cfg := cg.runConfig(opts)
	if cfg.Checkpointer == nil {
		return nil, ErrCheckpointingDisabled
	}
	dp, err := cfg.Checkpointer.Load(ctx, cfg)
	if errors.Is(err, types.ErrCheckpointNotFound) {
		return nil, errors.Wrapf(ErrThreadNotFound, "thread %s", cfg.ThreadID)
	}
	return dp, err
}

func loadPending[T state.GraphState[T]](ctx context.Context, cfg types.Config[T]) (*types.DataPoint[T], error) {
	if cfg.Checkpointer == nil {
		return nil, ErrCheckpointingDisabled
	}
	dp, err := cfg.Checkpointer.Load(ctx, cfg)
	if errors.Is(err, types.ErrCheckpointNotFound) {
		return nil, errors.Wrapf(ErrThreadNotFound, "thread %s", cfg.ThreadID)
	}
	if err != nil {
		return nil, err
	}
	if dp.Status != types.StatusPending {
		return nil, errors.Wrapf(ErrThreadNotFound, "thread %s is %s", cfg.ThreadID, dp.Status)
	}
	return dp, nil
}
