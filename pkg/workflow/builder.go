package workflow

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/avi3tal/emflow/internal/graph"
	"github.com/avi3tal/emflow/pkg/state"
	"github.com/avi3tal/emflow/pkg/types"
)

// ErrUnknownBranch is returned at run time when an OnCondition key has no agent.
var ErrUnknownBranch = errors.New("unknown branch key")

// Agent represents a node in the user-facing workflow DSL.
type Agent[T state.GraphState[T]] interface {
	Name() string
	Execute(ctx context.Context, s T, cfg types.Config[T]) (types.NodeResponse[T], error)
	Metadata() map[string]any
}

// Builder is the top-level DSL object. Wraps an internal graph.
type Builder[T state.GraphState[T]] struct {
	name  string
	graph *graph.Graph[T]
}

// NewBuilder creates a new DSL workflow with an underlying graph.
func NewBuilder[T state.GraphState[T]](name string, opts ...graph.Option) *Builder[T] {
	g := graph.NewGraph[T](name, opts...)
	return &Builder[T]{name: name, graph: g}
}

// Graph exposes the underlying graph, mainly for rendering.
func (wf *Builder[T]) Graph() *graph.Graph[T] {
	return wf.graph
}

// Compile compiles the underlying graph using the internal engine.
func (wf *Builder[T]) Compile(opts ...graph.CompilationOption[T]) (*graph.CompiledGraph[T], error) {
	return wf.graph.Compile(opts...)
}

// AddAgent adds a new agent (node) to the workflow.
func (wf *Builder[T]) AddAgent(agent Agent[T]) *FlowAgent[T] {
	if err := wf.graph.AddNode(agent.Name(), agent.Execute, agent.Metadata()); err != nil {
		return &FlowAgent[T]{wf: wf, agent: agent, err: fmt.Errorf("AddAgent(%q) failed: %w", agent.Name(), err)}
	}
	return &FlowAgent[T]{wf: wf, agent: agent}
}

// From continues a chain from an agent that is already part of the workflow,
// typically one of the targets of an earlier OnCondition.
func (wf *Builder[T]) From(agent Agent[T]) *FlowAgent[T] {
	if !wf.graph.HasNode(agent.Name()) {
		return &FlowAgent[T]{wf: wf, agent: agent, err: fmt.Errorf("From(%q) failed: %w", agent.Name(), graph.ErrNodeNotFound)}
	}
	return &FlowAgent[T]{wf: wf, agent: agent}
}

// FlowAgent references a node that was just added (an Agent).
type FlowAgent[T state.GraphState[T]] struct {
	wf    *Builder[T]
	agent Agent[T]
	err   error

	// possible branch targets from a ThenIf/OnCondition
	branchTargets []string
}

func (fa *FlowAgent[T]) Err() error {
	return fa.err
}

// AsEntryPoint marks the current agent as the graph’s entry point.
func (fa *FlowAgent[T]) AsEntryPoint() *FlowAgent[T] {
	if fa.err != nil {
		return fa
	}
	if err := fa.wf.graph.SetEntryPoint(fa.agent.Name()); err != nil {
		fa.err = fmt.Errorf("AsEntryPoint failed: %w", err)
	}
	return fa
}

// Then creates a simple sequential link from fa.agent -> nextAgent.
func (fa *FlowAgent[T]) Then(nextAgent Agent[T]) *FlowAgent[T] {
	if fa.err != nil {
		return fa
	}

	if err := ensureAgent(fa.wf, nextAgent); err != nil {
		fa.err = err
		return fa
	}

	if err := fa.wf.graph.AddEdge(fa.agent.Name(), nextAgent.Name(), nil); err != nil {
		fa.err = fmt.Errorf("Then(%q) failed: %w", nextAgent.Name(), err)
		return fa
	}

	return &FlowAgent[T]{wf: fa.wf, agent: nextAgent}
}

// End marks the current agent, or every target of the preceding branch, as pointing to END.
func (fa *FlowAgent[T]) End() error {
	if fa.err != nil {
		return fa.err
	}

	sources := fa.branchTargets
	if len(sources) == 0 {
		sources = []string{fa.agent.Name()}
	}
	for _, name := range sources {
		if err := fa.wf.graph.AddEdge(name, graph.END, nil); err != nil {
			fa.err = fmt.Errorf("[End]: AddEdge(%q->END) failed: %w", name, err)
			return fa.err
		}
	}
	fa.branchTargets = nil
	return nil
}

// ThenIf creates a 2-branch condition: if predicate => ifTrueAgent else ifFalseAgent.
func (fa *FlowAgent[T]) ThenIf(
	predicate func(ctx context.Context, s T, cfg types.Config[T]) bool,
	ifTrueAgent Agent[T],
	ifFalseAgent Agent[T],
) *FlowAgent[T] {
	if fa.err != nil {
		return fa
	}

	for _, ag := range []Agent[T]{ifTrueAgent, ifFalseAgent} {
		if err := ensureAgent(fa.wf, ag); err != nil {
			fa.err = err
			return fa
		}
	}

	possibleTargets := []string{ifTrueAgent.Name(), ifFalseAgent.Name()}
	cond := func(ctx context.Context, s T, cfg types.Config[T]) (string, error) {
		if predicate(ctx, s, cfg) {
			return ifTrueAgent.Name(), nil
		}
		return ifFalseAgent.Name(), nil
	}

	if err := fa.wf.graph.AddConditionalEdge(fa.agent.Name(), possibleTargets, cond, nil); err != nil {
		fa.err = fmt.Errorf("ThenIf failed: %w", err)
	}
	fa.branchTargets = possibleTargets
	return fa
}

// OnCondition routes to the agent registered under the key the condition returns.
// A key missing from branchMap fails the run with ErrUnknownBranch.
func (fa *FlowAgent[T]) OnCondition(
	condition func(ctx context.Context, s T, cfg types.Config[T]) (string, error),
	branchMap map[string]Agent[T],
) *FlowAgent[T] {
	if fa.err != nil {
		return fa
	}

	targets := make([]string, 0, len(branchMap))
	for _, ag := range branchMap {
		if err := ensureAgent(fa.wf, ag); err != nil {
			fa.err = err
			return fa
		}
		targets = append(targets, ag.Name())
	}

	wrapperCond := func(ctx context.Context, s T, cfg types.Config[T]) (string, error) {
		key, err := condition(ctx, s, cfg)
		if err != nil {
			return "", err
		}
		agent, ok := branchMap[key]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownBranch, key)
		}
		return agent.Name(), nil
	}

	if err := fa.wf.graph.AddConditionalEdge(fa.agent.Name(), targets, wrapperCond, nil); err != nil {
		fa.err = fmt.Errorf("OnCondition failed: %w", err)
	}
	fa.branchTargets = targets
	return fa
}

// ensureAgent adds the agent unless a node with its name is already present.
func ensureAgent[T state.GraphState[T]](wf *Builder[T], agent Agent[T]) error {
	err := wf.graph.AddNode(agent.Name(), agent.Execute, agent.Metadata())
	if err != nil && !isDuplicateNodeError(err) {
		return fmt.Errorf("cannot ensure agent %q: %w", agent.Name(), err)
	}
	return nil
}

func isDuplicateNodeError(err error) bool {
	return errors.Is(err, graph.ErrDuplicateNode)
}
