package graph

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/pkg/errors"

	"github.com/avi3tal/emflow/pkg/state"
	"github.com/avi3tal/emflow/pkg/types"
)

func executeNode[T state.GraphState[T]](
	ctx context.Context,
	node NodeSpec[T],
	st T,
	config types.Config[T],
) (types.NodeResponse[T], error) {
	start := time.Now()
	resp, err := node.Function(ctx, st, config)

	status := resp.Status
	if err != nil {
		status = types.StatusFailed
	}
	if config.StepHook != nil {
		config.StepHook(node.Name, status, time.Since(start))
	}
	if err != nil {
		return resp, fmt.Errorf("failed to execute node %s: %w", node.Name, err)
	}
	return resp, nil
}

func saveCheckpoint[T state.GraphState[T]](ctx context.Context, config types.Config[T], data types.DataPoint[T]) error {
	if config.Checkpointer == nil {
		return nil
	}
	if err := config.Checkpointer.Save(ctx, config, &data); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func checkExecutionLimits[T state.GraphState[T]](ctx context.Context, steps int, config types.Config[T]) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("execution cancelled: %w", ctx.Err())
	default:
	}

	if config.MaxSteps > 0 && steps >= config.MaxSteps {
		return fmt.Errorf("%w (%d)", ErrMaxSteps, config.MaxSteps)
	}

	return nil
}

// execute drives the thread from dp.CurrentNode until it completes, suspends
// or fails. Every outcome except a rejected resume value is checkpointed.
func execute[T state.GraphState[T]](
	ctx context.Context,
	graph *Graph[T],
	dp types.DataPoint[T],
	config types.Config[T],
) (types.NodeResponse[T], error) {
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(config.Timeout)*time.Second)
		defer cancel()
	}
	log := config.Log().With("graph", config.GraphID, "thread", config.ThreadID)

	st := dp.State
	current := dp.CurrentNode
	resumes := dp.Resumes
	steps := dp.Steps

	fail := func(node string, phase string, cause error) (types.NodeResponse[T], error) {
		log.Warn("graph execution failed", "node", node, "phase", phase, "error", cause)
		failed := types.DataPoint[T]{State: st, CurrentNode: node, Status: types.StatusFailed, Steps: steps}
		if err := saveCheckpoint(ctx, config, failed); err != nil {
			log.Error("failed to record failure", "error", err)
		}
		return types.NodeResponse[T]{State: st, Status: types.StatusFailed}, NewExecutionError(phase, node, cause)
	}

	for current != END {
		if err := checkExecutionLimits(ctx, steps, config); err != nil {
			return fail(current, "limits", err)
		}

		node, exists := graph.nodes[current]
		if !exists {
			return fail(current, "lookup", ErrNodeNotFound)
		}

		nodeCfg := config.Clone()
		nodeCfg.Resumes = resumes
		if config.Debug {
			log.Debug("executing node", "node", current, "step", steps, "resumes", len(resumes))
		}

		resp, err := executeNode(ctx, node, st, nodeCfg)
		if err != nil {
			if errors.Is(err, types.ErrInvalidResume) {
				// the suspended checkpoint stays as it was
				return types.NodeResponse[T]{State: st, Status: types.StatusPending}, NewExecutionError("resume", current, err)
			}
			return fail(current, "node", err)
		}

		st = st.Merge(resp.State)
		if err := st.Validate(); err != nil {
			return fail(current, "validate", errors.Wrap(err, "invalid state"))
		}

		switch resp.Status {
		case types.StatusPending:
			pending := types.DataPoint[T]{
				State:       st,
				CurrentNode: current,
				Status:      types.StatusPending,
				Steps:       steps,
				Interrupt:   resp.Interrupt,
				Resumes:     resumes,
			}
			if err := saveCheckpoint(ctx, config, pending); err != nil {
				return types.NodeResponse[T]{}, NewExecutionError("checkpoint", current, err)
			}
			if config.Debug {
				log.Debug("node suspended", "node", current, "interrupt", interruptKind(resp.Interrupt))
			}
			return types.NodeResponse[T]{State: st, Status: types.StatusPending, Interrupt: resp.Interrupt}, nil
		case types.StatusFailed:
			failed := types.DataPoint[T]{State: st, CurrentNode: current, Status: types.StatusFailed, Steps: steps}
			if err := saveCheckpoint(ctx, config, failed); err != nil {
				return types.NodeResponse[T]{}, NewExecutionError("checkpoint", current, err)
			}
			return types.NodeResponse[T]{State: st, Status: types.StatusFailed}, nil
		}

		next, err := getNextNode(ctx, graph, current, st, nodeCfg)
		if err != nil {
			return fail(current, "route", err)
		}
		resumes = nil
		steps++
		current = next
	}

	done := types.DataPoint[T]{State: st, CurrentNode: END, Status: types.StatusCompleted, Steps: steps}
	if err := saveCheckpoint(ctx, config, done); err != nil {
		return types.NodeResponse[T]{}, NewExecutionError("checkpoint", END, err)
	}
	return types.NodeResponse[T]{State: st, Status: types.StatusCompleted}, nil
}

func getNextNode[T state.GraphState[T]](
	ctx context.Context,
	graph *Graph[T],
	currentNode string,
	st T,
	config types.Config[T],
) (string, error) {
	for _, branch := range graph.branches[currentNode] {
		target, err := branch.Path(ctx, st, config)
		if err != nil {
			return "", err
		}
		if branch.Targets != nil {
			if !slices.Contains(branch.Targets, target) {
				return "", fmt.Errorf("%w: %s -> %q", ErrInvalidTransition, currentNode, target)
			}
			return target, nil
		}
		if target != "" {
			return target, nil
		}
	}

	for _, edge := range graph.edges {
		if edge.From == currentNode {
			return edge.To, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNoTransition, currentNode)
}

func interruptKind(in *types.Interrupt) string {
	if in == nil {
		return ""
	}
	return in.Kind
}
