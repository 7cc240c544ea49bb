package graph

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avi3tal/emflow/pkg/checkpoints"
	"github.com/avi3tal/emflow/pkg/types"
)

//---------------------------//
// Mock State Implementation //
//---------------------------//

// MyState is a simple map state; Merge overwrites keys from other.
type MyState map[string]interface{}

func (s MyState) Validate() error {
	if s["invalid"] == true {
		return errors.New("state flagged invalid")
	}
	return nil
}

func (s MyState) Merge(other MyState) MyState {
	merged := make(MyState)
	for k, v := range s {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

//----------------------//
// Mock Node Functions  //
//----------------------//

func simulateCompiler(_ context.Context, st MyState, _ types.Config[MyState]) (types.NodeResponse[MyState], error) {
	return types.Completed(st.Merge(MyState{"status": "compiled"})), nil
}

func simulateResearcher(_ context.Context, st MyState, _ types.Config[MyState]) (types.NodeResponse[MyState], error) {
	return types.Completed(st.Merge(MyState{"research": "done"})), nil
}

func simulateTreeOfThoughts(_ context.Context, st MyState, _ types.Config[MyState]) (types.NodeResponse[MyState], error) {
	return types.Completed(st.Merge(MyState{"thinking": true})), nil
}

func simulateErrorNode(_ context.Context, _ MyState, _ types.Config[MyState]) (types.NodeResponse[MyState], error) {
	return types.NodeResponse[MyState]{}, errors.New("simulated failure")
}

// simulateAskNode asks for a name, then for a greeting, then completes.
func simulateAskNode(_ context.Context, st MyState, cfg types.Config[MyState]) (types.NodeResponse[MyState], error) {
	var name string
	ok, err := cfg.ResumeValue(0, &name)
	if err != nil {
		return types.NodeResponse[MyState]{}, err
	}
	if !ok {
		return types.Suspend(st, "ask_name", "What is your name?", nil), nil
	}
	if name == "" {
		return types.NodeResponse[MyState]{}, fmt.Errorf("%w: empty name", types.ErrInvalidResume)
	}

	var greeting string
	ok, err = cfg.ResumeValue(1, &greeting)
	if err != nil {
		return types.NodeResponse[MyState]{}, err
	}
	if !ok {
		return types.Suspend(st.Merge(MyState{"name": name}), "ask_greeting", "How should I greet you?", map[string]any{"name": name}), nil
	}
	return types.Completed(st.Merge(MyState{"name": name, "greeting": greeting + ", " + name})), nil
}

//---------------------------//
// Tests for the Graph Logic //
//---------------------------//

func TestGraphScenarios(t *testing.T) {
	t.Parallel()
	runGraph := func(t *testing.T, g *Graph[MyState], initial MyState) (MyState, error) {
		t.Helper()

		compiled, err := g.Compile()
		require.NoError(t, err, "Failed to compile graph")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		resp, err := compiled.Run(ctx, initial)
		return resp.State, err
	}

	t.Run("SimpleLinearGraph", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[MyState]("SimpleLinearGraph")
		require.NoError(t, g.AddNode("Compiler", simulateCompiler, nil))
		require.NoError(t, g.AddNode("Researcher", simulateResearcher, nil))
		require.NoError(t, g.AddEdge("Compiler", "Researcher", nil))
		require.NoError(t, g.SetEntryPoint("Compiler"))
		require.NoError(t, g.SetEndPoint("Researcher"))

		st, err := runGraph(t, g, MyState{"init": true})
		require.NoError(t, err)
		require.Equal(t, "compiled", st["status"])
		require.Equal(t, "done", st["research"])
		require.Equal(t, true, st["init"])
	})

	t.Run("BranchFallsThroughToEdges", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[MyState]("BranchingScenario")
		require.NoError(t, g.AddNode("Compiler", simulateCompiler, nil))
		require.NoError(t, g.AddNode("Researcher", simulateResearcher, nil))
		require.NoError(t, g.AddNode("TreeOfThoughts", simulateTreeOfThoughts, nil))

		// An empty answer falls back to the first plain edge.
		branchFunc := func(_ context.Context, st MyState, _ types.Config[MyState]) (string, error) {
			if val, ok := st["useThoughts"].(bool); ok && val {
				return "TreeOfThoughts", nil
			}
			return "", nil
		}
		require.NoError(t, g.AddBranch("Compiler", branchFunc, nil))
		require.NoError(t, g.AddEdge("Compiler", "Researcher", nil))
		require.NoError(t, g.AddEdge("TreeOfThoughts", "Researcher", nil))
		require.NoError(t, g.SetEntryPoint("Compiler"))
		require.NoError(t, g.SetEndPoint("Researcher"))

		st, err := runGraph(t, g, MyState{"useThoughts": false})
		require.NoError(t, err)
		require.Nil(t, st["thinking"])
		require.Equal(t, "done", st["research"])

		st, err = runGraph(t, g, MyState{"useThoughts": true})
		require.NoError(t, err)
		require.Equal(t, true, st["thinking"])
		require.Equal(t, "done", st["research"])
	})

	t.Run("ConditionalEdgesScenario", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[MyState]("ConditionalEdges")
		require.NoError(t, g.AddNode("Compiler", simulateCompiler, nil))
		require.NoError(t, g.AddNode("Researcher", simulateResearcher, nil))
		require.NoError(t, g.AddNode("TreeOfThoughts", simulateTreeOfThoughts, nil))

		condition := func(_ context.Context, st MyState, _ types.Config[MyState]) (string, error) {
			if st["switch"] == "A" {
				return "Researcher", nil
			}
			return "TreeOfThoughts", nil
		}
		require.NoError(t, g.AddConditionalEdge("Compiler", []string{"Researcher", "TreeOfThoughts"}, condition, nil))
		require.NoError(t, g.AddEdge("TreeOfThoughts", "Researcher", nil))
		require.NoError(t, g.SetEntryPoint("Compiler"))
		require.NoError(t, g.SetEndPoint("Researcher"))

		st, err := runGraph(t, g, MyState{"switch": "A"})
		require.NoError(t, err)
		require.Equal(t, "done", st["research"])
		require.Nil(t, st["thinking"])

		st, err = runGraph(t, g, MyState{"switch": "Z"})
		require.NoError(t, err)
		require.Equal(t, true, st["thinking"])
	})

	t.Run("ConditionalEdgeRejectsUndeclaredTarget", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[MyState]("InvalidTransition")
		require.NoError(t, g.AddNode("Entry", simulateCompiler, nil))
		require.NoError(t, g.AddNode("PathA", simulateResearcher, nil))
		require.NoError(t, g.AddNode("PathB", simulateTreeOfThoughts, nil))
		require.NoError(t, g.AddConditionalEdge("Entry", []string{"PathA", "PathB"},
			func(_ context.Context, _ MyState, _ types.Config[MyState]) (string, error) {
				return "Elsewhere", nil
			}, nil))
		require.NoError(t, g.SetEntryPoint("Entry"))
		require.NoError(t, g.SetEndPoint("PathA"))
		require.NoError(t, g.SetEndPoint("PathB"))

		_, err := runGraph(t, g, MyState{})
		require.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("BranchErrorFailsRun", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[MyState]("BranchError")
		require.NoError(t, g.AddNode("Entry", simulateCompiler, nil))
		require.NoError(t, g.AddNode("Next", simulateResearcher, nil))
		boom := errors.New("cannot decide")
		require.NoError(t, g.AddConditionalEdge("Entry", []string{"Next"},
			func(_ context.Context, _ MyState, _ types.Config[MyState]) (string, error) {
				return "", boom
			}, nil))
		require.NoError(t, g.SetEntryPoint("Entry"))
		require.NoError(t, g.SetEndPoint("Next"))

		_, err := runGraph(t, g, MyState{})
		require.ErrorIs(t, err, boom)
		var execErr *ExecutionError
		require.ErrorAs(t, err, &execErr)
		require.Equal(t, "Entry", execErr.Node)
	})

	t.Run("LoopBackScenario", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[MyState]("LoopBack")
		require.NoError(t, g.AddNode("StartNode", func(_ context.Context, st MyState, _ types.Config[MyState]) (types.NodeResponse[MyState], error) {
			return types.Completed(st.Merge(MyState{"started": true})), nil
		}, nil))
		require.NoError(t, g.AddNode("LoopNode", func(_ context.Context, st MyState, _ types.Config[MyState]) (types.NodeResponse[MyState], error) {
			count, _ := st["count"].(int)
			return types.Completed(st.Merge(MyState{"count": count + 1})), nil
		}, nil))

		require.NoError(t, g.AddEdge("StartNode", "LoopNode", nil))
		require.NoError(t, g.AddConditionalEdge("LoopNode", []string{"LoopNode", END},
			func(_ context.Context, st MyState, _ types.Config[MyState]) (string, error) {
				if c, _ := st["count"].(int); c < 3 {
					return "LoopNode", nil
				}
				return END, nil
			}, nil))
		require.NoError(t, g.SetEntryPoint("StartNode"))

		st, err := runGraph(t, g, MyState{})
		require.NoError(t, err)
		require.Equal(t, 3, st["count"])
	})

	t.Run("NestedGraphScenario", func(t *testing.T) {
		t.Parallel()
		innerGraph := NewGraph[MyState]("InnerGraph")
		require.NoError(t, innerGraph.AddNode("InnerStart", simulateCompiler, nil))
		require.NoError(t, innerGraph.AddNode("InnerMid", simulateResearcher, nil))
		require.NoError(t, innerGraph.AddEdge("InnerStart", "InnerMid", nil))
		require.NoError(t, innerGraph.SetEntryPoint("InnerStart"))
		require.NoError(t, innerGraph.SetEndPoint("InnerMid"))
		compiledInner, err := innerGraph.Compile()
		require.NoError(t, err)

		outerGraph := NewGraph[MyState]("OuterGraph")
		callInnerGraphNode := func(ctx context.Context, s MyState, _ types.Config[MyState]) (types.NodeResponse[MyState], error) {
			resp, err := compiledInner.Run(ctx, s)
			if err != nil {
				return types.NodeResponse[MyState]{}, fmt.Errorf("inner graph failed: %w", err)
			}
			return types.Completed(resp.State), nil
		}
		require.NoError(t, outerGraph.AddNode("PreInner", simulateTreeOfThoughts, nil))
		require.NoError(t, outerGraph.AddNode("CallInnerGraph", callInnerGraphNode, nil))
		require.NoError(t, outerGraph.AddNode("FinalNode", func(_ context.Context, s MyState, _ types.Config[MyState]) (types.NodeResponse[MyState], error) {
			return types.Completed(s.Merge(MyState{"final": true})), nil
		}, nil))
		require.NoError(t, outerGraph.AddEdge("PreInner", "CallInnerGraph", nil))
		require.NoError(t, outerGraph.AddEdge("CallInnerGraph", "FinalNode", nil))
		require.NoError(t, outerGraph.SetEntryPoint("PreInner"))
		require.NoError(t, outerGraph.SetEndPoint("FinalNode"))

		finalState, err := runGraph(t, outerGraph, MyState{"outer": true})
		require.NoError(t, err)
		require.Equal(t, true, finalState["thinking"])
		require.Equal(t, "compiled", finalState["status"])
		require.Equal(t, "done", finalState["research"])
		require.Equal(t, true, finalState["final"])
	})

	t.Run("GraphWithErrorNode", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[MyState]("GraphWithErrorNode")
		require.NoError(t, g.AddNode("WillFail", simulateErrorNode, nil))
		require.NoError(t, g.SetEntryPoint("WillFail"))
		require.NoError(t, g.SetEndPoint("WillFail"))

		_, err := runGraph(t, g, MyState{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "simulated failure")
	})

	t.Run("InvalidMergedStateFailsRun", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[MyState]("InvalidState")
		require.NoError(t, g.AddNode("Poison", func(_ context.Context, st MyState, _ types.Config[MyState]) (types.NodeResponse[MyState], error) {
			return types.Completed(MyState{"invalid": true}), nil
		}, nil))
		require.NoError(t, g.SetEntryPoint("Poison"))
		require.NoError(t, g.SetEndPoint("Poison"))

		_, err := runGraph(t, g, MyState{})
		require.ErrorContains(t, err, "state flagged invalid")
	})

	t.Run("CompileAndModifyGraph", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[MyState]("CompileAndModifyGraph")
		require.NoError(t, g.AddNode("NodeA", simulateCompiler, nil))
		require.NoError(t, g.SetEntryPoint("NodeA"))
		require.NoError(t, g.SetEndPoint("NodeA"))

		_, err := g.Compile()
		require.NoError(t, err)

		err = g.AddNode("NodeB", simulateResearcher, nil)
		require.ErrorIs(t, err, ErrAlreadyCompiled)
	})
}

func TestGraphValidation(t *testing.T) {
	t.Parallel()

	t.Run("DuplicateNode", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[MyState]("dup")
		require.NoError(t, g.AddNode("A", simulateCompiler, nil))
		require.ErrorIs(t, g.AddNode("A", simulateCompiler, nil), ErrDuplicateNode)
	})

	t.Run("ReservedNames", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[MyState]("reserved")
		require.ErrorIs(t, g.AddNode(END, simulateCompiler, nil), ErrInvalidNode)
		require.ErrorIs(t, g.AddNode(START, simulateCompiler, nil), ErrInvalidNode)
	})

	t.Run("MissingEntry", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[MyState]("noentry")
		require.NoError(t, g.AddNode("A", simulateCompiler, nil))
		_, err := g.Compile()
		require.ErrorIs(t, err, ErrNoEntryPoint)
	})

	t.Run("UnreachableNode", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[MyState]("unreachable")
		require.NoError(t, g.AddNode("A", simulateCompiler, nil))
		require.NoError(t, g.AddNode("B", simulateCompiler, nil))
		require.NoError(t, g.SetEntryPoint("A"))
		require.NoError(t, g.SetEndPoint("A"))
		_, err := g.Compile()
		require.ErrorContains(t, err, "unreachable")
	})

	t.Run("NoPathToEnd", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[MyState]("noend")
		require.NoError(t, g.AddNode("A", simulateCompiler, nil))
		require.NoError(t, g.SetEntryPoint("A"))
		_, err := g.Compile()
		require.ErrorIs(t, err, ErrNoEndPoint)
	})

	t.Run("EdgeToUnknownNode", func(t *testing.T) {
		t.Parallel()
		g := NewGraph[MyState]("unknown")
		require.NoError(t, g.AddNode("A", simulateCompiler, nil))
		require.ErrorIs(t, g.AddEdge("A", "B", nil), ErrNodeNotFound)
		require.Error(t, g.AddEdge("A", START, nil))
	})

	t.Run("StableGraphID", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "fixed", NewGraph[MyState]("x", WithGraphID("fixed")).ID())
		require.Contains(t, NewGraph[MyState]("my graph").ID(), "my-graph-")
	})
}

func newAskGraph(t *testing.T, store types.CheckpointStore[MyState], opts ...CompilationOption[MyState]) *CompiledGraph[MyState] {
	t.Helper()
	g := NewGraph[MyState]("ask", WithGraphID("ask-graph"))
	require.NoError(t, g.AddNode("Ask", simulateAskNode, nil))
	require.NoError(t, g.AddNode("After", simulateResearcher, nil))
	require.NoError(t, g.AddEdge("Ask", "After", nil))
	require.NoError(t, g.SetEntryPoint("Ask"))
	require.NoError(t, g.SetEndPoint("After"))

	compiled, err := g.Compile(append([]CompilationOption[MyState]{WithCheckpointStore(store)}, opts...)...)
	require.NoError(t, err)
	return compiled
}

func TestInterruptAndResume(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	compiled := newAskGraph(t, checkpoints.NewMemoryStore[MyState](), WithDebug[MyState]())
	thread := WithThreadID[MyState]("user-1")

	resp, err := compiled.Run(ctx, MyState{"init": true}, thread)
	require.NoError(t, err)
	require.Equal(t, types.StatusPending, resp.Status)
	require.Equal(t, "ask_name", resp.Interrupt.Kind)

	pending, err := compiled.Pending(ctx, thread)
	require.NoError(t, err)
	require.Equal(t, "ask_name", pending.Kind)

	resp, err = compiled.Resume(ctx, "Ada", thread)
	require.NoError(t, err)
	require.Equal(t, types.StatusPending, resp.Status)
	require.Equal(t, "ask_greeting", resp.Interrupt.Kind)
	require.Equal(t, "Ada", resp.State["name"])

	resp, err = compiled.Resume(ctx, "Hello", thread)
	require.NoError(t, err)
	require.Equal(t, types.StatusCompleted, resp.Status)
	require.Equal(t, "Hello, Ada", resp.State["greeting"])
	require.Equal(t, "done", resp.State["research"])
	require.Equal(t, true, resp.State["init"])

	// completed threads cannot be resumed
	_, err = compiled.Resume(ctx, "again", thread)
	require.ErrorIs(t, err, ErrThreadNotFound)
	_, err = compiled.Pending(ctx, thread)
	require.ErrorIs(t, err, ErrThreadNotFound)

	snap, err := compiled.Snapshot(ctx, thread)
	require.NoError(t, err)
	require.Equal(t, types.StatusCompleted, snap.Status)
	require.Empty(t, snap.Resumes)
}

func TestInvalidResumeKeepsThreadSuspended(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	compiled := newAskGraph(t, checkpoints.NewMemoryStore[MyState]())
	thread := WithThreadID[MyState]("user-2")

	_, err := compiled.Run(ctx, MyState{}, thread)
	require.NoError(t, err)

	_, err = compiled.Resume(ctx, "", thread)
	require.ErrorIs(t, err, types.ErrInvalidResume)

	// wrong JSON shape is rejected the same way
	_, err = compiled.Resume(ctx, map[string]int{"a": 1}, thread)
	require.ErrorIs(t, err, types.ErrInvalidResume)

	pending, err := compiled.Pending(ctx, thread)
	require.NoError(t, err)
	require.Equal(t, "ask_name", pending.Kind)

	resp, err := compiled.Resume(ctx, "Grace", thread)
	require.NoError(t, err)
	require.Equal(t, "ask_greeting", resp.Interrupt.Kind)
}

func TestResumeUnknownThread(t *testing.T) {
	t.Parallel()
	compiled := newAskGraph(t, checkpoints.NewMemoryStore[MyState]())
	_, err := compiled.Resume(context.Background(), "x", WithThreadID[MyState]("nobody"))
	require.ErrorIs(t, err, ErrThreadNotFound)
}

func TestResumeWithoutCheckpointer(t *testing.T) {
	t.Parallel()
	g := NewGraph[MyState]("nocp")
	require.NoError(t, g.AddNode("Ask", simulateAskNode, nil))
	require.NoError(t, g.SetEntryPoint("Ask"))
	require.NoError(t, g.SetEndPoint("Ask"))
	compiled, err := g.Compile()
	require.NoError(t, err)

	_, err = compiled.Resume(context.Background(), "x")
	require.ErrorIs(t, err, ErrCheckpointingDisabled)
}

func TestRunReplacesSuspendedThread(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	compiled := newAskGraph(t, checkpoints.NewMemoryStore[MyState]())
	thread := WithThreadID[MyState]("user-3")

	_, err := compiled.Run(ctx, MyState{}, thread)
	require.NoError(t, err)
	resp, err := compiled.Resume(ctx, "Ada", thread)
	require.NoError(t, err)
	require.Equal(t, "ask_greeting", resp.Interrupt.Kind)

	// a fresh run starts over at the first question
	resp, err = compiled.Run(ctx, MyState{}, thread)
	require.NoError(t, err)
	require.Equal(t, "ask_name", resp.Interrupt.Kind)
	require.Nil(t, resp.State["name"])
}

func TestThreadsAreIsolated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	compiled := newAskGraph(t, checkpoints.NewMemoryStore[MyState]())

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			thread := WithThreadID[MyState](fmt.Sprintf("user-%d", i))
			_, err := compiled.Run(ctx, MyState{}, thread)
			require.NoError(t, err)
			_, err = compiled.Resume(ctx, fmt.Sprintf("name-%d", i), thread)
			require.NoError(t, err)
			resp, err := compiled.Resume(ctx, "Hi", thread)
			require.NoError(t, err)
			require.Equal(t, fmt.Sprintf("Hi, name-%d", i), resp.State["greeting"])
		}(i)
	}
	wg.Wait()
}

func TestFailedRunIsCheckpointed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := NewGraph[MyState]("failing")
	require.NoError(t, g.AddNode("WillFail", simulateErrorNode, nil))
	require.NoError(t, g.SetEntryPoint("WillFail"))
	require.NoError(t, g.SetEndPoint("WillFail"))
	compiled, err := g.Compile(WithCheckpointStore(checkpoints.NewMemoryStore[MyState]()))
	require.NoError(t, err)

	thread := WithThreadID[MyState]("t")
	resp, err := compiled.Run(ctx, MyState{"a": 1}, thread)
	require.Error(t, err)
	require.Equal(t, types.StatusFailed, resp.Status)

	snap, err := compiled.Snapshot(ctx, thread)
	require.NoError(t, err)
	require.Equal(t, types.StatusFailed, snap.Status)
	require.Equal(t, "WillFail", snap.CurrentNode)
}

func TestMaxSteps(t *testing.T) {
	t.Parallel()
	g := NewGraph[MyState]("forever")
	require.NoError(t, g.AddNode("Spin", simulateCompiler, nil))
	require.NoError(t, g.AddConditionalEdge("Spin", []string{"Spin", END},
		func(_ context.Context, _ MyState, _ types.Config[MyState]) (string, error) {
			return "Spin", nil
		}, nil))
	require.NoError(t, g.SetEntryPoint("Spin"))
	compiled, err := g.Compile(WithMaxSteps[MyState](5))
	require.NoError(t, err)

	_, err = compiled.Run(context.Background(), MyState{})
	require.ErrorIs(t, err, ErrMaxSteps)
}

func TestStepHook(t *testing.T) {
	t.Parallel()
	var (
		mu    sync.Mutex
		nodes []string
	)
	hook := func(node string, status types.NodeExecutionStatus, _ time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		nodes = append(nodes, node+":"+string(status))
	}
	compiled := newAskGraph(t, checkpoints.NewMemoryStore[MyState](), WithStepHook[MyState](hook))
	thread := WithThreadID[MyState]("hook")

	_, err := compiled.Run(context.Background(), MyState{}, thread)
	require.NoError(t, err)
	require.Equal(t, []string{"Ask:pending"}, nodes)
}

func TestPrintGraph(t *testing.T) {
	t.Parallel()
	g := NewGraph[MyState]("print")
	require.NoError(t, g.AddNode("Entry", simulateCompiler, nil))
	require.NoError(t, g.AddNode("PathA", simulateResearcher, nil))
	require.NoError(t, g.AddNode("PathB", simulateTreeOfThoughts, nil))
	require.NoError(t, g.AddConditionalEdge("Entry", []string{"PathA", "PathB"},
		func(_ context.Context, _ MyState, _ types.Config[MyState]) (string, error) { return "PathA", nil }, nil))
	require.NoError(t, g.SetEntryPoint("Entry"))
	require.NoError(t, g.SetEndPoint("PathA"))
	require.NoError(t, g.SetEndPoint("PathB"))

	var buf bytes.Buffer
	g.PrintGraph(&buf)
	out := buf.String()
	require.Contains(t, out, "* Entry (Entry)")
	require.Contains(t, out, "Entry --[condition]--> [PathA,PathB]")
	require.Contains(t, out, "PathA --> END")

	mermaid := g.Mermaid()
	require.Contains(t, mermaid, "START --> Entry")
	require.Contains(t, mermaid, "Entry -.-> PathB")
}
