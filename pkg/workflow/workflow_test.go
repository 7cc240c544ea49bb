package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avi3tal/emflow/internal/graph"
	"github.com/avi3tal/emflow/pkg/agents"
	"github.com/avi3tal/emflow/pkg/checkpoints"
	"github.com/avi3tal/emflow/pkg/types"
)

type ReviewState struct {
	Kind     string   `json:"kind"`
	Trail    []string `json:"trail"`
	Approved bool     `json:"approved"`
}

func (s ReviewState) Validate() error { return nil }

func (s ReviewState) Merge(other ReviewState) ReviewState {
	if s.Kind != "" {
		other.Kind = s.Kind
	}
	return other
}

func step(name string) *agents.BaseAgent[ReviewState] {
	return agents.NewSimpleAgent[ReviewState](name,
		func(_ context.Context, s ReviewState, _ types.Config[ReviewState]) (types.NodeResponse[ReviewState], error) {
			s.Trail = append(append([]string(nil), s.Trail...), name)
			return types.Completed(s), nil
		}, nil)
}

func approver() *agents.BaseAgent[ReviewState] {
	return agents.NewSuspendingAgent[ReviewState]("approve",
		func(_ context.Context, s ReviewState, cfg types.Config[ReviewState]) (types.NodeResponse[ReviewState], error) {
			var ok bool
			answered, err := cfg.ResumeValue(0, &ok)
			if err != nil {
				return types.NodeResponse[ReviewState]{}, err
			}
			if !answered {
				return types.Suspend(s, "approve", "Approve?", s.Trail), nil
			}
			s.Approved = ok
			s.Trail = append(append([]string(nil), s.Trail...), "approve")
			return types.Completed(s), nil
		})
}

func buildReview(t *testing.T) *Builder[ReviewState] {
	t.Helper()
	wf := NewBuilder[ReviewState]("review", graph.WithGraphID("review"))

	classify := step("classify")
	short := step("short")
	long := step("long")
	publish := step("publish")
	discard := step("discard")

	route := func(_ context.Context, s ReviewState, _ types.Config[ReviewState]) (string, error) {
		return s.Kind, nil
	}
	require.NoError(t, wf.AddAgent(classify).
		AsEntryPoint().
		OnCondition(route, map[string]Agent[ReviewState]{"short": short, "long": long}).
		Err())
	require.NoError(t, wf.From(short).End())
	require.NoError(t, wf.From(long).
		Then(approver()).
		ThenIf(func(_ context.Context, s ReviewState, _ types.Config[ReviewState]) bool {
			return s.Approved
		}, publish, discard).
		End())
	return wf
}

type recordingCallback struct {
	mu        sync.Mutex
	completed []types.NodeExecutionStatus
	errs      []error
}

func (c *recordingCallback) OnComplete(_ context.Context, out types.NodeResponse[ReviewState]) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = append(c.completed, out.Status)
	return nil
}

func (c *recordingCallback) OnError(_ context.Context, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
	return nil
}

func TestBuilderShortBranch(t *testing.T) {
	t.Parallel()
	app, err := NewApp(buildReview(t))
	require.NoError(t, err)

	out, err := app.Invoke(context.Background(), ReviewState{Kind: "short"})
	require.NoError(t, err)
	require.Equal(t, types.StatusCompleted, out.Status)
	require.Equal(t, []string{"classify", "short"}, out.State.Trail)
}

func TestBuilderSuspendAndResume(t *testing.T) {
	t.Parallel()
	cb := &recordingCallback{}
	app, err := NewApp(buildReview(t),
		WithCheckpointStore[ReviewState](checkpoints.NewMemoryStore[ReviewState]()),
		WithCallback[ReviewState](cb),
		WithDebug[ReviewState](),
		WithCompilationOptions(graph.WithMaxSteps[ReviewState](10)),
	)
	require.NoError(t, err)

	ctx := context.Background()
	thread := graph.WithThreadID[ReviewState]("doc-1")

	out, err := app.Invoke(ctx, ReviewState{Kind: "long"}, thread)
	require.NoError(t, err)
	require.Equal(t, types.StatusPending, out.Status)
	require.Equal(t, "approve", out.Interrupt.Kind)
	require.Equal(t, []string{"classify", "long"}, out.Interrupt.Data)

	pending, err := app.Pending(ctx, thread)
	require.NoError(t, err)
	require.Equal(t, "approve", pending.Kind)

	out, err = app.Resume(ctx, true, thread)
	require.NoError(t, err)
	require.Equal(t, types.StatusCompleted, out.Status)
	require.Equal(t, []string{"classify", "long", "approve", "publish"}, out.State.Trail)

	_, err = app.Resume(ctx, true, thread)
	require.ErrorIs(t, err, graph.ErrThreadNotFound)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	require.Equal(t, []types.NodeExecutionStatus{types.StatusPending, types.StatusCompleted}, cb.completed)
	require.Len(t, cb.errs, 1)
}

func TestBuilderRejectsUnknownBranch(t *testing.T) {
	t.Parallel()
	app, err := NewApp(buildReview(t))
	require.NoError(t, err)

	_, err = app.Invoke(context.Background(), ReviewState{Kind: "medium"})
	require.ErrorIs(t, err, ErrUnknownBranch)
}

func TestBuilderErrors(t *testing.T) {
	t.Parallel()

	t.Run("FromUnknownAgent", func(t *testing.T) {
		t.Parallel()
		wf := NewBuilder[ReviewState]("x")
		require.ErrorIs(t, wf.From(step("ghost")).End(), graph.ErrNodeNotFound)
	})

	t.Run("DuplicateAgent", func(t *testing.T) {
		t.Parallel()
		wf := NewBuilder[ReviewState]("x")
		a := step("a")
		require.NoError(t, wf.AddAgent(a).Err())
		require.ErrorIs(t, wf.AddAgent(a).Err(), graph.ErrDuplicateNode)
	})

	t.Run("ThenReusesExistingAgent", func(t *testing.T) {
		t.Parallel()
		wf := NewBuilder[ReviewState]("x")
		a, b := step("a"), step("b")
		require.NoError(t, wf.AddAgent(b).Err())
		require.NoError(t, wf.AddAgent(a).AsEntryPoint().Then(b).End())
		_, err := wf.Compile()
		require.NoError(t, err)
	})

	t.Run("IncompleteGraph", func(t *testing.T) {
		t.Parallel()
		wf := NewBuilder[ReviewState]("x")
		require.NoError(t, wf.AddAgent(step("a")).AsEntryPoint().Err())
		_, err := NewApp(wf)
		require.ErrorIs(t, err, graph.ErrNoEndPoint)
	})

	t.Run("ErrorsStickToTheChain", func(t *testing.T) {
		t.Parallel()
		wf := NewBuilder[ReviewState]("x")
		boom := errors.New("boom")
		fa := &FlowAgent[ReviewState]{wf: wf, agent: step("a"), err: boom}
		require.ErrorIs(t, fa.Then(step("b")).End(), boom)
	})
}

func TestSuspendingAgentMetadata(t *testing.T) {
	t.Parallel()
	a := approver()
	require.Equal(t, true, a.Metadata()[agents.MetaSuspends])
	require.Nil(t, step("x").Metadata())
}
