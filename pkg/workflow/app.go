package workflow

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/avi3tal/emflow/internal/graph"
	"github.com/avi3tal/emflow/pkg/state"
	"github.com/avi3tal/emflow/pkg/types"
)

// Callback is invoked after every turn (success or error).
type Callback[T state.GraphState[T]] interface {
	OnComplete(ctx context.Context, output types.NodeResponse[T]) error
	OnError(ctx context.Context, err error) error
}

// App represents a compiled workflow plus optional config like a checkpoint store.
type App[T state.GraphState[T]] struct {
	workflow *Builder[T]
	compiled *graph.CompiledGraph[T]
	callback Callback[T]

	store       types.CheckpointStore[T]
	debug       bool
	compileOpts []graph.CompilationOption[T]
}

// AppOption is a functional option that configures the App before finalizing.
type AppOption[T state.GraphState[T]] func(*App[T])

func WithCallback[T state.GraphState[T]](cb Callback[T]) AppOption[T] {
	return func(a *App[T]) {
		a.callback = cb
	}
}

func WithCheckpointStore[T state.GraphState[T]](store types.CheckpointStore[T]) AppOption[T] {
	return func(a *App[T]) {
		a.store = store
	}
}

func WithDebug[T state.GraphState[T]]() AppOption[T] {
	return func(a *App[T]) {
		a.debug = true
	}
}

// WithCompilationOptions forwards engine options such as step limits or a logger.
func WithCompilationOptions[T state.GraphState[T]](opts ...graph.CompilationOption[T]) AppOption[T] {
	return func(a *App[T]) {
		a.compileOpts = append(a.compileOpts, opts...)
	}
}

// NewApp compiles the Builder and sets up the optional Callback.
func NewApp[T state.GraphState[T]](wf *Builder[T], opts ...AppOption[T]) (*App[T], error) {
	app := &App[T]{workflow: wf}
	for _, opt := range opts {
		opt(app)
	}

	compileOpts := append([]graph.CompilationOption[T](nil), app.compileOpts...)
	if app.store != nil {
		compileOpts = append(compileOpts, graph.WithCheckpointStore(app.store))
	}
	if app.debug {
		compileOpts = append(compileOpts, graph.WithDebug[T]())
	}

	cg, err := wf.Compile(compileOpts...)
	if err != nil {
		return nil, fmt.Errorf("NewApp: failed to compile workflow: %w", err)
	}
	app.compiled = cg

	return app, nil
}

// Invoke starts the workflow from its entry point with the given input.
func (app *App[T]) Invoke(ctx context.Context, input T, execOpts ...graph.ExecutionOption[T]) (types.NodeResponse[T], error) {
	out, err := app.compiled.Run(ctx, input, execOpts...)
	return app.finish(ctx, out, err, "invoke")
}

// Resume answers the pending interrupt of a thread and continues the workflow.
func (app *App[T]) Resume(ctx context.Context, value any, execOpts ...graph.ExecutionOption[T]) (types.NodeResponse[T], error) {
	out, err := app.compiled.Resume(ctx, value, execOpts...)
	return app.finish(ctx, out, err, "resume")
}

// Pending returns the interrupt a thread is currently suspended on.
func (app *App[T]) Pending(ctx context.Context, execOpts ...graph.ExecutionOption[T]) (*types.Interrupt, error) {
	return app.compiled.Pending(ctx, execOpts...)
}

// Snapshot returns the last checkpoint of a thread.
func (app *App[T]) Snapshot(ctx context.Context, execOpts ...graph.ExecutionOption[T]) (*types.DataPoint[T], error) {
	return app.compiled.Snapshot(ctx, execOpts...)
}

// Graph returns the compiled graph.
func (app *App[T]) Graph() *graph.CompiledGraph[T] {
	return app.compiled
}

func (app *App[T]) finish(ctx context.Context, out types.NodeResponse[T], err error, op string) (types.NodeResponse[T], error) {
	if err != nil {
		if app.callback != nil {
			_ = app.callback.OnError(ctx, err)
		}
		return out, errors.Wrapf(err, "%s: workflow failed", op)
	}
	if app.callback != nil {
		if cbErr := app.callback.OnComplete(ctx, out); cbErr != nil {
			return out, fmt.Errorf("%s: callback OnComplete failed: %w", op, cbErr)
		}
	}
	return out, nil
}
