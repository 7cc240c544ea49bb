package timesheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/avi3tal/emflow/internal/classifier"
	"github.com/avi3tal/emflow/internal/graph"
	"github.com/avi3tal/emflow/internal/store"
	"github.com/avi3tal/emflow/pkg/checkpoints"
	"github.com/avi3tal/emflow/pkg/types"
	"github.com/avi3tal/emflow/pkg/workflow"
)

// Observer receives per-step and per-turn measurements.
type Observer interface {
	ObserveStep(node string, status types.NodeExecutionStatus, elapsed time.Duration)
	ObserveTurn(status string)
	AddSubmitted(n int)
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	store           types.CheckpointStore[WorkflowState]
	logger          *slog.Logger
	now             func() time.Time
	maxSteps        int
	timeout         time.Duration
	debug           bool
	observer        Observer
	gateConcurrency int
}

// WithCheckpointStore persists threads in store. The default keeps them in memory.
func WithCheckpointStore(store types.CheckpointStore[WorkflowState]) Option {
	return func(o *options) { o.store = store }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock fixes "today" for the future-date check.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithMaxSteps(n int) Option {
	return func(o *options) { o.maxSteps = n }
}

// WithTurnTimeout bounds the execution of a single Start or Resume call.
func WithTurnTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithDebug(debug bool) Option {
	return func(o *options) { o.debug = debug }
}

func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithGateConcurrency bounds the parallel store checks of the validation gate.
func WithGateConcurrency(n int) Option {
	return func(o *options) { o.gateConcurrency = n }
}

// StepResult is the outcome of one turn. Status is either an interrupt kind,
// "completed" or "failed".
type StepResult struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    any            `json:"data,omitempty"`
	State   *WorkflowState `json:"-"`
}

// Suspended reports whether the thread waits for another answer.
func (r *StepResult) Suspended() bool {
	return r.Status != string(StageCompleted) && r.Status != string(StageFailed)
}

// ResumePayload carries exactly one answer to the pending question.
type ResumePayload struct {
	SelectedProjects []string          `json:"selected_projects,omitempty"`
	DateSelection    *DateSelection    `json:"date_selection,omitempty"`
	EMDetails        []EntryInput      `json:"em_details,omitempty"`
	Approval         *ApprovalDecision `json:"approval_data,omitempty"`
}

// answer returns the interrupt kind the payload answers and the value to deliver.
func (p ResumePayload) answer() (string, any, error) {
	var (
		kind  string
		value any
		n     int
	)
	if len(p.SelectedProjects) > 0 {
		kind, value = KindSelectProjects, p.SelectedProjects
		n++
	}
	if p.DateSelection != nil {
		kind, value = KindSelectDates, p.DateSelection
		n++
	}
	if len(p.EMDetails) > 0 {
		kind, value = KindCollectEntries, p.EMDetails
		n++
	}
	if p.Approval != nil {
		kind, value = KindApproval, p.Approval
		n++
	}
	switch n {
	case 0:
		return "", nil, fmt.Errorf("%w: no answer given", ErrInvalidPayload)
	case 1:
		return kind, value, nil
	default:
		return "", nil, fmt.Errorf("%w: %d answers given, expected one", ErrInvalidPayload, n)
	}
}

// Controller drives EM threads. Threads are keyed by user id and turns of the
// same thread run one at a time.
type Controller struct {
	app      *workflow.App[WorkflowState]
	logger   *slog.Logger
	observer Observer
	threads  threadLocks
}

// NewController builds and compiles the EM workflow.
func NewController(repo store.Repository, cls classifier.Classifier, opts ...Option) (*Controller, error) {
	o := options{
		logger:          slog.Default(),
		now:             time.Now,
		gateConcurrency: 4,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = checkpoints.NewMemoryStore[WorkflowState]()
	}

	steps := NewSteps(repo, cls, o.logger, o.now)
	steps.gateConcurrency = o.gateConcurrency
	wf, err := BuildWorkflow(steps)
	if err != nil {
		return nil, err
	}

	compileOpts := []graph.CompilationOption[WorkflowState]{graph.WithLogger[WorkflowState](o.logger)}
	if o.maxSteps > 0 {
		compileOpts = append(compileOpts, graph.WithMaxSteps[WorkflowState](o.maxSteps))
	}
	if o.timeout > 0 {
		compileOpts = append(compileOpts, graph.WithTimeout[WorkflowState](timeoutSeconds(o.timeout)))
	}
	appOpts := []workflow.AppOption[WorkflowState]{
		workflow.WithCheckpointStore(o.store),
		workflow.WithCompilationOptions(compileOpts...),
	}
	if o.debug {
		appOpts = append(appOpts, workflow.WithDebug[WorkflowState]())
	}
	if o.observer != nil {
		appOpts = append(appOpts,
			workflow.WithCompilationOptions(graph.WithStepHook[WorkflowState](o.observer.ObserveStep)),
			workflow.WithCallback[WorkflowState](observerCallback{o.observer}),
		)
	}

	app, err := workflow.NewApp(wf, appOpts...)
	if err != nil {
		return nil, err
	}
	return &Controller{app: app, logger: o.logger, observer: o.observer}, nil
}

// Start runs a fresh thread for userID until it suspends or ends. Any thread
// the user had in flight is replaced.
func (c *Controller) Start(ctx context.Context, userID, query string) (*StepResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidPayload)
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	defer c.lock(userID)()

	c.logger.InfoContext(ctx, "starting thread", "user_id", userID)
	out, err := c.app.Invoke(ctx, WorkflowState{UserID: userID, Query: query}, graph.WithThreadID[WorkflowState](userID))
	if err != nil {
		return nil, err
	}
	return toResult(out), nil
}

// Resume delivers payload to the suspended thread of userID.
func (c *Controller) Resume(ctx context.Context, userID string, payload ResumePayload) (*StepResult, error) {
	kind, value, err := payload.answer()
	if err != nil {
		return nil, err
	}
	defer c.lock(userID)()

	pending, err := c.Pending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pending.Kind != kind {
		return nil, fmt.Errorf("%w: thread is waiting for %s, got %s", ErrPayloadMismatch, pending.Kind, kind)
	}

	c.logger.InfoContext(ctx, "resuming thread", "user_id", userID, "answer", kind)
	out, err := c.app.Resume(ctx, value, graph.WithThreadID[WorkflowState](userID))
	if err != nil {
		return nil, unknownThread(userID, err)
	}
	return toResult(out), nil
}

// Pending returns the question the thread of userID is waiting on.
func (c *Controller) Pending(ctx context.Context, userID string) (*types.Interrupt, error) {
	in, err := c.app.Pending(ctx, graph.WithThreadID[WorkflowState](userID))
	if err != nil {
		return nil, unknownThread(userID, err)
	}
	return in, nil
}

// PrintGraph writes a text rendering of the step graph.
func (c *Controller) PrintGraph(w io.Writer) {
	c.app.Graph().Graph().PrintGraph(w)
}

// Mermaid renders the step graph as a mermaid flowchart.
func (c *Controller) Mermaid() string {
	return c.app.Graph().Graph().Mermaid()
}

func (c *Controller) lock(userID string) func() {
	return c.threads.lock(userID)
}

// threadLocks hands out one mutex per thread id while any turn holds or waits on it.
type threadLocks struct {
	mu    sync.Mutex
	locks map[string]*threadLock
}

type threadLock struct {
	sync.Mutex
	refs int
}

func (t *threadLocks) lock(id string) func() {
	t.mu.Lock()
	if t.locks == nil {
		t.locks = make(map[string]*threadLock)
	}
	l, ok := t.locks[id]
	if !ok {
		l = &threadLock{}
		t.locks[id] = l
	}
	l.refs++
	t.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		t.mu.Lock()
		defer t.mu.Unlock()
		if l.refs--; l.refs == 0 {
			delete(t.locks, id)
		}
	}
}

func (t *threadLocks) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}

// timeoutSeconds rounds d up to whole seconds so a sub-second timeout stays enabled.
func timeoutSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

func unknownThread(userID string, err error) error {
	if errors.Is(err, graph.ErrThreadNotFound) {
		return fmt.Errorf("%w: %s: %w", ErrUnknownThread, userID, err)
	}
	return err
}

func resultStatus(out types.NodeResponse[WorkflowState]) string {
	switch {
	case out.Status == types.StatusPending && out.Interrupt != nil:
		return out.Interrupt.Kind
	case out.Status == types.StatusFailed || out.State.Stage == StageFailed:
		return string(StageFailed)
	default:
		return string(StageCompleted)
	}
}

func toResult(out types.NodeResponse[WorkflowState]) *StepResult {
	st := out.State
	res := &StepResult{Status: resultStatus(out), State: &st}
	if out.Status == types.StatusPending && out.Interrupt != nil {
		res.Message = out.Interrupt.Message
		res.Data = out.Interrupt.Data
		return res
	}
	res.Data = &st
	res.Message = st.FinalMessage
	if res.Message == "" {
		res.Message = "Workflow completed successfully"
	}
	return res
}

type observerCallback struct {
	obs Observer
}

func (c observerCallback) OnComplete(_ context.Context, out types.NodeResponse[WorkflowState]) error {
	c.obs.ObserveTurn(resultStatus(out))
	if out.Status == types.StatusCompleted && out.State.Stage == StageCompleted {
		c.obs.AddSubmitted(out.State.InsertedCount)
	}
	return nil
}

func (c observerCallback) OnError(_ context.Context, _ error) error {
	c.obs.ObserveTurn("error")
	return nil
}
