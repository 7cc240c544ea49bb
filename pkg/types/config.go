package types

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/avi3tal/emflow/pkg/state"
)

// StepHook observes a single node execution.
type StepHook func(node string, status NodeExecutionStatus, elapsed time.Duration)

// Config represents runtime configuration for graph execution
type Config[T state.GraphState[T]] struct {
	GraphID      string          // Unique identifier for the graph
	ThreadID     string          // Unique identifier for this execution thread
	MaxSteps     int             // Maximum number of steps to execute
	Timeout      int             // Timeout in seconds
	Checkpointer Checkpointer[T] // Optional checkpointer for state persistence
	Configurable map[string]any  // Additional configuration parameters
	Debug        bool            // Enable execution tracing
	Logger       *slog.Logger
	StepHook     StepHook // Called after every node execution

	// Resumes holds the answers delivered to the node currently executing, oldest first.
	Resumes []json.RawMessage
}

func (c *Config[T]) Clone() Config[T] {
	return Config[T]{
		GraphID:      c.GraphID,
		ThreadID:     c.ThreadID,
		MaxSteps:     c.MaxSteps,
		Timeout:      c.Timeout,
		Checkpointer: c.Checkpointer,
		Configurable: c.Configurable,
		Debug:        c.Debug,
		Logger:       c.Logger,
		StepHook:     c.StepHook,
		Resumes:      append([]json.RawMessage(nil), c.Resumes...),
	}
}

// Log returns the configured logger or the process default.
func (c *Config[T]) Log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
