package types

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/avi3tal/emflow/pkg/state"
)

// ErrCheckpointNotFound is returned by stores for unknown keys.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

type CheckpointKey struct {
	GraphID  string `json:"graph_id"`
	ThreadID string `json:"thread_id"`
}

type CheckpointMeta struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Steps     int                 `json:"steps"`
	Status    NodeExecutionStatus `json:"status"`
	Interrupt *Interrupt          `json:"interrupt,omitempty"`
	Resumes   []json.RawMessage   `json:"resumes,omitempty"`
}

type Checkpoint[T state.GraphState[T]] struct {
	Key    CheckpointKey  `json:"key"`
	Meta   CheckpointMeta `json:"meta"`
	State  T              `json:"state"`
	NodeID string         `json:"node_id"`
}

// DataPoint is the executor's view of a checkpoint.
type DataPoint[T state.GraphState[T]] struct {
	State       T
	Status      NodeExecutionStatus
	CurrentNode string
	Steps       int
	Interrupt   *Interrupt
	Resumes     []json.RawMessage
}

// Checkpointer handles state persistence with generic type
type Checkpointer[T state.GraphState[T]] interface {
	// Save persists the current state
	Save(ctx context.Context, config Config[T], data *DataPoint[T]) error
	// Load retrieves a previously saved state
	Load(ctx context.Context, config Config[T]) (*DataPoint[T], error)
}

// CheckpointStore interface defines persistent storage operations
type CheckpointStore[T state.GraphState[T]] interface {
	Save(ctx context.Context, checkpoint Checkpoint[T]) error
	Load(ctx context.Context, key CheckpointKey) (*Checkpoint[T], error)
	Delete(ctx context.Context, key CheckpointKey) error
}
