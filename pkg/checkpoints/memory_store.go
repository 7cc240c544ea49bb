package checkpoints

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avi3tal/emflow/pkg/state"
	"github.com/avi3tal/emflow/pkg/types"
)

type MemoryStore[T state.GraphState[T]] struct {
	checkpoints map[types.CheckpointKey]*types.Checkpoint[T]
	mu          sync.RWMutex
}

func NewMemoryStore[T state.GraphState[T]]() *MemoryStore[T] {
	return &MemoryStore[T]{
		checkpoints: make(map[types.CheckpointKey]*types.Checkpoint[T]),
	}
}

func (m *MemoryStore[T]) Save(_ context.Context, checkpoint types.Checkpoint[T]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.checkpoints[checkpoint.Key]; ok {
		checkpoint.Meta.CreatedAt = prev.Meta.CreatedAt
	}
	checkpoint.Meta.UpdatedAt = time.Now()
	m.checkpoints[checkpoint.Key] = &checkpoint
	return nil
}

func (m *MemoryStore[T]) Load(_ context.Context, key types.CheckpointKey) (*types.Checkpoint[T], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, exists := m.checkpoints[key]
	if !exists {
		return nil, fmt.Errorf("%w: %s/%s", types.ErrCheckpointNotFound, key.GraphID, key.ThreadID)
	}
	out := *cp
	return &out, nil
}

func (m *MemoryStore[T]) Delete(_ context.Context, key types.CheckpointKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.checkpoints, key)
	return nil
}

// Len reports how many threads are stored.
func (m *MemoryStore[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.checkpoints)
}
