package checkpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avi3tal/emflow/pkg/state"
	"github.com/avi3tal/emflow/pkg/types"
)

// StateCheckpointer manages execution state persistence
type StateCheckpointer[T state.GraphState[T]] struct {
	store types.CheckpointStore[T]
	now   func() time.Time
}

func NewStateCheckpointer[T state.GraphState[T]](store types.CheckpointStore[T]) *StateCheckpointer[T] {
	return &StateCheckpointer[T]{
		store: store,
		now:   time.Now,
	}
}

func (sc *StateCheckpointer[T]) Save(ctx context.Context, config types.Config[T], data *types.DataPoint[T]) error {
	key := types.CheckpointKey{
		GraphID:  config.GraphID,
		ThreadID: config.ThreadID,
	}

	cp := types.Checkpoint[T]{
		Key: key,
		Meta: types.CheckpointMeta{
			ID:        uuid.NewString(),
			CreatedAt: sc.now(),
			Steps:     data.Steps,
			Status:    data.Status,
			Interrupt: data.Interrupt,
			Resumes:   append([]json.RawMessage(nil), data.Resumes...),
		},
		State:  data.State,
		NodeID: data.CurrentNode,
	}

	if err := sc.store.Save(ctx, cp); err != nil {
		return fmt.Errorf("failed to save checkpoint for GraphID %s and ThreadID %s: %w", key.GraphID, key.ThreadID, err)
	}
	return nil
}

func (sc *StateCheckpointer[T]) Load(ctx context.Context, config types.Config[T]) (*types.DataPoint[T], error) {
	key := types.CheckpointKey{
		GraphID:  config.GraphID,
		ThreadID: config.ThreadID,
	}

	cp, err := sc.store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint for GraphID %s and ThreadID %s: %w", key.GraphID, key.ThreadID, err)
	}

	data := &types.DataPoint[T]{
		State:       cp.State,
		CurrentNode: cp.NodeID,
		Status:      cp.Meta.Status,
		Steps:       cp.Meta.Steps,
		Interrupt:   cp.Meta.Interrupt,
		Resumes:     cp.Meta.Resumes,
	}

	return data, nil
}

// Delete drops the checkpoint of a thread. Unknown threads are not an error.
func (sc *StateCheckpointer[T]) Delete(ctx context.Context, config types.Config[T]) error {
	key := types.CheckpointKey{
		GraphID:  config.GraphID,
		ThreadID: config.ThreadID,
	}
	if err := sc.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete checkpoint for GraphID %s and ThreadID %s: %w", key.GraphID, key.ThreadID, err)
	}
	return nil
}
