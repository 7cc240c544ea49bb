package checkpoints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avi3tal/emflow/pkg/state"
	"github.com/avi3tal/emflow/pkg/types"
)

// PostgresSchema creates the checkpoint table.
const PostgresSchema = `CREATE TABLE IF NOT EXISTS workflow_checkpoints (
	graph_id   TEXT NOT NULL,
	thread_id  TEXT NOT NULL,
	node_id    TEXT NOT NULL,
	status     TEXT NOT NULL,
	steps      INTEGER NOT NULL DEFAULT 0,
	state      JSONB NOT NULL,
	meta       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (graph_id, thread_id)
)`

// PostgresStore keeps one row per thread in workflow_checkpoints.
type PostgresStore[T state.GraphState[T]] struct {
	pool *pgxpool.Pool
}

func NewPostgresStore[T state.GraphState[T]](pool *pgxpool.Pool) *PostgresStore[T] {
	return &PostgresStore[T]{pool: pool}
}

// EnsureSchema creates the checkpoint table when missing.
func (p *PostgresStore[T]) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("failed to create checkpoint table: %w", err)
	}
	return nil
}

func (p *PostgresStore[T]) Save(ctx context.Context, checkpoint types.Checkpoint[T]) error {
	stateJSON, err := json.Marshal(checkpoint.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	metaJSON, err := json.Marshal(checkpoint.Meta)
	if err != nil {
		return fmt.Errorf("failed to marshal meta: %w", err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO workflow_checkpoints (graph_id, thread_id, node_id, status, steps, state, meta)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (graph_id, thread_id) DO UPDATE
		 SET node_id = $3, status = $4, steps = $5, state = $6, meta = $7, updated_at = NOW()`,
		checkpoint.Key.GraphID, checkpoint.Key.ThreadID, checkpoint.NodeID,
		string(checkpoint.Meta.Status), checkpoint.Meta.Steps, stateJSON, metaJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert checkpoint: %w", err)
	}
	return nil
}

func (p *PostgresStore[T]) Load(ctx context.Context, key types.CheckpointKey) (*types.Checkpoint[T], error) {
	var (
		nodeID             string
		stateJSON, metaRaw []byte
		createdAt, updated time.Time
	)
	err := p.pool.QueryRow(ctx,
		`SELECT node_id, state, meta, created_at, updated_at
		 FROM workflow_checkpoints WHERE graph_id = $1 AND thread_id = $2`,
		key.GraphID, key.ThreadID,
	).Scan(&nodeID, &stateJSON, &metaRaw, &createdAt, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", types.ErrCheckpointNotFound, key.GraphID, key.ThreadID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	cp := &types.Checkpoint[T]{Key: key, NodeID: nodeID}
	if err := json.Unmarshal(stateJSON, &cp.State); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if err := json.Unmarshal(metaRaw, &cp.Meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meta: %w", err)
	}
	cp.Meta.CreatedAt = createdAt
	cp.Meta.UpdatedAt = updated
	return cp, nil
}

func (p *PostgresStore[T]) Delete(ctx context.Context, key types.CheckpointKey) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM workflow_checkpoints WHERE graph_id = $1 AND thread_id = $2`,
		key.GraphID, key.ThreadID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}
