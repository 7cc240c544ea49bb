package checkpoints

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/avi3tal/emflow/pkg/state"
	"github.com/avi3tal/emflow/pkg/types"
)

// DefaultCheckpointBucket is the JetStream KV bucket used for checkpoints.
const DefaultCheckpointBucket = "EMFLOW_CHECKPOINTS"

// KVStore keeps checkpoints in a JetStream key-value bucket under <graph_id>.<thread_id>.
type KVStore[T state.GraphState[T]] struct {
	bucket jetstream.KeyValue
}

// NewKVStore creates or updates the bucket and returns a store backed by it.
// A zero ttl keeps checkpoints forever.
func NewKVStore[T state.GraphState[T]](ctx context.Context, js jetstream.JetStream, bucket string, ttl time.Duration) (*KVStore[T], error) {
	if bucket == "" {
		bucket = DefaultCheckpointBucket
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Workflow checkpoints keyed by graph and thread",
		TTL:         ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("create/update kv bucket: %w", err)
	}
	return &KVStore[T]{bucket: kv}, nil
}

// kvKey maps a checkpoint key onto the KV key alphabet. Each part is base64url
// encoded so distinct keys never share a KV key.
func kvKey(key types.CheckpointKey) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(key.GraphID)) + "." + enc.EncodeToString([]byte(key.ThreadID))
}

func (k *KVStore[T]) Save(ctx context.Context, checkpoint types.Checkpoint[T]) error {
	if prev, err := k.Load(ctx, checkpoint.Key); err == nil {
		checkpoint.Meta.CreatedAt = prev.Meta.CreatedAt
	}
	checkpoint.Meta.UpdatedAt = time.Now()

	data, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if _, err := k.bucket.Put(ctx, kvKey(checkpoint.Key), data); err != nil {
		return fmt.Errorf("put checkpoint: %w", err)
	}
	return nil
}

func (k *KVStore[T]) Load(ctx context.Context, key types.CheckpointKey) (*types.Checkpoint[T], error) {
	entry, err := k.bucket.Get(ctx, kvKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", types.ErrCheckpointNotFound, key.GraphID, key.ThreadID)
	}
	if err != nil {
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}

	return decodeCheckpoint[T](key, entry.Value())
}

// decodeCheckpoint unmarshals a stored value and rejects one saved under another key.
func decodeCheckpoint[T state.GraphState[T]](key types.CheckpointKey, data []byte) (*types.Checkpoint[T], error) {
	var cp types.Checkpoint[T]
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	if cp.Key != key {
		return nil, fmt.Errorf("%w: %s/%s", types.ErrCheckpointNotFound, key.GraphID, key.ThreadID)
	}
	return &cp, nil
}

func (k *KVStore[T]) Delete(ctx context.Context, key types.CheckpointKey) error {
	err := k.bucket.Delete(ctx, kvKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}
