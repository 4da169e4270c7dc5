package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newswire/newswire/pkg/feed"
)

// RedisConfig holds configuration for a Redis-backed queue.
type RedisConfig struct {
	// KeyPrefix prefixes all Redis keys used by the queue.
	KeyPrefix string

	// Capacity is the maximum number of queued envelopes.
	Capacity int

	// BlockTimeout bounds each BRPOP wait so cancellation stays responsive.
	BlockTimeout time.Duration

	// EnableDedup rejects envelopes whose id is already queued.
	EnableDedup bool

	// DedupTTL expires dedup entries so a lost dequeue cannot block an id
	// forever. Zero disables expiry.
	DedupTTL time.Duration
}

// Validate validates the Redis queue configuration.
func (c *RedisConfig) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("queue capacity must be positive, got %d", c.Capacity)
	}
	if c.BlockTimeout <= 0 {
		return fmt.Errorf("block timeout must be positive, got %v", c.BlockTimeout)
	}
	return nil
}

// redisEnvelope is the JSON structure stored in the Redis list.
type redisEnvelope struct {
	Envelope   *feed.Envelope `json:"envelope"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}

// RedisQueue implements Queue on a Redis list (LPUSH/BRPOP for FIFO). It is
// the documented scale-out extension point: several processes can share one
// queue, each still running a single consumer loop.
type RedisQueue struct {
	config  *RedisConfig
	client  redis.Cmdable
	metrics MetricsRecorder

	queueKey string
	dedupKey string

	closed    atomic.Bool
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewRedisQueue creates a Redis-backed queue.
func NewRedisQueue(client redis.Cmdable, config *RedisConfig) (*RedisQueue, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}

	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = "newswire:signals"
	}
	return &RedisQueue{
		config:   config,
		client:   client,
		queueKey: prefix + ":queue",
		dedupKey: prefix + ":dedup",
		closeCh:  make(chan struct{}),
		metrics:  nopMetrics{},
	}, nil
}

// SetMetrics sets the metrics recorder for the queue.
func (q *RedisQueue) SetMetrics(m MetricsRecorder) {
	if m != nil {
		q.metrics = m
	}
}

// Enqueue adds an envelope without blocking on capacity.
func (q *RedisQueue) Enqueue(ctx context.Context, env *feed.Envelope) error {
	if env == nil {
		return fmt.Errorf("envelope cannot be nil")
	}
	if q.closed.Load() {
		return &QueueClosedError{}
	}

	dedupAdded := false
	if q.config.EnableDedup {
		added, err := q.client.SAdd(ctx, q.dedupKey, env.ID).Result()
		if err != nil {
			return fmt.Errorf("dedup check failed: %w", err)
		}
		if added == 0 {
			return &DuplicateError{ID: env.ID}
		}
		dedupAdded = true
		if q.config.DedupTTL > 0 {
			_ = q.client.Expire(ctx, q.dedupKey, q.config.DedupTTL).Err()
		}
	}

	length, err := q.client.LLen(ctx, q.queueKey).Result()
	if err != nil {
		q.rollbackDedup(dedupAdded, env.ID)
		return fmt.Errorf("failed to check queue length: %w", err)
	}
	if length >= int64(q.config.Capacity) {
		q.rollbackDedup(dedupAdded, env.ID)
		return &QueueFullError{Capacity: q.config.Capacity}
	}

	data, err := json.Marshal(redisEnvelope{Envelope: env, EnqueuedAt: time.Now()})
	if err != nil {
		q.rollbackDedup(dedupAdded, env.ID)
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if err := q.client.LPush(ctx, q.queueKey, data).Err(); err != nil {
		q.rollbackDedup(dedupAdded, env.ID)
		return fmt.Errorf("failed to enqueue envelope: %w", err)
	}

	q.metrics.IncQueueDepth()
	return nil
}

func (q *RedisQueue) rollbackDedup(added bool, id string) {
	if !added || !q.config.EnableDedup {
		return
	}
	_ = q.client.SRem(context.Background(), q.dedupKey, id).Err()
}

// TryDequeue removes the oldest envelope without blocking.
func (q *RedisQueue) TryDequeue() (*feed.Envelope, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	data, err := q.client.RPop(ctx, q.queueKey).Result()
	if err != nil {
		return nil, false
	}
	env, ok := q.decode(data)
	return env, ok
}

// Dequeue removes the oldest envelope, blocking until one is available, the
// context is cancelled, or the queue is closed. BRPOP waits are bounded so
// the cancellation check runs at least every BlockTimeout.
func (q *RedisQueue) Dequeue(ctx context.Context) (*feed.Envelope, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.closeCh:
			// Drain remaining items even after close.
			if env, ok := q.TryDequeue(); ok {
				return env, nil
			}
			return nil, &QueueClosedError{}
		default:
		}

		result, err := q.client.BRPop(ctx, q.config.BlockTimeout, q.queueKey).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to dequeue envelope: %w", err)
		}
		if len(result) < 2 {
			continue
		}
		if env, ok := q.decode(result[1]); ok {
			return env, nil
		}
	}
}

// decode unmarshals a stored envelope and records queue metrics.
func (q *RedisQueue) decode(data string) (*feed.Envelope, bool) {
	var re redisEnvelope
	if err := json.Unmarshal([]byte(data), &re); err != nil || re.Envelope == nil {
		return nil, false
	}
	if q.config.EnableDedup {
		_ = q.client.SRem(context.Background(), q.dedupKey, re.Envelope.ID).Err()
	}
	q.metrics.DecQueueDepth()
	q.metrics.RecordQueueWait(time.Since(re.EnqueuedAt))
	return re.Envelope, true
}

// Len returns the number of queued envelopes.
func (q *RedisQueue) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	length, err := q.client.LLen(ctx, q.queueKey).Result()
	if err != nil {
		return 0
	}
	return int(length)
}

// Cap returns the queue capacity.
func (q *RedisQueue) Cap() int {
	return q.config.Capacity
}

// Close stops the queue from accepting new envelopes.
func (q *RedisQueue) Close() error {
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		close(q.closeCh)
	})
	return nil
}
