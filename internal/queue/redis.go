package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisQueue is the production TaskQueue: a redis list for delivery and
// SETNX markers for enqueue dedup. Tasks survive server restarts.
type RedisQueue struct {
	client   *redis.Client
	key      string
	dedupTTL time.Duration
	logger   *zap.Logger
}

func NewRedisQueue(client *redis.Client, key string, logger *zap.Logger) *RedisQueue {
	return &RedisQueue{
		client: client,
		key:    key,
		// Dedup markers outlive any realistic job runtime, then expire so
		// an operator can force a re-run the next day
		dedupTTL: 24 * time.Hour,
		logger:   logger,
	}
}

func (q *RedisQueue) EnqueueOnce(ctx context.Context, dedupKey string, task Task) (bool, error) {
	ok, err := q.client.SetNX(ctx, q.key+":dedup:"+dedupKey, 1, q.dedupTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set dedup marker: %w", err)
	}
	if !ok {
		return false, nil
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return false, fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		// Roll the marker back so the task can be enqueued again
		q.client.Del(ctx, q.key+":dedup:"+dedupKey)
		return false, fmt.Errorf("failed to push task: %w", err)
	}

	q.logger.Debug("Task enqueued",
		zap.String("type", task.Type),
		zap.String("dedup_key", dedupKey))
	return true, nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop task: %w", err)
	}
	if len(res) < 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply length %d", len(res))
	}

	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}
