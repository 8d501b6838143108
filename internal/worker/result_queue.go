package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizgen/internal/config"
	"github.com/stemsi/quizgen/internal/model"
)

// ResultQueue is the Redis list between finished quizzes and the ResultWorker.
type ResultQueue struct {
	rdb *redis.Client
}

func NewResultQueue(rdb *redis.Client) *ResultQueue {
	return &ResultQueue{rdb: rdb}
}

// Enqueue appends rec to the results queue for the ResultWorker.
func (q *ResultQueue) Enqueue(ctx context.Context, rec model.ResultRecord) error {
	raw, err := EncodeResult(rec)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		return fmt.Errorf("push result: %w", err)
	}
	return nil
}

// Pop blocks up to timeout for the next queued payload.
func (q *ResultQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	item, err := q.rdb.BLPop(ctx, timeout, config.WorkerKey.PersistResultsQueue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop result: %w", err)
	}
	if len(item) < 2 {
		return nil, nil
	}
	return []byte(item[1]), nil
}
