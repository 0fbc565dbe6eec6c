package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisPollTimeout = 5 * time.Second

// RedisQueue is a FIFO on a redis list: LPUSH to publish, BRPOP to consume.
type RedisQueue struct {
	client *redis.Client
	key    string
	log    *zap.Logger
}

func NewRedisQueue(client *redis.Client, key string, log *zap.Logger) *RedisQueue {
	return &RedisQueue{
		client: client,
		key:    key,
		log:    log.With(zap.String("queue", "redis"), zap.String("key", key)),
	}
}

func (q *RedisQueue) Publish(ctx context.Context, job MailJob) error {
	payload, err := encodeJob(job)
	if err != nil {
		return err
	}

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("redis lpush %s: %w", q.key, err)
	}
	return nil
}

func (q *RedisQueue) Consume(ctx context.Context, handle Handler) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		res, err := q.client.BRPop(ctx, redisPollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			q.log.Error("Failed to pop mail job", zap.Error(err))
			if !pause(ctx, readRetryDelay) {
				return nil
			}
			continue
		}

		// BRPOP replies with [key, value]
		if len(res) != 2 {
			continue
		}

		job, err := decodeJob([]byte(res[1]))
		if err != nil {
			q.log.Warn("Dropping malformed mail job", zap.Error(err))
			continue
		}

		if err := handle(ctx, job); err != nil {
			q.log.Warn("Mail job failed", zap.Error(err), zap.String("to", job.To))
		}
	}
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
