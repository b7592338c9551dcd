package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisQueue stores mail requests in a Redis list: producers LPUSH, the
// worker BRPOPs, so requests are processed oldest first.
type RedisQueue struct {
	rdb redis.Cmdable
	key string
	log logrus.FieldLogger

	// blockFor bounds each BRPOP so cancellation is noticed promptly.
	blockFor time.Duration
}

func NewRedisQueue(rdb redis.Cmdable, key string, log logrus.FieldLogger) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: key, log: log, blockFor: 5 * time.Second}
}

// Publish appends req to the list.
func (q *RedisQueue) Publish(ctx context.Context, req MailRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, q.key, body).Err(); err != nil {
		q.log.WithError(err).Warn("redis-queue: push failed")
		return err
	}
	return nil
}

// Close is a no-op; the client is owned by the caller.
func (q *RedisQueue) Close() error { return nil }

// Run pops requests until ctx is cancelled.  Errors talking to Redis are
// retried with backoff; handler errors are logged and the request dropped.
func (q *RedisQueue) Run(ctx context.Context, h Handler) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res, err := q.rdb.BRPop(ctx, q.blockFor, q.key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			q.log.WithError(err).Warnf("redis-queue: pop failed; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		// BRPOP returns [key, value]
		if len(res) != 2 {
			continue
		}
		if err := handleBody(ctx, []byte(res[1]), h); err != nil {
			q.log.WithError(err).Error("redis-queue: handle request failed")
		}
	}
}
