package redistools

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultMaxWait = time.Second * 10

// Connect pings rdb until it answers or maxWait elapses. Under compose the
// cache may come up after the service, so early failures are retried with a
// growing delay. maxWait <= 0 selects the default ceiling.
func Connect(ctx context.Context, rdb *redis.Client, maxWait time.Duration) error {
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}

	deadline := time.Now().Add(maxWait)
	delay := time.Second

	for {
		err := rdb.Ping(ctx).Err()
		if err == nil {
			return nil
		}

		if !time.Now().Before(deadline) {
			return fmt.Errorf("cannot ping redis db error: %w", err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("context error: %w", ctx.Err())
		case <-time.After(delay):
		}

		delay += time.Second
	}
}
