package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ayman482/nile-dose-cafe-website/internal/clock"
	redis "github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// FixedWindow counts hits per key in windows aligned to the clock.
// A nil *FixedWindow allows everything.
type FixedWindow struct {
	client *redis.Client
	limit  int
	window time.Duration
	clock  clock.Clock
}

func NewFixedWindow(client *redis.Client, limit int, window time.Duration, clk clock.Clock) *FixedWindow {
	if client == nil || limit <= 0 || window <= 0 {
		return nil
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &FixedWindow{client: client, limit: limit, window: window, clock: clk}
}

func (f *FixedWindow) Allow(ctx context.Context, key string) (Result, error) {
	if f == nil {
		return Result{Allowed: true}, nil
	}
	if key == "" {
		return Result{}, errors.New("rate limit key is empty")
	}

	now := f.clock.Now()
	bucket := now.UnixNano() / int64(f.window)
	windowEnd := time.Unix(0, (bucket+1)*int64(f.window))
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, bucket)

	pipe := f.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, f.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	count := int(incr.Val())
	res := Result{
		Allowed:   count <= f.limit,
		Limit:     f.limit,
		Remaining: max(f.limit-count, 0),
	}
	if !res.Allowed {
		res.RetryAfter = windowEnd.Sub(now)
	}
	return res, nil
}
