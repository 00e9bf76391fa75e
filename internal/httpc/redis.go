package httpc

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisThrottler enforces the same sliding-log admission rule as Throttler,
// but keeps the admission log in a Redis sorted set so several processes can
// share one request budget. Scores are nanosecond timestamps; each admission
// is a unique member.
type RedisThrottler struct {
	Client       redis.UniversalClient
	Key          string
	Rate         RequestRate
	PollInterval time.Duration
	Clock        func() time.Time
}

// Admit attempts a single admission. Entries older than the window are
// trimmed, the candidate is added, and the call is admitted only if the set
// stayed within the limit; otherwise the candidate is removed again.
func (t *RedisThrottler) Admit(ctx context.Context) (bool, error) {
	now := t.now()
	cutoff := strconv.FormatInt(now.Add(-t.Rate.Window).UnixNano(), 10)
	member := uuid.NewString()

	var count *redis.IntCmd
	_, err := t.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, t.Key, "-inf", cutoff)
		pipe.ZAdd(ctx, t.Key, redis.Z{Score: float64(now.UnixNano()), Member: member})
		count = pipe.ZCard(ctx, t.Key)
		pipe.Expire(ctx, t.Key, t.Rate.Window*2)
		return nil
	})
	if err != nil {
		return false, err
	}

	if count.Val() > int64(t.Rate.MaxRequests) {
		if err := t.Client.ZRem(ctx, t.Key, member).Err(); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// Acquire blocks until an admission succeeds or the context is cancelled.
func (t *RedisThrottler) Acquire(ctx context.Context) error {
	ok, err := t.Admit(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	ticker := time.NewTicker(t.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			ok, err := t.Admit(ctx)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
		}
	}
}

func (t *RedisThrottler) now() time.Time {
	if t.Clock != nil {
		return t.Clock()
	}
	return time.Now()
}

func (t *RedisThrottler) pollInterval() time.Duration {
	if t.PollInterval > 0 {
		return t.PollInterval
	}
	return DefaultPollInterval
}
