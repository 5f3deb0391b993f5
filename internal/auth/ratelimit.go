package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRateLimited is returned when a caller exceeded the hourly send limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// SystemCaller is the rate limit key for sends that skip authorization.
const SystemCaller = "system"

const windowTTL = time.Hour + time.Minute

// RateLimiter counts sends per caller in fixed one-hour windows in Redis.
// A nil client or a non-positive limit disables it. System sends have their
// own limit, and a non-positive system limit exempts them.
type RateLimiter struct {
	client      *redis.Client
	limit       int64
	systemLimit int64
	now         func() time.Time
}

// NewRateLimiter creates a RateLimiter allowing limit sends per hour for
// each authenticated caller and systemLimit sends per hour for system sends.
func NewRateLimiter(client *redis.Client, limit, systemLimit int64) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, systemLimit: systemLimit, now: time.Now}
}

func (rl *RateLimiter) limitFor(caller string) int64 {
	if rl == nil || rl.client == nil {
		return 0
	}
	if caller == SystemCaller {
		return rl.systemLimit
	}
	return rl.limit
}

func (rl *RateLimiter) key(caller string) string {
	return fmt.Sprintf("ratelimit:send:%s:%s", caller, rl.now().UTC().Format("2006010215"))
}

// Reservation is one counted send. Cancel gives it back when the send did
// not go out. A nil Reservation is valid and cancels as a no-op.
type Reservation struct {
	client *redis.Client
	key    string
}

// Reserve counts one send for caller and returns ErrRateLimited when that
// goes over the window's limit. The count is taken before the comparison,
// so concurrent callers cannot both pass on the last free slot.
func (rl *RateLimiter) Reserve(ctx context.Context, caller string) (*Reservation, error) {
	limit := rl.limitFor(caller)
	if limit <= 0 {
		return nil, nil
	}

	key := rl.key(caller)
	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, windowTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("reserve send: %w", err)
	}

	count := incr.Val()
	if count > limit {
		if err := rl.client.Decr(ctx, key).Err(); err != nil {
			return nil, fmt.Errorf("%w (%d per hour); undo count: %v", ErrRateLimited, limit, err)
		}
		return nil, fmt.Errorf("%w (%d per hour)", ErrRateLimited, limit)
	}
	return &Reservation{client: rl.client, key: key}, nil
}

// Cancel returns the reserved send to its window.
func (r *Reservation) Cancel(ctx context.Context) error {
	if r == nil {
		return nil
	}
	if err := r.client.Decr(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("cancel send reservation: %w", err)
	}
	return nil
}
