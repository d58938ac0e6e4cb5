package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginAttemptKeyPrefix = "login:attempts:"

// LoginThrottle counts failed login attempts per email inside a rolling
// window. The counter lives in Redis so every instance shares it.
type LoginThrottle struct {
	client *redis.Client
	max    int
	window time.Duration
}

// NewLoginThrottle constructs a throttle.
func NewLoginThrottle(client *redis.Client, max int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{client: client, max: max, window: window}
}

func (t *LoginThrottle) key(email string) string {
	return loginAttemptKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// RegisterFailure increments the failure counter. The expiry is set when the
// first failure of a window is recorded.
func (t *LoginThrottle) RegisterFailure(ctx context.Context, email string) error {
	if t == nil || t.client == nil {
		return nil
	}
	key := t.key(email)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("increment login attempts: %w", err)
	}
	if count == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			return fmt.Errorf("expire login attempts: %w", err)
		}
	}
	return nil
}

// TooManyFailures reports whether the email has exhausted its attempts.
// A Redis outage does not lock users out.
func (t *LoginThrottle) TooManyFailures(ctx context.Context, email string) (bool, error) {
	if t == nil || t.client == nil {
		return false, nil
	}
	count, err := t.client.Get(ctx, t.key(email)).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return count >= t.max, nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, email string) error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Del(ctx, t.key(email)).Err()
}
