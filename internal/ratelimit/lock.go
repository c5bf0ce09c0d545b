package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned by acquireLock while another holder owns the key.
var ErrLockHeld = errors.New("lock_held")

// unlockScript deletes the key only while it still holds our token, so an
// expired lock that was taken over is left alone.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// lock is an exclusive redis lock that expires on its own after ttl.
type lock struct {
	client redis.Cmdable
	key    string
	token  string
}

func acquireLock(ctx context.Context, client redis.Cmdable, key string, ttl time.Duration) (*lock, error) {
	token := uuid.NewString()
	ok, err := client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &lock{client: client, key: key, token: token}, nil
}

func (l *lock) release(ctx context.Context) error {
	return unlockScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}
