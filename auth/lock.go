package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Locker provides a best-effort exclusive lock shared between processes
type Locker interface {
	// TryLock tries to acquire the lock for key. If acquired, the returned
	// release function must be called to free the lock.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

const (
	guestPasswordLockKey = "dlunch:lock:guest_password"
	guestPasswordLockTTL = 30 * time.Second
	lockTimeout          = 5 * time.Second
)

// noopLocker always acquires the lock
type noopLocker struct{}

func (noopLocker) TryLock(context.Context, string, time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}

// releaseScript deletes the key only if it still holds our token
var releaseScript = redis.NewScript(
	`if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`,
)

// RedisLocker implements Locker with redis SET NX PX
type RedisLocker struct {
	client redis.UniversalClient
}

// NewRedisLocker creates a new RedisLocker
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

// TryLock implements the Locker interface
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	tokenBytes := make([]byte, 16)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, false, errors.WithStack(err)
	}
	token := hex.EncodeToString(tokenBytes)
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to acquire lock")
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			log.WithError(err).WithField("key", key).Warn("failed to release lock")
		}
	}
	return release, true, nil
}
