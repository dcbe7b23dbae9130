package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"brewspot/config"
)

// ErrNotHeld is returned by Release when the lock expired or belongs to someone else.
var ErrNotHeld = errors.New("lock not held")

const keyPrefix = "brewspot:ai_meta:lock:"

// Key 는 리스팅 ID 별 락 키를 만든다.
func Key(listingID string) string {
	return keyPrefix + listingID
}

// compare-and-delete: 토큰이 일치할 때만 삭제한다.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes AI metadata generation per listing across processor
// instances. A lock expires on its own after ttl.
type RedisLocker struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLocker{rdb: rdb, ttl: ttl}
}

// NewClient opens a standalone client from config and pings it.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// Acquire tries once to take the lock for listingID.
// ok is false when another holder has it; err reports backend failures.
func (l *RedisLocker) Acquire(ctx context.Context, listingID string) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = l.rdb.SetNX(ctx, Key(listingID), token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire lock %s: %w", listingID, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release deletes the lock only if token still owns it.
func (l *RedisLocker) Release(ctx context.Context, listingID, token string) error {
	n, err := releaseScript.Run(ctx, l.rdb, []string{Key(listingID)}, token).Int()
	if err != nil {
		return fmt.Errorf("release lock %s: %w", listingID, err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}
