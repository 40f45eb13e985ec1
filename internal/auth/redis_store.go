package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
}

func newRedisStore(client *redis.Client) *redisStore {
	return &redisStore{client: client}
}

// Login throttling

func (r *redisStore) incrLoginFailures(ctx context.Context, email string, window time.Duration) (int64, error) {
	key := loginFailuresKey(email)
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// window starts at the first failure
	if n == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return n, nil
}

func (r *redisStore) resetLoginFailures(ctx context.Context, email string) error {
	return r.client.Del(ctx, loginFailuresKey(email)).Err()
}

func (r *redisStore) lockLogin(ctx context.Context, email string, ttl time.Duration) error {
	pipe := r.client.Pipeline()
	pipe.Set(ctx, loginLockKey(email), "", ttl)
	pipe.Del(ctx, loginFailuresKey(email))
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisStore) isLoginLocked(ctx context.Context, email string) (bool, error) {
	n, err := r.client.Exists(ctx, loginLockKey(email)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Refresh token operations

func (r *redisStore) storeRefreshToken(ctx context.Context, hash, userID string, ttl time.Duration) error {
	return r.client.Set(ctx, refreshTokenKey(hash), userID, ttl).Err()
}

// takeRefreshToken reads and deletes in one step so a token rotates once.
func (r *redisStore) takeRefreshToken(ctx context.Context, hash string) (string, error) {
	return r.client.GetDel(ctx, refreshTokenKey(hash)).Result()
}

func (r *redisStore) deleteRefreshToken(ctx context.Context, hash string) error {
	return r.client.Del(ctx, refreshTokenKey(hash)).Err()
}

func (r *redisStore) ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func loginFailuresKey(email string) string {
	return fmt.Sprintf("login:failures:%s", strings.ToLower(email))
}

func loginLockKey(email string) string {
	return fmt.Sprintf("login:lock:%s", strings.ToLower(email))
}

func refreshTokenKey(hash string) string {
	return fmt.Sprintf("refresh:token:%s", hash)
}
