package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/acp-checkout/internal/core/domain"
	"github.com/rl1809/acp-checkout/internal/port"
)

const (
	sessionKeyPrefix  = "checkout:session:"
	lockKeyPrefix     = "checkout:lock:"
	lockRetryInterval = 20 * time.Millisecond
	lockReleaseBudget = 5 * time.Second
)

// releaseLockScript deletes the lock only if it is still held by the caller's token.
var releaseLockScript = redis.NewScript(`
local key = KEYS[1]
local token = ARGV[1]

if redis.call('GET', key) == token then
	return redis.call('DEL', key)
end

return 0
`)

// extendLockScript resets the lease TTL only if the caller still holds it.
var extendLockScript = redis.NewScript(`
local key = KEYS[1]
local token = ARGV[1]
local ttl = ARGV[2]

if redis.call('GET', key) == token then
	return redis.call('PEXPIRE', key, ttl)
end

return 0
`)

// fencedSetScript writes the session only while the lock token is current.
var fencedSetScript = redis.NewScript(`
local lockKey = KEYS[1]
local sessionKey = KEYS[2]
local token = ARGV[1]
local data = ARGV[2]
local ttl = tonumber(ARGV[3])

if redis.call('GET', lockKey) ~= token then
	return 0
end

if ttl > 0 then
	redis.call('SET', sessionKey, data, 'PX', ttl)
else
	redis.call('SET', sessionKey, data)
end

return 1
`)

type RedisAdapter struct {
	client     *redis.Client
	sessionTTL time.Duration
	lockTTL    time.Duration
}

// lease identifies a lock held through this adapter. It travels in the
// context returned by Lock.
type lease struct {
	sessionID string
	token     string
}

type leaseKey struct{}

// NewRedisAdapter stores sessions as JSON documents. A zero sessionTTL keeps
// them until deleted; lockTTL bounds how long a crashed holder blocks a session.
func NewRedisAdapter(client *redis.Client, sessionTTL, lockTTL time.Duration) *RedisAdapter {
	return &RedisAdapter{client: client, sessionTTL: sessionTTL, lockTTL: lockTTL}
}

func (r *RedisAdapter) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &session, nil
}

// Put stores the session. If ctx carries a lease on this session from Lock,
// the write only happens while that lease is still held and returns
// port.ErrLockLost otherwise.
func (r *RedisAdapter) Put(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}

	if l, ok := ctx.Value(leaseKey{}).(*lease); ok && l.sessionID == session.ID {
		keys := []string{lockKey(session.ID), sessionKey(session.ID)}
		written, err := fencedSetScript.Run(ctx, r.client, keys, l.token, data, r.sessionTTL.Milliseconds()).Int()
		if err != nil {
			return fmt.Errorf("redis fenced set failed: %w", err)
		}
		if written == 0 {
			return port.ErrLockLost
		}
		return nil
	}

	if err := r.client.Set(ctx, sessionKey(session.ID), data, r.sessionTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisAdapter) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Lock acquires a lease on the session with SET NX PX, polling until it is
// free or ctx is done. While held, the lease is extended every third of
// lockTTL. It is released with a compare-and-delete so an expired holder
// cannot release someone else's lock.
func (r *RedisAdapter) Lock(ctx context.Context, id string) (context.Context, func(), error) {
	key := lockKey(id)
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.lockTTL).Result()
		if err != nil {
			return nil, nil, fmt.Errorf("redis lock failed: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.keepAlive(key, token, stop, done)

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			close(stop)
			<-done

			releaseCtx, cancel := context.WithTimeout(context.Background(), lockReleaseBudget)
			defer cancel()
			_ = releaseLockScript.Run(releaseCtx, r.client, []string{key}, token).Err()
		})
	}

	return context.WithValue(ctx, leaseKey{}, &lease{sessionID: id, token: token}), unlock, nil
}

// keepAlive extends the lease until stop is closed or the lease is found to
// belong to someone else.
func (r *RedisAdapter) keepAlive(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := max(r.lockTTL/3, lockRetryInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			extended, err := extendLockScript.Run(ctx, r.client, []string{key}, token, r.lockTTL.Milliseconds()).Int()
			cancel()
			if err == nil && extended == 0 {
				return
			}
		}
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func lockKey(id string) string {
	return lockKeyPrefix + id
}
