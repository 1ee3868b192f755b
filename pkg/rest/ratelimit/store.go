package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix namespaces bucket state in Redis.
const RedisKeyPrefix = "guildkit:ratelimit:"

// Store persists bucket state. Get returns (nil, nil) for unknown or expired keys.
type Store interface {
	Get(ctx context.Context, key string) (*BucketState, error)
	Set(ctx context.Context, key string, state *BucketState) error

	// Acquire checks the bucket at now and, when it has capacity and consume
	// is set, takes one request from it in the same step. It returns how long
	// to wait for a drained bucket, 0 otherwise.
	Acquire(ctx context.Context, key string, now time.Time, consume bool) (time.Duration, error)
}

// MemoryStore keeps bucket state in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]BucketState
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]BucketState)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) (*BucketState, error) {
	m.mu.RLock()
	state, ok := m.buckets[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if state.IsExpired(time.Now()) {
		m.mu.Lock()
		// A Set may have replaced the entry since the read lock was released.
		if cur, ok := m.buckets[key]; ok && cur.IsExpired(time.Now()) {
			delete(m.buckets, key)
		}
		m.mu.Unlock()
		return nil, nil
	}
	return &state, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key string, state *BucketState) error {
	if state == nil {
		return fmt.Errorf("bucket state cannot be nil")
	}
	m.mu.Lock()
	m.buckets[key] = *state
	m.mu.Unlock()
	return nil
}

// Acquire implements Store.
func (m *MemoryStore) Acquire(_ context.Context, key string, now time.Time, consume bool) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.buckets[key]
	if !ok {
		return 0, nil
	}
	if state.IsExpired(now) {
		delete(m.buckets, key)
		return 0, nil
	}
	if state.Remaining <= 0 {
		return state.ResetAt.Sub(now), nil
	}
	if consume {
		state.Remaining--
		m.buckets[key] = state
	}
	return 0, nil
}

// RedisStore shares bucket state between processes using the same token.
// Each bucket is a hash with the reset time in Unix milliseconds so that
// Acquire can run as a single script.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: redisClient}
}

// acquireScript returns -1 for an unknown or reset bucket, 0 when a request
// may proceed and otherwise the milliseconds until the reset.
var acquireScript = redis.NewScript(`
local state = redis.call('HMGET', KEYS[1], 'remaining', 'reset_at')
if not state[1] or not state[2] then
	return -1
end
local now = tonumber(ARGV[1])
local reset = tonumber(state[2])
if reset <= now then
	return -1
end
if tonumber(state[1]) > 0 then
	if ARGV[2] == '1' then
		redis.call('HINCRBY', KEYS[1], 'remaining', -1)
	end
	return 0
end
return reset - now
`)

// Get implements Store.
func (r *RedisStore) Get(ctx context.Context, key string) (*BucketState, error) {
	fields, err := r.redis.HGetAll(ctx, RedisKeyPrefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	state, err := decodeState(fields)
	if err != nil {
		return nil, fmt.Errorf("decode bucket state: %w", err)
	}
	if state.IsExpired(time.Now()) {
		return nil, nil
	}
	return state, nil
}

// Set implements Store. Entries expire shortly after the bucket resets.
func (r *RedisStore) Set(ctx context.Context, key string, state *BucketState) error {
	if state == nil {
		return fmt.Errorf("bucket state cannot be nil")
	}

	k := RedisKeyPrefix + key
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k,
			"bucket", state.Bucket,
			"limit", state.Limit,
			"remaining", state.Remaining,
			"reset_at", state.ResetAt.UnixMilli(),
			"last_update", state.LastUpdate.UnixMilli(),
		)
		pipe.PExpireAt(ctx, k, state.ResetAt.Add(time.Second))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Acquire implements Store.
func (r *RedisStore) Acquire(ctx context.Context, key string, now time.Time, consume bool) (time.Duration, error) {
	flag := "0"
	if consume {
		flag = "1"
	}
	ms, err := acquireScript.Run(ctx, r.redis, []string{RedisKeyPrefix + key}, now.UnixMilli(), flag).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis acquire: %w", err)
	}
	if ms <= 0 {
		return 0, nil
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func decodeState(fields map[string]string) (*BucketState, error) {
	ints := make(map[string]int64, 4)
	for _, name := range []string{"limit", "remaining", "reset_at", "last_update"} {
		v, err := strconv.ParseInt(fields[name], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		ints[name] = v
	}
	return &BucketState{
		Bucket:     fields["bucket"],
		Limit:      int(ints["limit"]),
		Remaining:  int(ints["remaining"]),
		ResetAt:    time.UnixMilli(ints["reset_at"]),
		LastUpdate: time.UnixMilli(ints["last_update"]),
	}, nil
}
