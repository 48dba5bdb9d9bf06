package services

import (
	"context"
	"encoding/json"
	"hoa-http-service/internal/infrastructure/config"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// InterfaceRedisService defines the Redis service interface
type InterfaceRedisService interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Locker hands out short-lived exclusive locks. Unlock must be called with the
// token returned by Lock.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// Throttle counts hits per key within a window.
type Throttle interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
}

// NewRedisClient returns a client for the configured Redis, or nil when Redis is disabled
func NewRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.RedisEnabled() {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// NewRedisService creates a new Redis service
func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{Client: client}
}

// 1 Set stores value as JSON with expiration
func (s *RedisService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(ctx, key, jsonValue, expiration).Err()
}

// 2 Get decodes the JSON value at key into dest
func (s *RedisService) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := s.Client.Get(ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// 3 Delete deletes a key
func (s *RedisService) Delete(ctx context.Context, key string) error {
	return s.Client.Del(ctx, key).Err()
}

// 4 Ping checks the connection
func (s *RedisService) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// 5 Lock takes key with SET NX PX
func (s *RedisService) Lock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := s.Client.SetNX(ctx, "lock:"+key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrLockNotAcquired
	}
	return token, nil
}

// 6 Unlock releases key if it is still held with token
func (s *RedisService) Unlock(ctx context.Context, key, token string) error {
	return unlockScript.Run(ctx, s.Client, []string{"lock:" + key}, token).Err()
}

// throttleScript increments KEYS[1] and gives it a TTL of ARGV[1] ms when it
// has none, in one step
var throttleScript = redis.NewScript(`
local count = redis.call("incr", KEYS[1])
if redis.call("pttl", KEYS[1]) < 0 then
	redis.call("pexpire", KEYS[1], ARGV[1])
end
return count`)

// 7 Allow increments the counter of key and reports whether it stays within limit
func (s *RedisService) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := throttleScript.Run(ctx, s.Client, []string{"throttle:" + key}, window.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return count <= int64(limit), nil
}

// MemoryStore implements Locker and Throttle in process memory, used when
// Redis is not configured
type MemoryStore struct {
	mu       sync.Mutex
	now      Clock
	locks    map[string]memoryLock
	counters map[string]memoryCounter
}

type memoryLock struct {
	token   string
	expires time.Time
}

type memoryCounter struct {
	count   int
	expires time.Time
}

// NewMemoryStore returns an empty MemoryStore
func NewMemoryStore(now Clock) *MemoryStore {
	if now == nil {
		now = SystemClock
	}
	return &MemoryStore{
		now:      now,
		locks:    make(map[string]memoryLock),
		counters: make(map[string]memoryCounter),
	}
}

// Lock takes key unless another unexpired holder has it
func (m *MemoryStore) Lock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if l, ok := m.locks[key]; ok && l.expires.After(now) {
		return "", ErrLockNotAcquired
	}
	token := uuid.NewString()
	m.locks[key] = memoryLock{token: token, expires: now.Add(ttl)}
	return token, nil
}

// Unlock releases key if token matches
func (m *MemoryStore) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.locks[key]; ok && l.token == token {
		delete(m.locks, key)
	}
	return nil
}

// Allow counts a hit for key within window
func (m *MemoryStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	c, ok := m.counters[key]
	if !ok || !c.expires.After(now) {
		c = memoryCounter{expires: now.Add(window)}
	}
	c.count++
	m.counters[key] = c
	return c.count <= limit, nil
}
