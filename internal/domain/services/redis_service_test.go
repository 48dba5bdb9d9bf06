package services_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/test/testutil"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLock(t *testing.T) {
	clock := testutil.NewClock(testutil.Start)
	store := services.NewMemoryStore(clock.Now)
	ctx := context.Background()

	token, err := store.Lock(ctx, "job:close-surveys", time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = store.Lock(ctx, "job:close-surveys", time.Minute)
	assert.ErrorIs(t, err, services.ErrLockNotAcquired)

	// Other keys are independent
	_, err = store.Lock(ctx, "job:publish-announcements", time.Minute)
	assert.NoError(t, err)

	require.NoError(t, store.Unlock(ctx, "job:close-surveys", "someone-else"))
	_, err = store.Lock(ctx, "job:close-surveys", time.Minute)
	assert.ErrorIs(t, err, services.ErrLockNotAcquired)

	require.NoError(t, store.Unlock(ctx, "job:close-surveys", token))
	token, err = store.Lock(ctx, "job:close-surveys", time.Minute)
	require.NoError(t, err)

	// An expired lock can be taken over
	clock.Advance(time.Minute)
	second, err := store.Lock(ctx, "job:close-surveys", time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, token, second)
}

func TestMemoryStoreAllow(t *testing.T) {
	clock := testutil.NewClock(testutil.Start)
	store := services.NewMemoryStore(clock.Now)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := store.Allow(ctx, "forgot-password:ada@example.com", 2, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := store.Allow(ctx, "forgot-password:ada@example.com", 2, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Allow(ctx, "forgot-password:bob@example.com", 2, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(time.Hour)
	ok, err = store.Allow(ctx, "forgot-password:ada@example.com", 2, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewRedisClient(t *testing.T) {
	cfg := testutil.Config()
	cfg.RedisHost = ""
	assert.Nil(t, services.NewRedisClient(cfg))

	cfg.RedisHost = "localhost"
	cfg.RedisPort = "6380"
	client := services.NewRedisClient(cfg)
	require.NotNil(t, client)
	defer client.Close()
	assert.Equal(t, "localhost:6380", client.Options().Addr)
}

// recordingHook answers every command with an error instead of reaching Redis
type recordingHook struct {
	cmds [][]interface{}
}

func (h *recordingHook) BeforeProcess(ctx context.Context, cmd redis.Cmder) (context.Context, error) {
	h.cmds = append(h.cmds, cmd.Args())
	if cmd.Name() == "evalsha" {
		return ctx, errors.New("NOSCRIPT No matching script")
	}
	return ctx, errors.New("connection refused")
}

func (h *recordingHook) AfterProcess(ctx context.Context, cmd redis.Cmder) error { return nil }

func (h *recordingHook) BeforeProcessPipeline(ctx context.Context, cmds []redis.Cmder) (context.Context, error) {
	return ctx, nil
}

func (h *recordingHook) AfterProcessPipeline(ctx context.Context, cmds []redis.Cmder) error {
	return nil
}

func TestRedisAllowSetsCounterAndTTLInOneScript(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()
	hook := &recordingHook{}
	client.AddHook(hook)

	ok, err := services.NewRedisService(client).Allow(context.Background(), "forgot-password:ada@example.com", 3, time.Hour)
	assert.EqualError(t, err, "connection refused")
	assert.False(t, ok)

	// EVALSHA falls back to EVAL. Nothing else is sent.
	require.Len(t, hook.cmds, 2)
	assert.Equal(t, "evalsha", hook.cmds[0][0])
	eval := hook.cmds[1]
	require.Len(t, eval, 5)
	assert.Equal(t, "eval", eval[0])
	script := fmt.Sprint(eval[1])
	assert.Contains(t, script, `redis.call("incr", KEYS[1])`)
	assert.Contains(t, script, `redis.call("pexpire", KEYS[1], ARGV[1])`)
	assert.Equal(t, "throttle:forgot-password:ada@example.com", eval[3])
	assert.Equal(t, time.Hour.Milliseconds(), eval[4])
}

// TestRedisAllow runs against the server in HOA_TEST_REDIS_ADDR
func TestRedisAllow(t *testing.T) {
	addr := os.Getenv("HOA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("HOA_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	key := "redis-allow-" + time.Now().Format("150405.000000")
	defer client.Del(ctx, "throttle:"+key)

	store := services.NewRedisService(client)
	for i := 0; i < 2; i++ {
		ok, err := store.Allow(ctx, key, 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := store.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := client.PTTL(ctx, "throttle:"+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	// A counter left without a TTL gets one on the next hit
	require.NoError(t, client.Persist(ctx, "throttle:"+key).Err())
	_, err = store.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	ttl, err = client.PTTL(ctx, "throttle:"+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
