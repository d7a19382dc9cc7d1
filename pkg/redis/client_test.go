package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/friotec/fieldservice-backend/pkg/config"
)

func TestFixedWindowAllowCountsWithinWindow(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommands()
	client := &Client{cmd: fake}

	for i, want := range []bool{true, true, false} {
		allowed, count, err := client.FixedWindowAllow(ctx, "login:ip:10.0.0.1", 2, time.Minute)
		require.NoError(t, err)
		require.Equal(t, want, allowed, "hit %d", i+1)
		require.EqualValues(t, i+1, count)
	}
	require.Equal(t, time.Minute, fake.ttl["fs:rate_limit:login:ip:10.0.0.1"])
	require.Equal(t, 1, fake.expireSet, "only the first hit sets the deadline")
}

func TestNextSequenceResumesFromSeed(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommands()
	client := &Client{cmd: fake}

	seeds := 0
	seed := func(context.Context) (int64, error) {
		seeds++
		return 41, nil
	}

	first, err := client.NextSequence(ctx, "service_order_code", seed)
	require.NoError(t, err)
	second, err := client.NextSequence(ctx, "service_order_code", seed)
	require.NoError(t, err)

	require.EqualValues(t, 42, first)
	require.EqualValues(t, 43, second)
	require.Equal(t, 1, seeds)
	require.Equal(t, "43", fake.data["fs:counter:service_order_code"])
}

func TestNextSequenceSeedFailure(t *testing.T) {
	client := &Client{cmd: newFakeCommands()}
	_, err := client.NextSequence(context.Background(), "service_order_code", func(context.Context) (int64, error) {
		return 0, errors.New("db down")
	})
	require.ErrorContains(t, err, "seed sequence service_order_code")
}

func TestRaiseCounterOnlyMovesUp(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommands()
	client := &Client{Keyspace: DefaultKeyspace, cmd: fake}

	prev, raised, err := client.RaiseCounter(ctx, "service_order_code", 42)
	require.NoError(t, err)
	require.EqualValues(t, -1, prev)
	require.True(t, raised)
	require.Equal(t, "42", fake.data["fs:counter:service_order_code"])

	next, err := client.NextSequence(ctx, "service_order_code", nil)
	require.NoError(t, err)
	require.EqualValues(t, 43, next)

	prev, raised, err = client.RaiseCounter(ctx, "service_order_code", 42)
	require.NoError(t, err)
	require.EqualValues(t, 43, prev)
	require.False(t, raised)
	require.Equal(t, "43", fake.data["fs:counter:service_order_code"])

	fake.data["fs:counter:service_order_code"] = "abc"
	_, _, err = client.RaiseCounter(ctx, "service_order_code", 50)
	require.ErrorContains(t, err, "raise sequence service_order_code")
	require.Equal(t, 3, fake.evals["fs:counter:service_order_code"])
}

func TestClientWithoutConnection(t *testing.T) {
	client := &Client{}
	require.ErrorIs(t, client.Ping(context.Background()), errNotConnected)
	_, err := client.NextSequence(context.Background(), "x", nil)
	require.ErrorIs(t, err, errNotConnected)
	_, _, err = client.FixedWindowAllow(context.Background(), "x", 1, time.Second)
	require.ErrorIs(t, err, errNotConnected)
	_, _, err = client.RaiseCounter(context.Background(), "x", 1)
	require.ErrorIs(t, err, errNotConnected)
	require.NoError(t, client.Close())
}

func TestKeyspace(t *testing.T) {
	var zero Keyspace
	cases := map[string]string{
		DefaultKeyspace.IdempotencyKey("http", "abc"):    "fs:idempotency:http:abc",
		DefaultKeyspace.IdempotencyKey("http", " "):      "fs:idempotency:http",
		DefaultKeyspace.RateLimitKey("register"):         "fs:rate_limit:register",
		DefaultKeyspace.CounterKey("service_order_code"): "fs:counter:service_order_code",
		DefaultKeyspace.AccessSessionKey("a1"):           "fs:session:access:a1",
		Keyspace("fs-staging").LockKey("cron-worker"):    "fs-staging:lock:cron-worker",
		zero.LockKey("cron-worker"):                      "fs:lock:cron-worker",
	}
	for got, want := range cases {
		require.Equal(t, want, got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/3", PoolSize: 7, DB: 5})
	require.NoError(t, err)
	require.Equal(t, 3, opts.DB, "db from the url wins")
	require.Equal(t, 7, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 2, DialTimeout: time.Second})
	require.NoError(t, err)
	require.Equal(t, "cache:6379", opts.Addr)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, time.Second, opts.DialTimeout)
}

type fakeCommands struct {
	data      map[string]string
	ttl       map[string]time.Duration
	expireSet int
	evals     map[string]int
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{data: map[string]string{}, ttl: map[string]time.Duration{}, evals: map[string]int{}}
}

func (f *fakeCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeCommands) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCommands) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCommands) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func (f *fakeCommands) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	if _, ok := f.ttl[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.ttl[key] = ttl
	f.expireSet++
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.data, key)
		delete(f.ttl, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeCommands) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

// Eval emulates raiseCounterLua, the only script the client runs.
func (f *fakeCommands) Eval(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	key := keys[0]
	f.evals[key]++
	floor := args[0].(int64)
	current := int64(-1)
	if raw, ok := f.data[key]; ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return redis.NewCmdResult(nil, errors.New("ERR counter is not an integer"))
		}
		current = n
	}
	if current < floor {
		f.data[key] = strconv.FormatInt(floor, 10)
	}
	return redis.NewCmdResult(current, nil)
}
