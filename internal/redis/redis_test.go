package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) *Locker {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set, skipping redis lock test")
	}
	rdb := NewClient(addr, os.Getenv("REDIS_USERNAME"), os.Getenv("REDIS_PASSWORD"))
	if err := Ping(context.Background(), rdb); err != nil {
		t.Skipf("redis not available, skipping test: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return NewLocker(rdb, 5*time.Second)
}

func TestLockerExcludesSecondHolder(t *testing.T) {
	l := newTestLocker(t)
	ctx := context.Background()
	key := uuid.NewString()

	unlock, err := l.Lock(ctx, key)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(short, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()

	again, err := l.Lock(ctx, key)
	require.NoError(t, err)
	again()
}

func TestUnlockDoesNotReleaseSomeoneElsesLock(t *testing.T) {
	l := newTestLocker(t)
	ctx := context.Background()
	key := uuid.NewString()

	unlock, err := l.Lock(ctx, key)
	require.NoError(t, err)

	// simulate expiry and takeover by another holder
	require.NoError(t, l.rdb.Set(ctx, keyPrefix+key, "other", time.Minute).Err())
	unlock()

	val, err := l.rdb.Get(ctx, keyPrefix+key).Result()
	require.NoError(t, err)
	assert.Equal(t, "other", val)
	l.rdb.Del(ctx, keyPrefix+key)
}
