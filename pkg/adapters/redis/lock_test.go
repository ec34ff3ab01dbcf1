package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_Contract(t *testing.T) {
	_, client := setup(t)
	tests.RunLockerContract(t, redis.NewLocker(client, "test:lock:"))
}

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "test:lock:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "resource1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:lock:resource1"), "Lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:lock:resource1"), "Lock key should be removed after unlock")
}

func TestRedisLocker_StaleUnlockKeepsNewHolder(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "test:lock:")
	ctx := context.Background()

	staleUnlock, err := locker.Lock(ctx, "job", time.Second)
	require.NoError(t, err)

	// the first holder's lease runs out and someone else takes the lock
	mr.FastForward(2 * time.Second)
	_, err = locker.Lock(ctx, "job", 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, staleUnlock(ctx))
	assert.True(t, mr.Exists("test:lock:lock:job"), "stale holder must not release someone else's lock")
}
