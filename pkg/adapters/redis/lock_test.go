package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/sflsweep/pkg/adapters/redis"
	"github.com/aretw0/sflsweep/pkg/casename"
	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/aretw0/sflsweep/pkg/space"
	"github.com/aretw0/sflsweep/pkg/sweep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_MutualExclusion(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "sfl-dra", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("sflsweep:lock:sfl-dra"))

	_, err = locker.TryLock(ctx, "sfl-dra", time.Minute)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)

	waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "sfl-dra", time.Minute)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("sflsweep:lock:sfl-dra"))

	unlock, err = locker.TryLock(ctx, "sfl-dra", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}

func TestLocker_UnlockKeepsForeignLock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "sfl-dra", time.Second)
	require.NoError(t, err)

	// The lock expires and another driver takes it over.
	mr.FastForward(2 * time.Second)
	other, err := locker.TryLock(ctx, "sfl-dra", time.Minute)
	require.NoError(t, err)

	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("sflsweep:lock:sfl-dra"), "stale unlock must not release the new holder's lock")

	require.NoError(t, other(ctx))
}

// outliveTTL advances the miniredis clock well past ttl in steps shorter than
// ttl, waiting after each step for the holder to extend the lock.
func outliveTTL(t *testing.T, mr *miniredis.Miniredis, key string, ttl time.Duration) {
	t.Helper()
	for range 5 {
		mr.FastForward(ttl * 2 / 3)
		require.True(t, mr.Exists(key), "lock expired while held")
		require.Eventually(t, func() bool {
			return mr.TTL(key) > ttl/2
		}, 2*time.Second, 10*time.Millisecond, "lock was not extended")
	}
}

func TestLocker_ExtendsHeldLock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "")
	ctx := context.Background()
	ttl := 300 * time.Millisecond

	unlock, err := locker.Lock(ctx, "sfl-dra", ttl)
	require.NoError(t, err)

	outliveTTL(t, mr, "sflsweep:lock:sfl-dra", ttl)

	_, err = locker.TryLock(ctx, "sfl-dra", ttl)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)

	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx), "unlock is idempotent")
	assert.False(t, mr.Exists("sflsweep:lock:sfl-dra"))

	// Once released, the old holder stops extending and the TTL applies again.
	other, err := locker.TryLock(ctx, "sfl-dra", ttl)
	require.NoError(t, err)
	require.NoError(t, other(ctx))
}

type slowDispatcher struct {
	during func()
}

func (d *slowDispatcher) Validate(domain.Program, domain.Configuration) error { return nil }

func (d *slowDispatcher) Dispatch(_ context.Context, _ domain.Program, inv domain.Invocation) (domain.RunResult, error) {
	if inv.Index == 0 {
		d.during()
	}
	return domain.RunResult{Index: inv.Index, Case: inv.Case, Config: inv.Config, Outcome: domain.OutcomeSucceeded}, nil
}

func TestLocker_HeldForWholeSweep(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "")
	ttl := 300 * time.Millisecond

	s := space.New()
	require.NoError(t, s.DefineAxis("seed", domain.Int(1), domain.Int(2)))
	plan := sweep.Plan{
		Name:     "long",
		Space:    s,
		Template: casename.MustParse("run-{seed}"),
		Program:  domain.Program{Command: "train"},
	}

	var secondDriverErr error
	dispatcher := &slowDispatcher{during: func() {
		// A run that lasts far longer than the lock TTL.
		outliveTTL(t, mr, "sflsweep:lock:long", ttl)
		_, secondDriverErr = locker.TryLock(context.Background(), "long", ttl)
	}}

	d := sweep.New(
		sweep.WithDispatcher(dispatcher),
		sweep.WithLocker(locker, ttl),
	)
	summary, err := d.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, summary.State)

	assert.ErrorIs(t, secondDriverErr, redis.ErrLockAcquire, "a second driver must not take a running sweep")
	assert.False(t, mr.Exists("sflsweep:lock:long"), "the lock is released when the sweep ends")
}
