//go:build integration

package runlock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calibra/internal/cases/runlock"
	domainerrors "calibra/pkg/domain-errors"
	"calibra/pkg/testutil/containers"
)

func TestRedisLockerSingleFlight(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	locker := runlock.NewRedisLocker(rc.Client, time.Minute)

	release, err := locker.Acquire(ctx, "case-1")
	require.NoError(t, err)

	// A second instance sharing the same Redis sees the lock.
	other := runlock.NewRedisLocker(rc.Client, time.Minute)
	_, err = other.Acquire(ctx, "case-1")
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeConflict))

	otherRelease, err := other.Acquire(ctx, "case-2")
	require.NoError(t, err)
	otherRelease()

	release()
	next, err := other.Acquire(ctx, "case-1")
	require.NoError(t, err)
	next()
}

func TestRedisLockerStaleReleaseKeepsNewHolder(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)

	// First acquisition expires; lock is re-acquired by another run.
	locker := runlock.NewRedisLocker(rc.Client, 50*time.Millisecond)
	staleRelease, err := locker.Acquire(ctx, "case-1")
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	holder := runlock.NewRedisLocker(rc.Client, time.Minute)
	release, err := holder.Acquire(ctx, "case-1")
	require.NoError(t, err)
	defer release()

	// The expired holder's release must not strip the new lock.
	staleRelease()
	_, err = locker.Acquire(ctx, "case-1")
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeConflict))
}
