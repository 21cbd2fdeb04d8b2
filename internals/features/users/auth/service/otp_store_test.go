package service_test

import (
	"context"
	"testing"
	"time"

	"campusku_backend/internals/features/users/auth/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryOTPStore(t *testing.T) {
	ctx := context.Background()
	s := service.NewMemoryOTPStore()
	now := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

	live := service.Challenge{ID: "live", UserID: uuid.New(), ExpiresAt: now.Add(time.Minute)}
	stale := service.Challenge{ID: "stale", UserID: uuid.New(), ExpiresAt: now}
	require.NoError(t, s.Put(ctx, live))
	require.NoError(t, s.Put(ctx, stale))

	got, err := s.Get(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, live.UserID, got.UserID)

	got.Attempts = 2
	require.NoError(t, s.Update(ctx, *got))
	got, _ = s.Get(ctx, "live")
	assert.Equal(t, 2, got.Attempts)

	assert.ErrorIs(t, s.Update(ctx, service.Challenge{ID: "missing"}), service.ErrChallengeNotFound)

	n, err := s.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = s.Get(ctx, "stale")
	assert.ErrorIs(t, err, service.ErrChallengeNotFound)

	require.NoError(t, s.Delete(ctx, "live"))
	assert.Equal(t, 0, s.Len())
}

func TestNewOTPStoreFallsBackToMemory(t *testing.T) {
	_, ok := service.NewOTPStore(nil).(*service.MemoryOTPStore)
	assert.True(t, ok)
}
