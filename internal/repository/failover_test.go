package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"courtbook/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) Lock(ctx context.Context, key string) (func(), error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

func configRedis(addr string) config.RedisConfig {
	return config.RedisConfig{Address: addr}
}

func TestFailoverDateLocker(t *testing.T) {
	primary := new(mockLocker)
	fallback := new(mockLocker)
	logger := zerolog.New(io.Discard)
	locker := NewFailoverDateLocker(primary, fallback, &logger)
	ctx := context.Background()
	noop := func() {}

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("Lock", ctx, "d1").Return(noop, nil).Once()

		unlock, err := locker.Lock(ctx, "d1")
		require.NoError(t, err)
		assert.NotNil(t, unlock)
		assert.False(t, locker.Degraded())
		primary.AssertExpectations(t)
	})

	t.Run("ContentionDoesNotFailOver", func(t *testing.T) {
		primary.On("Lock", ctx, "d2").Return(nil, ErrLockTimeout).Once()

		_, err := locker.Lock(ctx, "d2")
		assert.ErrorIs(t, err, ErrLockTimeout)
		assert.False(t, locker.Degraded())
		fallback.AssertNotCalled(t, "Lock", ctx, "d2")
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary.On("Lock", ctx, "d3").Return(nil, errors.New("connection refused")).Once()
		fallback.On("Lock", ctx, "d3").Return(noop, nil).Once()

		_, err := locker.Lock(ctx, "d3")
		assert.NoError(t, err)
		assert.True(t, locker.Degraded())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("StaysOnFallbackWhileDown", func(t *testing.T) {
		fallback.On("Lock", ctx, "d4").Return(noop, nil).Once()

		_, err := locker.Lock(ctx, "d4")
		assert.NoError(t, err)
		primary.AssertNotCalled(t, "Lock", ctx, "d4")
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		locker.isDown.Store(true)
		locker.lastCheck.Store(time.Now().Add(-2 * time.Minute).UnixNano())
		primary.On("Lock", ctx, "d5").Return(noop, nil).Once()

		_, err := locker.Lock(ctx, "d5")
		assert.NoError(t, err)
		assert.False(t, locker.Degraded())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		locker.isDown.Store(true)
		locker.lastCheck.Store(time.Now().Add(-2 * time.Minute).UnixNano())
		primary.On("Lock", ctx, "d6").Return(nil, errors.New("still down")).Once()
		fallback.On("Lock", ctx, "d6").Return(noop, nil).Once()

		_, err := locker.Lock(ctx, "d6")
		assert.NoError(t, err)
		assert.True(t, locker.Degraded())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}

func TestFailoverWithRealBackends(t *testing.T) {
	logger := zerolog.New(io.Discard)
	dead := NewRedisDateLocker(NewRedisClient(configRedis("127.0.0.1:1")), time.Second)
	locker := NewFailoverDateLocker(dead, NewMemoryDateLocker(), &logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	unlock, err := locker.Lock(ctx, "2025-06-03")
	require.NoError(t, err)
	assert.True(t, locker.Degraded())
	unlock()
}
