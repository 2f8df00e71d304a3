package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"courtbook/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverDateLocker prefers the shared primary locker and degrades to the
// process-local fallback while the primary is unreachable. In degraded mode
// the UNIQUE indexes in the store remain the final guard across processes.
type FailoverDateLocker struct {
	primary   domain.DateLocker
	fallback  domain.DateLocker
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverDateLocker(primary, fallback domain.DateLocker, logger *zerolog.Logger) *FailoverDateLocker {
	return &FailoverDateLocker{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverDateLocker) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary date locker failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverDateLocker) shouldRetryPrimary() bool {
	return time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

func (r *FailoverDateLocker) Lock(ctx context.Context, key string) (func(), error) {
	if !r.isDown.Load() || r.shouldRetryPrimary() {
		unlock, err := r.primary.Lock(ctx, key)
		if err == nil {
			if r.isDown.CompareAndSwap(true, false) {
				r.logger.Info().Msg("Primary date locker recovered")
			}
			return unlock, nil
		}
		// Contention and caller cancellation say nothing about backend health.
		if errors.Is(err, ErrLockTimeout) || ctx.Err() != nil {
			return nil, err
		}
		r.markDown(err)
	}

	return r.fallback.Lock(ctx, key)
}

// Degraded reports whether the fallback is currently in use.
func (r *FailoverDateLocker) Degraded() bool {
	return r.isDown.Load()
}
