package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Expirer ends sessions that have been active longer than maxAge.
type Expirer interface {
	ExpireStale(ctx context.Context, maxAge time.Duration) (int, error)
}

// ExpiryConfig tunes the sweep.
type ExpiryConfig struct {
	Interval time.Duration
	MaxAge   time.Duration
	Timeout  time.Duration
}

// StartSessionExpiry sweeps stale sessions every interval until ctx ends.
// The returned channel closes once the sweeper has stopped.
func StartSessionExpiry(ctx context.Context, cfg ExpiryConfig, sessions Expirer, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAge <= 0 {
		logger.Info("session expiry disabled")
		close(done)
		return done
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, timeout)
				n, err := sessions.ExpireStale(tickCtx, cfg.MaxAge)
				cancel()
				if err != nil {
					logger.Error("session expiry failed", zap.Int("ended", n), zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Info("expired stale sessions", zap.Int("ended", n))
				}
			}
		}
	}()
	return done
}
