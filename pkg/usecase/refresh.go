package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/interfaces"
)

// DefaultRefreshWindow is the minimum interval between two refreshes of the
// same session
const DefaultRefreshWindow = 60 * time.Second

// RefreshLimiter throttles session refreshes per key. The window is shared by
// every process using the same repository.
type RefreshLimiter struct {
	repo   interfaces.Repository
	window time.Duration
	now    func() time.Time
}

func NewRefreshLimiter(repo interfaces.Repository, window time.Duration) *RefreshLimiter {
	if window <= 0 {
		window = DefaultRefreshWindow
	}
	return &RefreshLimiter{
		repo:   repo,
		window: window,
		now:    time.Now,
	}
}

func (l *RefreshLimiter) Window() time.Duration {
	return l.window
}

// Allow reports whether a refresh for key may run now and records it if so
func (l *RefreshLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := l.repo.TryAcquireRefresh(ctx, key, l.now(), l.window)
	if err != nil {
		return false, goerr.Wrap(err, "failed to check refresh window", goerr.V("key", key))
	}
	return ok, nil
}
