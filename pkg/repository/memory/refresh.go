package memory

import (
	"context"
	"sync"
	"time"
)

type refreshStore struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func newRefreshStore() *refreshStore {
	return &refreshStore{
		last: make(map[string]time.Time),
	}
}

func (r *Memory) TryAcquireRefresh(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error) {
	r.refresh.mu.Lock()
	defer r.refresh.mu.Unlock()

	if last, ok := r.refresh.last[key]; ok && now.Sub(last) < window {
		return false, nil
	}

	// marks older than the window no longer throttle anything
	for k, last := range r.refresh.last {
		if now.Sub(last) >= window {
			delete(r.refresh.last, k)
		}
	}
	r.refresh.last[key] = now
	return true, nil
}
