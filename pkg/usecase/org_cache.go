package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/m2rads/lime/pkg/domain/model"
	"golang.org/x/sync/singleflight"
)

const defaultActiveOrgCacheTTL = 30 * time.Second

type activeOrgEntry struct {
	conn      *model.Connection
	expiresAt time.Time
}

// activeOrgCache memoizes the active connection per user. Concurrent misses
// for one user share a single repository read. A load that overlaps an
// invalidation is returned to its callers but not stored.
type activeOrgCache struct {
	ttl   time.Duration
	group singleflight.Group

	mu         sync.Mutex
	entries    map[model.UserID]activeOrgEntry
	generation map[model.UserID]uint64
}

func newActiveOrgCache(ttl time.Duration) *activeOrgCache {
	if ttl <= 0 {
		ttl = defaultActiveOrgCacheTTL
	}
	return &activeOrgCache{
		ttl:        ttl,
		entries:    make(map[model.UserID]activeOrgEntry),
		generation: make(map[model.UserID]uint64),
	}
}

func copyConnection(c *model.Connection) *model.Connection {
	if c == nil {
		return nil
	}
	copied := *c
	return &copied
}

func (c *activeOrgCache) get(ctx context.Context, user model.UserID, load func(ctx context.Context) (*model.Connection, error)) (*model.Connection, error) {
	c.mu.Lock()
	if entry, ok := c.entries[user]; ok && time.Now().Before(entry.expiresAt) {
		c.mu.Unlock()
		return copyConnection(entry.conn), nil
	}
	gen := c.generation[user]
	c.mu.Unlock()

	v, err, _ := c.group.Do(user.String(), func() (any, error) {
		conn, err := load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation[user] == gen {
			c.entries[user] = activeOrgEntry{conn: conn, expiresAt: time.Now().Add(c.ttl)}
		}
		c.mu.Unlock()
		return conn, nil
	})
	if err != nil {
		return nil, err
	}

	conn, _ := v.(*model.Connection)
	return copyConnection(conn), nil
}

func (c *activeOrgCache) invalidate(users ...model.UserID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, user := range users {
		delete(c.entries, user)
		c.generation[user]++
	}
	for _, user := range users {
		c.group.Forget(user.String())
	}
}
