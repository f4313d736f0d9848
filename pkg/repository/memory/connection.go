package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/interfaces"
	"github.com/m2rads/lime/pkg/domain/model"
)

type connectionRepository struct {
	mu    sync.Mutex
	conns map[model.ConnectionID]*model.Connection
}

var _ interfaces.ConnectionRepository = &connectionRepository{}

func newConnectionRepository() *connectionRepository {
	return &connectionRepository{
		conns: make(map[model.ConnectionID]*model.Connection),
	}
}

func copyConnection(c *model.Connection) *model.Connection {
	copied := *c
	return &copied
}

// deactivateUser must be called with mu held
func (r *connectionRepository) deactivateUser(userID model.UserID, now time.Time) {
	for _, c := range r.conns {
		if c.UserID == userID && c.IsActive {
			c.IsActive = false
			c.UpdatedAt = now
		}
	}
}

func (r *connectionRepository) CreateOrUpdate(ctx context.Context, input model.ConnectionInput) (*model.Connection, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	r.deactivateUser(input.UserID, now)

	for _, c := range r.conns {
		if c.UserID == input.UserID && c.OrgID == input.OrgID {
			c.Reconnect(input, now)
			return copyConnection(c), nil
		}
	}

	created := model.NewConnection(input, now)
	r.conns[created.ID] = created
	return copyConnection(created), nil
}

func (r *connectionRepository) SetActive(ctx context.Context, userID model.UserID, id model.ConnectionID) (*model.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.conns[id]
	if !ok || target.UserID != userID {
		return nil, goerr.Wrap(ErrNotFound, "connection not found",
			goerr.V(model.ConnectionIDKey, id), goerr.V(model.UserIDKey, userID))
	}

	now := time.Now().UTC()
	r.deactivateUser(userID, now)
	target.IsActive = true
	target.UpdatedAt = now

	return copyConnection(target), nil
}

func (r *connectionRepository) RemoveByInstallation(ctx context.Context, installationID model.InstallationID) ([]*model.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []*model.Connection
	for id, c := range r.conns {
		if c.InstallationID == installationID {
			removed = append(removed, copyConnection(c))
			delete(r.conns, id)
		}
	}
	sortConnections(removed)
	return removed, nil
}

func (r *connectionRepository) DeactivateByInstallation(ctx context.Context, installationID model.InstallationID) ([]*model.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	var changed []*model.Connection
	for _, c := range r.conns {
		if c.InstallationID == installationID && c.IsActive {
			c.IsActive = false
			c.UpdatedAt = now
			changed = append(changed, copyConnection(c))
		}
	}
	sortConnections(changed)
	return changed, nil
}

func (r *connectionRepository) ListByUser(ctx context.Context, userID model.UserID) ([]*model.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*model.Connection
	for _, c := range r.conns {
		if c.UserID == userID {
			result = append(result, copyConnection(c))
		}
	}
	sortConnections(result)
	return result, nil
}

func (r *connectionRepository) GetActive(ctx context.Context, userID model.UserID) (*model.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.conns {
		if c.UserID == userID && c.IsActive {
			return copyConnection(c), nil
		}
	}
	return nil, nil
}

func sortConnections(conns []*model.Connection) {
	sort.Slice(conns, func(i, j int) bool {
		if conns[i].OrgName != conns[j].OrgName {
			return conns[i].OrgName < conns[j].OrgName
		}
		return conns[i].ID < conns[j].ID
	})
}
