package interfaces

import (
	"context"

	"github.com/m2rads/lime/pkg/domain/model"
)

// ConnectionRepository stores Connections and owns the at-most-one-active
// invariant. Every multi-step mutation runs atomically in the backend and
// always deactivates before it activates.
type ConnectionRepository interface {
	// CreateOrUpdate deactivates all of the user's connections, then updates
	// the connection for (user, org) in place or inserts a new one. The
	// returned connection is active.
	CreateOrUpdate(ctx context.Context, input model.ConnectionInput) (*model.Connection, error)

	// SetActive deactivates all of the user's connections, then activates id.
	// Returns ErrNotFound when id does not exist or belongs to another user;
	// nothing is changed in that case.
	SetActive(ctx context.Context, userID model.UserID, id model.ConnectionID) (*model.Connection, error)

	// RemoveByInstallation deletes every connection with the installation ID
	// across all users and returns the deleted rows.
	RemoveByInstallation(ctx context.Context, installationID model.InstallationID) ([]*model.Connection, error)

	// DeactivateByInstallation clears the active flag of every connection with
	// the installation ID and returns the rows that changed.
	DeactivateByInstallation(ctx context.Context, installationID model.InstallationID) ([]*model.Connection, error)

	// ListByUser returns the user's connections ordered by org name
	ListByUser(ctx context.Context, userID model.UserID) ([]*model.Connection, error)

	// GetActive returns the user's active connection, or nil when there is none
	GetActive(ctx context.Context, userID model.UserID) (*model.Connection, error)
}
