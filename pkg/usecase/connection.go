package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/interfaces"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/domain/types"
	"github.com/m2rads/lime/pkg/service/github"
	"github.com/m2rads/lime/pkg/utils/logging"
)

// ConnectionUseCase connects GitHub organizations to dashboard users
type ConnectionUseCase struct {
	repo   interfaces.Repository
	github github.Service
	cache  *activeOrgCache
}

func NewConnectionUseCase(repo interfaces.Repository, gh github.Service, cache *activeOrgCache) *ConnectionUseCase {
	if cache == nil {
		cache = newActiveOrgCache(0)
	}
	return &ConnectionUseCase{
		repo:   repo,
		github: gh,
		cache:  cache,
	}
}

// CompleteSetup handles the return from the GitHub App installation page.
// The result is always usable for the dashboard redirect; the error carries
// the cause of a failed result for logging. A missing or malformed
// installation ID fails before any GitHub or store access.
func (uc *ConnectionUseCase) CompleteSetup(ctx context.Context, user model.UserID, rawInstallationID string) (types.SetupResult, error) {
	rawInstallationID = strings.TrimSpace(rawInstallationID)
	if rawInstallationID == "" {
		return types.SetupResultInstallationFailed,
			goerr.Wrap(model.ErrInvalidInstallationID, "installation_id is missing", goerr.V(model.UserIDKey, user))
	}

	installationID, err := model.ParseInstallationID(rawInstallationID)
	if err != nil {
		return types.SetupResultInstallationFailed, err
	}

	if uc.github == nil {
		return types.SetupResultInstallationFailed, goerr.Wrap(ErrGitHubNotConfigured, "cannot fetch installation")
	}

	inst, err := uc.github.GetInstallation(ctx, installationID)
	if err != nil {
		return types.SetupResultInstallationFailed, goerr.Wrap(err, "failed to fetch installation",
			goerr.V(model.InstallationIDKey, installationID))
	}
	if inst.Account == nil {
		return types.SetupResultAccountNotFound, goerr.New("installation has no account",
			goerr.V(model.InstallationIDKey, installationID))
	}

	conn, err := uc.repo.Connection().CreateOrUpdate(ctx, inst.ConnectionInput(user))
	uc.cache.invalidate(user)
	if err != nil {
		return types.SetupResultConnectionFailed, goerr.Wrap(err, "failed to save connection",
			goerr.V(model.InstallationIDKey, installationID), goerr.V(model.UserIDKey, user))
	}

	logging.From(ctx).Info("organization connected",
		"user_id", user,
		"org", conn.OrgName,
		"installation_id", conn.InstallationID,
	)
	return types.SetupResultInstallationComplete, nil
}

// ListOrganizations returns every organization connected by the user
func (uc *ConnectionUseCase) ListOrganizations(ctx context.Context, user model.UserID) ([]*model.Connection, error) {
	conns, err := uc.repo.Connection().ListByUser(ctx, user)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list organizations", goerr.V(model.UserIDKey, user))
	}
	return conns, nil
}

// GetActiveOrganization returns the active connection of the user, or nil
func (uc *ConnectionUseCase) GetActiveOrganization(ctx context.Context, user model.UserID) (*model.Connection, error) {
	conn, err := uc.cache.get(ctx, user, func(ctx context.Context) (*model.Connection, error) {
		return uc.repo.Connection().GetActive(ctx, user)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get active organization", goerr.V(model.UserIDKey, user))
	}
	return conn, nil
}

// ActivateOrganization makes id the active connection of the user. Returns
// interfaces.ErrNotFound when the connection is not the user's.
func (uc *ConnectionUseCase) ActivateOrganization(ctx context.Context, user model.UserID, id model.ConnectionID) (*model.Connection, error) {
	conn, err := uc.repo.Connection().SetActive(ctx, user, id)
	uc.cache.invalidate(user)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to activate organization",
			goerr.V(model.UserIDKey, user), goerr.V(model.ConnectionIDKey, id))
	}
	return conn, nil
}

// invalidateConnections drops cached views of every user owning one of conns
func (uc *ConnectionUseCase) invalidateConnections(conns []*model.Connection) {
	users := make([]model.UserID, 0, len(conns))
	for _, c := range conns {
		users = append(users, c.UserID)
	}
	uc.cache.invalidate(users...)
}
