package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/service/github"
)

// RepositoryUseCase lists repositories of the active organization
type RepositoryUseCase struct {
	connection *ConnectionUseCase
	github     github.Service
}

func NewRepositoryUseCase(connection *ConnectionUseCase, gh github.Service) *RepositoryUseCase {
	return &RepositoryUseCase{
		connection: connection,
		github:     gh,
	}
}

// ListRepositories returns the repositories the active installation of user
// can access. A non-empty query keeps repositories whose name contains it,
// ignoring case.
func (uc *RepositoryUseCase) ListRepositories(ctx context.Context, user model.UserID, query string) ([]*model.Repository, error) {
	active, err := uc.connection.GetActiveOrganization(ctx, user)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, goerr.Wrap(ErrNoActiveOrganization, "cannot list repositories", goerr.V(model.UserIDKey, user))
	}
	if uc.github == nil {
		return nil, goerr.Wrap(ErrGitHubNotConfigured, "cannot list repositories")
	}

	repos, err := uc.github.ListRepositories(ctx, active.InstallationID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list repositories",
			goerr.V(model.InstallationIDKey, active.InstallationID), goerr.V(model.UserIDKey, user))
	}

	return filterRepositories(repos, query), nil
}

func filterRepositories(repos []*model.Repository, query string) []*model.Repository {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return repos
	}

	filtered := make([]*model.Repository, 0, len(repos))
	for _, r := range repos {
		if strings.Contains(strings.ToLower(r.Name), query) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
