package github

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/model"
)

var (
	// ErrUnauthorized is returned when GitHub rejects the credentials, for
	// example a revoked OAuth access token
	ErrUnauthorized = goerr.New("GitHub rejected credentials")

	// ErrInstallationNotFound is returned when the App has no such installation
	ErrInstallationNotFound = goerr.New("installation not found")

	ErrInvalidPrivateKey = goerr.New("invalid GitHub App private key")
)

// Service provides interface to the GitHub API
type Service interface {
	// GetInstallation fetches an installation of the App with App JWT credentials
	GetInstallation(ctx context.Context, id model.InstallationID) (*model.Installation, error)

	// ListRepositories returns every repository the installation can access
	ListRepositories(ctx context.Context, id model.InstallationID) ([]*model.Repository, error)

	// GetViewer returns the user owning an OAuth access token
	GetViewer(ctx context.Context, accessToken string) (*model.GitHubUser, error)
}
