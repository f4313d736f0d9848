package http_test

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/service/github"
)

type fakeGitHub struct {
	installations map[model.InstallationID]*model.Installation
	repositories  map[model.InstallationID][]*model.Repository
}

var _ github.Service = &fakeGitHub{}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		installations: map[model.InstallationID]*model.Installation{},
		repositories:  map[model.InstallationID][]*model.Repository{},
	}
}

func (f *fakeGitHub) addInstallation(id model.InstallationID, orgID model.OrgID, login string) {
	f.installations[id] = &model.Installation{
		ID:      id,
		Account: &model.InstallationAccount{ID: orgID, Login: login, Type: "Organization"},
	}
}

func (f *fakeGitHub) GetInstallation(ctx context.Context, id model.InstallationID) (*model.Installation, error) {
	inst, ok := f.installations[id]
	if !ok {
		return nil, goerr.Wrap(github.ErrInstallationNotFound, "not found")
	}
	return inst, nil
}

func (f *fakeGitHub) ListRepositories(ctx context.Context, id model.InstallationID) ([]*model.Repository, error) {
	return f.repositories[id], nil
}

func (f *fakeGitHub) GetViewer(ctx context.Context, accessToken string) (*model.GitHubUser, error) {
	return nil, goerr.Wrap(github.ErrUnauthorized, "not supported")
}
