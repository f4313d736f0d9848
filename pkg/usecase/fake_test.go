package usecase_test

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/service/github"
)

type fakeGitHub struct {
	mu            sync.Mutex
	installations map[model.InstallationID]*model.Installation
	repositories  map[model.InstallationID][]*model.Repository
	viewers       map[string]*model.GitHubUser
	failWith      error
	viewerCalls   int
}

var _ github.Service = &fakeGitHub{}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		installations: map[model.InstallationID]*model.Installation{},
		repositories:  map[model.InstallationID][]*model.Repository{},
		viewers:       map[string]*model.GitHubUser{},
	}
}

func (f *fakeGitHub) addInstallation(id model.InstallationID, orgID model.OrgID, login string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installations[id] = &model.Installation{
		ID: id,
		Account: &model.InstallationAccount{
			ID:        orgID,
			Login:     login,
			AvatarURL: "https://avatars.example.com/" + login,
			Type:      "Organization",
		},
	}
}

func (f *fakeGitHub) GetInstallation(ctx context.Context, id model.InstallationID) (*model.Installation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	inst, ok := f.installations[id]
	if !ok {
		return nil, goerr.Wrap(github.ErrInstallationNotFound, "not found")
	}
	return inst, nil
}

func (f *fakeGitHub) ListRepositories(ctx context.Context, id model.InstallationID) ([]*model.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.repositories[id], nil
}

func (f *fakeGitHub) GetViewer(ctx context.Context, accessToken string) (*model.GitHubUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewerCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	user, ok := f.viewers[accessToken]
	if !ok {
		return nil, goerr.Wrap(github.ErrUnauthorized, "bad credentials")
	}
	return user, nil
}

func (f *fakeGitHub) ViewerCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewerCalls
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []*model.InstallationEvent
	err    error
}

func (n *fakeNotifier) NotifyInstallation(ctx context.Context, ev *model.InstallationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}
