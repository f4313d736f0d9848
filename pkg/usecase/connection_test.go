package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m2rads/lime/pkg/domain/interfaces"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/domain/types"
	"github.com/m2rads/lime/pkg/repository/memory"
	"github.com/m2rads/lime/pkg/usecase"
)

func TestCompleteSetup(t *testing.T) {
	ctx := context.Background()
	const user = model.UserID("1001")

	t.Run("connects and activates the organization", func(t *testing.T) {
		repo := memory.New()
		gh := newFakeGitHub()
		gh.addInstallation(42, 7, "acme")
		uc := usecase.New(repo, usecase.WithGitHub(gh))

		result, err := uc.Connection.CompleteSetup(ctx, user, "42")
		gt.NoError(t, err).Required()
		gt.Value(t, result).Equal(types.SetupResultInstallationComplete)

		active, err := uc.Connection.GetActiveOrganization(ctx, user)
		gt.NoError(t, err).Required()
		gt.Value(t, active).NotNil()
		gt.Value(t, active.OrgName).Equal("acme")
		gt.Value(t, active.InstallationID).Equal(model.InstallationID(42))
	})

	t.Run("second organization takes over the active flag", func(t *testing.T) {
		repo := memory.New()
		gh := newFakeGitHub()
		gh.addInstallation(42, 7, "acme")
		gh.addInstallation(43, 8, "beta")
		uc := usecase.New(repo, usecase.WithGitHub(gh))

		_, err := uc.Connection.CompleteSetup(ctx, user, "42")
		gt.NoError(t, err).Required()
		// warm the cache so the second setup has to invalidate it
		_, err = uc.Connection.GetActiveOrganization(ctx, user)
		gt.NoError(t, err).Required()

		_, err = uc.Connection.CompleteSetup(ctx, user, "43")
		gt.NoError(t, err).Required()

		conns, err := uc.Connection.ListOrganizations(ctx, user)
		gt.NoError(t, err).Required()
		gt.Array(t, conns).Length(2)
		gt.Value(t, model.CountActive(conns)).Equal(1)

		active, err := uc.Connection.GetActiveOrganization(ctx, user)
		gt.NoError(t, err).Required()
		gt.Value(t, active.OrgName).Equal("beta")
	})

	t.Run("missing or malformed installation id writes nothing", func(t *testing.T) {
		for _, raw := range []string{"", "  ", "abc", "-5", "0"} {
			repo := memory.New()
			gh := newFakeGitHub()
			uc := usecase.New(repo, usecase.WithGitHub(gh))

			result, err := uc.Connection.CompleteSetup(ctx, user, raw)
			gt.Error(t, err)
			gt.Value(t, result).Equal(types.SetupResultInstallationFailed)

			conns, err := repo.Connection().ListByUser(ctx, user)
			gt.NoError(t, err).Required()
			gt.Array(t, conns).Length(0)
		}
	})

	t.Run("GitHub failure", func(t *testing.T) {
		repo := memory.New()
		gh := newFakeGitHub()
		uc := usecase.New(repo, usecase.WithGitHub(gh))

		result, err := uc.Connection.CompleteSetup(ctx, user, "404")
		gt.Error(t, err)
		gt.Value(t, result).Equal(types.SetupResultInstallationFailed)
	})

	t.Run("installation without account", func(t *testing.T) {
		repo := memory.New()
		gh := newFakeGitHub()
		gh.installations[42] = &model.Installation{ID: 42}
		uc := usecase.New(repo, usecase.WithGitHub(gh))

		result, err := uc.Connection.CompleteSetup(ctx, user, "42")
		gt.Error(t, err)
		gt.Value(t, result).Equal(types.SetupResultAccountNotFound)
	})

	t.Run("store failure", func(t *testing.T) {
		gh := newFakeGitHub()
		gh.addInstallation(42, 7, "acme")
		uc := usecase.New(&failingRepository{Memory: memory.New()}, usecase.WithGitHub(gh))

		result, err := uc.Connection.CompleteSetup(ctx, user, "42")
		gt.Error(t, err)
		gt.Value(t, result).Equal(types.SetupResultConnectionFailed)
	})

	t.Run("without GitHub client", func(t *testing.T) {
		uc := usecase.New(memory.New())
		result, err := uc.Connection.CompleteSetup(ctx, user, "42")
		gt.Error(t, err).Is(usecase.ErrGitHubNotConfigured)
		gt.Value(t, result).Equal(types.SetupResultInstallationFailed)
	})
}

func TestActivateOrganization(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	gh := newFakeGitHub()
	gh.addInstallation(42, 7, "acme")
	gh.addInstallation(43, 8, "beta")
	uc := usecase.New(repo, usecase.WithGitHub(gh))

	_, err := uc.Connection.CompleteSetup(ctx, "1001", "42")
	gt.NoError(t, err).Required()
	_, err = uc.Connection.CompleteSetup(ctx, "1001", "43")
	gt.NoError(t, err).Required()

	conns, err := uc.Connection.ListOrganizations(ctx, "1001")
	gt.NoError(t, err).Required()
	gt.Array(t, conns).Length(2)
	acme := conns[0]
	gt.Value(t, acme.OrgName).Equal("acme")

	activated, err := uc.Connection.ActivateOrganization(ctx, "1001", acme.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, activated.IsActive).True()

	active, err := uc.Connection.GetActiveOrganization(ctx, "1001")
	gt.NoError(t, err).Required()
	gt.Value(t, active.ID).Equal(acme.ID)

	t.Run("another user's connection", func(t *testing.T) {
		_, err := uc.Connection.ActivateOrganization(ctx, "2002", acme.ID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)

		active, err := uc.Connection.GetActiveOrganization(ctx, "1001")
		gt.NoError(t, err).Required()
		gt.Value(t, active.ID).Equal(acme.ID)
	})

	t.Run("unknown connection", func(t *testing.T) {
		_, err := uc.Connection.ActivateOrganization(ctx, "1001", model.NewConnectionID())
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})
}

func TestGetActiveOrganization_None(t *testing.T) {
	uc := usecase.New(memory.New())
	active, err := uc.Connection.GetActiveOrganization(context.Background(), "1001")
	gt.NoError(t, err).Required()
	gt.Value(t, active).Nil()
}

var errStoreDown = errors.New("store is down")

type failingRepository struct {
	*memory.Memory
}

func (r *failingRepository) Connection() interfaces.ConnectionRepository {
	return &failingConnections{ConnectionRepository: r.Memory.Connection()}
}

type failingConnections struct {
	interfaces.ConnectionRepository
}

func (r *failingConnections) CreateOrUpdate(ctx context.Context, input model.ConnectionInput) (*model.Connection, error) {
	return nil, errStoreDown
}
