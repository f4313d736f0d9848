package repository_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/m2rads/lime/pkg/domain/interfaces"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/repository/firestore"
	"github.com/m2rads/lime/pkg/repository/memory"
	"github.com/m2rads/lime/pkg/repository/sqlstore"
)

func newMemoryRepository(t *testing.T) interfaces.Repository {
	return memory.New()
}

func newSQLiteRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	client, err := sqlstore.Open(sqlstore.Config{
		Driver: sqlstore.DriverSQLite,
		DSN:    fmt.Sprintf("file:lime-test-%d?mode=memory&cache=shared&_foreign_keys=on", time.Now().UnixNano()),
	})
	gt.NoError(t, err).Required()
	gt.NoError(t, sqlstore.Migrate(context.Background(), client)).Required()

	repo, err := sqlstore.New(client)
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newPostgresRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	client, err := sqlstore.Open(sqlstore.Config{Driver: sqlstore.DriverPostgres, DSN: dsn})
	gt.NoError(t, err).Required()
	gt.NoError(t, sqlstore.Migrate(context.Background(), client)).Required()

	repo, err := sqlstore.New(client)
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID not set")
	}

	repo, err := firestore.New(context.Background(), projectID, databaseID,
		firestore.WithCollectionPrefix("test_"+uuid.NewString()[:8]))
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// Postgres and Firestore share one database across runs, so every test
// works on fresh user and installation IDs.
func newUserID() model.UserID {
	return model.UserID("user-" + uuid.NewString())
}

func newInstallationID() model.InstallationID {
	return model.InstallationID(rand.Int64N(1<<40) + 1)
}
