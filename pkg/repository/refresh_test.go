package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/m2rads/lime/pkg/domain/interfaces"
)

func runRefreshRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	const window = 5 * time.Minute

	t.Run("first acquire succeeds and repeats inside window fail", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		key := "orgs:" + uuid.NewString()
		now := time.Now().UTC().Truncate(time.Millisecond)

		ok, err := repo.TryAcquireRefresh(ctx, key, now, window)
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()

		ok, err = repo.TryAcquireRefresh(ctx, key, now.Add(time.Minute), window)
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).False()
	})

	t.Run("acquire succeeds again after window", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		key := "orgs:" + uuid.NewString()
		now := time.Now().UTC().Truncate(time.Millisecond)

		ok, err := repo.TryAcquireRefresh(ctx, key, now, window)
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()

		ok, err = repo.TryAcquireRefresh(ctx, key, now.Add(window+time.Second), window)
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()
	})

	t.Run("keys are independent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Millisecond)

		ok, err := repo.TryAcquireRefresh(ctx, "orgs:"+uuid.NewString(), now, window)
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()

		ok, err = repo.TryAcquireRefresh(ctx, "orgs:"+uuid.NewString(), now, window)
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()
	})
}

func TestRefreshRepository_Memory(t *testing.T) {
	runRefreshRepositoryTest(t, newMemoryRepository)
}

func TestRefreshRepository_SQLite(t *testing.T) {
	runRefreshRepositoryTest(t, newSQLiteRepository)
}

func TestRefreshRepository_Postgres(t *testing.T) {
	runRefreshRepositoryTest(t, newPostgresRepository)
}

func TestRefreshRepository_Firestore(t *testing.T) {
	runRefreshRepositoryTest(t, newFirestoreRepository)
}
