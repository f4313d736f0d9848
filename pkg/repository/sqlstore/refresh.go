package sqlstore

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// TryAcquireRefresh is a single conditional upsert: the existing mark is only
// overwritten when it is older than window, so concurrent callers on several
// instances see exactly one winner.
func (s *Store) TryAcquireRefresh(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error) {
	res, err := s.db.NewInsert().
		Model(&refreshRecord{Key: key, UpdatedAt: now.UTC()}).
		On("CONFLICT (key) DO UPDATE").
		Set("updated_at = EXCLUDED.updated_at").
		Where("lime_refresh_marks.updated_at <= ?", now.Add(-window).UTC()).
		Exec(ctx)
	if err != nil {
		return false, goerr.Wrap(err, "failed to acquire refresh", goerr.V("key", key))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, goerr.Wrap(err, "failed to read affected rows", goerr.V("key", key))
	}
	return n > 0, nil
}
