package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type refreshMark struct {
	Key       string    `firestore:"key"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func (f *Firestore) TryAcquireRefresh(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error) {
	ref := f.collection(RefreshMarksCollection).Doc(key)

	var acquired bool
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		acquired = false
		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get refresh mark")
		}
		if err == nil {
			var mark refreshMark
			if err := snap.DataTo(&mark); err != nil {
				return goerr.Wrap(err, "failed to unmarshal refresh mark")
			}
			if now.Sub(mark.UpdatedAt) < window {
				return nil
			}
		}

		acquired = true
		return tx.Set(ref, &refreshMark{Key: key, UpdatedAt: now})
	})
	if err != nil {
		return false, goerr.Wrap(err, "failed to acquire refresh", goerr.V("key", key))
	}

	return acquired, nil
}
