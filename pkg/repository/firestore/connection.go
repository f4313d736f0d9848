package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/interfaces"
	"github.com/m2rads/lime/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type connectionRepository struct {
	client     *firestore.Client
	collection *firestore.CollectionRef
}

var _ interfaces.ConnectionRepository = &connectionRepository{}

// connectionDoc is the Firestore persistence model
type connectionDoc struct {
	ID             string    `firestore:"id"`
	UserID         string    `firestore:"user_id"`
	OrgID          int64     `firestore:"org_id"`
	OrgName        string    `firestore:"org_name"`
	OrgAvatarURL   string    `firestore:"org_avatar_url"`
	InstallationID int64     `firestore:"installation_id"`
	IsActive       bool      `firestore:"is_active"`
	CreatedAt      time.Time `firestore:"created_at"`
	UpdatedAt      time.Time `firestore:"updated_at"`
}

func toConnectionDoc(c *model.Connection) *connectionDoc {
	return &connectionDoc{
		ID:             c.ID.String(),
		UserID:         c.UserID.String(),
		OrgID:          int64(c.OrgID),
		OrgName:        c.OrgName,
		OrgAvatarURL:   c.OrgAvatarURL,
		InstallationID: int64(c.InstallationID),
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (d *connectionDoc) toModel() *model.Connection {
	return &model.Connection{
		ID:             model.ConnectionID(d.ID),
		UserID:         model.UserID(d.UserID),
		OrgID:          model.OrgID(d.OrgID),
		OrgName:        d.OrgName,
		OrgAvatarURL:   d.OrgAvatarURL,
		InstallationID: model.InstallationID(d.InstallationID),
		IsActive:       d.IsActive,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func decodeConnection(snap *firestore.DocumentSnapshot) (*model.Connection, error) {
	var doc connectionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal connection", goerr.V("docID", snap.Ref.ID))
	}
	return doc.toModel(), nil
}

func deactivation(now time.Time) []firestore.Update {
	return []firestore.Update{
		{Path: "is_active", Value: false},
		{Path: "updated_at", Value: now},
	}
}

func (r *connectionRepository) CreateOrUpdate(ctx context.Context, input model.ConnectionInput) (*model.Connection, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var result *model.Connection
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snaps, err := tx.Documents(r.collection.Where("user_id", "==", input.UserID.String())).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to read user connections")
		}

		now := time.Now().UTC()
		var existing *model.Connection
		for _, snap := range snaps {
			c, err := decodeConnection(snap)
			if err != nil {
				return err
			}
			if c.OrgID == input.OrgID && existing == nil {
				existing = c
			}
			if c.IsActive {
				if err := tx.Update(snap.Ref, deactivation(now)); err != nil {
					return goerr.Wrap(err, "failed to deactivate connection", goerr.V(model.ConnectionIDKey, c.ID))
				}
			}
		}

		if existing != nil {
			existing.Reconnect(input, now)
			result = existing
			return tx.Set(r.collection.Doc(existing.ID.String()), toConnectionDoc(existing))
		}

		created := model.NewConnection(input, now)
		result = created
		return tx.Create(r.collection.Doc(created.ID.String()), toConnectionDoc(created))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create or update connection",
			goerr.V(model.UserIDKey, input.UserID), goerr.V(model.OrgIDKey, input.OrgID))
	}

	return result, nil
}

func (r *connectionRepository) SetActive(ctx context.Context, userID model.UserID, id model.ConnectionID) (*model.Connection, error) {
	var result *model.Connection
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		targetSnap, err := tx.Get(r.collection.Doc(id.String()))
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "connection not found")
			}
			return goerr.Wrap(err, "failed to get connection")
		}
		target, err := decodeConnection(targetSnap)
		if err != nil {
			return err
		}
		if target.UserID != userID {
			return goerr.Wrap(ErrNotFound, "connection belongs to another user")
		}

		snaps, err := tx.Documents(r.collection.Where("user_id", "==", userID.String()).Where("is_active", "==", true)).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to read active connections")
		}

		now := time.Now().UTC()
		for _, snap := range snaps {
			if snap.Ref.ID == target.ID.String() {
				continue
			}
			if err := tx.Update(snap.Ref, deactivation(now)); err != nil {
				return goerr.Wrap(err, "failed to deactivate connection", goerr.V("docID", snap.Ref.ID))
			}
		}

		target.IsActive = true
		target.UpdatedAt = now
		result = target
		return tx.Update(targetSnap.Ref, []firestore.Update{
			{Path: "is_active", Value: true},
			{Path: "updated_at", Value: now},
		})
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to set active connection",
			goerr.V(model.UserIDKey, userID), goerr.V(model.ConnectionIDKey, id))
	}

	return result, nil
}

func (r *connectionRepository) RemoveByInstallation(ctx context.Context, installationID model.InstallationID) ([]*model.Connection, error) {
	var removed []*model.Connection
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		removed = nil
		snaps, err := tx.Documents(r.collection.Where("installation_id", "==", int64(installationID))).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to read installation connections")
		}

		for _, snap := range snaps {
			c, err := decodeConnection(snap)
			if err != nil {
				return err
			}
			if err := tx.Delete(snap.Ref); err != nil {
				return goerr.Wrap(err, "failed to delete connection", goerr.V(model.ConnectionIDKey, c.ID))
			}
			removed = append(removed, c)
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to remove connections", goerr.V(model.InstallationIDKey, installationID))
	}

	return removed, nil
}

func (r *connectionRepository) DeactivateByInstallation(ctx context.Context, installationID model.InstallationID) ([]*model.Connection, error) {
	var changed []*model.Connection
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		changed = nil
		snaps, err := tx.Documents(r.collection.
			Where("installation_id", "==", int64(installationID)).
			Where("is_active", "==", true)).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to read installation connections")
		}

		now := time.Now().UTC()
		for _, snap := range snaps {
			c, err := decodeConnection(snap)
			if err != nil {
				return err
			}
			if err := tx.Update(snap.Ref, deactivation(now)); err != nil {
				return goerr.Wrap(err, "failed to deactivate connection", goerr.V(model.ConnectionIDKey, c.ID))
			}
			c.IsActive = false
			c.UpdatedAt = now
			changed = append(changed, c)
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to deactivate connections", goerr.V(model.InstallationIDKey, installationID))
	}

	return changed, nil
}

func (r *connectionRepository) ListByUser(ctx context.Context, userID model.UserID) ([]*model.Connection, error) {
	iter := r.collection.
		Where("user_id", "==", userID.String()).
		OrderBy("org_name", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var result []*model.Connection
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate connections", goerr.V(model.UserIDKey, userID))
		}

		c, err := decodeConnection(snap)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}

	return result, nil
}

func (r *connectionRepository) GetActive(ctx context.Context, userID model.UserID) (*model.Connection, error) {
	iter := r.collection.
		Where("user_id", "==", userID.String()).
		Where("is_active", "==", true).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get active connection", goerr.V(model.UserIDKey, userID))
	}

	return decodeConnection(snap)
}
