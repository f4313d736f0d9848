package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/interfaces"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/uptrace/bun"
)

type connectionRepository struct {
	db   *bun.DB
	repo repository.Repository[*connectionRecord]
}

var _ interfaces.ConnectionRepository = &connectionRepository{}

func orderByOrgName(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("?TableAlias.org_name ASC, ?TableAlias.id ASC")
}

func toModels(records []*connectionRecord) []*model.Connection {
	out := make([]*model.Connection, 0, len(records))
	for _, r := range records {
		out = append(out, r.toModel())
	}
	return out
}

// deactivateUser must run before any row of the user is activated, or the
// partial unique index rejects the statement
func deactivateUser(ctx context.Context, tx bun.Tx, userID model.UserID, now time.Time) error {
	_, err := tx.NewUpdate().
		Model((*connectionRecord)(nil)).
		Set("is_active = ?", false).
		Set("updated_at = ?", now).
		Where("user_id = ?", userID.String()).
		Where("is_active = ?", true).
		Exec(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to deactivate user connections", goerr.V(model.UserIDKey, userID))
	}
	return nil
}

func (r *connectionRepository) CreateOrUpdate(ctx context.Context, input model.ConnectionInput) (*model.Connection, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var result *model.Connection
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now().UTC()

		existing := new(connectionRecord)
		err := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.user_id = ?", input.UserID.String()).
			Where("?TableAlias.org_id = ?", int64(input.OrgID)).
			Limit(1).
			Scan(ctx)
		found := true
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return goerr.Wrap(err, "failed to look up connection")
			}
			found = false
		}

		if err := deactivateUser(ctx, tx, input.UserID, now); err != nil {
			return err
		}

		if found {
			c := existing.toModel()
			c.Reconnect(input, now)
			if _, err := tx.NewUpdate().Model(newConnectionRecord(c)).WherePK().Exec(ctx); err != nil {
				return goerr.Wrap(err, "failed to update connection", goerr.V(model.ConnectionIDKey, c.ID))
			}
			result = c
			return nil
		}

		created := model.NewConnection(input, now)
		if _, err := r.repo.CreateTx(ctx, tx, newConnectionRecord(created)); err != nil {
			return goerr.Wrap(err, "failed to insert connection")
		}
		result = created
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create or update connection",
			goerr.V(model.UserIDKey, input.UserID), goerr.V(model.OrgIDKey, input.OrgID))
	}

	return result, nil
}

func (r *connectionRepository) SetActive(ctx context.Context, userID model.UserID, id model.ConnectionID) (*model.Connection, error) {
	var result *model.Connection
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		target := new(connectionRecord)
		err := tx.NewSelect().
			Model(target).
			Where("?TableAlias.id = ?", id.String()).
			Where("?TableAlias.user_id = ?", userID.String()).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return goerr.Wrap(ErrNotFound, "connection not found")
			}
			return goerr.Wrap(err, "failed to get connection")
		}

		now := time.Now().UTC()
		if err := deactivateUser(ctx, tx, userID, now); err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model((*connectionRecord)(nil)).
			Set("is_active = ?", true).
			Set("updated_at = ?", now).
			Where("id = ?", target.ID).
			Exec(ctx)
		if err != nil {
			return goerr.Wrap(err, "failed to activate connection")
		}

		result = target.toModel()
		result.IsActive = true
		result.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to set active connection",
			goerr.V(model.UserIDKey, userID), goerr.V(model.ConnectionIDKey, id))
	}

	return result, nil
}

func (r *connectionRepository) RemoveByInstallation(ctx context.Context, installationID model.InstallationID) ([]*model.Connection, error) {
	var removed []*model.Connection
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var records []*connectionRecord
		err := orderByOrgName(tx.NewSelect().
			Model(&records).
			Where("?TableAlias.installation_id = ?", int64(installationID))).
			Scan(ctx)
		if err != nil {
			return goerr.Wrap(err, "failed to read installation connections")
		}
		if len(records) == 0 {
			return nil
		}

		_, err = tx.NewDelete().
			Model((*connectionRecord)(nil)).
			Where("installation_id = ?", int64(installationID)).
			Exec(ctx)
		if err != nil {
			return goerr.Wrap(err, "failed to delete installation connections")
		}

		removed = toModels(records)
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to remove connections", goerr.V(model.InstallationIDKey, installationID))
	}

	return removed, nil
}

func (r *connectionRepository) DeactivateByInstallation(ctx context.Context, installationID model.InstallationID) ([]*model.Connection, error) {
	var changed []*model.Connection
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var records []*connectionRecord
		err := orderByOrgName(tx.NewSelect().
			Model(&records).
			Where("?TableAlias.installation_id = ?", int64(installationID)).
			Where("?TableAlias.is_active = ?", true)).
			Scan(ctx)
		if err != nil {
			return goerr.Wrap(err, "failed to read installation connections")
		}
		if len(records) == 0 {
			return nil
		}

		now := time.Now().UTC()
		_, err = tx.NewUpdate().
			Model((*connectionRecord)(nil)).
			Set("is_active = ?", false).
			Set("updated_at = ?", now).
			Where("installation_id = ?", int64(installationID)).
			Where("is_active = ?", true).
			Exec(ctx)
		if err != nil {
			return goerr.Wrap(err, "failed to deactivate installation connections")
		}

		changed = toModels(records)
		for _, c := range changed {
			c.IsActive = false
			c.UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to deactivate connections", goerr.V(model.InstallationIDKey, installationID))
	}

	return changed, nil
}

func (r *connectionRepository) ListByUser(ctx context.Context, userID model.UserID) ([]*model.Connection, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectBy("user_id", "=", userID.String()),
		repository.SelectRawProcessor(orderByOrgName),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list connections", goerr.V(model.UserIDKey, userID))
	}
	return toModels(records), nil
}

func (r *connectionRepository) GetActive(ctx context.Context, userID model.UserID) (*model.Connection, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectBy("user_id", "=", userID.String()),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.is_active = ?", true)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get active connection", goerr.V(model.UserIDKey, userID))
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0].toModel(), nil
}
