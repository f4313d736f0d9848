package sqlstore

import (
	"time"

	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/domain/model/auth"
	"github.com/uptrace/bun"
)

type connectionRecord struct {
	bun.BaseModel `bun:"table:lime_connections,alias:lc"`

	ID             string    `bun:"id,pk"`
	UserID         string    `bun:"user_id,notnull"`
	OrgID          int64     `bun:"org_id,notnull"`
	OrgName        string    `bun:"org_name,notnull"`
	OrgAvatarURL   string    `bun:"org_avatar_url,notnull"`
	InstallationID int64     `bun:"installation_id,notnull"`
	IsActive       bool      `bun:"is_active,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
}

func newConnectionRecord(c *model.Connection) *connectionRecord {
	return &connectionRecord{
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

func (r *connectionRecord) toModel() *model.Connection {
	return &model.Connection{
		ID:             model.ConnectionID(r.ID),
		UserID:         model.UserID(r.UserID),
		OrgID:          model.OrgID(r.OrgID),
		OrgName:        r.OrgName,
		OrgAvatarURL:   r.OrgAvatarURL,
		InstallationID: model.InstallationID(r.InstallationID),
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

type tokenRecord struct {
	bun.BaseModel `bun:"table:lime_tokens,alias:lt"`

	ID          string    `bun:"id,pk"`
	Secret      string    `bun:"secret,notnull"`
	Sub         string    `bun:"sub,notnull"`
	Login       string    `bun:"login,notnull"`
	Email       string    `bun:"email,notnull"`
	Name        string    `bun:"name,notnull"`
	AvatarURL   string    `bun:"avatar_url,notnull"`
	AccessToken string    `bun:"access_token,notnull"`
	ExpiresAt   time.Time `bun:"expires_at,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

func newTokenRecord(t *auth.Token) *tokenRecord {
	return &tokenRecord{
		ID:          t.ID.String(),
		Secret:      t.Secret.String(),
		Sub:         t.Sub,
		Login:       t.Login,
		Email:       t.Email,
		Name:        t.Name,
		AvatarURL:   t.AvatarURL,
		AccessToken: t.AccessToken,
		ExpiresAt:   t.ExpiresAt,
		CreatedAt:   t.CreatedAt,
	}
}

func (r *tokenRecord) toModel() *auth.Token {
	return &auth.Token{
		ID:          auth.TokenID(r.ID),
		Secret:      auth.TokenSecret(r.Secret),
		Sub:         r.Sub,
		Login:       r.Login,
		Email:       r.Email,
		Name:        r.Name,
		AvatarURL:   r.AvatarURL,
		AccessToken: r.AccessToken,
		ExpiresAt:   r.ExpiresAt,
		CreatedAt:   r.CreatedAt,
	}
}

// refreshRecord uses the table name as alias so that upsert conditions can
// reference the existing row the same way on every dialect
type refreshRecord struct {
	bun.BaseModel `bun:"table:lime_refresh_marks,alias:lime_refresh_marks"`

	Key       string    `bun:"key,pk"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
