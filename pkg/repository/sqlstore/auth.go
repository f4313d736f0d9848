package sqlstore

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/model/auth"
)

func (s *Store) PutToken(ctx context.Context, token *auth.Token) error {
	if err := token.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token")
	}

	_, err := s.db.NewInsert().
		Model(newTokenRecord(token)).
		On("CONFLICT (id) DO UPDATE").
		Set("secret = EXCLUDED.secret").
		Set("sub = EXCLUDED.sub").
		Set("login = EXCLUDED.login").
		Set("email = EXCLUDED.email").
		Set("name = EXCLUDED.name").
		Set("avatar_url = EXCLUDED.avatar_url").
		Set("access_token = EXCLUDED.access_token").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to put token", goerr.V("token_id", token.ID))
	}
	return nil
}

func (s *Store) GetToken(ctx context.Context, tokenID auth.TokenID) (*auth.Token, error) {
	if err := tokenID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid token ID")
	}

	records, _, err := s.tokens.List(ctx,
		repository.SelectBy("id", "=", tokenID.String()),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get token", goerr.V("token_id", tokenID))
	}
	if len(records) == 0 {
		return nil, goerr.Wrap(ErrNotFound, "token not found", goerr.V("token_id", tokenID))
	}
	return records[0].toModel(), nil
}

func (s *Store) DeleteToken(ctx context.Context, tokenID auth.TokenID) error {
	if err := tokenID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token ID")
	}

	res, err := s.db.NewDelete().
		Model((*tokenRecord)(nil)).
		Where("id = ?", tokenID.String()).
		Exec(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to delete token", goerr.V("token_id", tokenID))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return goerr.Wrap(ErrNotFound, "token not found", goerr.V("token_id", tokenID))
	}
	return nil
}
