package usecase

import (
	"context"

	"github.com/m2rads/lime/pkg/domain/model/auth"
)

// AuthUseCaseInterface is implemented by AuthUseCase and NoAuthnUseCase
type AuthUseCaseInterface interface {
	// redirectURL overrides the configured OAuth callback when not empty
	GetAuthURL(state, redirectURL string) string
	HandleCallback(ctx context.Context, code, redirectURL string) (*auth.Token, error)
	ValidateToken(ctx context.Context, tokenID auth.TokenID, tokenSecret auth.TokenSecret) (*auth.Token, error)
	Logout(ctx context.Context, tokenID auth.TokenID) error
	IsNoAuthn() bool
}
