package usecase

import (
	"context"
	"errors"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/interfaces"
	"github.com/m2rads/lime/pkg/domain/model/auth"
	"github.com/m2rads/lime/pkg/service/github"
	"github.com/m2rads/lime/pkg/utils/logging"
	"golang.org/x/oauth2"
	oauth2github "golang.org/x/oauth2/github"
)

// GitHub OAuth scopes requested at sign-in
var oauthScopes = []string{"read:user", "user:email"}

// AuthUseCase signs users in with GitHub OAuth and keeps their sessions
type AuthUseCase struct {
	repo    interfaces.Repository
	github  github.Service
	oauth   *oauth2.Config
	limiter *RefreshLimiter
	cache   *authCache
}

// AuthOption is a functional option for AuthUseCase
type AuthOption func(*AuthUseCase)

// WithOAuthEndpoint replaces the GitHub OAuth endpoint, for GitHub
// Enterprise or tests
func WithOAuthEndpoint(endpoint oauth2.Endpoint) AuthOption {
	return func(uc *AuthUseCase) {
		uc.oauth.Endpoint = endpoint
	}
}

// WithRefreshLimiter enables periodic re-validation of the GitHub access token
func WithRefreshLimiter(limiter *RefreshLimiter) AuthOption {
	return func(uc *AuthUseCase) {
		uc.limiter = limiter
	}
}

func NewAuthUseCase(repo interfaces.Repository, gh github.Service, clientID, clientSecret, callbackURL string, options ...AuthOption) *AuthUseCase {
	uc := &AuthUseCase{
		repo:   repo,
		github: gh,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       oauthScopes,
			Endpoint:     oauth2github.Endpoint,
		},
		cache: newAuthCache(),
	}

	for _, opt := range options {
		opt(uc)
	}

	return uc
}

// GetAuthURL returns the URL for GitHub OAuth
func (uc *AuthUseCase) GetAuthURL(state, redirectURL string) string {
	return uc.oauth.AuthCodeURL(state, redirectOption(redirectURL)...)
}

func redirectOption(redirectURL string) []oauth2.AuthCodeOption {
	if redirectURL == "" {
		return nil
	}
	return []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("redirect_uri", redirectURL)}
}

// IsNoAuthn returns false for regular AuthUseCase
func (uc *AuthUseCase) IsNoAuthn() bool {
	return false
}

// HandleCallback exchanges the OAuth code, loads the GitHub user and stores a
// new session
func (uc *AuthUseCase) HandleCallback(ctx context.Context, code, redirectURL string) (*auth.Token, error) {
	oauthToken, err := uc.oauth.Exchange(ctx, code, redirectOption(redirectURL)...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to exchange code for token")
	}

	user, err := uc.github.GetViewer(ctx, oauthToken.AccessToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get GitHub user")
	}

	token := auth.NewToken(strconv.FormatInt(user.ID, 10), user.Email, user.Name)
	token.Login = user.Login
	token.AvatarURL = user.AvatarURL
	token.AccessToken = oauthToken.AccessToken

	if err := uc.repo.PutToken(ctx, token); err != nil {
		return nil, goerr.Wrap(err, "failed to store token", goerr.V(TokenIDKey, token.ID))
	}

	logging.From(ctx).Info("user signed in", "login", user.Login, "sub", token.Sub)
	return token, nil
}

// ValidateToken validates the token and returns user info. At most once per
// refresh window the GitHub access token is checked as well; a revoked
// token ends the session.
func (uc *AuthUseCase) ValidateToken(ctx context.Context, tokenID auth.TokenID, tokenSecret auth.TokenSecret) (*auth.Token, error) {
	token, err := uc.validateTokenWithCache(ctx, tokenID, tokenSecret)
	if err != nil {
		return nil, err
	}

	if err := uc.refreshSession(ctx, token); err != nil {
		return nil, err
	}

	return token, nil
}

func (uc *AuthUseCase) refreshSession(ctx context.Context, token *auth.Token) error {
	if uc.limiter == nil || token.AccessToken == "" {
		return nil
	}

	allowed, err := uc.limiter.Allow(ctx, "session:"+token.ID.String())
	if err != nil {
		// a broken throttle must not sign everybody out
		logging.From(ctx).Warn("session refresh check failed", "error", err)
		return nil
	}
	if !allowed {
		return nil
	}

	if _, err := uc.github.GetViewer(ctx, token.AccessToken); err != nil {
		if errors.Is(err, github.ErrUnauthorized) {
			if err := uc.Logout(ctx, token.ID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
				logging.From(ctx).Warn("failed to delete revoked session", "error", err)
			}
			return goerr.Wrap(ErrSessionRevoked, "GitHub rejected the access token", goerr.V(TokenIDKey, token.ID))
		}
		logging.From(ctx).Warn("session refresh failed, keeping session", "error", err)
	}
	return nil
}

// Logout deletes the token
func (uc *AuthUseCase) Logout(ctx context.Context, tokenID auth.TokenID) error {
	uc.cache.remove(tokenID)

	return uc.repo.DeleteToken(ctx, tokenID)
}
