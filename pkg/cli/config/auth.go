package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/interfaces"
	"github.com/m2rads/lime/pkg/service/github"
	"github.com/m2rads/lime/pkg/usecase"
	"github.com/m2rads/lime/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Auth holds CLI flags for GitHub OAuth sign-in
type Auth struct {
	clientID      string
	clientSecret  string
	oauthBaseURL  string
	refreshWindow time.Duration
	noAuthUser    string
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-client-id",
			Usage:       "GitHub OAuth client ID",
			Category:    "Authentication",
			Destination: &x.clientID,
			Sources:     cli.EnvVars("LIME_GITHUB_CLIENT_ID", "GITHUB_CLIENT_ID"),
		},
		&cli.StringFlag{
			Name:        "github-client-secret",
			Usage:       "GitHub OAuth client secret",
			Category:    "Authentication",
			Destination: &x.clientSecret,
			Sources:     cli.EnvVars("LIME_GITHUB_CLIENT_SECRET", "GITHUB_CLIENT_SECRET"),
		},
		&cli.StringFlag{
			Name:        "github-oauth-url",
			Usage:       "GitHub web URL for OAuth (GitHub Enterprise), e.g. https://github.example.com",
			Category:    "Authentication",
			Destination: &x.oauthBaseURL,
			Sources:     cli.EnvVars("LIME_GITHUB_OAUTH_URL"),
		},
		&cli.DurationFlag{
			Name:        "session-refresh-window",
			Usage:       "Minimum interval between two GitHub re-validations of one session",
			Category:    "Authentication",
			Value:       usecase.DefaultRefreshWindow,
			Destination: &x.refreshWindow,
			Sources:     cli.EnvVars("LIME_SESSION_REFRESH_WINDOW"),
		},
		&cli.StringFlag{
			Name:        "no-auth",
			Usage:       "Skip authentication and run as the given GitHub user ID (development only). Example: --no-auth=1001",
			Category:    "Authentication",
			Destination: &x.noAuthUser,
			Sources:     cli.EnvVars("LIME_NO_AUTH"),
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("client-id.len", len(x.clientID)),
		slog.Int("client-secret.len", len(x.clientSecret)),
		slog.Duration("refresh-window", x.refreshWindow),
		slog.String("no-auth", x.noAuthUser),
	)
}

// IsNoAuthMode reports whether sign-in is replaced by a fixed user
func (x *Auth) IsNoAuthMode() bool {
	return x.noAuthUser != ""
}

// IsConfigured reports whether OAuth credentials are set
func (x *Auth) IsConfigured() bool {
	return x.clientID != "" && x.clientSecret != ""
}

// Configure creates the AuthUseCase, or the NoAuthnUseCase in no-auth mode.
// callbackURL is the public URL of /api/auth/callback.
func (x *Auth) Configure(repo interfaces.Repository, gh github.Service, callbackURL string) (usecase.AuthUseCaseInterface, error) {
	if x.IsNoAuthMode() {
		logging.Default().Warn("Running in no-auth mode (development only)", "user_id", x.noAuthUser)
		return usecase.NewNoAuthnUseCase(repo, x.noAuthUser, "dev-"+x.noAuthUser, "", "Developer"), nil
	}

	if !x.IsConfigured() {
		return nil, goerr.Wrap(ErrMissingParameter, "github-client-id and github-client-secret are required unless --no-auth is set")
	}
	if gh == nil {
		return nil, goerr.Wrap(ErrMissingParameter, "GitHub App credentials are required for sign-in")
	}

	opts := []usecase.AuthOption{
		usecase.WithRefreshLimiter(usecase.NewRefreshLimiter(repo, x.refreshWindow)),
	}
	if x.oauthBaseURL != "" {
		base := strings.TrimSuffix(x.oauthBaseURL, "/")
		opts = append(opts, usecase.WithOAuthEndpoint(oauth2.Endpoint{
			AuthURL:  base + "/login/oauth/authorize",
			TokenURL: base + "/login/oauth/access_token",
		}))
	}

	return usecase.NewAuthUseCase(repo, gh, x.clientID, x.clientSecret, callbackURL, opts...), nil
}
