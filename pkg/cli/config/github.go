package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/service/github"
	"github.com/urfave/cli/v3"
)

// GitHub holds configuration for the GitHub App integration
type GitHub struct {
	appID            int64
	appName          string
	privateKey       string
	privateKeyBase64 string
	webhookSecret    string
	apiURL           string
	graphqlURL       string
}

// Flags returns CLI flags for GitHub App configuration
func (g *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Category:    "GitHub",
			Sources:     cli.EnvVars("LIME_GITHUB_APP_ID", "GITHUB_APP_ID"),
			Destination: &g.appID,
		},
		&cli.StringFlag{
			Name:        "github-app-name",
			Usage:       "GitHub App slug, used for the installation link",
			Category:    "GitHub",
			Sources:     cli.EnvVars("LIME_GITHUB_APP_NAME", "GITHUB_APP_NAME"),
			Destination: &g.appName,
		},
		&cli.StringFlag{
			Name:        "github-app-private-key",
			Usage:       "GitHub App Private Key (PEM string, PEM with literal \\n, or file path)",
			Category:    "GitHub",
			Sources:     cli.EnvVars("LIME_GITHUB_APP_PRIVATE_KEY", "GITHUB_APP_PRIVATE_KEY"),
			Destination: &g.privateKey,
		},
		&cli.StringFlag{
			Name:        "github-app-private-key-base64",
			Usage:       "GitHub App Private Key, base64 encoded",
			Category:    "GitHub",
			Sources:     cli.EnvVars("LIME_GITHUB_APP_PRIVATE_KEY_BASE64", "GITHUB_APP_PRIVATE_KEY_BASE64"),
			Destination: &g.privateKeyBase64,
		},
		&cli.StringFlag{
			Name:        "github-webhook-secret",
			Usage:       "Secret shared with GitHub to sign webhook deliveries",
			Category:    "GitHub",
			Sources:     cli.EnvVars("LIME_GITHUB_WEBHOOK_SECRET", "GITHUB_WEBHOOK_SECRET"),
			Destination: &g.webhookSecret,
		},
		&cli.StringFlag{
			Name:        "github-api-url",
			Usage:       "GitHub REST API base URL (GitHub Enterprise)",
			Category:    "GitHub",
			Sources:     cli.EnvVars("LIME_GITHUB_API_URL"),
			Destination: &g.apiURL,
		},
		&cli.StringFlag{
			Name:        "github-graphql-url",
			Usage:       "GitHub GraphQL endpoint (GitHub Enterprise)",
			Category:    "GitHub",
			Sources:     cli.EnvVars("LIME_GITHUB_GRAPHQL_URL"),
			Destination: &g.graphqlURL,
		},
	}
}

// LogAttrs returns log attributes for the GitHub configuration (secrets hidden)
func (g *GitHub) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Int64("app_id", g.appID),
		slog.String("app_name", g.appName),
		slog.Bool("private_key", g.hasKey()),
		slog.Bool("webhook_secret", g.webhookSecret != ""),
	}
}

func (g *GitHub) hasKey() bool {
	return g.privateKey != "" || g.privateKeyBase64 != ""
}

// privateKeyPEM returns the App key as PEM. The base64 flag takes
// precedence over the raw key.
func (g *GitHub) privateKeyPEM() (string, error) {
	if g.privateKeyBase64 != "" {
		key, err := github.DecodePrivateKeyBase64(g.privateKeyBase64)
		if err != nil {
			return "", goerr.Wrap(err, "failed to decode github-app-private-key-base64")
		}
		return string(key), nil
	}
	key, err := github.NormalizePrivateKey(g.privateKey)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read github-app-private-key")
	}
	return string(key), nil
}

// AppName returns the App slug
func (g *GitHub) AppName() string {
	return g.appName
}

// WebhookSecret returns the webhook signing secret
func (g *GitHub) WebhookSecret() string {
	return g.webhookSecret
}

// IsConfigured returns true if App credentials are set
func (g *GitHub) IsConfigured() bool {
	return g.appID != 0 && g.hasKey()
}

// Configure creates a GitHub client from the configured flags.
// Returns nil when credentials are not set (installation features will be disabled).
func (g *GitHub) Configure() (github.Service, error) {
	if !g.IsConfigured() {
		if g.appID != 0 || g.hasKey() {
			return nil, goerr.Wrap(ErrMissingParameter, "both github-app-id and a private key are required")
		}
		return nil, nil
	}

	var opts []github.Option
	if g.apiURL != "" {
		opts = append(opts, github.WithBaseURL(g.apiURL))
	}
	if g.graphqlURL != "" {
		opts = append(opts, github.WithGraphQLURL(g.graphqlURL))
	}

	key, err := g.privateKeyPEM()
	if err != nil {
		return nil, err
	}

	client, err := github.New(g.appID, key, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub client", goerr.V("app_id", g.appID))
	}
	return client, nil
}
