package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/cli/config"
	httpctrl "github.com/m2rads/lime/pkg/controller/http"
	"github.com/m2rads/lime/pkg/usecase"
	"github.com/m2rads/lime/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var activeOrgTTL time.Duration
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var githubCfg config.GitHub
	var authCfg config.Auth
	var siteCfg config.Site
	var slackCfg config.Slack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("LIME_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "active-org-cache-ttl",
			Usage:       "How long the active organization of a user is cached",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("LIME_ACTIVE_ORG_CACHE_TTL"),
			Destination: &activeOrgTTL,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, siteCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			appConfig, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load application configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			ghSvc, err := githubCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure GitHub App")
			}
			if ghSvc == nil {
				logger.Warn("GitHub App is not configured, installation and repository features are disabled")
			} else {
				logger.LogAttrs(ctx, slog.LevelInfo, "GitHub App enabled", githubCfg.LogAttrs()...)
			}
			if githubCfg.WebhookSecret() == "" {
				logger.Warn("GitHub webhook secret is not set, every delivery will be rejected")
			}

			notifier, err := slackCfg.Configure()
			if err != nil {
				return err
			}

			authUC, err := authCfg.Configure(repo, ghSvc, siteCfg.CallbackURL())
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}

			ucOpts := []usecase.Option{
				usecase.WithAuth(authUC),
				usecase.WithAppConfig(appConfig),
				usecase.WithActiveOrgCacheTTL(activeOrgTTL),
			}
			if ghSvc != nil {
				ucOpts = append(ucOpts, usecase.WithGitHub(ghSvc))
			}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
			}
			uc := usecase.New(repo, ucOpts...)

			httpHandler := httpctrl.New(uc,
				httpctrl.WithAuth(authUC),
				httpctrl.WithWebhookSecret(githubCfg.WebhookSecret()),
				httpctrl.WithGitHubAppName(githubCfg.AppName()),
				httpctrl.WithSiteURL(siteCfg.URL(), siteCfg.DeploymentURL()),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server",
					"addr", addr,
					"repository", repoCfg,
					"auth", authCfg,
					"site", siteCfg,
					"slack", slackCfg,
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}
