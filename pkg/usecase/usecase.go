package usecase

import (
	"time"

	"github.com/m2rads/lime/pkg/domain/interfaces"
	"github.com/m2rads/lime/pkg/domain/model/config"
	"github.com/m2rads/lime/pkg/service/github"
	"github.com/m2rads/lime/pkg/service/slack"
)

type UseCases struct {
	repo         interfaces.Repository
	github       github.Service
	notifier     slack.Notifier
	appConfig    *config.AppConfig
	activeOrgTTL time.Duration

	Auth       AuthUseCaseInterface
	Connection *ConnectionUseCase
	Webhook    *WebhookUseCase
	Repository *RepositoryUseCase
	Runner     *RunnerUseCase
	Navigation *NavigationUseCase
}

type Option func(*UseCases)

// WithGitHub sets the GitHub App client. Without it, setup and repository
// listing fail with ErrGitHubNotConfigured.
func WithGitHub(gh github.Service) Option {
	return func(uc *UseCases) {
		uc.github = gh
	}
}

func WithNotifier(notifier slack.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

func WithAuth(auth AuthUseCaseInterface) Option {
	return func(uc *UseCases) {
		uc.Auth = auth
	}
}

func WithAppConfig(cfg *config.AppConfig) Option {
	return func(uc *UseCases) {
		uc.appConfig = cfg
	}
}

// WithActiveOrgCacheTTL sets how long the active organization of a user is
// cached
func WithActiveOrgCacheTTL(ttl time.Duration) Option {
	return func(uc *UseCases) {
		uc.activeOrgTTL = ttl
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.appConfig == nil {
		uc.appConfig = config.Default()
	}

	uc.Connection = NewConnectionUseCase(repo, uc.github, newActiveOrgCache(uc.activeOrgTTL))
	uc.Webhook = NewWebhookUseCase(repo, uc.Connection, uc.notifier)
	uc.Repository = NewRepositoryUseCase(uc.Connection, uc.github)
	uc.Runner = NewRunnerUseCase(uc.Connection, uc.appConfig.Runner)
	uc.Navigation = NewNavigationUseCase(uc.appConfig.Navigation)

	return uc
}
