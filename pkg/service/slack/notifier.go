package slack

import (
	"context"
	"fmt"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/domain/types"
	"github.com/slack-go/slack"
)

// Notifier posts installation lifecycle changes to an ops channel
type Notifier interface {
	NotifyInstallation(ctx context.Context, ev *model.InstallationEvent) error
}

// webhookNotifier implements Notifier with a Slack incoming webhook
type webhookNotifier struct {
	url        string
	httpClient *http.Client
}

type Option func(*webhookNotifier)

func WithHTTPClient(client *http.Client) Option {
	return func(n *webhookNotifier) {
		n.httpClient = client
	}
}

// New creates a notifier for the given incoming webhook URL
func New(webhookURL string, opts ...Option) (Notifier, error) {
	if webhookURL == "" {
		return nil, goerr.New("Slack webhook URL is required")
	}

	n := &webhookNotifier{
		url:        webhookURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// ShouldNotify reports whether the action is worth a message
func ShouldNotify(action types.InstallationAction) bool {
	switch action {
	case types.InstallationActionCreated,
		types.InstallationActionDeleted,
		types.InstallationActionSuspend:
		return true
	default:
		return false
	}
}

func (n *webhookNotifier) NotifyInstallation(ctx context.Context, ev *model.InstallationEvent) error {
	msg := buildInstallationMessage(ev)
	if err := slack.PostWebhookCustomHTTPContext(ctx, n.url, n.httpClient, msg); err != nil {
		return goerr.Wrap(err, "failed to post Slack webhook",
			goerr.V("action", ev.Action), goerr.V(model.InstallationIDKey, ev.InstallationID))
	}
	return nil
}

func buildInstallationMessage(ev *model.InstallationEvent) *slack.WebhookMessage {
	account := "unknown account"
	if ev.Account != nil && ev.Account.Login != "" {
		account = ev.Account.Login
	}

	var verb string
	switch ev.Action {
	case types.InstallationActionCreated:
		verb = "installed on"
	case types.InstallationActionDeleted:
		verb = "uninstalled from"
	case types.InstallationActionSuspend:
		verb = "suspended on"
	default:
		verb = string(ev.Action) + " on"
	}

	text := fmt.Sprintf("GitHub App %s *%s*", verb, account)
	return &slack.WebhookMessage{
		Text: text,
		Blocks: &slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
				slack.NewContextBlock("",
					slack.NewTextBlockObject(slack.MarkdownType,
						fmt.Sprintf("installation `%d`", ev.InstallationID), false, false),
				),
			},
		},
	}
}
