package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds the incoming webhook used for installation notifications
type Slack struct {
	webhookURL string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL for installation notifications",
			Category:    "Slack",
			Destination: &x.webhookURL,
			Sources:     cli.EnvVars("LIME_SLACK_WEBHOOK_URL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", x.webhookURL != ""),
	)
}

// Configure returns a background notifier, or nil when no webhook URL is set
func (x *Slack) Configure() (slack.Notifier, error) {
	if x.webhookURL == "" {
		return nil, nil
	}
	notifier, err := slack.New(x.webhookURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Slack notifier")
	}
	return slack.NewAsync(notifier), nil
}
