package config

import (
	"log/slog"

	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// Site holds the public URL settings of the dashboard
type Site struct {
	url           string
	deploymentURL string
}

func (x *Site) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "site-url",
			Usage:       "Public base URL of the dashboard (e.g., https://lime.example.com)",
			Category:    "Site",
			Destination: &x.url,
			Sources:     cli.EnvVars("LIME_SITE_URL", "NEXT_PUBLIC_SITE_URL"),
		},
		&cli.StringFlag{
			Name:        "deployment-url",
			Usage:       "Host name assigned by the hosting platform, used when --site-url is not set",
			Category:    "Site",
			Destination: &x.deploymentURL,
			Sources:     cli.EnvVars("LIME_DEPLOYMENT_URL", "VERCEL_URL"),
		},
	}
}

func (x Site) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("url", x.url),
		slog.String("deployment_url", x.deploymentURL),
	)
}

func (x *Site) URL() string {
	return x.url
}

func (x *Site) DeploymentURL() string {
	return x.deploymentURL
}

// CallbackURL returns the OAuth callback URL resolved without a request.
// Login and callback handlers send the per-request URL instead; this value
// is the fallback registered on the OAuth config.
func (x *Site) CallbackURL() string {
	return model.JoinSiteURL(model.ResolveSiteURL(x.url, x.deploymentURL, ""), "/api/auth/callback")
}
