package config

import (
	"net/http"

	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
	"github.com/m-mizutani/imgharvest/pkg/infra/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds batch notification configuration
type Slack struct {
	WebhookURL string `masq:"secret"`
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL for batch completion notices",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("IMGHARVEST_SLACK_WEBHOOK_URL"),
		},
	}
}

// NewNotifier returns nil when no webhook is configured
func (c *Slack) NewNotifier(client *http.Client) interfaces.Notifier {
	if c.WebhookURL == "" {
		return nil
	}
	return slack.New(c.WebhookURL, slack.WithHTTPClient(client))
}
