package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/slack-go/slack"
)

// maxDetailRows caps how many row statuses are put in one message
const maxDetailRows = 20

// Notifier posts batch summaries to a Slack incoming webhook
type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

var _ interfaces.Notifier = (*Notifier)(nil)

type Option func(*Notifier)

func WithHTTPClient(client *http.Client) Option {
	return func(n *Notifier) {
		n.httpClient = client
	}
}

func New(webhookURL string, opts ...Option) *Notifier {
	n := &Notifier{
		webhookURL: webhookURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NotifyBatch sends the final status of result with a short per-row breakdown
func (n *Notifier) NotifyBatch(ctx context.Context, result *model.BatchResult) error {
	msg := buildMessage(result)
	if err := slack.PostWebhookCustomHTTPContext(ctx, n.webhookURL, n.httpClient, msg); err != nil {
		// webhook URL is a credential; keep it out of the error
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return goerr.Wrap(err, "failed to post slack notification", goerr.V("batch_id", result.ID))
	}
	return nil
}

func buildMessage(result *model.BatchResult) *slack.WebhookMessage {
	processed, skipped, images := result.Counts()

	color := "good"
	switch {
	case images == 0:
		color = "danger"
	case skipped > 0 || hasFailures(result):
		color = "warning"
	}

	statuses := result.Statuses()
	truncated := 0
	if len(statuses) > maxDetailRows {
		truncated = len(statuses) - maxDetailRows
		statuses = statuses[:maxDetailRows]
	}
	details := strings.Join(statuses, "\n")
	if truncated > 0 {
		details += fmt.Sprintf("\n... and %d more rows", truncated)
	}

	return &slack.WebhookMessage{
		Text: result.FinalStatus(),
		Attachments: []slack.Attachment{
			{
				Color: color,
				Title: "Batch " + result.ID,
				Text:  details,
				Fields: []slack.AttachmentField{
					{Title: "Processed", Value: fmt.Sprint(processed), Short: true},
					{Title: "Skipped", Value: fmt.Sprint(skipped), Short: true},
					{Title: "Images", Value: fmt.Sprint(images), Short: true},
					{Title: "Duration", Value: result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond).String(), Short: true},
				},
			},
		},
	}
}

func hasFailures(result *model.BatchResult) bool {
	for _, row := range result.Rows {
		if row.Report != nil && row.Report.Outcome != model.OutcomeSuccess {
			return true
		}
	}
	return false
}
