package errutil_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/imgharvest/pkg/utils/errutil"
	"github.com/m-mizutani/imgharvest/pkg/utils/logging"
)

func TestHandle(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	err := goerr.New("search failed", goerr.V("query", "fox"))
	errutil.Handle(ctx, "pipeline error", err)

	out := buf.String()
	gt.String(t, out).Contains("pipeline error")
	gt.String(t, out).Contains("search failed")
	gt.String(t, out).Contains("query=fox")
}

func TestHandle_NilError(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	errutil.Handle(ctx, "nothing", nil)
	gt.Equal(t, buf.Len(), 0)
}

func TestHandle_SentryContext(t *testing.T) {
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			events = append(events, event)
			return nil
		},
	})
	gt.NoError(t, err)

	ctx := sentry.SetHubOnContext(context.Background(), sentry.NewHub(client, sentry.NewScope()))
	ctx = logging.With(ctx, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	errutil.Handle(ctx, "pipeline error", goerr.New("search failed", goerr.V("query", "fox")))

	gt.Array(t, events).Length(1)
	gt.Equal(t, events[0].Tags["message"], "pipeline error")
	gt.Equal(t, events[0].Contexts["goerr"]["query"], any("fox"))
}
