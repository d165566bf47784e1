package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdDownload() *cli.Command {
	var (
		query       string
		count       int
		pipelineCfg pipelineConfig
	)

	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Search query",
			Required:    true,
			Destination: &query,
		},
		&cli.IntFlag{
			Name:        "count",
			Aliases:     []string{"n"},
			Usage:       "Number of images to download",
			Value:       5,
			Destination: &count,
		},
	}, pipelineCfg.Flags()...)

	return &cli.Command{
		Name:    "download",
		Aliases: []string{"d"},
		Usage:   "Search one query and download its images",
		Flags:   flags,
		Before:  beforeSubcommand,
		Action: func(ctx context.Context, c *cli.Command) error {
			p, err := pipelineCfg.build(ctx, true)
			if err != nil {
				return goerr.Wrap(err, "failed to build pipeline")
			}
			defer p.Close()

			report := p.DownloadSingle(ctx, query, count)
			printReport(os.Stdout, report)

			switch report.Outcome {
			case model.OutcomeSuccess, model.OutcomePartial:
				return nil
			default:
				return goerr.New("download did not store any image",
					goerr.V("outcome", report.Outcome), goerr.V("query", query))
			}
		},
	}
}

func printReport(w io.Writer, report *model.Report) {
	okMark := color.New(color.FgGreen).Sprint("OK  ")
	ngMark := color.New(color.FgRed).Sprint("FAIL")

	for _, r := range report.Results {
		if r.OK {
			fmt.Fprintf(w, "%s %s\n", okMark, r.LocalPath)
		} else {
			fmt.Fprintf(w, "%s %s (%s)\n", ngMark, r.SourceURL, r.Error)
		}
	}
	fmt.Fprintln(w, statusColor(report.Outcome).Sprint(report.Status))
}

func statusColor(outcome model.Outcome) *color.Color {
	switch outcome {
	case model.OutcomeSuccess:
		return color.New(color.FgGreen, color.Bold)
	case model.OutcomePartial, model.OutcomeSkipped:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}
