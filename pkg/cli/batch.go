package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/m-mizutani/imgharvest/pkg/infra/batchfile"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func cmdBatch() *cli.Command {
	var (
		file        string
		quiet       bool
		pipelineCfg pipelineConfig
	)

	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "Batch table (.csv, .tsv, .txt or .parquet) with keyword, numbers, category columns",
			Required:    true,
			Destination: &file,
		},
		&cli.BoolFlag{
			Name:        "quiet",
			Usage:       "Do not show the progress bar",
			Destination: &quiet,
		},
	}, pipelineCfg.Flags()...)

	return &cli.Command{
		Name:    "batch",
		Aliases: []string{"b"},
		Usage:   "Download images for every row of a batch table",
		Flags:   flags,
		Before:  beforeSubcommand,
		Action: func(ctx context.Context, c *cli.Command) error {
			rows, err := batchfile.Load(file)
			if err != nil {
				return err
			}

			p, err := pipelineCfg.build(ctx, true)
			if err != nil {
				return goerr.Wrap(err, "failed to build pipeline")
			}
			defer p.Close()

			var bar *progressbar.ProgressBar
			if !quiet {
				bar = progressbar.Default(int64(len(rows)), "batch")
			}

			result := p.RunBatch(ctx, rows, func(s model.BatchRowStatus) {
				if bar != nil {
					bar.Describe(fmt.Sprintf("row %d", s.Row.Line))
					_ = bar.Add(1)
				}
			})
			if bar != nil {
				_ = bar.Finish()
			}

			printBatchResult(os.Stdout, result)
			return nil
		},
	}
}

func printBatchResult(w io.Writer, result *model.BatchResult) {
	for _, row := range result.Rows {
		outcome := model.OutcomeSkipped
		if !row.Skipped && row.Report != nil {
			outcome = row.Report.Outcome
		}
		fmt.Fprintln(w, statusColor(outcome).Sprint(row.Status))
	}

	_, _, images := result.Counts()
	final := color.New(color.FgGreen, color.Bold)
	if images == 0 {
		final = color.New(color.FgRed, color.Bold)
	}
	fmt.Fprintln(w, final.Sprint(result.FinalStatus()))
}
