package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdClear() *cli.Command {
	var pipelineCfg pipelineConfig

	return &cli.Command{
		Name:   "clear",
		Usage:  "Remove every downloaded image and folder under the storage root",
		Flags:  pipelineCfg.storageFlags(),
		Before: beforeSubcommand,
		Action: func(ctx context.Context, c *cli.Command) error {
			p, err := pipelineCfg.build(ctx, false)
			if err != nil {
				return goerr.Wrap(err, "failed to build pipeline")
			}
			defer p.Close()

			status := p.Clear(ctx)
			fmt.Println(status)
			if status != model.StatusCleared {
				return goerr.New("clear failed", goerr.V("status", status))
			}
			return nil
		},
	}
}
