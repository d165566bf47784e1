package cli

import (
	"context"

	"github.com/m-mizutani/imgharvest/pkg/cli/config"
	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
	"github.com/m-mizutani/imgharvest/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// pipelineConfig gathers every configuration group the pipeline is built from
type pipelineConfig struct {
	serpapi config.SerpAPI
	http    config.HTTP
	storage config.Storage
	history config.History
	slack   config.Slack
}

func (c *pipelineConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, c.serpapi.Flags()...)
	flags = append(flags, c.http.Flags()...)
	flags = append(flags, c.storage.Flags()...)
	flags = append(flags, c.history.Flags()...)
	flags = append(flags, c.slack.Flags()...)
	return flags
}

// storageFlags is the subset needed when no search is performed
func (c *pipelineConfig) storageFlags() []cli.Flag {
	return c.storage.Flags()
}

// pipeline is a built Pipeline together with the storage it writes to
type pipeline struct {
	*usecase.Pipeline
	storage interfaces.ImageStorage
	closers []func()
}

func (p *pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

// build wires the pipeline. Without withSearch the search API key is not
// required and no search or download is possible (used by clear).
func (c *pipelineConfig) build(ctx context.Context, withSearch bool) (*pipeline, error) {
	p := &pipeline{}

	st, closeStorage, err := c.storage.New(ctx)
	if err != nil {
		return nil, err
	}
	p.storage = st
	p.closers = append(p.closers, closeStorage)

	if !withSearch {
		p.Pipeline = usecase.NewPipeline(nil, nil, st)
		return p, nil
	}

	if err := c.serpapi.Validate(); err != nil {
		p.Close()
		return nil, err
	}

	httpClient, err := c.http.NewClient(ctx)
	if err != nil {
		p.Close()
		return nil, err
	}

	repo, closeHistory, err := c.history.New(ctx)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.closers = append(p.closers, closeHistory)

	opts := c.serpapi.PipelineOptions()
	opts = append(opts, usecase.WithHistory(repo))
	if n := c.slack.NewNotifier(httpClient); n != nil {
		opts = append(opts, usecase.WithNotifier(n))
	}

	p.Pipeline = usecase.NewPipeline(
		c.serpapi.NewClient(httpClient),
		c.http.NewFetcher(httpClient),
		st,
		opts...,
	)
	return p, nil
}
