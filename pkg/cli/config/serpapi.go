package config

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/m-mizutani/imgharvest/pkg/infra/serpapi"
	"github.com/m-mizutani/imgharvest/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// SerpAPI holds search API configuration
type SerpAPI struct {
	APIKey    string `masq:"secret"`
	Endpoint  string
	Engine    string
	URLFields []string
	MaxPages  int
	MaxImages int
}

// Flags returns CLI flags for search API configuration
func (c *SerpAPI) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "serpapi-api-key",
			Usage:       "SerpApi API key",
			Destination: &c.APIKey,
			Sources:     cli.EnvVars("IMGHARVEST_SERPAPI_API_KEY", "SERPAPI_API_KEY"),
		},
		&cli.StringFlag{
			Name:        "serpapi-endpoint",
			Usage:       "SerpApi search endpoint",
			Value:       serpapi.DefaultEndpoint,
			Destination: &c.Endpoint,
			Sources:     cli.EnvVars("IMGHARVEST_SERPAPI_ENDPOINT"),
		},
		&cli.StringFlag{
			Name:        "serpapi-engine",
			Usage:       "SerpApi engine",
			Value:       serpapi.DefaultEngine,
			Destination: &c.Engine,
			Sources:     cli.EnvVars("IMGHARVEST_SERPAPI_ENGINE"),
		},
		&cli.StringSliceFlag{
			Name:        "url-fields",
			Usage:       "Result entry fields tried in order to pick an image URL",
			Value:       model.DefaultURLFields,
			Destination: &c.URLFields,
			Sources:     cli.EnvVars("IMGHARVEST_URL_FIELDS"),
		},
		&cli.IntFlag{
			Name:        "max-pages",
			Usage:       "Maximum search pages per query (0 = no limit)",
			Value:       0,
			Destination: &c.MaxPages,
			Sources:     cli.EnvVars("IMGHARVEST_MAX_PAGES"),
		},
		&cli.IntFlag{
			Name:        "max-images",
			Usage:       "Maximum number of images per single query",
			Value:       usecase.DefaultMaxImages,
			Destination: &c.MaxImages,
			Sources:     cli.EnvVars("IMGHARVEST_MAX_IMAGES"),
		},
	}
}

// Validate checks settings required to search
func (c *SerpAPI) Validate() error {
	if c.APIKey == "" {
		return goerr.New("SerpApi API key is not set (--serpapi-api-key or SERPAPI_API_KEY)")
	}
	if c.MaxPages < 0 {
		return goerr.New("max-pages must not be negative", goerr.V("max_pages", c.MaxPages))
	}
	if c.MaxImages <= 0 {
		return goerr.New("max-images must be positive", goerr.V("max_images", c.MaxImages))
	}
	return nil
}

// NewClient builds the search client
func (c *SerpAPI) NewClient(httpClient *http.Client) interfaces.SearchClient {
	return serpapi.NewClient(c.APIKey,
		serpapi.WithEndpoint(c.Endpoint),
		serpapi.WithEngine(c.Engine),
		serpapi.WithHTTPClient(httpClient),
	)
}

// PipelineOptions returns the pipeline options derived from this configuration
func (c *SerpAPI) PipelineOptions() []usecase.Option {
	return []usecase.Option{
		usecase.WithMaxImages(c.MaxImages),
		usecase.WithPaginatorOptions(
			usecase.WithURLFields(c.URLFields...),
			usecase.WithMaxPages(c.MaxPages),
		),
	}
}
