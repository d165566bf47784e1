package config

import (
	"context"
	"net/http"
	"time"

	"github.com/m-mizutani/imgharvest/pkg/infra/fetcher"
	"github.com/m-mizutani/imgharvest/pkg/infra/httpclient"
	"github.com/urfave/cli/v3"
)

// HTTP holds outbound HTTP configuration shared by search and image download
type HTTP struct {
	Proxy           string `masq:"secret"`
	NoProxy         []string
	DownloadTimeout time.Duration
	UserAgent       string
	MaxImageSize    int64
}

// Flags returns CLI flags for outbound HTTP configuration
func (c *HTTP) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "proxy",
			Usage:       "Proxy URL for outbound requests (http, https, socks5)",
			Destination: &c.Proxy,
			Sources:     cli.EnvVars("IMGHARVEST_PROXY"),
		},
		&cli.StringSliceFlag{
			Name:        "no-proxy",
			Usage:       "Host patterns that bypass the proxy",
			Destination: &c.NoProxy,
			Sources:     cli.EnvVars("IMGHARVEST_NO_PROXY"),
		},
		&cli.DurationFlag{
			Name:        "download-timeout",
			Usage:       "Timeout for a single image download",
			Value:       fetcher.DefaultTimeout,
			Destination: &c.DownloadTimeout,
			Sources:     cli.EnvVars("IMGHARVEST_DOWNLOAD_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:        "user-agent",
			Usage:       "User-Agent header for image downloads",
			Value:       fetcher.DefaultUserAgent,
			Destination: &c.UserAgent,
			Sources:     cli.EnvVars("IMGHARVEST_USER_AGENT"),
		},
		&cli.Int64Flag{
			Name:        "max-image-size",
			Usage:       "Maximum bytes accepted for one image",
			Value:       fetcher.DefaultMaxSize,
			Destination: &c.MaxImageSize,
			Sources:     cli.EnvVars("IMGHARVEST_MAX_IMAGE_SIZE"),
		},
	}
}

// NewClient builds the shared HTTP client. Search requests use it without a
// timeout; image downloads bound each request with DownloadTimeout.
func (c *HTTP) NewClient(ctx context.Context) (*http.Client, error) {
	return httpclient.New(ctx, httpclient.Config{
		ProxyURL: c.Proxy,
		NoProxy:  c.NoProxy,
	})
}

// NewFetcher builds the image fetcher on top of client
func (c *HTTP) NewFetcher(client *http.Client) *fetcher.Fetcher {
	return fetcher.New(
		fetcher.WithHTTPClient(client),
		fetcher.WithTimeout(c.DownloadTimeout),
		fetcher.WithUserAgent(c.UserAgent),
		fetcher.WithMaxSize(c.MaxImageSize),
	)
}
