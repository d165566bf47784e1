package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/m-mizutani/imgharvest/pkg/utils/logging"
)

const (
	DefaultEndpoint = "https://serpapi.com/search"
	DefaultEngine   = "google"

	// tbm=isch selects Google image search
	imageSearchMode = "isch"
	userAgent       = "Mozilla/5.0"
	maxErrorBody    = 512
)

type client struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
	engine     string
}

// Option is a functional option for the SerpApi client
type Option func(*client)

// WithEndpoint overrides the search endpoint
func WithEndpoint(endpoint string) Option {
	return func(c *client) {
		c.endpoint = endpoint
	}
}

// WithEngine overrides the SerpApi engine name
func WithEngine(engine string) Option {
	return func(c *client) {
		c.engine = engine
	}
}

// WithHTTPClient sets the HTTP client used for search requests
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a SerpApi image search client
func NewClient(apiKey string, opts ...Option) interfaces.SearchClient {
	c := &client{
		httpClient: http.DefaultClient,
		apiKey:     apiKey,
		endpoint:   DefaultEndpoint,
		engine:     DefaultEngine,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResponse holds the part of the SerpApi response we use
type searchResponse struct {
	ImagesResults []model.SearchEntry `json:"images_results"`
	Error         string              `json:"error"`
}

// SearchPage fetches one page of image results. The page cursor maps to "ijn".
func (c *client) SearchPage(ctx context.Context, req model.SearchRequest) ([]model.SearchEntry, error) {
	logger := logging.From(ctx)

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid search endpoint", goerr.V("endpoint", c.endpoint))
	}
	q := u.Query()
	q.Set("engine", c.engine)
	q.Set("q", req.Query)
	q.Set("tbm", imageSearchMode)
	q.Set("ijn", strconv.Itoa(req.PageCursor))
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create search request")
	}
	httpReq.Header.Set("User-Agent", userAgent)

	logger.Debug("Requesting search page",
		"query", req.Query,
		"cursor", req.PageCursor,
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// url.Error embeds the request URL, which carries the API key
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, goerr.Wrap(err, "search request failed",
			goerr.V("query", req.Query),
			goerr.V("cursor", req.PageCursor),
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, goerr.New(fmt.Sprintf("unexpected status code %d from search API", resp.StatusCode),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)),
			goerr.V("query", req.Query),
			goerr.V("cursor", req.PageCursor),
		)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, goerr.Wrap(err, "failed to decode search response",
			goerr.V("query", req.Query),
			goerr.V("cursor", req.PageCursor),
		)
	}

	// SerpApi answers an exhausted result set with 200 and an "error" message
	// instead of images_results.
	if len(result.ImagesResults) == 0 && result.Error != "" {
		logger.Debug("Search API reported no more results",
			"query", req.Query,
			"cursor", req.PageCursor,
			"message", result.Error,
		)
	}

	return result.ImagesResults, nil
}
