package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
)

const (
	// DefaultTimeout bounds a single image download
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "Mozilla/5.0"
	// DefaultMaxSize caps the bytes read from one image response
	DefaultMaxSize = 50 << 20
)

// Fetcher retrieves image bodies over HTTP
type Fetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	maxSize    int64
}

// Option is a functional option for Fetcher
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client used for downloads
func WithHTTPClient(httpClient *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = httpClient
	}
}

// WithTimeout sets the per-image timeout
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(f *Fetcher) {
		f.userAgent = userAgent
	}
}

// WithMaxSize sets the maximum accepted body size in bytes
func WithMaxSize(size int64) Option {
	return func(f *Fetcher) {
		f.maxSize = size
	}
}

// New creates a new image fetcher
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		userAgent:  DefaultUserAgent,
		maxSize:    DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var _ interfaces.ImageFetcher = (*Fetcher)(nil)

// Fetch downloads rawURL and returns its body. Non-2xx responses, empty bodies and
// bodies over the size cap are errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create image request", goerr.V("url", rawURL))
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, goerr.Wrap(err, "failed to fetch image", goerr.V("url", rawURL))
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, goerr.New(fmt.Sprintf("unexpected status code %d", resp.StatusCode),
			goerr.V("status", resp.StatusCode),
			goerr.V("url", rawURL),
		)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read image body", goerr.V("url", rawURL))
	}
	if int64(len(data)) > f.maxSize {
		return nil, goerr.New("image exceeds size limit",
			goerr.V("url", rawURL),
			goerr.V("limit", f.maxSize),
		)
	}
	if len(data) == 0 {
		return nil, goerr.New("empty image body", goerr.V("url", rawURL))
	}

	return data, nil
}
