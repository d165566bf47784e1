package interfaces

import (
	"context"

	"github.com/m-mizutani/imgharvest/pkg/domain/model"
)

// SearchClient fetches one page of image search results
type SearchClient interface {
	// SearchPage returns the raw entries of the page at req.PageCursor. An exhausted
	// result set is reported as an empty slice, not as an error.
	SearchPage(ctx context.Context, req model.SearchRequest) ([]model.SearchEntry, error)
}

// ImageFetcher downloads the body of a single image URL
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
