package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/m-mizutani/imgharvest/pkg/utils/logging"
)

// SearchPaginator collects image candidates page by page until the target count is
// reached or a page comes back empty. Any page failure aborts the whole search.
type SearchPaginator struct {
	client    interfaces.SearchClient
	urlFields []string
	maxPages  int
}

type PaginatorOption func(*SearchPaginator)

// WithURLFields sets the entry fields tried, in order, to extract an image URL
func WithURLFields(fields ...string) PaginatorOption {
	return func(p *SearchPaginator) {
		if len(fields) > 0 {
			p.urlFields = fields
		}
	}
}

// WithMaxPages caps the number of pages requested per search. 0 means no cap.
func WithMaxPages(n int) PaginatorOption {
	return func(p *SearchPaginator) {
		p.maxPages = n
	}
}

func NewSearchPaginator(client interfaces.SearchClient, opts ...PaginatorOption) *SearchPaginator {
	p := &SearchPaginator{
		client:    client,
		urlFields: model.DefaultURLFields,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Search returns at most target candidates for query, in result order
func (p *SearchPaginator) Search(ctx context.Context, query string, target int) ([]model.ImageCandidate, error) {
	logger := logging.From(ctx)

	if target <= 0 {
		return nil, goerr.New("target count must be positive",
			goerr.T(model.ErrTagValidation), goerr.V("target", target))
	}

	var candidates []model.ImageCandidate
	req := model.SearchRequest{Query: query, TargetCount: target}

	for pages := 0; len(candidates) < target; pages++ {
		if p.maxPages > 0 && pages >= p.maxPages {
			logger.Warn("Reached page limit before target count",
				"query", query, "pages", pages, "collected", len(candidates), "target", target)
			break
		}

		entries, err := p.client.SearchPage(ctx, req)
		if err != nil {
			return nil, goerr.Wrap(err, "search page request failed",
				goerr.T(model.ErrTagSearchFailure),
				goerr.V("query", query),
				goerr.V("page", req.PageCursor))
		}

		logger.Debug("Fetched search page",
			"query", query, "page", req.PageCursor, "entries", len(entries))

		if len(entries) == 0 {
			break
		}

		for _, entry := range entries {
			if u, ok := entry.URL(p.urlFields); ok {
				candidates = append(candidates, model.ImageCandidate{SourceURL: u})
			}
		}
		req = req.NextPage()
	}

	if len(candidates) > target {
		candidates = candidates[:target]
	}

	logger.Info("Search finished",
		"query", query, "target", target, "candidates", len(candidates), "next_cursor", req.PageCursor)
	return candidates, nil
}
