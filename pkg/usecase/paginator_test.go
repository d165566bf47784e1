package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/m-mizutani/imgharvest/pkg/usecase"
)

func candidateURLs(candidates []model.ImageCandidate) []string {
	var urls []string
	for _, c := range candidates {
		urls = append(urls, c.SourceURL)
	}
	return urls
}

func TestSearchPaginator_CollectsAcrossPagesAndTruncates(t *testing.T) {
	client := pagedSearch(
		entries("a1", "a2", "a3"),
		entries("b1", "b2", "b3"),
		entries("c1"),
	)
	p := usecase.NewSearchPaginator(client)

	got, err := p.Search(context.Background(), "fox", 5)
	gt.NoError(t, err)
	gt.Equal(t, candidateURLs(got), []string{"a1", "a2", "a3", "b1", "b2"})
	gt.Equal(t, client.cursors(), []int{0, 1})
}

func TestSearchPaginator_StopsOnEmptyPage(t *testing.T) {
	client := pagedSearch(entries("a1", "a2"))
	p := usecase.NewSearchPaginator(client)

	got, err := p.Search(context.Background(), "fox", 10)
	gt.NoError(t, err)
	gt.Equal(t, candidateURLs(got), []string{"a1", "a2"})
	gt.Equal(t, client.cursors(), []int{0, 1})
}

func TestSearchPaginator_FieldPrecedence(t *testing.T) {
	client := pagedSearch([]model.SearchEntry{
		{"original": "https://x/orig.jpg", "image": "https://x/img.jpg"},
		{"image": "https://x/only-image.jpg"},
		{"thumbnail": "https://x/thumb.jpg"},
		{"original": "", "image": "https://x/fallback.jpg"},
		{"original": 42},
	})
	p := usecase.NewSearchPaginator(client)

	got, err := p.Search(context.Background(), "fox", 10)
	gt.NoError(t, err)
	gt.Equal(t, candidateURLs(got), []string{
		"https://x/orig.jpg",
		"https://x/only-image.jpg",
		"https://x/fallback.jpg",
	})
}

func TestSearchPaginator_CustomURLFields(t *testing.T) {
	client := pagedSearch([]model.SearchEntry{
		{"original": "https://x/orig.jpg", "thumbnail": "https://x/thumb.jpg"},
	})
	p := usecase.NewSearchPaginator(client, usecase.WithURLFields("thumbnail"))

	got, err := p.Search(context.Background(), "fox", 1)
	gt.NoError(t, err)
	gt.Equal(t, candidateURLs(got), []string{"https://x/thumb.jpg"})
}

func TestSearchPaginator_FailFast(t *testing.T) {
	client := &mockSearchClient{
		searchPage: func(ctx context.Context, req model.SearchRequest) ([]model.SearchEntry, error) {
			if req.PageCursor == 0 {
				return entries("a1", "a2"), nil
			}
			return nil, errors.New("connection reset")
		},
	}
	p := usecase.NewSearchPaginator(client)

	got, err := p.Search(context.Background(), "fox", 5)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagSearchFailure))
	gt.Array(t, got).Length(0)
	gt.String(t, err.Error()).Contains("connection reset")
}

func TestSearchPaginator_MaxPages(t *testing.T) {
	client := &mockSearchClient{
		searchPage: func(ctx context.Context, req model.SearchRequest) ([]model.SearchEntry, error) {
			// entries without any usable URL field
			return []model.SearchEntry{{"title": "no url"}}, nil
		},
	}
	p := usecase.NewSearchPaginator(client, usecase.WithMaxPages(3))

	got, err := p.Search(context.Background(), "fox", 2)
	gt.NoError(t, err)
	gt.Array(t, got).Length(0)
	gt.Equal(t, client.cursors(), []int{0, 1, 2})
}

func TestSearchPaginator_RejectsNonPositiveTarget(t *testing.T) {
	client := pagedSearch(entries("a1"))
	p := usecase.NewSearchPaginator(client)

	for _, target := range []int{0, -1} {
		_, err := p.Search(context.Background(), "fox", target)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, model.ErrTagValidation))
	}
	gt.Array(t, client.cursors()).Length(0)
}

func TestSearchPaginator_LengthIsMinOfTargetAndAvailable(t *testing.T) {
	const available = 7
	const pageSize = 3

	for target := 1; target <= 12; target++ {
		t.Run(fmt.Sprintf("target=%d", target), func(t *testing.T) {
			var pages [][]model.SearchEntry
			for i := 0; i < available; i += pageSize {
				var urls []string
				for j := i; j < i+pageSize && j < available; j++ {
					urls = append(urls, fmt.Sprintf("u%d", j))
				}
				pages = append(pages, entries(urls...))
			}
			client := pagedSearch(pages...)

			got, err := usecase.NewSearchPaginator(client).Search(context.Background(), "q", target)
			gt.NoError(t, err)
			gt.Equal(t, len(got), min(target, available))

			cursors := client.cursors()
			for i, c := range cursors {
				gt.Equal(t, c, i)
			}
		})
	}
}
