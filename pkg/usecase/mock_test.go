package usecase_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/m-mizutani/imgharvest/pkg/domain/model"
)

type mockSearchClient struct {
	mu         sync.Mutex
	requests   []model.SearchRequest
	searchPage func(ctx context.Context, req model.SearchRequest) ([]model.SearchEntry, error)
}

func (m *mockSearchClient) SearchPage(ctx context.Context, req model.SearchRequest) ([]model.SearchEntry, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.searchPage == nil {
		return nil, errors.New("mock not configured")
	}
	return m.searchPage(ctx, req)
}

func (m *mockSearchClient) cursors() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for _, r := range m.requests {
		out = append(out, r.PageCursor)
	}
	return out
}

// pagedSearch serves pages[cursor] and an empty page past the end
func pagedSearch(pages ...[]model.SearchEntry) *mockSearchClient {
	return &mockSearchClient{
		searchPage: func(ctx context.Context, req model.SearchRequest) ([]model.SearchEntry, error) {
			if req.PageCursor >= len(pages) {
				return nil, nil
			}
			return pages[req.PageCursor], nil
		},
	}
}

func entries(urls ...string) []model.SearchEntry {
	out := make([]model.SearchEntry, 0, len(urls))
	for _, u := range urls {
		out = append(out, model.SearchEntry{"original": u})
	}
	return out
}

type mockFetcher struct {
	mu    sync.Mutex
	urls  []string
	fetch func(ctx context.Context, url string) ([]byte, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	m.urls = append(m.urls, url)
	m.mu.Unlock()
	if m.fetch == nil {
		return []byte("image:" + url), nil
	}
	return m.fetch(ctx, url)
}

type mockStorage struct {
	ensureFolder func(ctx context.Context, folder string) error
	put          func(ctx context.Context, folder, name string, data []byte) (string, error)
	clear        func(ctx context.Context) error
}

func (m *mockStorage) EnsureFolder(ctx context.Context, folder string) error {
	if m.ensureFolder == nil {
		return nil
	}
	return m.ensureFolder(ctx, folder)
}

func (m *mockStorage) Put(ctx context.Context, folder, name string, data []byte) (string, error) {
	if m.put == nil {
		return folder + "/" + name, nil
	}
	return m.put(ctx, folder, name, data)
}

func (m *mockStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("not supported")
}

func (m *mockStorage) Clear(ctx context.Context) error {
	if m.clear == nil {
		return nil
	}
	return m.clear(ctx)
}

type mockHistory struct {
	mu      sync.Mutex
	records []*model.RunRecord
	putErr  error
}

func (m *mockHistory) PutRun(ctx context.Context, record *model.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockHistory) ListRuns(ctx context.Context, limit int) ([]*model.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records, nil
}

type mockNotifier struct {
	results []*model.BatchResult
	err     error
}

func (m *mockNotifier) NotifyBatch(ctx context.Context, result *model.BatchResult) error {
	m.results = append(m.results, result)
	return m.err
}
