package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/m-mizutani/imgharvest/pkg/infra/fetcher"
	"github.com/m-mizutani/imgharvest/pkg/infra/serpapi"
	"github.com/m-mizutani/imgharvest/pkg/infra/storage"
	"github.com/m-mizutani/imgharvest/pkg/usecase"
)

// newFakeSearchAPI serves a SerpApi-like search endpoint with one page of three
// images, one of which is missing on the image host.
func newFakeSearchAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Query().Get("q"), "fox")
		gt.Equal(t, r.URL.Query().Get("tbm"), "isch")

		if r.URL.Query().Get("ijn") != "0" {
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "Google hasn't returned any results for this query."})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"images_results": []map[string]any{
				{"original": srv.URL + "/img/fox1.jpg", "thumbnail": srv.URL + "/thumb/1"},
				{"original": srv.URL + "/img/missing.jpg"},
				{"image": srv.URL + "/img/fox3.png?w=400"},
			},
		})
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/img/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("binary-" + r.URL.Path))
	})
	return srv
}

func TestPipeline_DownloadSingle_EndToEnd(t *testing.T) {
	ctx := context.Background()
	srv := newFakeSearchAPI(t)
	root := t.TempDir()

	st, err := storage.NewLocal(root)
	gt.NoError(t, err)
	hist := &mockHistory{}

	p := usecase.NewPipeline(
		serpapi.NewClient("test-key", serpapi.WithEndpoint(srv.URL+"/search")),
		fetcher.New(fetcher.WithTimeout(2*time.Second)),
		st,
		usecase.WithHistory(hist),
	)

	report := p.DownloadSingle(ctx, "fox", 3)
	gt.Equal(t, report.Outcome, model.OutcomePartial)
	gt.Equal(t, report.Status, "Downloaded 2 of 3 images (1 failed).")
	gt.Equal(t, report.Folder, "fox")
	gt.Array(t, report.Results).Length(3)
	gt.Equal(t, report.Succeeded(), 2)
	gt.Equal(t, report.Paths(), []string{
		filepath.Join(root, "fox", "image_1.jpg"),
		filepath.Join(root, "fox", "image_3.png"),
	})
	gt.False(t, report.Results[1].OK)
	gt.String(t, report.Results[1].Error).Contains("404")

	data, err := os.ReadFile(filepath.Join(root, "fox", "image_3.png"))
	gt.NoError(t, err)
	gt.Equal(t, string(data), "binary-/img/fox3.png")

	gt.Array(t, hist.records).Length(1)
	gt.Equal(t, hist.records[0].Kind, model.RunKindSingle)
	gt.Equal(t, hist.records[0].Succeeded, 2)
	gt.Equal(t, hist.records[0].Failed, 1)
}

func TestPipeline_DownloadSingle_Validation(t *testing.T) {
	search := pagedSearch(entries("https://x/1.jpg"))
	p := usecase.NewPipeline(search, &mockFetcher{}, &mockStorage{}, usecase.WithMaxImages(20))

	testCases := []struct {
		name  string
		query string
		count int
	}{
		{"empty query", "   ", 3},
		{"zero count", "fox", 0},
		{"negative count", "fox", -2},
		{"over limit", "fox", 21},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			report := p.DownloadSingle(context.Background(), tc.query, tc.count)
			gt.Equal(t, report.Outcome, model.OutcomeInvalid)
			gt.String(t, report.Status).Contains("An error occurred: ")
			gt.True(t, goerr.HasTag(report.Err, model.ErrTagValidation))
		})
	}
	gt.Array(t, search.cursors()).Length(0)
}

func TestPipeline_DownloadSingle_SearchFailure(t *testing.T) {
	search := &mockSearchClient{
		searchPage: func(ctx context.Context, req model.SearchRequest) ([]model.SearchEntry, error) {
			return nil, errors.New("api unreachable")
		},
	}
	f := &mockFetcher{}
	p := usecase.NewPipeline(search, f, &mockStorage{})

	report := p.DownloadSingle(context.Background(), "fox", 3)
	gt.Equal(t, report.Outcome, model.OutcomeSearchFailure)
	gt.String(t, report.Status).Contains("An error occurred: ")
	gt.String(t, report.Status).Contains("api unreachable")
	gt.Array(t, report.Results).Length(0)
	gt.Array(t, f.urls).Length(0)
}

func TestPipeline_DownloadSingle_NoCandidates(t *testing.T) {
	p := usecase.NewPipeline(pagedSearch(), &mockFetcher{}, &mockStorage{})

	report := p.DownloadSingle(context.Background(), "fox", 3)
	gt.Equal(t, report.Outcome, model.OutcomeEmpty)
	gt.Equal(t, report.Status, model.StatusNothingDownloaded)
	gt.True(t, goerr.HasTag(report.Err, model.ErrTagEmptyResult))
}

func TestPipeline_DownloadSingle_AllDownloadsFail(t *testing.T) {
	f := &mockFetcher{
		fetch: func(ctx context.Context, url string) ([]byte, error) {
			return nil, errors.New("unexpected status code 403")
		},
	}
	p := usecase.NewPipeline(pagedSearch(entries("https://x/1.jpg", "https://x/2.jpg")), f, &mockStorage{})

	report := p.DownloadSingle(context.Background(), "fox", 2)
	gt.Equal(t, report.Outcome, model.OutcomeEmpty)
	gt.Equal(t, report.Status, model.StatusNothingDownloaded)
	gt.Array(t, report.Results).Length(2)
	gt.True(t, goerr.HasTag(report.Err, model.ErrTagEmptyResult))
}

func TestPipeline_DownloadSingle_FullSuccess(t *testing.T) {
	p := usecase.NewPipeline(pagedSearch(entries("https://x/1.jpg", "https://x/2.jpg", "https://x/3.jpg")),
		&mockFetcher{}, &mockStorage{})

	report := p.DownloadSingle(context.Background(), "red fox!", 2)
	gt.Equal(t, report.Outcome, model.OutcomeSuccess)
	gt.Equal(t, report.Status, "Downloaded successfully: 2 images.")
	gt.Equal(t, report.Folder, "red fox_")
	gt.Equal(t, report.Paths(), []string{"red fox_/image_1.jpg", "red fox_/image_2.jpg"})
}

func TestPipeline_DownloadSingle_FolderFailure(t *testing.T) {
	search := pagedSearch(entries("https://x/1.jpg"))
	st := &mockStorage{
		ensureFolder: func(ctx context.Context, folder string) error {
			return errors.New("permission denied")
		},
	}
	p := usecase.NewPipeline(search, &mockFetcher{}, st)

	report := p.DownloadSingle(context.Background(), "fox", 1)
	gt.Equal(t, report.Outcome, model.OutcomeStorageError)
	gt.String(t, report.Status).Contains("permission denied")
	gt.Array(t, search.cursors()).Length(0)
}

func TestPipeline_HistoryFailureDoesNotChangeReport(t *testing.T) {
	hist := &mockHistory{putErr: errors.New("firestore down")}
	p := usecase.NewPipeline(pagedSearch(entries("https://x/1.jpg")), &mockFetcher{}, &mockStorage{},
		usecase.WithHistory(hist))

	report := p.DownloadSingle(context.Background(), "fox", 1)
	gt.Equal(t, report.Outcome, model.OutcomeSuccess)
}

func TestPipeline_SerializesUnitsOfWork(t *testing.T) {
	var active, maxActive int32
	f := &mockFetcher{
		fetch: func(ctx context.Context, url string) ([]byte, error) {
			n := atomic.AddInt32(&active, 1)
			for {
				cur := atomic.LoadInt32(&maxActive)
				if n <= cur || atomic.CompareAndSwapInt32(&maxActive, cur, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return []byte("x"), nil
		},
	}
	p := usecase.NewPipeline(pagedSearch(entries("https://x/1.jpg", "https://x/2.jpg")), f, &mockStorage{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.DownloadSingle(context.Background(), "fox", 2)
		}()
	}
	wg.Wait()

	gt.Equal(t, atomic.LoadInt32(&maxActive), int32(1))
}

func TestPipeline_Clear(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ctx := context.Background()
		root := t.TempDir()
		st, err := storage.NewLocal(root)
		gt.NoError(t, err)
		gt.NoError(t, st.EnsureFolder(ctx, "cats/kitten"))

		p := usecase.NewPipeline(pagedSearch(), &mockFetcher{}, st)
		gt.Equal(t, p.Clear(ctx), model.StatusCleared)

		ents, err := os.ReadDir(root)
		gt.NoError(t, err)
		gt.Array(t, ents).Length(0)
	})

	t.Run("failure", func(t *testing.T) {
		st := &mockStorage{clear: func(ctx context.Context) error { return errors.New("busy") }}
		p := usecase.NewPipeline(pagedSearch(), &mockFetcher{}, st)
		gt.String(t, p.Clear(context.Background())).Contains("Failed to clear download folder: ")
	})
}

func TestPipeline_History(t *testing.T) {
	ctx := context.Background()

	t.Run("without repository", func(t *testing.T) {
		p := usecase.NewPipeline(pagedSearch(), &mockFetcher{}, &mockStorage{})
		records, err := p.History(ctx, 10)
		gt.NoError(t, err)
		gt.Array(t, records).Length(0)
	})

	t.Run("with repository", func(t *testing.T) {
		hist := &mockHistory{}
		now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		p := usecase.NewPipeline(pagedSearch(entries("https://x/1.jpg")), &mockFetcher{}, &mockStorage{},
			usecase.WithHistory(hist), usecase.WithClock(func() time.Time { return now }))

		p.DownloadSingle(ctx, "fox", 1)
		records, err := p.History(ctx, 10)
		gt.NoError(t, err)
		gt.Array(t, records).Length(1)
		gt.Equal(t, records[0].Query, "fox")
		gt.True(t, records[0].CreatedAt.Equal(now))
	})
}
