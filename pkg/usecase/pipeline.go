package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/m-mizutani/imgharvest/pkg/utils/errutil"
	"github.com/m-mizutani/imgharvest/pkg/utils/logging"
)

// DefaultMaxImages caps the count accepted by DownloadSingle
const DefaultMaxImages = 100

// Pipeline runs search then download for single queries and batch tables. Units of
// work (one query, one batch row, one clear) never overlap.
type Pipeline struct {
	paginator  *SearchPaginator
	downloader *BulkDownloader
	storage    interfaces.ImageStorage
	history    interfaces.HistoryRepository
	notifier   interfaces.Notifier

	maxImages     int
	paginatorOpts []PaginatorOption
	now           func() time.Time

	mu sync.Mutex
}

var _ interfaces.DownloadUseCase = (*Pipeline)(nil)

type Option func(*Pipeline)

func WithHistory(repo interfaces.HistoryRepository) Option {
	return func(p *Pipeline) {
		p.history = repo
	}
}

func WithNotifier(n interfaces.Notifier) Option {
	return func(p *Pipeline) {
		p.notifier = n
	}
}

// WithMaxImages sets the upper bound for the count of a single query
func WithMaxImages(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxImages = n
		}
	}
}

// WithPaginatorOptions passes options through to the SearchPaginator
func WithPaginatorOptions(opts ...PaginatorOption) Option {
	return func(p *Pipeline) {
		p.paginatorOpts = append(p.paginatorOpts, opts...)
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

func NewPipeline(search interfaces.SearchClient, fetcher interfaces.ImageFetcher, storage interfaces.ImageStorage, opts ...Option) *Pipeline {
	p := &Pipeline{
		storage:   storage,
		maxImages: DefaultMaxImages,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.paginator = NewSearchPaginator(search, p.paginatorOpts...)
	p.downloader = NewBulkDownloader(fetcher, storage)
	return p
}

// MaxImages returns the largest count DownloadSingle accepts
func (p *Pipeline) MaxImages() int {
	return p.maxImages
}

// DownloadSingle searches for query and stores up to count images in a folder named
// after the sanitised query.
func (p *Pipeline) DownloadSingle(ctx context.Context, query string, count int) *model.Report {
	query = strings.TrimSpace(query)
	folder := model.SanitizeSegment(query)

	var report *model.Report
	if err := p.validateSingle(query, count); err != nil {
		logging.From(ctx).Warn("Rejected download request", "query", query, "count", count, "error", err)
		report = model.NewFailedReport(query, count, folder, model.OutcomeInvalid, err)
	} else {
		p.mu.Lock()
		report = p.run(ctx, query, count, folder)
		p.mu.Unlock()
	}

	p.record(ctx, model.NewSingleRunRecord(uuid.NewString(), report, p.now()))
	return report
}

func (p *Pipeline) validateSingle(query string, count int) error {
	if query == "" {
		return goerr.New("query is empty", goerr.T(model.ErrTagValidation))
	}
	if count <= 0 || count > p.maxImages {
		return goerr.New(fmt.Sprintf("number of images must be between 1 and %d", p.maxImages),
			goerr.T(model.ErrTagValidation), goerr.V("count", count))
	}
	return nil
}

// run is one search -> download -> report pass. Callers hold p.mu.
func (p *Pipeline) run(ctx context.Context, query string, count int, folder string) *model.Report {
	logger := logging.From(ctx).With("query", query, "folder", folder)
	ctx = logging.With(ctx, logger)

	if err := p.storage.EnsureFolder(ctx, folder); err != nil {
		errutil.Handle(ctx, "failed to prepare destination folder", err)
		return model.NewFailedReport(query, count, folder, model.OutcomeStorageError, err)
	}

	candidates, err := p.paginator.Search(ctx, query, count)
	if err != nil {
		errutil.Handle(ctx, "search failed", err)
		return model.NewFailedReport(query, count, folder, model.OutcomeSearchFailure, err)
	}
	if len(candidates) == 0 {
		logger.Warn("No image candidates found")
		return model.NewFailedReport(query, count, folder, model.OutcomeEmpty,
			goerr.New("no image candidates found", goerr.T(model.ErrTagEmptyResult)))
	}

	results := p.downloader.FetchAll(ctx, candidates, folder)
	report := model.NewReport(query, count, folder, results)
	if report.Outcome == model.OutcomeEmpty {
		report.Err = goerr.New("every download failed",
			goerr.T(model.ErrTagEmptyResult), goerr.V("attempted", len(results)))
		logger.Warn("No image was downloaded", "attempted", len(results))
	}

	logger.Info("Pipeline finished",
		"outcome", report.Outcome, "succeeded", report.Succeeded(), "attempted", len(results))
	return report
}

// Clear empties the storage root
func (p *Pipeline) Clear(ctx context.Context) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.storage.Clear(ctx); err != nil {
		errutil.Handle(ctx, "failed to clear storage", err)
		return model.StatusClearFailed(err)
	}
	return model.StatusCleared
}

// History returns up to limit recent runs. Without a repository it is always empty.
func (p *Pipeline) History(ctx context.Context, limit int) ([]*model.RunRecord, error) {
	if p.history == nil {
		return []*model.RunRecord{}, nil
	}
	records, err := p.history.ListRuns(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list run history", goerr.V("limit", limit))
	}
	return records, nil
}

func (p *Pipeline) record(ctx context.Context, rec *model.RunRecord) {
	if p.history == nil {
		return
	}
	if err := p.history.PutRun(ctx, rec); err != nil {
		errutil.Handle(ctx, "failed to record run", err)
	}
}
