package usecase

import (
	"context"
	"path"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/m-mizutani/imgharvest/pkg/utils/logging"
)

// BulkDownloader fetches candidates one by one and writes them into a folder.
// A failed item is recorded and never stops the rest.
type BulkDownloader struct {
	fetcher interfaces.ImageFetcher
	storage interfaces.ImageStorage
}

func NewBulkDownloader(fetcher interfaces.ImageFetcher, storage interfaces.ImageStorage) *BulkDownloader {
	return &BulkDownloader{
		fetcher: fetcher,
		storage: storage,
	}
}

// FetchAll returns exactly one result per candidate, in candidate order
func (d *BulkDownloader) FetchAll(ctx context.Context, candidates []model.ImageCandidate, folder string) model.DownloadResults {
	logger := logging.From(ctx)
	results := make(model.DownloadResults, 0, len(candidates))

	for i, c := range candidates {
		name := model.ImageFileName(i+1, c.SourceURL)
		result := model.DownloadResult{SourceURL: c.SourceURL}

		location, err := d.download(ctx, c.SourceURL, folder, name)
		if err != nil {
			logger.Warn("Failed to download image",
				"url", c.SourceURL, "index", i+1, "folder", folder, "error", err)
			result.Error = err.Error()
		} else {
			result.OK = true
			result.LocalPath = location
			result.Key = path.Join(folder, name)
			logger.Debug("Downloaded image", "url", c.SourceURL, "path", location)
		}

		results = append(results, result)
	}

	logger.Info("Downloads finished",
		"folder", folder, "attempted", len(results), "succeeded", results.Succeeded())
	return results
}

func (d *BulkDownloader) download(ctx context.Context, url, folder, name string) (string, error) {
	data, err := d.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", goerr.Wrap(err, "fetch failed", goerr.T(model.ErrTagDownloadFailure))
	}

	location, err := d.storage.Put(ctx, folder, name, data)
	if err != nil {
		return "", goerr.Wrap(err, "write failed", goerr.T(model.ErrTagDownloadFailure))
	}
	return location, nil
}
