package interfaces

import (
	"context"

	"github.com/m-mizutani/imgharvest/pkg/domain/model"
)

// DownloadUseCase is the entry point used by the presentation layers (web, CLI).
// None of the methods return errors: every failure is turned into status data.
type DownloadUseCase interface {
	// DownloadSingle searches for query and stores up to count images
	DownloadSingle(ctx context.Context, query string, count int) *model.Report

	// RunBatch processes rows in order, one pipeline run per valid row.
	// onRow, when not nil, is called after each row.
	RunBatch(ctx context.Context, rows []model.BatchRow, onRow func(model.BatchRowStatus)) *model.BatchResult

	// Clear empties the storage root and returns a status text
	Clear(ctx context.Context) string

	// History returns recent runs, newest first
	History(ctx context.Context, limit int) ([]*model.RunRecord, error)
}
