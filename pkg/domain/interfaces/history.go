package interfaces

import (
	"context"

	"github.com/m-mizutani/imgharvest/pkg/domain/model"
)

// HistoryRepository records finished runs
type HistoryRepository interface {
	PutRun(ctx context.Context, record *model.RunRecord) error
	// ListRuns returns up to limit records, newest first
	ListRuns(ctx context.Context, limit int) ([]*model.RunRecord, error)
}

// Notifier announces finished batch runs
type Notifier interface {
	NotifyBatch(ctx context.Context, result *model.BatchResult) error
}
