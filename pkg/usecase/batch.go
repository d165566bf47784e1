package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/m-mizutani/imgharvest/pkg/utils/errutil"
	"github.com/m-mizutani/imgharvest/pkg/utils/logging"
)

// RunBatch processes rows in input order. Invalid rows are skipped with a reason,
// valid rows run the pipeline into category/keyword. A row never stops the rows
// after it. onRow, if set, receives each row status as soon as it is known.
func (p *Pipeline) RunBatch(ctx context.Context, rows []model.BatchRow, onRow func(model.BatchRowStatus)) *model.BatchResult {
	result := &model.BatchResult{
		ID:        uuid.NewString(),
		Rows:      make([]model.BatchRowStatus, 0, len(rows)),
		StartedAt: p.now(),
	}

	logger := logging.From(ctx).With("batch_id", result.ID)
	ctx = logging.With(ctx, logger)
	logger.Info("Batch started", "rows", len(rows))

	for _, row := range rows {
		status := p.runRow(ctx, row)
		result.Rows = append(result.Rows, status)
		if onRow != nil {
			onRow(status)
		}
	}

	result.FinishedAt = p.now()
	processed, skipped, images := result.Counts()
	logger.Info("Batch finished",
		"processed", processed, "skipped", skipped, "images", images,
		"duration", result.FinishedAt.Sub(result.StartedAt))

	p.record(ctx, model.NewBatchRunRecord(result))
	if p.notifier != nil {
		if err := p.notifier.NotifyBatch(ctx, result); err != nil {
			errutil.Handle(ctx, "failed to notify batch result", err)
		}
	}

	return result
}

func (p *Pipeline) runRow(ctx context.Context, row model.BatchRow) model.BatchRowStatus {
	if err := row.Validate(); err != nil {
		logging.From(ctx).Warn("Skipping batch row", "line", row.Line, "reason", err)
		return model.NewSkippedRowStatus(row, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	report := p.run(ctx, strings.TrimSpace(row.Keyword), row.Count, row.Folder())
	return model.NewRowStatus(row, report)
}
