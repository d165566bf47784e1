package model

import "time"

// RunKind distinguishes single-query runs from batch runs in the history
type RunKind string

const (
	RunKindSingle RunKind = "single"
	RunKindBatch  RunKind = "batch"
)

// RunRecord is one entry in the run history
type RunRecord struct {
	ID        string    `json:"id" firestore:"id"`
	Kind      RunKind   `json:"kind" firestore:"kind"`
	Query     string    `json:"query,omitempty" firestore:"query"`
	Folder    string    `json:"folder,omitempty" firestore:"folder"`
	Requested int       `json:"requested" firestore:"requested"`
	Succeeded int       `json:"succeeded" firestore:"succeeded"`
	Failed    int       `json:"failed" firestore:"failed"`
	Skipped   int       `json:"skipped,omitempty" firestore:"skipped"`
	Outcome   Outcome   `json:"outcome,omitempty" firestore:"outcome"`
	Status    string    `json:"status" firestore:"status"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
}

// NewSingleRunRecord summarises a single-query report
func NewSingleRunRecord(id string, report *Report, at time.Time) *RunRecord {
	return &RunRecord{
		ID:        id,
		Kind:      RunKindSingle,
		Query:     report.Query,
		Folder:    report.Folder,
		Requested: report.Requested,
		Succeeded: report.Succeeded(),
		Failed:    report.Results.Failed(),
		Outcome:   report.Outcome,
		Status:    report.Status,
		CreatedAt: at,
	}
}

// NewBatchRunRecord summarises a batch result
func NewBatchRunRecord(result *BatchResult) *RunRecord {
	rec := &RunRecord{
		ID:        result.ID,
		Kind:      RunKindBatch,
		CreatedAt: result.StartedAt,
	}
	for _, row := range result.Rows {
		if row.Skipped {
			rec.Skipped++
			continue
		}
		rec.Requested += row.Row.Count
		if row.Report != nil {
			rec.Succeeded += row.Report.Succeeded()
			rec.Failed += row.Report.Results.Failed()
		}
	}
	rec.Status = result.FinalStatus()
	return rec
}
