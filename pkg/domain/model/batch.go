package model

import (
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Batch table column names, matched case-insensitively
const (
	ColumnKeyword  = "keyword"
	ColumnCount    = "numbers"
	ColumnCategory = "category"
)

// BatchRow is one download job read from a batch table
type BatchRow struct {
	// Line is the 1-based data row number in the input table
	Line     int    `json:"line"`
	Keyword  string `json:"keyword"`
	Count    int    `json:"count"`
	Category string `json:"category"`
	// RawCount keeps the original cell text for error messages
	RawCount string `json:"raw_count,omitempty"`
	// Malformed holds the reason a row could not be read from the table
	Malformed string `json:"malformed,omitempty"`
}

// ParseCount converts a count cell into a positive integer. Integral floats such as
// "5.0" are accepted; anything else yields 0, which Validate rejects.
func ParseCount(cell string) int {
	cell = strings.TrimSpace(cell)
	if n, err := strconv.Atoi(cell); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// Validate checks the row before any pipeline work is done for it
func (r BatchRow) Validate() error {
	if r.Malformed != "" {
		return goerr.New("malformed row: "+r.Malformed, goerr.T(ErrTagValidation), goerr.V("line", r.Line))
	}
	if strings.TrimSpace(r.Keyword) == "" {
		return goerr.New("keyword is empty", goerr.T(ErrTagValidation), goerr.V("line", r.Line))
	}
	if strings.TrimSpace(r.Category) == "" {
		return goerr.New("category is empty", goerr.T(ErrTagValidation), goerr.V("line", r.Line))
	}
	if r.Count <= 0 {
		raw := r.RawCount
		if raw == "" {
			raw = strconv.Itoa(r.Count)
		}
		return goerr.New(fmt.Sprintf("count must be a positive number, got %q", raw),
			goerr.T(ErrTagValidation), goerr.V("line", r.Line))
	}
	return nil
}

// Folder returns the destination folder relative to the storage root: category/keyword
func (r BatchRow) Folder() string {
	return path.Join(
		SanitizeSegment(strings.TrimSpace(r.Category)),
		SanitizeSegment(strings.TrimSpace(r.Keyword)),
	)
}

// BatchRowStatus is the per-row entry of a batch result
type BatchRowStatus struct {
	Row     BatchRow `json:"row"`
	Skipped bool     `json:"skipped"`
	Report  *Report  `json:"report,omitempty"`
	Status  string   `json:"status"`
}

// NewSkippedRowStatus builds the status of a row that failed validation
func NewSkippedRowStatus(row BatchRow, reason error) BatchRowStatus {
	return BatchRowStatus{
		Row:     row,
		Skipped: true,
		Status:  fmt.Sprintf("Row %d skipped: %s", row.Line, reason.Error()),
	}
}

// NewRowStatus builds the status of a row that went through the pipeline
func NewRowStatus(row BatchRow, report *Report) BatchRowStatus {
	return BatchRowStatus{
		Row:    row,
		Report: report,
		Status: fmt.Sprintf("Row %d [%s]: %s", row.Line, report.Folder, report.Status),
	}
}

// BatchResult is the ordered outcome of one batch run, one entry per input row
type BatchResult struct {
	ID         string           `json:"id"`
	Rows       []BatchRowStatus `json:"rows"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// Statuses returns the per-row status strings in input order
func (r *BatchResult) Statuses() []string {
	statuses := make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		statuses = append(statuses, row.Status)
	}
	return statuses
}

// Summary returns the concatenated status text of all rows
func (r *BatchResult) Summary() string {
	return strings.Join(r.Statuses(), "\n")
}

// FinalStatus summarises the whole batch in one line
func (r *BatchResult) FinalStatus() string {
	processed, skipped, images := r.Counts()
	return fmt.Sprintf("Batch finished: %s processed, %s skipped, %s downloaded.",
		plural(processed, "row"), plural(skipped, "row"), plural(images, "image"))
}

// Counts returns the number of processed rows, skipped rows and stored images
func (r *BatchResult) Counts() (processed, skipped, images int) {
	for _, row := range r.Rows {
		if row.Skipped {
			skipped++
			continue
		}
		processed++
		if row.Report != nil {
			images += row.Report.Succeeded()
		}
	}
	return processed, skipped, images
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
