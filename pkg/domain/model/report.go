package model

import "fmt"

// Outcome classifies how a unit of work (one query or one batch row) ended
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomePartial       Outcome = "partial"
	OutcomeEmpty         Outcome = "empty"
	OutcomeSearchFailure Outcome = "search_failure"
	OutcomeStorageError  Outcome = "storage_error"
	OutcomeInvalid       Outcome = "invalid"
	OutcomeSkipped       Outcome = "skipped"
)

const (
	// StatusNothingDownloaded is reported when a run yields no stored image
	StatusNothingDownloaded = "No images were downloaded. Please try a different query or reduce the number."
	// StatusCleared is reported after a successful clear
	StatusCleared = "Download folder cleared."
)

// StatusDownloaded builds the status text for a run with at least one success
func StatusDownloaded(succeeded, attempted int) string {
	if succeeded == attempted {
		return fmt.Sprintf("Downloaded successfully: %d images.", succeeded)
	}
	return fmt.Sprintf("Downloaded %d of %d images (%d failed).", succeeded, attempted, attempted-succeeded)
}

// StatusError builds the status text for a call-level failure
func StatusError(err error) string {
	return fmt.Sprintf("An error occurred: %v", err)
}

// StatusClearFailed builds the status text for a failed clear
func StatusClearFailed(err error) string {
	return fmt.Sprintf("Failed to clear download folder: %v", err)
}

// Report is what one single-query pipeline run hands back to the presentation layer
type Report struct {
	Query     string          `json:"query"`
	Requested int             `json:"requested"`
	Folder    string          `json:"folder"`
	Results   DownloadResults `json:"results"`
	Outcome   Outcome         `json:"outcome"`
	Status    string          `json:"status"`

	// Err holds the call-level error behind a failed outcome. Not serialised; the
	// presentation layer only sees Status.
	Err error `json:"-"`
}

// NewReport derives outcome and status from the download results
func NewReport(query string, requested int, folder string, results DownloadResults) *Report {
	report := &Report{
		Query:     query,
		Requested: requested,
		Folder:    folder,
		Results:   results,
	}

	switch ok := results.Succeeded(); {
	case ok == 0:
		report.Outcome = OutcomeEmpty
		report.Status = StatusNothingDownloaded
	case ok == len(results):
		report.Outcome = OutcomeSuccess
		report.Status = StatusDownloaded(ok, len(results))
	default:
		report.Outcome = OutcomePartial
		report.Status = StatusDownloaded(ok, len(results))
	}

	return report
}

// NewFailedReport builds a report for a run that stopped before downloading
func NewFailedReport(query string, requested int, folder string, outcome Outcome, err error) *Report {
	status := StatusError(err)
	if outcome == OutcomeEmpty {
		status = StatusNothingDownloaded
	}
	return &Report{
		Query:     query,
		Requested: requested,
		Folder:    folder,
		Outcome:   outcome,
		Status:    status,
		Err:       err,
	}
}

// Paths returns the written locations of successful downloads
func (r *Report) Paths() []string {
	return r.Results.Paths()
}

// Succeeded returns the number of stored images
func (r *Report) Succeeded() int {
	return r.Results.Succeeded()
}
