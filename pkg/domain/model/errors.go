package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrTagSearchFailure marks a failed search page request. Fatal to the current search.
	ErrTagSearchFailure = goerr.NewTag("search_failure")
	// ErrTagDownloadFailure marks a single image that could not be fetched or written.
	ErrTagDownloadFailure = goerr.NewTag("download_failure")
	// ErrTagValidation marks malformed user input (query, count, batch row).
	ErrTagValidation = goerr.NewTag("validation")
	// ErrTagEmptyResult marks a run that produced nothing usable.
	ErrTagEmptyResult = goerr.NewTag("empty_result")
	// ErrTagInvalidBatchInput marks a batch table that cannot be read at all.
	ErrTagInvalidBatchInput = goerr.NewTag("invalid_batch_input")
	// ErrTagStorage marks a storage backend failure outside a single image write.
	ErrTagStorage = goerr.NewTag("storage")
)
