package http

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/m-mizutani/imgharvest/pkg/infra/batchfile"
	"github.com/m-mizutani/imgharvest/pkg/utils/async"
	"github.com/m-mizutani/imgharvest/pkg/utils/logging"
)

func (h *handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "index.html", &pageData{
		History: h.recentHistory(r),
	})
}

func (h *handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := strings.TrimSpace(r.FormValue("query"))
	count, err := strconv.Atoi(r.FormValue("count"))
	if err != nil {
		err = goerr.Wrap(err, "number of images is not a number", goerr.T(model.ErrTagValidation))
		h.render(w, r, http.StatusBadRequest, "index.html", &pageData{
			Status: model.StatusError(err),
			Query:  query,
		})
		return
	}

	logging.From(ctx).Info("Download requested from form", "query", query, "count", count)
	report := h.uc.DownloadSingle(ctx, query, count)

	status := http.StatusOK
	if report.Outcome == model.OutcomeInvalid {
		status = http.StatusBadRequest
	}
	h.render(w, r, status, "index.html", &pageData{
		Status:  report.Status,
		Query:   query,
		Count:   clampCount(count, h.maxImages),
		Report:  report,
		History: h.recentHistory(r),
	})
}

func (h *handler) handleBatchUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.render(w, r, http.StatusBadRequest, "index.html", &pageData{
			Status: model.StatusError(goerr.Wrap(err, "failed to read uploaded file")),
		})
		return
	}
	defer file.Close()

	rows, err := batchfile.Parse(file, delimiterFor(header.Filename))
	if err != nil {
		logging.From(ctx).Warn("Rejected batch upload", "file", header.Filename, "error", err)
		h.render(w, r, http.StatusBadRequest, "index.html", &pageData{
			Status: model.StatusError(err),
		})
		return
	}

	id := h.startBatch(ctx, header.Filename, rows)
	http.Redirect(w, r, "/batch/"+id, http.StatusSeeOther)
}

// startBatch runs rows in the background and returns the job ID
func (h *handler) startBatch(ctx context.Context, source string, rows []model.BatchRow) string {
	id := h.jobs.Create(source, len(rows))
	ctx = logging.With(ctx, logging.From(ctx).With("job_id", id))
	logging.From(ctx).Info("Batch job started", "source", source, "rows", len(rows))

	async.Dispatch(ctx, func(ctx context.Context) error {
		defer func() {
			if r := recover(); r != nil {
				h.jobs.Fail(id, model.StatusError(goerr.New(fmt.Sprintf("batch aborted: %v", r))))
				panic(r)
			}
		}()

		result := h.uc.RunBatch(ctx, rows, func(s model.BatchRowStatus) {
			h.jobs.AppendRow(id, s)
		})
		h.jobs.Finish(id, result)
		return nil
	})
	return id
}

func (h *handler) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobs.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	h.render(w, r, http.StatusOK, "batch.html", &pageData{
		Refresh: !job.Done(),
		Job:     &job,
	})
}

func (h *handler) handleClear(w http.ResponseWriter, r *http.Request) {
	status := h.uc.Clear(r.Context())
	h.render(w, r, http.StatusOK, "index.html", &pageData{
		Status:  status,
		History: h.recentHistory(r),
	})
}

func delimiterFor(filename string) rune {
	if strings.EqualFold(filepath.Ext(filename), ".tsv") {
		return '\t'
	}
	return ','
}

func clampCount(n, limit int) int {
	return max(1, min(n, limit))
}
