package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/m-mizutani/imgharvest/pkg/infra/batchfile"
)

const defaultHistoryLimit = 20

type downloadRequest struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// apiDownload runs one query synchronously and returns the report. Pipeline
// failures are part of the report, so only malformed requests get an error status.
func (h *handler) apiDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req downloadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadSize)).Decode(&req); err != nil {
		writeError(ctx, w, goerr.Wrap(err, "invalid JSON body"), http.StatusBadRequest)
		return
	}

	report := h.uc.DownloadSingle(ctx, req.Query, req.Count)
	status := http.StatusOK
	if report.Outcome == model.OutcomeInvalid {
		status = http.StatusBadRequest
	}
	writeJSON(ctx, w, status, report)
}

// apiBatch reads a CSV (or TSV with ?format=tsv) body. With ?async=true the batch
// runs as a job and 202 is returned with the job ID; otherwise the full result is
// returned when the batch finishes.
func (h *handler) apiBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	delim := ','
	if strings.EqualFold(r.URL.Query().Get("format"), "tsv") {
		delim = '\t'
	}

	rows, err := batchfile.Parse(http.MaxBytesReader(w, r.Body, maxUploadSize), delim)
	if err != nil {
		writeError(ctx, w, err, http.StatusBadRequest)
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		id := h.startBatch(ctx, "api", rows)
		writeJSON(ctx, w, http.StatusAccepted, map[string]string{
			"id":  id,
			"url": "/api/batch/" + id,
		})
		return
	}

	result := h.uc.RunBatch(ctx, rows, nil)
	writeJSON(ctx, w, http.StatusOK, struct {
		*model.BatchResult
		Final string `json:"final"`
	}{result, result.FinalStatus()})
}

func (h *handler) apiBatchStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobs.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(r.Context(), w, goerr.New("batch job not found"), http.StatusNotFound)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, job)
}

func (h *handler) apiClear(w http.ResponseWriter, r *http.Request) {
	status := h.uc.Clear(r.Context())
	code := http.StatusOK
	if status != model.StatusCleared {
		code = http.StatusInternalServerError
	}
	writeJSON(r.Context(), w, code, map[string]string{"status": status})
}

func (h *handler) apiHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(ctx, w, goerr.New("limit must be a positive integer", goerr.V("limit", v)), http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := h.uc.History(ctx, limit)
	if err != nil {
		writeError(ctx, w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{"runs": records})
}
