package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-recon/internal/api/middleware"
	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/dvloznov/statement-recon/internal/jobs"
	"github.com/dvloznov/statement-recon/internal/pipeline"
	"github.com/dvloznov/statement-recon/internal/recon"
	"github.com/dvloznov/statement-recon/internal/rowsource"
)

// ReconcileHandler handles statement uploads.
type ReconcileHandler struct {
	runner   *pipeline.Runner
	maxBytes int64
	log      zerolog.Logger
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(runner *pipeline.Runner, maxBytes int64, log zerolog.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		runner:   runner,
		maxBytes: maxBytes,
		log:      log,
	}
}

type reconcileResponse struct {
	JobID string `json:"job_id"`
	*recon.Report
	MissingFromLedger []domain.CanonicalTransaction `json:"missing_from_ledger"`
}

// Reconcile handles POST /api/reconcile
//
// The statement is the multipart "file" field, or a "gcs_uri" form value
// naming an object already in storage. Missing-from-ledger records can be
// ordered with ?sort=date|description|amount|type&order=asc|desc.
func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filename, data, err := readUpload(w, r, h.maxBytes, true)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	up := pipeline.Upload{Filename: filename, Data: data}
	if filename == "" {
		up.GCSURI = strings.TrimSpace(r.FormValue("gcs_uri"))
		if up.GCSURI == "" {
			middleware.WriteError(w, http.StatusBadRequest, "No file uploaded")
			return
		}
		if h.runner.Storage == nil {
			middleware.WriteError(w, http.StatusBadRequest, "Statement storage is not configured")
			return
		}
	}

	job, report, err := h.runner.Run(ctx, up)
	if err != nil {
		h.writeRunError(w, job, err)
		return
	}

	sortKey := recon.SortKey(strings.ToLower(r.URL.Query().Get("sort")))
	missing := append([]domain.CanonicalTransaction(nil), report.MissingFromLedger...)
	if sortKey != "" {
		recon.SortTransactions(missing, sortKey, strings.EqualFold(r.URL.Query().Get("order"), "desc"))
	}

	middleware.WriteJSON(w, http.StatusOK, reconcileResponse{
		JobID:             job.JobID,
		Report:            report,
		MissingFromLedger: missing,
	})
}

func (h *ReconcileHandler) writeRunError(w http.ResponseWriter, job *jobs.ReconcileJob, err error) {
	var mapErr *recon.SchemaMappingError
	var srcErr *rowsource.SourceError

	switch {
	case errors.Is(err, jobs.ErrStaleRun):
		middleware.WriteJSON(w, http.StatusConflict, map[string]interface{}{
			"error":  "Superseded by a newer upload",
			"job_id": job.JobID,
		})
	case errors.As(err, &mapErr):
		middleware.WriteJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   mapErr.Error(),
			"missing": mapErr.Missing,
			"headers": mapErr.Headers,
			"job_id":  job.JobID,
		})
	case errors.As(err, &srcErr), errors.Is(err, rowsource.ErrUnsupportedFile):
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  pipeline.UserMessage(err),
			"job_id": job.JobID,
		})
	default:
		h.log.Error().Err(err).Str("job_id", job.JobID).Msg("Reconciliation failed")
		middleware.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":  "Reconciliation failed",
			"job_id": job.JobID,
		})
	}
}

func writeUploadError(w http.ResponseWriter, err error) {
	var upErr *uploadError
	if errors.As(err, &upErr) {
		middleware.WriteError(w, upErr.status, upErr.message)
		return
	}
	middleware.WriteError(w, http.StatusBadRequest, err.Error())
}
