package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-recon/internal/api/middleware"
	"github.com/dvloznov/statement-recon/internal/jobs"
)

// RunsHandler exposes the history of reconciliation runs.
type RunsHandler struct {
	store   jobs.JobStore
	tracker *jobs.Tracker
	log     zerolog.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(store jobs.JobStore, tracker *jobs.Tracker, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{
		store:   store,
		tracker: tracker,
		log:     log,
	}
}

// ListRuns handles GET /api/runs
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := jobs.JobFilter{
		Filename: q.Get("filename"),
		Status:   jobs.JobStatus(q.Get("status")),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid offset")
			return
		}
		filter.Offset = n
	}

	runs, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun handles GET /api/runs/{id}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, err := h.store.GetJob(r.Context(), id)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("job_id", id).Msg("Failed to get run")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get run")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// LatestResults handles GET /api/runs/latest
//
// It returns the report of the most recent accepted run.
func (h *RunsHandler) LatestResults(w http.ResponseWriter, r *http.Request) {
	report, runID := h.tracker.Current()
	if report == nil {
		middleware.WriteError(w, http.StatusNotFound, "No reconciliation results yet")
		return
	}

	resp := map[string]interface{}{
		"job_id": runID,
		"report": report,
	}
	if job, err := h.store.GetJob(r.Context(), runID); err == nil {
		resp["job"] = job
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}
