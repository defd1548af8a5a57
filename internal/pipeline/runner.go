package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/statement-recon/internal/jobs"
	"github.com/dvloznov/statement-recon/internal/logger"
	"github.com/dvloznov/statement-recon/internal/recon"
	"github.com/dvloznov/statement-recon/internal/rowsource"
)

// Upload is one statement submitted for reconciliation. Either Data or
// GCSURI must be set; Filename selects the row source.
type Upload struct {
	Filename string
	Data     []byte
	GCSURI   string
	Source   rowsource.Source
}

// Runner wires the steps of a reconciliation run to their collaborators
// and records every run in Store.
type Runner struct {
	Ledger    LedgerSource
	Storage   StorageService
	Extractor rowsource.PDFExtractor
	Tracker   *jobs.Tracker
	Store     jobs.JobStore
	Options   recon.Options
}

// NewRunner creates a Runner with a fresh tracker. Storage, Extractor and
// Options may be set on the result before the first run.
func NewRunner(ledger LedgerSource, store jobs.JobStore) *Runner {
	return &Runner{Ledger: ledger, Tracker: jobs.NewTracker(), Store: store}
}

// NewStatementReconcilePipeline creates the standard 6-step reconciliation pipeline.
func (r *Runner) NewStatementReconcilePipeline() *Pipeline {
	return NewPipeline(
		&FetchStatementStep{Storage: r.Storage},
		&SelectSourceStep{Extractor: r.Extractor},
		&LoadLedgerStep{Ledger: r.Ledger},
		&FetchRowsStep{Tracker: r.Tracker},
		&ReconcileStep{Options: r.Options},
		&AcceptRunStep{Tracker: r.Tracker},
	)
}

// Run executes one reconciliation run. Tracker must be set. The returned job
// is always non-nil.
// A run overtaken by a newer one returns jobs.ErrStaleRun and leaves the
// current results untouched; any other failure clears them.
func (r *Runner) Run(ctx context.Context, up Upload) (*jobs.ReconcileJob, *recon.Report, error) {
	runID := r.Tracker.Begin()

	log := logger.WithFields(logger.FromContext(ctx), map[string]interface{}{
		"run_id":   runID,
		"filename": up.Filename,
	})
	ctx = logger.WithContext(ctx, log)

	job := &jobs.ReconcileJob{
		JobID:     runID,
		Filename:  up.Filename,
		Status:    jobs.JobStatusRunning,
		CreatedAt: time.Now(),
	}
	if up.Source != nil {
		job.SourceKind = string(up.Source.Kind())
	}
	r.save(ctx, job)

	state := &PipelineState{
		RunID:    runID,
		Filename: up.Filename,
		GCSURI:   up.GCSURI,
		Data:     up.Data,
		Source:   up.Source,
	}

	log.Info().Msg("Starting reconciliation run")
	err := r.NewStatementReconcilePipeline().Execute(ctx, state)

	if job.Filename == "" {
		job.Filename = state.Filename
	}
	if state.Source != nil {
		job.SourceKind = string(state.Source.Kind())
	}

	switch {
	case errors.Is(err, jobs.ErrStaleRun):
		log.Warn().Msg("Run superseded by a newer upload, discarding results")
		job.Finish(jobs.JobStatusSuperseded, "")
	case err != nil:
		if failErr := r.Tracker.Fail(runID); failErr != nil {
			log.Debug().Err(failErr).Msg("Failed run was already superseded")
		}
		log.Error().Err(err).Msg("Reconciliation run failed")
		job.Finish(jobs.JobStatusFailed, UserMessage(err))
	default:
		job.Summary = &state.Report.Summary
		job.Finish(jobs.JobStatusCompleted, "")
		log.Info().
			Int("matched", state.Report.Summary.Matched).
			Int("duplicate", state.Report.Summary.Duplicate).
			Int("missing", state.Report.Summary.Missing).
			Int("missing_from_ledger", state.Report.Summary.MissingFromLedger).
			Msg("Reconciliation run completed")
	}
	r.save(ctx, job)

	if err != nil {
		return job, nil, err
	}
	return job, state.Report, nil
}

func (r *Runner) save(ctx context.Context, job *jobs.ReconcileJob) {
	if r.Store == nil {
		return
	}
	if err := r.Store.SaveJob(ctx, job); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("job_id", job.JobID).Msg("Failed to record run")
	}
}

// UserMessage returns the message shown to the user for a failed run,
// without the pipeline step prefix.
func UserMessage(err error) string {
	var mapErr *recon.SchemaMappingError
	if errors.As(err, &mapErr) {
		return mapErr.Error()
	}
	var srcErr *rowsource.SourceError
	if errors.As(err, &srcErr) {
		return srcErr.Error()
	}
	if errors.Is(err, rowsource.ErrUnsupportedFile) {
		return rowsource.ErrUnsupportedFile.Error()
	}
	return err.Error()
}
