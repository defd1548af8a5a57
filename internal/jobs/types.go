package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/statement-recon/internal/recon"
)

// JobStatus represents the current status of a reconciliation run.
type JobStatus string

const (
	// JobStatusPending indicates the run was started but has not fetched rows yet.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the row source is being read.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the run produced the current results.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the run failed and current results were cleared.
	JobStatusFailed JobStatus = "failed"
	// JobStatusSuperseded indicates a newer run started before this one finished.
	JobStatusSuperseded JobStatus = "superseded"
)

var (
	// ErrJobNotFound is returned by a JobStore when no run has the requested id.
	ErrJobNotFound = errors.New("job not found")

	// ErrStaleRun is returned when a run finishes after a newer run has begun.
	ErrStaleRun = errors.New("run superseded by a newer upload")
)

// ReconcileJob records one statement upload and what became of it.
type ReconcileJob struct {
	// JobID is the run id issued by the Tracker.
	JobID string `json:"job_id"`

	// Filename is the uploaded statement's name.
	Filename string `json:"filename"`

	// SourceKind is the row source used (csv, xlsx or pdf).
	SourceKind string `json:"source_kind,omitempty"`

	// Status is the current status of the run.
	Status JobStatus `json:"status"`

	// CreatedAt is when the run began.
	CreatedAt time.Time `json:"created_at"`

	// CompletedAt is when the run finished (success, failure or superseded).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains the user-facing error message if the run failed.
	Error string `json:"error,omitempty"`

	// Summary holds the headline counts of a completed run.
	Summary *recon.Summary `json:"summary,omitempty"`
}

// Finish stamps the job with a terminal status.
func (j *ReconcileJob) Finish(status JobStatus, errMsg string) {
	now := time.Now()
	j.Status = status
	j.CompletedAt = &now
	j.Error = errMsg
}

// JobStore defines the interface for storing and retrieving run history.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ReconcileJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ReconcileJob, error)

	// ListJobs retrieves jobs newest first with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ReconcileJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Filename filters jobs by uploaded file name.
	Filename string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
