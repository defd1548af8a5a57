package jobs

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dvloznov/statement-recon/internal/recon"
)

// Tracker owns the id of the latest run and the results that run accepted.
// Only the most recently begun run may publish results; older runs that
// finish later are rejected with ErrStaleRun.
type Tracker struct {
	mu      sync.Mutex
	latest  string
	current *recon.Report
	runID   string
}

// NewTracker creates a Tracker with no runs.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin issues a new run id and makes it the latest.
func (t *Tracker) Begin() string {
	id := uuid.New().String()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest = id
	return id
}

// IsLatest reports whether runID is still the latest run.
func (t *Tracker) IsLatest(runID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return runID != "" && runID == t.latest
}

// Accept publishes report as the current results if runID is still the latest.
func (t *Tracker) Accept(runID string, report *recon.Report) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if runID == "" || runID != t.latest {
		return ErrStaleRun
	}
	t.current = report
	t.runID = runID
	return nil
}

// Fail clears the current results if runID is still the latest.
func (t *Tracker) Fail(runID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if runID == "" || runID != t.latest {
		return ErrStaleRun
	}
	t.current = nil
	t.runID = runID
	return nil
}

// Current returns the accepted report and the run that produced it.
// The report is nil when there are no results or the latest run failed.
func (t *Tracker) Current() (*recon.Report, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.runID
}
