package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/dvloznov/statement-recon/internal/gcs"
	"github.com/dvloznov/statement-recon/internal/jobs"
	"github.com/dvloznov/statement-recon/internal/logger"
	"github.com/dvloznov/statement-recon/internal/recon"
	"github.com/dvloznov/statement-recon/internal/rowsource"
)

// PipelineStep represents a single step in a reconciliation run.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	RunID    string
	Filename string
	GCSURI   string
	Data     []byte
	Source   rowsource.Source
	Table    *rowsource.Table
	Ledger   []domain.LedgerEntry
	Report   *recon.Report
}

// Step 1: FetchStatementStep downloads the statement when only a storage URI was given.
type FetchStatementStep struct {
	Storage StorageService
}

func (s *FetchStatementStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Data != nil || state.GCSURI == "" {
		return nil
	}
	if s.Storage == nil {
		return fmt.Errorf("no storage configured for %s", state.GCSURI)
	}
	data, err := s.Storage.Fetch(ctx, state.GCSURI)
	if err != nil {
		return err
	}
	state.Data = data
	if state.Filename == "" {
		state.Filename = gcs.FilenameFromURI(state.GCSURI)
	}
	return nil
}

// Step 2: SelectSourceStep picks the row source from the file extension.
type SelectSourceStep struct {
	Extractor rowsource.PDFExtractor
}

func (s *SelectSourceStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Source != nil {
		return nil
	}
	src, err := rowsource.ForFile(state.Filename, state.Data, s.Extractor)
	if err != nil {
		return err
	}
	state.Source = src
	return nil
}

// Step 3: LoadLedgerStep snapshots the ledger the statement is compared to.
type LoadLedgerStep struct {
	Ledger LedgerSource
}

func (s *LoadLedgerStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Ledger == nil {
		return nil
	}
	entries, err := s.Ledger.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("loading ledger: %w", err)
	}
	state.Ledger = entries
	return nil
}

// Step 4: FetchRowsStep reads the statement rows. This is the only step that
// waits on outside work, so the run is checked for staleness once it returns.
type FetchRowsStep struct {
	Tracker *jobs.Tracker
}

func (s *FetchRowsStep) Execute(ctx context.Context, state *PipelineState) error {
	table, err := state.Source.Rows(ctx)
	if err != nil {
		return err
	}
	if s.Tracker != nil && !s.Tracker.IsLatest(state.RunID) {
		return jobs.ErrStaleRun
	}
	state.Table = table

	log := logger.FromContext(ctx)
	log.Info().
		Str("source", string(state.Source.Kind())).
		Int("headers", len(table.Headers)).
		Int("rows", len(table.Rows)).
		Msg("Statement rows loaded")
	return nil
}

// Step 5: ReconcileStep maps, canonicalizes and matches.
type ReconcileStep struct {
	Options recon.Options
}

func (s *ReconcileStep) Execute(ctx context.Context, state *PipelineState) error {
	report, err := recon.Reconcile(recon.Input{
		Headers: state.Table.Headers,
		Rows:    state.Table.Rows,
		Ledger:  state.Ledger,
	}, s.Options)
	if err != nil {
		return err
	}
	state.Report = report
	return nil
}

// Step 6: AcceptRunStep publishes the report if this run is still the latest.
type AcceptRunStep struct {
	Tracker *jobs.Tracker
}

func (s *AcceptRunStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Tracker == nil {
		return nil
	}
	return s.Tracker.Accept(state.RunID, state.Report)
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}
