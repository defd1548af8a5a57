// Package app builds the service components selected by the configuration.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/dvloznov/statement-recon/internal/config"
	"github.com/dvloznov/statement-recon/internal/gcs"
	"github.com/dvloznov/statement-recon/internal/jobs"
	"github.com/dvloznov/statement-recon/internal/ledger"
	"github.com/dvloznov/statement-recon/internal/pdfextract"
	"github.com/dvloznov/statement-recon/internal/pipeline"
	"github.com/dvloznov/statement-recon/internal/recon"
	"github.com/dvloznov/statement-recon/internal/rowsource"
)

// App holds the components shared by the API server and the CLI.
type App struct {
	Config  config.Config
	Ledger  ledger.Source
	PDF     *pdfextract.Extractor
	Storage *gcs.Client // nil when no bucket is configured
	Runner  *pipeline.Runner

	closers []io.Closer
}

// New opens the configured ledger backend, PDF extractor and statement storage
// and wires them into a Runner recording runs in store.
func New(ctx context.Context, cfg config.Config, store jobs.JobStore) (*App, error) {
	a := &App{Config: cfg}

	a.PDF = &pdfextract.Extractor{MaxPages: cfg.PDF.MaxPages, MaxBytes: cfg.PDF.MaxBytes}

	src, err := a.openLedger(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Ledger = src

	extractor, err := a.newExtractor(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	aliases, err := recon.LoadAliases(cfg.Recon.AliasesFile, recon.DefaultAliases())
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Runner = pipeline.NewRunner(src, store)
	a.Runner.Extractor = extractor
	a.Runner.Options = recon.Options{
		Aliases:        aliases,
		LargeThreshold: cfg.Recon.LargeThreshold,
	}

	if cfg.GCS.Bucket != "" {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client)
		a.Storage = client
		a.Runner.Storage = client
	}
	return a, nil
}

func (a *App) openLedger(ctx context.Context) (ledger.Source, error) {
	cfg := a.Config.Ledger
	switch cfg.Driver {
	case "sqlite":
		store, err := ledger.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	case "bigquery":
		src, err := ledger.NewBigQuerySource(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, src)
		return src, nil
	case "notion":
		return ledger.NewNotionStore(ledger.NewNotionClient(cfg.NotionToken), cfg.NotionDatabaseID), nil
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.Driver)
	}
}

func (a *App) newExtractor(ctx context.Context) (rowsource.PDFExtractor, error) {
	switch a.Config.PDF.Extractor {
	case "http":
		return rowsource.NewHTTPExtractor(a.Config.PDF.Endpoint), nil
	case "gemini":
		g, err := rowsource.NewGeminiExtractor(ctx, a.Config.Gemini.Model)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return &rowsource.LocalExtractor{Extractor: a.PDF}, nil
	}
}

// Close releases every backend opened by New.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
