package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-recon/internal/app"
	"github.com/dvloznov/statement-recon/internal/config"
	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/dvloznov/statement-recon/internal/gcs"
	"github.com/dvloznov/statement-recon/internal/ledger"
	"github.com/dvloznov/statement-recon/internal/logger"
	"github.com/dvloznov/statement-recon/internal/pdfextract"
	"github.com/dvloznov/statement-recon/internal/pipeline"
	"github.com/dvloznov/statement-recon/internal/recon"
	"github.com/dvloznov/statement-recon/internal/rowsource"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Out: os.Stderr})

	switch os.Args[1] {
	case "reconcile":
		runReconcile(cfg, log)
	case "map-headers":
		runMapHeaders(cfg, log)
	case "extract-pdf":
		runExtractPDF(cfg, log)
	case "upload":
		runUpload(log)
	case "ledger":
		runLedger(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Statement Reconciliation CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  reconcile     Reconcile a bank statement against the ledger")
	fmt.Println("  map-headers   Show how a statement's headers map to canonical fields")
	fmt.Println("  extract-pdf   Print the entries extracted from a PDF statement")
	fmt.Println("  upload        Upload a statement to GCS")
	fmt.Println("  ledger        List, add or delete ledger entries")
	fmt.Println("  help          Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runReconcile(cfg config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to a CSV, XLSX or PDF statement")
	gcsURI := fs.String("gcs-uri", "", "GCS URI of the statement (instead of -file)")
	sortBy := fs.String("sort", "", "Order missing-from-ledger records by date, description, amount or type")
	desc := fs.Bool("desc", false, "Sort descending")
	fs.Parse(os.Args[2:])

	if (*filePath == "") == (*gcsURI == "") {
		log.Fatal().Msg("Usage: cli reconcile -file PATH | -gcs-uri URI")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer a.Close()

	up := pipeline.Upload{GCSURI: *gcsURI}
	if *filePath != "" {
		data, err := os.ReadFile(*filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read statement")
		}
		up.Filename = filepath.Base(*filePath)
		up.Data = data
	} else if a.Storage == nil {
		log.Fatal().Msg("gcs.bucket must be configured to reconcile from GCS")
	}

	_, report, err := a.Runner.Run(ctx, up)
	if err != nil {
		fmt.Fprintln(os.Stderr, pipeline.UserMessage(err))
		os.Exit(1)
	}

	printReport(report, recon.SortKey(*sortBy), *desc)
}

func printReport(report *recon.Report, sortBy recon.SortKey, desc bool) {
	s := report.Summary
	fmt.Printf("\nLedger records: %d   Bank records: %d   Excluded rows: %d\n",
		s.LedgerRecords, s.BankRecords, report.ExcludedRows)
	fmt.Printf("Matched: %d   Duplicate: %d   Missing: %d   Missing from ledger: %d\n",
		s.Matched, s.Duplicate, s.Missing, s.MissingFromLedger)

	fmt.Println("\n=== Ledger vs Statement ===")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDESCRIPTION\tAMOUNT\tTYPE\tSTATUS")
	for _, r := range report.Results {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\n", r.Date, r.Description, r.Amount, r.Type, r.Status)
	}
	w.Flush()

	missing := append([]domain.CanonicalTransaction(nil), report.MissingFromLedger...)
	if sortBy != "" {
		recon.SortTransactions(missing, sortBy, desc)
	}
	fmt.Printf("\n=== Missing from ledger (%d) ===\n", len(missing))
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDESCRIPTION\tAMOUNT\tTYPE")
	for _, tx := range missing {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", tx.Date, tx.Description, tx.Amount, tx.Type)
	}
	w.Flush()

	if len(report.Alerts) > 0 {
		fmt.Printf("\n=== Alerts (%d) ===\n", len(report.Alerts))
		for _, al := range report.Alerts {
			fmt.Printf("[%s] %s: %s %s %.2f\n", al.Kind, al.Message, al.Record.Date, al.Record.Description, al.Record.Amount)
		}
	}
	for _, sg := range report.Suggestions {
		fmt.Printf("Possible match for %q: %q (similarity %.0f%%)\n",
			sg.Ledger.Description, sg.Candidate.Description, sg.Similarity*100)
	}
	fmt.Println()
}

func runMapHeaders(cfg config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("map-headers", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to a CSV, XLSX or PDF statement")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Usage: cli map-headers -file PATH")
	}

	ctx := logger.WithContext(context.Background(), log)

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read statement")
	}
	pdf := &pdfextract.Extractor{MaxPages: cfg.PDF.MaxPages, MaxBytes: cfg.PDF.MaxBytes}
	src, err := rowsource.ForFile(filepath.Base(*filePath), data, &rowsource.LocalExtractor{Extractor: pdf})
	if err != nil {
		log.Fatal().Err(err).Msg("Unsupported statement")
	}
	table, err := src.Rows(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read statement rows")
	}

	aliases, err := recon.LoadAliases(cfg.Recon.AliasesFile, recon.DefaultAliases())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load aliases")
	}
	mapping, err := recon.MapHeaders(table.Headers, aliases)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Source: %s, %d rows\n", src.Kind(), len(table.Rows))
	for _, f := range domain.RequiredFields {
		fmt.Printf("  %-12s <- %s\n", f, mapping[f])
	}
}

func runExtractPDF(cfg config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("extract-pdf", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to a PDF statement")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Usage: cli extract-pdf -file PATH")
	}
	if err := pdfextract.ValidateFilename(filepath.Base(*filePath)); err != nil {
		log.Fatal().Err(err).Msg("Rejected file")
	}

	ctx := logger.WithContext(context.Background(), log)

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read PDF")
	}
	ex := &pdfextract.Extractor{MaxPages: cfg.PDF.MaxPages, MaxBytes: cfg.PDF.MaxBytes}
	entries, err := ex.Extract(ctx, data)
	if err != nil {
		log.Fatal().Err(err).Msg("Extraction failed")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDESCRIPTION\tAMOUNT\tTYPE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", e.Date, e.Description, e.Amount, e.Type)
	}
	w.Flush()
	fmt.Printf("\n%d entries\n", len(entries))
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", os.Getenv("RECON_GCS_BUCKET"), "GCS bucket name")
	objectName := fs.String("object", "", "GCS object name (defaults to statements/YYYY/MM/<file>)")
	filePath := fs.String("file", "", "Path to local statement file")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH")
	}
	if *objectName == "" {
		*objectName = gcs.ObjectName(*filePath, time.Now())
	}

	ctx := logger.WithContext(context.Background(), log)

	client, err := gcs.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer client.Close()

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	uri, err := client.UploadFile(ctx, *bucketName, *objectName, *filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", *filePath, uri)
}

func runLedger(cfg config.Config, log zerolog.Logger) {
	if len(os.Args) < 3 {
		fmt.Println("Usage: cli ledger <list|add|delete> [options]")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer a.Close()

	switch os.Args[2] {
	case "list":
		entries, err := a.Ledger.ListEntries(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list entries")
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tAMOUNT\tTYPE\tCATEGORY")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\n", e.ID, e.Date, e.Description, e.Amount, e.Type, e.Category)
		}
		w.Flush()

	case "add":
		fs := flag.NewFlagSet("ledger add", flag.ExitOnError)
		date := fs.String("date", "", "Entry date")
		description := fs.String("description", "", "Entry description")
		amount := fs.String("amount", "", "Signed amount")
		typ := fs.String("type", "", "income, expense, credit or debit")
		category := fs.String("category", "", "Optional category")
		fs.Parse(os.Args[3:])

		store := writableLedger(a, log)
		value, err := strconv.ParseFloat(*amount, 64)
		if err != nil && *amount != "" {
			log.Fatal().Msg(ledger.ErrInvalidAmount.Error())
		}
		e, err := store.AddEntry(ctx, domain.LedgerEntry{
			Date:        *date,
			Description: *description,
			Amount:      value,
			Type:        *typ,
			Category:    *category,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to add entry")
		}
		fmt.Printf("Added entry %s\n", e.ID)

	case "delete":
		fs := flag.NewFlagSet("ledger delete", flag.ExitOnError)
		id := fs.String("id", "", "Entry ID")
		fs.Parse(os.Args[3:])

		if err := writableLedger(a, log).DeleteEntry(ctx, *id); err != nil {
			log.Fatal().Err(err).Msg("Failed to delete entry")
		}
		fmt.Printf("Deleted entry %s\n", *id)

	default:
		fmt.Fprintf(os.Stderr, "Unknown ledger command: %s\n", os.Args[2])
		os.Exit(1)
	}
}

func writableLedger(a *app.App, log zerolog.Logger) ledger.Store {
	store, ok := a.Ledger.(ledger.Store)
	if !ok {
		log.Fatal().Str("driver", a.Config.Ledger.Driver).Msg("Ledger backend is read-only")
	}
	return store
}
