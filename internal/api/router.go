// Package api assembles the HTTP surface of the reconciliation service.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-recon/internal/api/handlers"
	"github.com/dvloznov/statement-recon/internal/api/middleware"
	"github.com/dvloznov/statement-recon/internal/jobs"
	"github.com/dvloznov/statement-recon/internal/ledger"
	"github.com/dvloznov/statement-recon/internal/pdfextract"
	"github.com/dvloznov/statement-recon/internal/pipeline"
)

// Deps are the collaborators the HTTP handlers need.
type Deps struct {
	Runner           *pipeline.Runner
	Jobs             jobs.JobStore
	Ledger           ledger.Source
	PDF              *pdfextract.Extractor
	TempDir          string
	MaxUploadBytes   int64
	UploadsPerMinute int // 0 disables rate limiting
	Log              zerolog.Logger
}

// NewRouter registers every route and wraps them in the middleware chain.
func NewRouter(d Deps) http.Handler {
	reconcileHandler := handlers.NewReconcileHandler(d.Runner, d.MaxUploadBytes, d.Log)
	pdfHandler := handlers.NewPDFHandler(d.PDF, d.Log)
	runsHandler := handlers.NewRunsHandler(d.Jobs, d.Runner.Tracker, d.Log)
	ledgerHandler := handlers.NewLedgerHandler(d.Ledger, d.Log)
	healthHandler := handlers.NewHealthHandler(d.TempDir)

	upload := func(h http.HandlerFunc) http.Handler { return h }
	if d.UploadsPerMinute > 0 {
		limiter := middleware.NewRateLimiter(d.UploadsPerMinute, time.Minute)
		upload = func(h http.HandlerFunc) http.Handler { return limiter.Middleware(h) }
	}

	router := mux.NewRouter()

	router.Handle("/api/reconcile", upload(reconcileHandler.Reconcile)).Methods(http.MethodPost)
	router.Handle("/api/parse-pdf", upload(pdfHandler.ParsePDF)).Methods(http.MethodPost)

	router.HandleFunc("/api/runs", runsHandler.ListRuns).Methods(http.MethodGet)
	router.HandleFunc("/api/runs/latest", runsHandler.LatestResults).Methods(http.MethodGet)
	router.HandleFunc("/api/runs/{id}", runsHandler.GetRun).Methods(http.MethodGet)

	router.HandleFunc("/api/ledger", ledgerHandler.ListEntries).Methods(http.MethodGet)
	router.HandleFunc("/api/ledger", ledgerHandler.AddEntry).Methods(http.MethodPost)
	router.HandleFunc("/api/ledger/{id}", ledgerHandler.UpdateEntry).Methods(http.MethodPut)
	router.HandleFunc("/api/ledger/{id}", ledgerHandler.DeleteEntry).Methods(http.MethodDelete)

	router.HandleFunc("/api/health", healthHandler.Health).Methods(http.MethodGet)
	router.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Endpoint not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return middleware.Recovery(d.Log)(
		middleware.RequestID(
			middleware.Logger(d.Log)(
				middleware.CORS(
					middleware.SecurityHeaders(router),
				),
			),
		),
	)
}
