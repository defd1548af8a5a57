package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/statement-recon/internal/api"
	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/dvloznov/statement-recon/internal/jobs/inmemory"
	"github.com/dvloznov/statement-recon/internal/ledger"
	"github.com/dvloznov/statement-recon/internal/pdfextract"
	"github.com/dvloznov/statement-recon/internal/pipeline"
)

const statementCSV = "Date,Description,Amount,Type\n" +
	"03-01-2025,Coffee,4.50,Debit\n" +
	"04-01-2025,Salary,2500,Credit\n" +
	"05-01-2025,Refund,20,Credit\n"

type testServer struct {
	handler http.Handler
	ledger  *ledger.SQLiteStore
}

func newTestServer(t *testing.T, uploadsPerMinute int) *testServer {
	t.Helper()

	store, err := ledger.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jobStore := inmemory.NewStore()
	handler := api.NewRouter(api.Deps{
		Runner:           pipeline.NewRunner(store, jobStore),
		Jobs:             jobStore,
		Ledger:           store,
		PDF:              pdfextract.New(),
		TempDir:          t.TempDir(),
		MaxUploadBytes:   1 << 20,
		UploadsPerMinute: uploadsPerMinute,
		Log:              zerolog.Nop(),
	})
	return &testServer{handler: handler, ledger: store}
}

func (s *testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var body map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func uploadRequest(t *testing.T, target, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestReconcileFlow(t *testing.T) {
	srv := newTestServer(t, 0)
	_, err := srv.ledger.AddEntry(context.Background(), domain.LedgerEntry{
		Date: "2025-01-03", Description: "Coffee", Amount: -4.5, Type: "expense",
	})
	require.NoError(t, err)

	rec, body := srv.do(t, uploadRequest(t, "/api/reconcile?sort=amount&order=desc", "jan.csv", []byte(statementCSV)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	jobID, _ := body["job_id"].(string)
	require.NotEmpty(t, jobID)

	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, float64(1), summary["matched"])
	assert.Equal(t, float64(2), summary["missing_from_ledger"])

	missing := body["missing_from_ledger"].([]interface{})
	require.Len(t, missing, 2)
	assert.Equal(t, "salary", missing[0].(map[string]interface{})["description"])
	assert.Equal(t, "refund", missing[1].(map[string]interface{})["description"])

	rec, body = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/runs/latest", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jobID, body["job_id"])
	assert.Equal(t, "completed", body["job"].(map[string]interface{})["status"])

	rec, body = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/runs?status=completed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, body = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/runs/"+jobID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jan.csv", body["filename"])
}

func TestReconcileErrors(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantError  string
	}{
		{
			name: "no file",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/reconcile", nil)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "No file uploaded",
		},
		{
			name: "gcs uri without storage",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/reconcile", strings.NewReader("gcs_uri=gs://bank/jan.csv"))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return req
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Statement storage is not configured",
		},
		{
			name: "unsupported type",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/reconcile", "notes.txt", []byte("hello"))
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Unsupported file type. Please upload a CSV or PDF file.",
		},
		{
			name: "unmappable headers",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/reconcile", "jan.csv", []byte("Date,Description\n01-01-2025,Coffee\n"))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "Could not find columns for: Amount, Type\nDetected headers: Date, Description",
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/reconcile", "big.csv", bytes.Repeat([]byte("a"), 1<<20+10))
			},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantError:  "File too large. Maximum size is 1MB.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, 0)
			rec, body := srv.do(t, tt.req(t))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestReconcileMappingErrorDetails(t *testing.T) {
	srv := newTestServer(t, 0)

	rec, body := srv.do(t, uploadRequest(t, "/api/reconcile", "jan.csv", []byte("Date,Description\n01-01-2025,Coffee\n")))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []interface{}{"Amount", "Type"}, body["missing"])
	assert.Equal(t, []interface{}{"Date", "Description"}, body["headers"])

	rec, _ = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/runs/latest", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/runs?status=failed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
}

func TestParsePDFErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     string
	}{
		{"not a pdf name", "statement.csv", []byte("x"), "Only PDF files are supported"},
		{"dangerous name", "statement.pdf.exe", []byte("x"), "Invalid filename"},
		{"bad signature", "statement.pdf", []byte("hello"), "Invalid PDF file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, 0)
			rec, body := srv.do(t, uploadRequest(t, "/api/parse-pdf", tt.filename, tt.data))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, body["error"])
		})
	}
}

func TestLedgerEndpoints(t *testing.T) {
	srv := newTestServer(t, 0)

	rec, body := srv.do(t, jsonRequest(http.MethodPost, "/api/ledger",
		`{"date":"2025-01-03","description":"Coffee","amount":-4.5,"type":"expense"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	rec, body = srv.do(t, jsonRequest(http.MethodPost, "/api/ledger", `{"date":"2025-01-03","type":"expense"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ledger.ErrMissingFields.Error(), body["error"])

	rec, _ = srv.do(t, jsonRequest(http.MethodPost, "/api/ledger", `not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = srv.do(t, jsonRequest(http.MethodPut, "/api/ledger/"+id, `{"category":"food"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "food", body["category"])
	assert.Equal(t, "Coffee", body["description"])

	rec, _ = srv.do(t, jsonRequest(http.MethodPut, "/api/ledger/missing", `{"category":"food"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/ledger", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, _ = srv.do(t, httptest.NewRequest(http.MethodDelete, "/api/ledger/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = srv.do(t, httptest.NewRequest(http.MethodDelete, "/api/ledger/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type readOnlyLedger struct{}

func (readOnlyLedger) ListEntries(ctx context.Context) ([]domain.LedgerEntry, error) {
	return []domain.LedgerEntry{}, nil
}

func TestLedgerReadOnly(t *testing.T) {
	jobStore := inmemory.NewStore()
	handler := api.NewRouter(api.Deps{
		Runner: pipeline.NewRunner(readOnlyLedger{}, jobStore),
		Jobs:   jobStore,
		Ledger: readOnlyLedger{},
		Log:    zerolog.Nop(),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/ledger", `{}`))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ledger is read-only")
}

func TestRoutingFallbacks(t *testing.T) {
	srv := newTestServer(t, 0)

	rec, body := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Endpoint not found", body["error"])

	rec, body = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/runs/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Run not found", body["error"])

	rec, body = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealthDegraded(t *testing.T) {
	handler := api.NewRouter(api.Deps{
		Runner:  pipeline.NewRunner(readOnlyLedger{}, nil),
		Jobs:    inmemory.NewStore(),
		Ledger:  readOnlyLedger{},
		TempDir: filepath.Join(t.TempDir(), "does-not-exist"),
		Log:     zerolog.Nop(),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}

func TestUploadRateLimit(t *testing.T) {
	srv := newTestServer(t, 1)

	rec, _ := srv.do(t, uploadRequest(t, "/api/reconcile", "jan.csv", []byte(statementCSV)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := srv.do(t, uploadRequest(t, "/api/reconcile", "jan.csv", []byte(statementCSV)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", body["error"])

	rec, _ = srv.do(t, httptest.NewRequest(http.MethodGet, "/api/ledger", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
