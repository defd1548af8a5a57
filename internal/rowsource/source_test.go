package rowsource

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/genai"

	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/dvloznov/statement-recon/internal/pdfextract"
)

func TestCSVRows(t *testing.T) {
	data := "\ufeffDate,Description,Amount,Type,Amount\n" +
		"01-01-2025,Coffee,4.50,Debit,x\n" +
		"\n" +
		",,,,\n" +
		"02-01-2025,Salary,2500\n"

	table, err := (&CSV{Data: []byte(data)}).Rows(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Description", "Amount", "Type", "Amount_1"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, domain.RawRow{"Date": "01-01-2025", "Description": "Coffee", "Amount": "4.50", "Type": "Debit", "Amount_1": "x"}, table.Rows[0])
	assert.Equal(t, "", table.Rows[1]["Type"])
}

func TestCSVRows_Error(t *testing.T) {
	_, err := (&CSV{Data: []byte("Date,Description\n\"01-01-2025,x\n")}).Rows(context.Background())

	var se *SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindCSV, se.Kind)
	assert.True(t, strings.HasPrefix(err.Error(), "CSV parsing error: "))
}

func TestCSVRows_Empty(t *testing.T) {
	table, err := (&CSV{Data: nil}).Rows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, table.Headers)
	assert.Empty(t, table.Rows)
}

func TestXLSXRows(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Value Date", "Particulars", "Amount", "Dr/Cr"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"03-01-2025", "ATM", "100", "DR"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := (&XLSX{Data: buf.Bytes()}).Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Value Date", "Particulars", "Amount", "Dr/Cr"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "ATM", table.Rows[0]["Particulars"])
}

func TestXLSXRows_Error(t *testing.T) {
	_, err := (&XLSX{Data: []byte("not a workbook")}).Rows(context.Background())
	assert.True(t, strings.HasPrefix(err.Error(), "XLSX parsing error: "))
}

func TestForFile(t *testing.T) {
	pdf := &LocalExtractor{}

	src, err := ForFile("statement.CSV", nil, pdf)
	require.NoError(t, err)
	assert.Equal(t, KindCSV, src.Kind())

	src, err = ForFile("statement.xlsx", nil, pdf)
	require.NoError(t, err)
	assert.Equal(t, KindXLSX, src.Kind())

	src, err = ForFile("statement.pdf", nil, pdf)
	require.NoError(t, err)
	assert.Equal(t, KindPDF, src.Kind())

	_, err = ForFile("statement.pdf", nil, nil)
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = ForFile("statement.txt", nil, pdf)
	assert.ErrorIs(t, err, ErrUnsupportedFile)
	assert.Equal(t, "Unsupported file type. Please upload a CSV or PDF file.", err.Error())
}

func TestHTTPExtractor(t *testing.T) {
	var gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if assert.NoError(t, err) {
			body, _ := io.ReadAll(f)
			gotFile = hdr.Filename + ":" + string(body)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"entries":[{"type":"Debit","date":"01-01-2025","description":"Coffee","amount":4.5},{"type":null,"date":"02-01-2025","description":"Tea","amount":"3"}],"count":2}`)
	}))
	defer srv.Close()

	table, err := NewHTTPExtractor(srv.URL).Extract(context.Background(), "s.pdf", []byte("%PDF"))
	require.NoError(t, err)

	assert.Equal(t, "s.pdf:%PDF", gotFile)
	assert.Equal(t, []string{"type", "date", "description", "amount"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, domain.RawRow{"type": "Debit", "date": "01-01-2025", "description": "Coffee", "amount": "4.5"}, table.Rows[0])
	assert.Equal(t, "", table.Rows[1]["type"])
	assert.Equal(t, "3", table.Rows[1]["amount"])
}

func TestHTTPExtractor_Failures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        string
	}{
		{"json error", http.StatusBadRequest, "application/json", `{"error":"Invalid PDF file"}`, "PDF parsing error: Invalid PDF file"},
		{"json without message", http.StatusInternalServerError, "application/json", `{}`, "PDF parsing error: Unknown error from server."},
		{"plain text", http.StatusBadGateway, "text/html", "Bad Gateway", "PDF parsing error: Bad Gateway"},
		{"empty plain text", http.StatusBadGateway, "text/plain", "", "PDF parsing error: Unknown error from server."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			src := &PDF{Filename: "s.pdf", Data: []byte("%PDF"), Extractor: NewHTTPExtractor(srv.URL)}
			_, err := src.Rows(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestHTTPExtractor_NoEntriesUsesDefaultHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"entries":[]}`)
	}))
	defer srv.Close()

	table, err := NewHTTPExtractor(srv.URL).Extract(context.Background(), "s.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, DefaultHeaders, table.Headers)
	assert.Empty(t, table.Rows)
}

type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}}},
		},
	}, nil
}

func TestGeminiExtractor(t *testing.T) {
	g := &GeminiExtractor{
		Models: &fakeGenerator{text: "```json\n[{\"Date\":\"01-01-2025\",\"Description\":\"Coffee\",\"Amount\":\"4.50\",\"Type\":\"Debit\"}]\n```"},
		Model:  DefaultGeminiModel,
	}

	table, err := g.Extract(context.Background(), "s.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Description", "Amount", "Type"}, table.Headers)
	assert.Equal(t, "4.50", table.Rows[0]["Amount"])

	g.Models = &fakeGenerator{err: errors.New("quota exceeded")}
	_, err = (&PDF{Filename: "s.pdf", Extractor: g}).Rows(context.Background())
	assert.ErrorContains(t, err, "PDF parsing error: generate content for s.pdf: quota exceeded")
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"[1]", "[1]"},
		{"```json\n[1]\n```", "[1]"},
		{"```\n[1]```", "[1]"},
		{"Here you go: [1, 2] thanks", "[1, 2]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanModelJSON(tt.in))
	}
}

func TestLocalExtractor_RejectsBadInput(t *testing.T) {
	l := &LocalExtractor{Extractor: pdfextract.New()}

	_, err := l.Extract(context.Background(), "../x.pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, pdfextract.ErrInvalidFilename)

	_, err = (&PDF{Filename: "x.pdf", Data: []byte("hello"), Extractor: l}).Rows(context.Background())
	assert.Equal(t, "PDF parsing error: Invalid PDF file", err.Error())
}

func TestTableFromEntries(t *testing.T) {
	table := TableFromEntries([]pdfextract.Entry{{Date: "01/04/25", Description: "UPI", Amount: 1250, Type: "Debit"}})
	assert.Equal(t, []string{"date", "description", "amount", "type"}, table.Headers)
	assert.Equal(t, domain.RawRow{"date": "01/04/25", "description": "UPI", "amount": "1250", "type": "Debit"}, table.Rows[0])
}
