package rowsource

import (
	"context"
	"strconv"

	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/dvloznov/statement-recon/internal/pdfextract"
)

var entryHeaders = []string{"date", "description", "amount", "type"}

// LocalExtractor reads PDFs in-process with pdfextract.
type LocalExtractor struct {
	Extractor *pdfextract.Extractor
}

// Extract implements PDFExtractor.
func (l *LocalExtractor) Extract(ctx context.Context, filename string, data []byte) (*Table, error) {
	if err := pdfextract.ValidateFilename(filename); err != nil {
		return nil, err
	}
	ex := l.Extractor
	if ex == nil {
		ex = pdfextract.New()
	}
	entries, err := ex.Extract(ctx, data)
	if err != nil {
		return nil, err
	}
	return TableFromEntries(entries), nil
}

// TableFromEntries lays extracted PDF entries out as a Table with lower-case headers.
func TableFromEntries(entries []pdfextract.Entry) *Table {
	t := &Table{Headers: append([]string(nil), entryHeaders...)}
	for _, e := range entries {
		t.Rows = append(t.Rows, domain.RawRow{
			"date":        e.Date,
			"description": e.Description,
			"amount":      strconv.FormatFloat(e.Amount, 'f', -1, 64),
			"type":        e.Type,
		})
	}
	return t
}
