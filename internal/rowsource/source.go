// Package rowsource turns uploaded statements into header-ordered tabular rows.
package rowsource

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dvloznov/statement-recon/internal/domain"
)

// Kind names the family of a row source, used as the user-facing error prefix.
type Kind string

const (
	KindCSV  Kind = "CSV"
	KindXLSX Kind = "XLSX"
	KindPDF  Kind = "PDF"
)

// DefaultHeaders is reported when a source yields no rows to take headers from.
var DefaultHeaders = []string{"Date", "Description", "Amount", "Type"}

// ErrUnsupportedFile is returned by ForFile for extensions no source can read.
var ErrUnsupportedFile = errors.New("Unsupported file type. Please upload a CSV or PDF file.")

// Table is a fully materialized statement: the discovered header list in source
// order and one RawRow per transaction line.
type Table struct {
	Headers []string
	Rows    []domain.RawRow
}

// Source produces a Table. Rows is the only blocking step of a reconciliation run.
type Source interface {
	Kind() Kind
	Rows(ctx context.Context) (*Table, error)
}

// PDFExtractor converts a PDF document into tabular rows.
type PDFExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (*Table, error)
}

// SourceError wraps a parser or extractor failure. Its message is shown to users verbatim.
type SourceError struct {
	Kind Kind
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s parsing error: %s", e.Kind, e.Err.Error())
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func sourceErr(kind Kind, err error) error {
	var se *SourceError
	if errors.As(err, &se) {
		return err
	}
	return &SourceError{Kind: kind, Err: err}
}

// ForFile picks a source for an uploaded file by its extension.
// PDFs are handed to extractor, which may be nil when PDF support is disabled.
func ForFile(filename string, data []byte, extractor PDFExtractor) (Source, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return &CSV{Data: data}, nil
	case ".xlsx", ".xlsm":
		return &XLSX{Data: data}, nil
	case ".pdf":
		if extractor == nil {
			return nil, ErrUnsupportedFile
		}
		return &PDF{Filename: filename, Data: data, Extractor: extractor}, nil
	}
	return nil, ErrUnsupportedFile
}

// PDF is a Source backed by a PDFExtractor.
type PDF struct {
	Filename  string
	Data      []byte
	Extractor PDFExtractor
}

// Kind implements Source.
func (p *PDF) Kind() Kind { return KindPDF }

// Rows implements Source.
func (p *PDF) Rows(ctx context.Context) (*Table, error) {
	t, err := p.Extractor.Extract(ctx, p.Filename, p.Data)
	if err != nil {
		return nil, sourceErr(KindPDF, err)
	}
	return t, nil
}

// tableFromRecords builds a Table from a header line followed by data lines.
// Blank lines are skipped, a leading byte order mark is dropped and repeated
// header names get a numeric suffix so no column is shadowed.
func tableFromRecords(records [][]string) *Table {
	t := &Table{}
	start := -1
	for i, rec := range records {
		if !blank(rec) {
			start = i
			break
		}
	}
	if start == -1 {
		return t
	}

	t.Headers = uniqueHeaders(records[start])
	for _, rec := range records[start+1:] {
		if blank(rec) {
			continue
		}
		row := make(domain.RawRow, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func uniqueHeaders(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = fmt.Sprintf("%s_%d", h, n)
		} else {
			seen[h] = 1
		}
		out[i] = h
	}
	return out
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
