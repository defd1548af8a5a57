package pdfextract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/dvloznov/statement-recon/internal/logger"
)

// Extractor reads statement rows out of text-based PDFs.
type Extractor struct {
	MaxPages int
	MaxBytes int64
}

// New returns an Extractor with the default page and size limits.
func New() *Extractor {
	return &Extractor{MaxPages: DefaultMaxPages, MaxBytes: DefaultMaxBytes}
}

// Validate checks size, signature and page count without reading any text.
func (e *Extractor) Validate(data []byte) (int, error) {
	if e.MaxBytes > 0 && int64(len(data)) > e.MaxBytes {
		return 0, ErrFileTooLarge
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return 0, ErrInvalidPDF
	}

	pages, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	if e.MaxPages > 0 && pages > e.MaxPages {
		return pages, fmt.Errorf("%w. Maximum %d pages allowed.", ErrTooManyPages, e.MaxPages)
	}
	return pages, nil
}

// Extract validates data and returns every entry found across its pages.
func (e *Extractor) Extract(ctx context.Context, data []byte) ([]Entry, error) {
	log := logger.FromContext(ctx)

	pages, err := e.Validate(data)
	if err != nil {
		return nil, err
	}
	log.Info().Int("pages", pages).Int("bytes", len(data)).Msg("Extracting PDF statement")

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	var entries []Entry
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		lines, err := pageLines(p)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Msg("Skipping unreadable page")
			continue
		}
		found := ParsePage(lines)
		log.Debug().Int("page", i).Int("lines", len(lines)).Int("entries", len(found)).Msg("Parsed page")
		entries = append(entries, found...)
	}

	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	log.Info().Int("entries", len(entries)).Msg("Extracted PDF entries")
	return entries, nil
}

// pageLines renders each text row of a page, separating cells that sit far
// apart with a double space so SplitColumns can recover the columns.
func pageLines(p pdf.Page) ([]string, error) {
	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var b strings.Builder
		prevEnd := 0.0
		for i, t := range row.Content {
			if i > 0 {
				size := t.FontSize
				if size <= 0 {
					size = 10
				}
				gap := t.X - prevEnd
				switch {
				case gap > size:
					b.WriteString("  ")
				case gap > size*0.2:
					b.WriteString(" ")
				}
			}
			b.WriteString(t.S)
			prevEnd = t.X + t.W
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
