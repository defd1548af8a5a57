package rowsource

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSX reads the first worksheet of a spreadsheet statement.
type XLSX struct {
	Data []byte
}

// Kind implements Source.
func (x *XLSX) Kind() Kind { return KindXLSX }

// Rows implements Source.
func (x *XLSX) Rows(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(x.Data))
	if err != nil {
		return nil, sourceErr(KindXLSX, fmt.Errorf("opening workbook: %w", err))
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, sourceErr(KindXLSX, fmt.Errorf("workbook has no sheets"))
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, sourceErr(KindXLSX, fmt.Errorf("reading sheet %q: %w", sheet, err))
	}
	return tableFromRecords(rows), nil
}
