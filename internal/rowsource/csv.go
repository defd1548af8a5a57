package rowsource

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
)

// CSV reads a comma separated statement whose first non-blank line is the header.
type CSV struct {
	Data []byte
}

// Kind implements Source.
func (c *CSV) Kind() Kind { return KindCSV }

// Rows implements Source.
func (c *CSV) Rows(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(c.Data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, sourceErr(KindCSV, fmt.Errorf("reading csv: %w", err))
	}
	return tableFromRecords(records), nil
}
