package rowsource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/statement-recon/internal/domain"
)

// tableFromEntries converts a JSON array of flat objects into a Table. Headers
// come from the first object's keys in document order, falling back to
// DefaultHeaders when the array is empty.
func tableFromEntries(raw []json.RawMessage) (*Table, error) {
	t := &Table{}
	for i, entry := range raw {
		keys, row, err := orderedObject(entry)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if i == 0 {
			t.Headers = keys
		}
		t.Rows = append(t.Rows, row)
	}
	if len(t.Headers) == 0 {
		t.Headers = append([]string(nil), DefaultHeaders...)
	}
	return t, nil
}

// orderedObject decodes one JSON object, keeping key order and rendering every
// scalar value as a string.
func orderedObject(raw json.RawMessage) ([]string, domain.RawRow, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	row := domain.RawRow{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected key token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("value of %q: %w", key, err)
		}
		if _, seen := row[key]; !seen {
			keys = append(keys, key)
		}
		row[key] = scalarString(value)
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, nil, err
	}
	return keys, row, nil
}

func scalarString(v json.RawMessage) string {
	s := strings.TrimSpace(string(v))
	switch {
	case s == "null":
		return ""
	case strings.HasPrefix(s, `"`):
		var out string
		if err := json.Unmarshal(v, &out); err == nil {
			return out
		}
	}
	return s
}
