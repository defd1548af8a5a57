package pdfextract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Entry is one transaction read from a statement page.
type Entry struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
}

var (
	columnGap = regexp.MustCompile(`\s{2,}`)
	maxAmount = decimal.RequireFromString("999999999.99")
)

// SplitColumns breaks a rendered text line into cells at runs of two or more spaces.
func SplitColumns(line string) []string {
	var cells []string
	for _, c := range columnGap.Split(line, -1) {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

// ParsePage extracts entries from the text lines of a single page. When a table
// header with a date and a narration or description column is present the rows
// below it are read by column; otherwise every line with at least four cells is
// read as date, description, amount, type.
func ParsePage(lines []string) []Entry {
	if headerIdx, headers := findTableHeader(lines); headerIdx >= 0 && headerIdx < len(lines)-1 {
		return parseTable(headers, lines[headerIdx+1:])
	}
	return parseLoose(lines)
}

func findTableHeader(lines []string) (int, []string) {
	for i, line := range lines {
		cells := SplitColumns(line)
		headers := make([]string, len(cells))
		hasDate, hasDesc := false, false
		for j, c := range cells {
			h := strings.ToLower(c)
			headers[j] = h
			switch h {
			case "date":
				hasDate = true
			case "narration", "description":
				hasDesc = true
			}
		}
		if hasDate && hasDesc {
			return i, headers
		}
	}
	return -1, nil
}

func parseTable(headers []string, lines []string) []Entry {
	var entries []Entry
	for _, line := range lines {
		cells := SplitColumns(line)
		if len(cells) != len(headers) {
			continue
		}
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			row[h] = cells[i]
		}

		date := strings.TrimSpace(row["date"])
		description := strings.TrimSpace(firstNonEmpty(row["narration"], row["description"]))
		withdrawal := firstNonEmpty(row["withdrawal (dr)"], row["withdrawal"], "0")
		deposit := firstNonEmpty(row["deposit (cr)"], row["deposit"], "0")

		w, err := parseAmount(withdrawal)
		if err != nil {
			continue
		}
		var amount decimal.Decimal
		var txType string
		if w.IsPositive() {
			amount, txType = w, "Debit"
		} else {
			d, err := parseAmount(deposit)
			if err != nil {
				continue
			}
			if d.IsPositive() {
				amount, txType = d, "Credit"
			}
		}

		if amount.IsZero() || amount.Abs().GreaterThan(maxAmount) || date == "" || description == "" {
			continue
		}
		entries = append(entries, newEntry(date, description, amount, txType))
	}
	return entries
}

func parseLoose(lines []string) []Entry {
	var entries []Entry
	for _, line := range lines {
		parts := SplitColumns(line)
		if len(parts) < 4 {
			continue
		}
		amount, err := parseAmount(parts[2])
		if err != nil || amount.Abs().GreaterThan(maxAmount) {
			continue
		}
		entries = append(entries, newEntry(parts[0], parts[1], amount, parts[3]))
	}
	return entries
}

func newEntry(date, description string, amount decimal.Decimal, txType string) Entry {
	f, _ := amount.Float64()
	return Entry{
		Date:        Sanitize(date),
		Description: Sanitize(description),
		Amount:      f,
		Type:        Sanitize(txType),
	}
}

func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(s, ",", "")))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
