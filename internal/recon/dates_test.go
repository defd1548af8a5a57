package recon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ambiguous defaults to day first", "03-01-2025", "03-01-2025"},
		{"first part over twelve is the day", "13-01-2025", "13-01-2025"},
		{"second part over twelve is the day", "01-13-2025", "13-01-2025"},
		{"iso date", "2025-01-03", "03-01-2025"},
		{"iso timestamp", "2025-01-03T10:15:00Z", "03-01-2025"},
		{"iso timestamp without zone", "2025-01-03T10:15:00", "03-01-2025"},
		{"iso space separated minutes", "2025-01-15 10:30", "15-01-2025"},
		{"iso space separated seconds", "2025-01-15 10:30:45", "15-01-2025"},
		{"iso space separated with zone", "2025-01-15 10:30:45+05:30", "15-01-2025"},
		{"iso fractional seconds", "2025-01-15T10:30:45.123", "15-01-2025"},
		{"iso year and month", "2025-01", "01-01-2025"},
		{"iso basic format", "20250115", "15-01-2025"},
		{"iso basic timestamp", "20250115T103045", "15-01-2025"},
		{"surrounding whitespace", "  05-06-2024 ", "05-06-2024"},
		{"day overflow rolls into next month", "31-02-2025", "03-03-2025"},
		{"month overflow rolls into next year", "15-14-2025", "15-02-2026"},
		{"two digit year", "01-01-25", "01-01-1925"},
		{"slash date is month first", "01/03/2025", "03-01-2025"},
		{"long form", "Jan 3, 2025", "03-01-2025"},
		{"day month name", "3 Jan 2025", "03-01-2025"},
		{"empty", "", ""},
		{"garbage", "not a date", ""},
		{"non numeric parts", "ab-cd-2025", ""},
		{"too many parts", "01-02-03-2025", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.in))
		})
	}
}

func TestNormalizeDate_Idempotent(t *testing.T) {
	inputs := []string{
		"03-01-2025", "13-01-2025", "01-13-2025", "2025-01-03", "31-02-2025",
		"01/03/2025", "Jan 3, 2025", "12-12-2012", "29-02-2024",
	}
	for _, in := range inputs {
		once := NormalizeDate(in)
		assert.NotEmpty(t, once, in)
		assert.Equal(t, once, NormalizeDate(once), in)
	}
}
