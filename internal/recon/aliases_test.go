package recon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/statement-recon/internal/domain"
)

func TestParseAliases_Appends(t *testing.T) {
	table, err := ParseAliases([]byte(`
aliases:
  date: ["Booking Date", "date"]
  Amount: ["paid out"]
`), DefaultAliases())
	require.NoError(t, err)

	dates := table[domain.FieldDate]
	assert.Equal(t, "date", dates[0])
	assert.Equal(t, "booking date", dates[len(dates)-1])
	assert.Len(t, dates, len(DefaultAliases()[domain.FieldDate])+1)
	assert.Contains(t, table[domain.FieldAmount], "paid out")
}

func TestParseAliases_Replace(t *testing.T) {
	table, err := ParseAliases([]byte("replace: true\naliases:\n  Type: [\"in/out\"]\n"), DefaultAliases())
	require.NoError(t, err)

	assert.Equal(t, []string{"in/out"}, table[domain.FieldType])
	assert.Equal(t, DefaultAliases()[domain.FieldDate], table[domain.FieldDate])
}

func TestParseAliases_Errors(t *testing.T) {
	_, err := ParseAliases([]byte("aliases:\n  Balance: [\"bal\"]\n"), DefaultAliases())
	assert.ErrorContains(t, err, `unknown field "Balance"`)

	_, err = ParseAliases([]byte("aliases: [oops"), DefaultAliases())
	assert.Error(t, err)
}

func TestLoadAliases(t *testing.T) {
	base := DefaultAliases()

	same, err := LoadAliases("", base)
	require.NoError(t, err)
	assert.Equal(t, base, same)

	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aliases:\n  Description: [memo]\n"), 0o600))

	table, err := LoadAliases(path, base)
	require.NoError(t, err)
	assert.Contains(t, table[domain.FieldDescription], "memo")
	assert.NotContains(t, base[domain.FieldDescription], "memo")

	_, err = LoadAliases(filepath.Join(t.TempDir(), "missing.yaml"), base)
	assert.Error(t, err)
}
