package recon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/statement-recon/internal/domain"
)

func TestSuggestNearMisses(t *testing.T) {
	ledger := []domain.CanonicalTransaction{
		tx("01-01-2025", "coffee shop", -4.5, domain.TxDebit),
		tx("02-01-2025", "rent", -900, domain.TxDebit),
		tx("03-01-2025", "gym", -30, domain.TxDebit),
	}
	bank := []domain.CanonicalTransaction{
		tx("01-01-2025", "coffee shp", -4.5, domain.TxDebit),
		tx("02-01-2025", "rent", -900, domain.TxDebit),
		tx("03-01-2025", "gym", -31, domain.TxDebit),
	}

	results := Match(ledger, bank)
	got := SuggestNearMisses(results, bank)

	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].LedgerIndex)
	assert.Equal(t, "coffee shp", got[0].Candidate.Description)
	assert.Equal(t, 1, got[0].Distance)
	assert.InDelta(t, 1-1.0/11, got[0].Similarity, 1e-9)
}

func TestSuggestNearMisses_IgnoresNonMissing(t *testing.T) {
	results := []domain.MatchResult{
		result(tx("01-01-2025", "coffee", -5, domain.TxDebit), domain.StatusDuplicate),
	}
	bank := []domain.CanonicalTransaction{tx("01-01-2025", "cofee", -5, domain.TxDebit)}

	assert.Empty(t, SuggestNearMisses(results, bank))
}
