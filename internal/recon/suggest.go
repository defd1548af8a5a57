package recon

import (
	"github.com/agnivade/levenshtein"

	"github.com/dvloznov/statement-recon/internal/domain"
)

// Suggestion pairs a missing ledger record with the closest bank record that shares
// its date and amount. It is diagnostic only and never changes a status.
type Suggestion struct {
	LedgerIndex int                         `json:"ledger_index"`
	Ledger      domain.CanonicalTransaction `json:"ledger"`
	Candidate   domain.CanonicalTransaction `json:"candidate"`
	Distance    int                         `json:"distance"`
	Similarity  float64                     `json:"similarity"`
}

// SuggestNearMisses looks for a likely counterpart of every missing result: a
// bank record with the same date and amount but a different description or type.
// A missing record has at most one such candidate, otherwise it would have been
// classified as a duplicate.
func SuggestNearMisses(results []domain.MatchResult, bank []domain.CanonicalTransaction) []Suggestion {
	var out []Suggestion
	for i, r := range results {
		if r.Status != domain.StatusMissing {
			continue
		}
		for _, b := range bank {
			if b.Date != r.Date || !AmountsEqual(b.Amount, r.Amount) {
				continue
			}
			d := levenshtein.ComputeDistance(r.Description, b.Description)
			out = append(out, Suggestion{
				LedgerIndex: i,
				Ledger:      r.CanonicalTransaction,
				Candidate:   b,
				Distance:    d,
				Similarity:  similarity(r.Description, b.Description, d),
			})
			break
		}
	}
	return out
}

func similarity(a, b string, dist int) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(longest)
}
