package recon

import (
	"sort"

	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/shopspring/decimal"
)

// amountTolerance is the exclusive bound under which two amounts are equal.
var amountTolerance = decimal.New(1, -2)

// AmountsEqual reports whether a and b differ by strictly less than 0.01.
// The comparison runs on the shortest decimal form of each float, so a gap
// of exactly one cent is never absorbed by binary rounding.
func AmountsEqual(a, b float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.LessThan(amountTolerance)
}

// Matches is the pairing predicate: same date, description and type, and amounts within tolerance.
func Matches(a, b domain.CanonicalTransaction) bool {
	return a.Date == b.Date &&
		AmountsEqual(a.Amount, b.Amount) &&
		a.Description == b.Description &&
		a.Type == b.Type
}

// Match classifies every ledger record against the bank records.
// The result is aligned index for index with ledger.
func Match(ledger, bank []domain.CanonicalTransaction) []domain.MatchResult {
	results := make([]domain.MatchResult, len(ledger))
	for i, l := range ledger {
		results[i] = domain.MatchResult{
			CanonicalTransaction: l,
			Status:               classify(l, bank),
		}
	}
	return results
}

func classify(l domain.CanonicalTransaction, bank []domain.CanonicalTransaction) domain.MatchStatus {
	shared := 0
	for _, b := range bank {
		if Matches(l, b) {
			return domain.StatusMatched
		}
		if l.Date == b.Date && AmountsEqual(l.Amount, b.Amount) {
			shared++
		}
	}
	if shared > 1 {
		return domain.StatusDuplicate
	}
	return domain.StatusMissing
}

// MissingFromLedger returns the bank records no ledger record matches, in bank order.
func MissingFromLedger(bank, ledger []domain.CanonicalTransaction) []domain.CanonicalTransaction {
	var missing []domain.CanonicalTransaction
	for _, b := range bank {
		found := false
		for _, l := range ledger {
			if Matches(b, l) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, b)
		}
	}
	return missing
}

// SortKey selects the canonical field SortTransactions orders by.
type SortKey string

const (
	SortByDate        SortKey = "date"
	SortByDescription SortKey = "description"
	SortByAmount      SortKey = "amount"
	SortByType        SortKey = "type"
)

// SortTransactions orders txs in place by key. Dates compare chronologically
// with unreadable dates last; ties keep their original order.
func SortTransactions(txs []domain.CanonicalTransaction, key SortKey, descending bool) {
	less := func(a, b domain.CanonicalTransaction) bool {
		switch key {
		case SortByDescription:
			return a.Description < b.Description
		case SortByAmount:
			return a.Amount < b.Amount
		case SortByType:
			return a.Type < b.Type
		default:
			return dateSortKey(a.Date) < dateSortKey(b.Date)
		}
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if descending {
			return less(txs[j], txs[i])
		}
		return less(txs[i], txs[j])
	})
}

// dateSortKey rewrites DD-MM-YYYY as YYYYMMDD so strings compare chronologically.
func dateSortKey(d string) string {
	if len(d) != len(DisplayDateLayout) {
		return "~"
	}
	return d[6:10] + d[3:5] + d[0:2]
}
