package recon

import (
	"github.com/dvloznov/statement-recon/internal/domain"
)

// Input is one fully materialized statement plus the ledger snapshot it is compared to.
type Input struct {
	Headers []string
	Rows    []domain.RawRow
	Ledger  []domain.LedgerEntry
}

// Options tunes a reconciliation run. Zero values select the defaults.
type Options struct {
	Aliases        AliasTable
	LargeThreshold float64
}

// Summary holds the headline counts of a run.
type Summary struct {
	LedgerRecords     int               `json:"ledger_records"`
	BankRecords       int               `json:"bank_records"`
	Matched           int               `json:"matched"`
	Duplicate         int               `json:"duplicate"`
	Missing           int               `json:"missing"`
	MissingFromLedger int               `json:"missing_from_ledger"`
	Alerts            map[AlertKind]int `json:"alerts"`
}

// Report is everything a single reconciliation run produces.
type Report struct {
	Mapping           FieldMapping                  `json:"mapping"`
	Bank              []domain.CanonicalTransaction `json:"bank"`
	Ledger            []domain.CanonicalTransaction `json:"ledger"`
	Results           []domain.MatchResult          `json:"results"`
	MissingFromLedger []domain.CanonicalTransaction `json:"missing_from_ledger"`
	Alerts            []Alert                       `json:"alerts"`
	Suggestions       []Suggestion                  `json:"suggestions"`
	Summary           Summary                       `json:"summary"`
	ExcludedRows      int                           `json:"excluded_rows"`
}

// Reconcile maps the statement headers, canonicalizes both sides and classifies
// every ledger record. It fails only with a *SchemaMappingError; incomplete bank
// rows are dropped and counted in ExcludedRows.
func Reconcile(in Input, opts Options) (*Report, error) {
	aliases := opts.Aliases
	if aliases == nil {
		aliases = DefaultAliases()
	}

	mapping, err := MapHeaders(in.Headers, aliases)
	if err != nil {
		return nil, err
	}

	bank, excluded := CanonicalizeBank(in.Rows, mapping)
	ledger := CanonicalizeLedger(in.Ledger)

	results := Match(ledger, bank)
	missing := MissingFromLedger(bank, ledger)
	alerts := ClassifyAlerts(results, opts.LargeThreshold)

	report := &Report{
		Mapping:           mapping,
		Bank:              bank,
		Ledger:            ledger,
		Results:           results,
		MissingFromLedger: missing,
		Alerts:            alerts,
		Suggestions:       SuggestNearMisses(results, bank),
		ExcludedRows:      excluded,
	}
	report.Summary = summarize(report)
	return report, nil
}

// CanonicalizeBank converts mapped statement rows to canonical records and
// returns how many rows were dropped for lacking a required value.
func CanonicalizeBank(rows []domain.RawRow, mapping FieldMapping) ([]domain.CanonicalTransaction, int) {
	amountHeader := mapping[domain.FieldAmount]
	bank := make([]domain.CanonicalTransaction, 0, len(rows))
	excluded := 0

	for _, row := range rows {
		amount, txType, err := ResolveSign(amountHeader, row[amountHeader], row[mapping[domain.FieldType]])
		if err != nil {
			excluded++
			continue
		}
		tx, _ := Canonicalize(Record{
			"date":        row[mapping[domain.FieldDate]],
			"description": row[mapping[domain.FieldDescription]],
			"amount":      formatAmount(amount),
			"type":        string(txType),
		})
		if !IsComplete(tx) {
			excluded++
			continue
		}
		bank = append(bank, tx)
	}
	return bank, excluded
}

func summarize(r *Report) Summary {
	s := Summary{
		LedgerRecords:     len(r.Ledger),
		BankRecords:       len(r.Bank),
		MissingFromLedger: len(r.MissingFromLedger),
		Alerts:            CountAlerts(r.Alerts),
	}
	for _, res := range r.Results {
		switch res.Status {
		case domain.StatusMatched:
			s.Matched++
		case domain.StatusDuplicate:
			s.Duplicate++
		case domain.StatusMissing:
			s.Missing++
		}
	}
	return s
}
