package recon

import (
	"strconv"
	"strings"

	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/shopspring/decimal"
)

// Record is a loosely shaped transaction keyed by lower-cased field name.
// Both mapped bank rows and ledger entries are funnelled through it.
type Record map[string]string

// Accepted source keys, in lookup order.
var (
	dateKeys        = []string{"date", "transaction date", "value date", "posting date"}
	descriptionKeys = []string{"description", "narration", "details", "particulars", "transaction details"}
)

var typeLabels = map[string]domain.TxType{
	"credit":  domain.TxCredit,
	"cr":      domain.TxCredit,
	"income":  domain.TxCredit,
	"debit":   domain.TxDebit,
	"dr":      domain.TxDebit,
	"expense": domain.TxDebit,
}

// NewRecord copies fields into a Record, lower-casing and trimming the keys.
func NewRecord(fields map[string]string) Record {
	r := make(Record, len(fields))
	for k, v := range fields {
		key := foldHeader(k)
		if _, seen := r[key]; seen && v == "" {
			continue
		}
		r[key] = v
	}
	return r
}

// RecordFromLedger turns a stored ledger entry into a Record.
func RecordFromLedger(e domain.LedgerEntry) Record {
	return Record{
		"date":        e.Date,
		"description": e.Description,
		"amount":      formatAmount(e.Amount),
		"type":        e.Type,
		"category":    e.Category,
	}
}

// RecordFromCanonical turns a canonical transaction back into a Record.
func RecordFromCanonical(tx domain.CanonicalTransaction) Record {
	return Record{
		"date":        tx.Date,
		"description": tx.Description,
		"amount":      formatAmount(tx.Amount),
		"type":        string(tx.Type),
		"category":    tx.Category,
	}
}

func (r Record) first(keys []string) string {
	for _, k := range keys {
		if v := r[k]; v != "" {
			return v
		}
	}
	return ""
}

// Canonicalize normalizes r into the canonical transaction shape.
//
// The returned bool is false when the amount could not be read; the amount is
// then zero. Canonicalize never fails on the date: an unreadable date yields "".
func Canonicalize(r Record) (domain.CanonicalTransaction, bool) {
	amount, err := ParseAmount(r["amount"])
	amountOK := err == nil
	if !amountOK {
		amount = decimal.Zero
	}

	txType, ok := typeLabels[strings.ToLower(strings.TrimSpace(r["type"]))]
	if !ok {
		txType = typeFromSign(amount)
	}

	return domain.CanonicalTransaction{
		Date:        NormalizeDate(r.first(dateKeys)),
		Description: collapseSpace(r.first(descriptionKeys)),
		Amount:      toFloat(enforceSign(amount, txType)),
		Type:        txType,
		Category:    strings.TrimSpace(r["category"]),
	}, amountOK
}

// CanonicalizeLedger canonicalizes every ledger entry, keeping the input order.
func CanonicalizeLedger(entries []domain.LedgerEntry) []domain.CanonicalTransaction {
	out := make([]domain.CanonicalTransaction, 0, len(entries))
	for _, e := range entries {
		tx, _ := Canonicalize(RecordFromLedger(e))
		out = append(out, tx)
	}
	return out
}

// IsComplete reports whether tx carries every field matching depends on.
func IsComplete(tx domain.CanonicalTransaction) bool {
	return tx.Date != "" && tx.Description != "" && tx.Type != ""
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
