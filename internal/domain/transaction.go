package domain

// RawRow is one statement row as emitted by a row source: header-as-written
// mapped to the cell value. Header order is carried separately because maps
// are unordered and mapping tie-breaks depend on it.
type RawRow map[string]string

// CanonicalField is one of the four logical columns every statement must supply.
type CanonicalField string

const (
	FieldDate        CanonicalField = "Date"
	FieldDescription CanonicalField = "Description"
	FieldAmount      CanonicalField = "Amount"
	FieldType        CanonicalField = "Type"
)

// RequiredFields lists the canonical fields in the order they are resolved and reported.
var RequiredFields = []CanonicalField{FieldDate, FieldDescription, FieldAmount, FieldType}

// TxType is the direction of a canonical transaction.
type TxType string

const (
	TxCredit TxType = "credit"
	TxDebit  TxType = "debit"
)

// CanonicalTransaction is the normalized shape both sides are compared in.
// Debits are never positive and credits are never negative.
type CanonicalTransaction struct {
	Date        string  `json:"date"`        // DD-MM-YYYY, empty if unparseable
	Description string  `json:"description"` // lower-cased, whitespace collapsed
	Amount      float64 `json:"amount"`      // rounded to 2 decimal places, signed by Type
	Type        TxType  `json:"type"`
	Category    string  `json:"category"` // ledger side only
}

// MatchStatus is the outcome of comparing one ledger record against the statement.
type MatchStatus string

const (
	StatusMatched   MatchStatus = "matched"
	StatusDuplicate MatchStatus = "duplicate"
	StatusMissing   MatchStatus = "missing"
)

// MatchResult is a canonical ledger record plus its classification.
type MatchResult struct {
	CanonicalTransaction
	Status MatchStatus `json:"status"`
}

// LedgerEntry is a manually entered transaction as held by the ledger store.
// Type is a free label such as "income", "expense", "credit" or "debit".
type LedgerEntry struct {
	ID          string  `json:"id,omitempty"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Category    string  `json:"category,omitempty"`
}
