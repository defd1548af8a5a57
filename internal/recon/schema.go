package recon

import (
	"fmt"
	"strings"

	"github.com/dvloznov/statement-recon/internal/domain"
)

// AliasTable lists the accepted header spellings per canonical field, in priority order.
type AliasTable map[domain.CanonicalField][]string

// FieldMapping maps each canonical field to the source header that supplies it.
// A missing key means the field could not be located.
type FieldMapping map[domain.CanonicalField]string

// DefaultAliases returns a fresh copy of the built-in alias table.
func DefaultAliases() AliasTable {
	return AliasTable{
		domain.FieldDate: {
			"date", "transaction date", "value date", "posting date",
		},
		domain.FieldDescription: {
			"description", "narration", "details", "particulars", "transaction details",
		},
		domain.FieldAmount: {
			"amount", "transaction amount", "amt", "dr amount", "cr amount",
			"withdrawal", "deposit", "withdrawal (dr)", "deposit (cr)", "debit", "credit",
		},
		domain.FieldType: {
			"type", "transaction type", "dr/cr", "debit/credit", "drcr", "credit/debit", "withdrawal/deposit",
		},
	}
}

// Clone returns a deep copy so callers can extend the table without touching the original.
func (t AliasTable) Clone() AliasTable {
	out := make(AliasTable, len(t))
	for field, aliases := range t {
		out[field] = append([]string(nil), aliases...)
	}
	return out
}

// SchemaMappingError reports required fields that no header could supply.
type SchemaMappingError struct {
	Missing []domain.CanonicalField
	Headers []string
}

func (e *SchemaMappingError) Error() string {
	fields := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		fields[i] = string(f)
	}
	return fmt.Sprintf("Could not find columns for: %s\nDetected headers: %s",
		strings.Join(fields, ", "), strings.Join(e.Headers, ", "))
}

type matchTier func(header, alias string) bool

var tiers = []matchTier{headerEquals, headerContains, headerContainsStripped}

// MapHeaders resolves every required canonical field against headers.
//
// For each field the aliases are tried in declared order; each alias goes through
// the exact, substring and whitespace-stripped substring tiers in turn. Within a
// tier the first header in the given order wins. If any required field stays
// unmapped a *SchemaMappingError is returned and the mapping is nil.
func MapHeaders(headers []string, aliases AliasTable) (FieldMapping, error) {
	mapping := make(FieldMapping, len(domain.RequiredFields))
	var missing []domain.CanonicalField

	for _, field := range domain.RequiredFields {
		header, ok := findHeader(headers, aliases[field])
		if !ok {
			missing = append(missing, field)
			continue
		}
		mapping[field] = header
	}

	if len(missing) > 0 {
		return nil, &SchemaMappingError{
			Missing: missing,
			Headers: append([]string(nil), headers...),
		}
	}
	return mapping, nil
}

func findHeader(headers, aliases []string) (string, bool) {
	for _, alias := range aliases {
		for _, tier := range tiers {
			for _, h := range headers {
				if tier(h, alias) {
					return h, true
				}
			}
		}
	}
	return "", false
}
