// Package ledger holds the manually recorded transactions a statement is
// reconciled against, with SQLite, BigQuery and Notion backends.
package ledger

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/dvloznov/statement-recon/internal/recon"
)

const (
	// MaxAmount bounds the absolute value of an entry amount.
	MaxAmount = recon.MaxAmount

	// MaxFieldLength caps stored string values, in runes.
	MaxFieldLength = 10000

	// StoredDateLayout is how entry dates are persisted.
	StoredDateLayout = "2006-01-02"
)

var (
	ErrMissingFields = errors.New("Missing required fields: date, amount, and type are required")
	ErrInvalidAmount = errors.New("Invalid amount. Must be a number between -999,999,999.99 and 999,999,999.99")
	ErrInvalidDate   = errors.New("Invalid date format")
	ErrFutureDate    = errors.New("Cannot add entries with future dates")
	ErrInvalidID     = errors.New("Invalid entry ID")
	ErrEntryNotFound = errors.New("entry not found")
)

// Source supplies ledger entries for reconciliation.
type Source interface {
	ListEntries(ctx context.Context) ([]domain.LedgerEntry, error)
}

// Store is a Source that can also be edited.
type Store interface {
	Source
	AddEntry(ctx context.Context, e domain.LedgerEntry) (domain.LedgerEntry, error)
	UpdateEntry(ctx context.Context, id string, e domain.LedgerEntry) (domain.LedgerEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// Sanitize trims every string field and caps it at MaxFieldLength runes.
func Sanitize(e domain.LedgerEntry) domain.LedgerEntry {
	e.ID = clip(e.ID)
	e.Date = clip(e.Date)
	e.Description = clip(e.Description)
	e.Type = clip(e.Type)
	e.Category = clip(e.Category)
	return e
}

func clip(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxFieldLength {
		return s
	}
	return string([]rune(s)[:MaxFieldLength])
}

// ValidateEntry checks a new entry. A zero amount counts as missing.
func ValidateEntry(e domain.LedgerEntry, now time.Time) error {
	if e.Date == "" || e.Amount == 0 || e.Type == "" {
		return ErrMissingFields
	}
	if err := validateAmount(e.Amount); err != nil {
		return err
	}
	d, err := ParseDate(e.Date)
	if err != nil {
		return err
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.After(today) {
		return ErrFutureDate
	}
	return nil
}

// ValidateUpdate checks an edited entry. Only the fields present are checked.
func ValidateUpdate(e domain.LedgerEntry) error {
	if err := validateAmount(e.Amount); err != nil {
		return err
	}
	if e.Date != "" {
		if _, err := ParseDate(e.Date); err != nil {
			return err
		}
	}
	return nil
}

func validateAmount(a float64) error {
	if math.IsNaN(a) || math.IsInf(a, 0) || a > MaxAmount || a < -MaxAmount {
		return ErrInvalidAmount
	}
	return nil
}

// ParseDate reads an entry date in any format the statement side accepts.
func ParseDate(s string) (time.Time, error) {
	display := recon.NormalizeDate(s)
	if display == "" {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse(recon.DisplayDateLayout, display)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// StoredDate converts an entry date to StoredDateLayout.
func StoredDate(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(StoredDateLayout), nil
}

// TypeForAmount labels an unlabeled amount the way the ledger UI does.
func TypeForAmount(amount float64) string {
	if amount < 0 {
		return "expense"
	}
	return "income"
}
