package recon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/shopspring/decimal"
)

// MaxAmount bounds the absolute value of any amount the engine accepts.
const MaxAmount = 999999999.99

var maxAmount = decimal.NewFromFloat(MaxAmount)

// ErrAmountOutOfRange is returned for amounts beyond MaxAmount.
var ErrAmountOutOfRange = errors.New("amount out of range")

// ErrEmptyAmount is returned when an amount cell carries no digits at all.
var ErrEmptyAmount = errors.New("empty amount")

var amountReplacer = strings.NewReplacer(
	",", "",
	" ", "",
	"\u00a0", "",
	"$", "",
	"£", "",
	"€", "",
	"₹", "",
	"¥", "",
)

// ParseAmount parses a statement amount cell into a decimal.
// Thousands separators, surrounding whitespace and common currency symbols are ignored,
// and an accounting-style "(12.50)" is read as negative.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := amountReplacer.Replace(strings.TrimSpace(raw))
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	if d.Abs().GreaterThan(maxAmount) {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, ErrAmountOutOfRange)
	}
	if negative {
		d = d.Abs().Neg()
	}
	return d, nil
}

// ResolveSign derives the signed amount and direction of a bank row.
//
// The amount column's own header takes priority: a "withdrawal" column is always a
// debit and a "deposit" column is always a credit. Otherwise the type text decides,
// with "credit" checked last so it wins when both words appear. Without a usable
// type text the sign of the amount decides.
func ResolveSign(amountHeader, rawAmount, rawType string) (float64, domain.TxType, error) {
	d, err := ParseAmount(rawAmount)
	if err != nil {
		return 0, "", err
	}

	header := strings.ToLower(amountHeader)
	switch {
	case strings.Contains(header, "withdrawal"):
		return toFloat(d.Abs().Neg()), domain.TxDebit, nil
	case strings.Contains(header, "deposit"):
		return toFloat(d.Abs()), domain.TxCredit, nil
	}

	typeText := strings.ToLower(rawType)
	var txType domain.TxType
	if strings.Contains(typeText, "debit") {
		d = d.Abs().Neg()
		txType = domain.TxDebit
	}
	if strings.Contains(typeText, "credit") {
		d = d.Abs()
		txType = domain.TxCredit
	}
	if txType == "" {
		if label, ok := typeLabels[strings.TrimSpace(typeText)]; ok {
			txType = label
		} else {
			txType = typeFromSign(d)
		}
		d = enforceSign(d, txType)
	}
	return toFloat(d), txType, nil
}

func typeFromSign(d decimal.Decimal) domain.TxType {
	if d.IsNegative() {
		return domain.TxDebit
	}
	return domain.TxCredit
}

func enforceSign(d decimal.Decimal, t domain.TxType) decimal.Decimal {
	switch t {
	case domain.TxDebit:
		return d.Abs().Neg()
	case domain.TxCredit:
		return d.Abs()
	}
	return d
}

// toFloat rounds to cents and folds negative zero into zero.
func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	if f == 0 {
		return 0
	}
	return f
}
