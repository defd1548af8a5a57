package recon

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/statement-recon/internal/domain"
)

func TestResolveSign(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		amount     string
		typeText   string
		wantAmount float64
		wantType   domain.TxType
	}{
		{"withdrawal column forces debit", "Withdrawal (Dr)", "45.50", "", -45.50, domain.TxDebit},
		{"withdrawal column beats credit label", "Withdrawal", "-45.50", "Credit", -45.50, domain.TxDebit},
		{"deposit column forces credit", "Deposit (Cr)", "-100", "Debit", 100, domain.TxCredit},
		{"debit label negates", "Amount", "20", "Debit", -20, domain.TxDebit},
		{"credit label is positive", "Amount", "-20", "CREDIT", 20, domain.TxCredit},
		{"credit wins over debit in one label", "Amount", "20", "debit/credit", 20, domain.TxCredit},
		{"short debit label", "Amount", "1,234.50", "DR", -1234.50, domain.TxDebit},
		{"short credit label with currency", "Amount", "£ 99.99", "cr", 99.99, domain.TxCredit},
		{"no label negative amount", "Amount", "-12.34", "", -12.34, domain.TxDebit},
		{"no label zero amount", "Amount", "0", "", 0, domain.TxCredit},
		{"unknown label falls back to sign", "Amount", "-7", "transfer", -7, domain.TxDebit},
		{"accounting negative", "Amount", "(15.00)", "", -15, domain.TxDebit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, txType, err := ResolveSign(tt.header, tt.amount, tt.typeText)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAmount, amount)
			assert.Equal(t, tt.wantType, txType)
		})
	}
}

func TestResolveSign_Errors(t *testing.T) {
	_, _, err := ResolveSign("Amount", "abc", "")
	assert.Error(t, err)

	_, _, err = ResolveSign("Withdrawal", "  ", "")
	assert.True(t, errors.Is(err, ErrEmptyAmount))
}

func TestParseAmount_Range(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"at the bound", "999,999,999.99", false},
		{"negative bound", "-999999999.99", false},
		{"just over", "1000000000", true},
		{"exponent overflow", "1e400", true},
		{"accounting overflow", "(2e12)", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAmount(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAmountOutOfRange)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCanonicalize_OutOfRangeAmountIsUnreadable(t *testing.T) {
	tx, ok := Canonicalize(NewRecord(map[string]string{
		"date": "01-01-2025", "description": "huge", "amount": "1e400", "type": "Debit",
	}))
	assert.False(t, ok)
	assert.Equal(t, 0.0, tx.Amount)
}

func TestResolveSign_SignInvariant(t *testing.T) {
	headers := []string{"Amount", "Withdrawal", "Deposit", "Debit"}
	amounts := []string{"-5", "0", "5", "-0.001", "1,000.10"}
	labels := []string{"", "credit", "debit", "cr", "dr", "income", "expense", "misc"}

	for _, h := range headers {
		for _, a := range amounts {
			for _, l := range labels {
				amount, txType, err := ResolveSign(h, a, l)
				require.NoError(t, err)
				switch txType {
				case domain.TxDebit:
					assert.LessOrEqual(t, amount, 0.0, "%s %s %s", h, a, l)
				case domain.TxCredit:
					assert.GreaterOrEqual(t, amount, 0.0, "%s %s %s", h, a, l)
				default:
					t.Fatalf("unexpected type %q", txType)
				}
			}
		}
	}
}
