package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrEmptyAmount signals a pending/placeholder row whose amount field is
// absent. Callers skip such rows; they are not malformed.
var ErrEmptyAmount = errors.New("empty amount field")

// dateFormats are the layouts accepted when normalizing source dates.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate parses a source date in any accepted layout and normalizes it to
// YYYY-MM-DD.
func ParseDate(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", fmt.Errorf("%w: empty date", ErrMalformedRecord)
	}

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.Format(DateLayout), nil
		}
	}

	return "", fmt.Errorf("%w: unparseable date %q", ErrMalformedRecord, raw)
}

// amountReplacer strips currency symbols and thousands separators before
// numeric conversion.
var amountReplacer = strings.NewReplacer(
	"$", "",
	"€", "",
	"£", "",
	",", "",
	" ", "",
	"'", "",
)

// ParseAmount converts a raw amount string into a decimal, applying the
// profile's sign inversion. Returns ErrEmptyAmount for absent values.
func ParseAmount(raw string, invert bool) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return decimal.Decimal{}, ErrEmptyAmount
	}

	cleaned = amountReplacer.Replace(cleaned)

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: unparseable amount %q", ErrMalformedRecord, raw)
	}

	if invert {
		amount = amount.Neg()
	}

	return amount, nil
}

// NormalizeRow turns one CSV row into a canonical transaction according to
// the profile. Returns ErrEmptyAmount for placeholder rows and
// ErrMalformedRecord for rows that cannot be parsed.
func NormalizeRow(p *Profile, row map[string]string, accountID, currency string) (*CanonicalTransaction, error) {
	date, err := ParseDate(row[p.DateColumn])
	if err != nil {
		return nil, err
	}

	amount, err := ParseAmount(row[p.AmountColumn], p.InvertAmount)
	if err != nil {
		return nil, err
	}

	return &CanonicalTransaction{
		Date:      date,
		Payee:     strings.TrimSpace(row[p.PayeeColumn]),
		Amount:    amount,
		Currency:  currency,
		Provider:  ProviderManualCSV,
		AccountID: accountID,
		Note:      "CSV Import",
	}, nil
}
