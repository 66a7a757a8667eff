package domain

import (
	"fmt"
	"strings"
)

// Profile describes one CSV column layout. Profiles are pure data: the
// normalizer consumes them, nothing subclasses them.
type Profile struct {
	Name string

	// IdentifyingColumns select this profile during header detection.
	// MatchExact requires the header set to equal the column set; otherwise a
	// header merely containing every column matches.
	IdentifyingColumns []string
	MatchExact         bool

	DateColumn   string
	PayeeColumn  string
	AmountColumn string

	// InvertAmount flips the source's native sign so that negative always
	// means outflow.
	InvertAmount bool
}

// BuiltinProfiles are the known CSV export layouts.
var BuiltinProfiles = []Profile{
	{
		Name:               "chase_checking",
		IdentifyingColumns: []string{"Details", "Posting Date", "Check or Slip #"},
		DateColumn:         "Posting Date",
		PayeeColumn:        "Description",
		AmountColumn:       "Amount",
	},
	{
		Name:               "chase_cc",
		IdentifyingColumns: []string{"Transaction Date", "Post Date", "Category", "Memo"},
		DateColumn:         "Post Date",
		PayeeColumn:        "Description",
		AmountColumn:       "Amount",
		InvertAmount:       true,
	},
	{
		Name:               "sofi",
		IdentifyingColumns: []string{"Date", "Description", "Type", "Current balance", "Status"},
		DateColumn:         "Date",
		PayeeColumn:        "Description",
		AmountColumn:       "Amount",
	},
	{
		// The amex header is a subset of several other exports, so it only
		// matches exactly.
		Name:               "amex",
		IdentifyingColumns: []string{"Date", "Description", "Amount"},
		MatchExact:         true,
		DateColumn:         "Date",
		PayeeColumn:        "Description",
		AmountColumn:       "Amount",
		InvertAmount:       true,
	},
	{
		Name:               "discover",
		IdentifyingColumns: []string{"Trans. Date", "Post Date", "Category"},
		DateColumn:         "Post Date",
		PayeeColumn:        "Description",
		AmountColumn:       "Amount",
		InvertAmount:       true,
	},
}

// DetectProfile selects the profile matching a CSV header row, or returns
// ErrUnknownFormat.
func DetectProfile(header []string) (*Profile, error) {
	headers := make(map[string]bool, len(header))
	for _, h := range header {
		headers[strings.TrimSpace(h)] = true
	}

	for i := range BuiltinProfiles {
		p := &BuiltinProfiles[i]
		if p.matches(headers) {
			return p, nil
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, header)
}

func (p *Profile) matches(headers map[string]bool) bool {
	if p.MatchExact && len(headers) != len(p.IdentifyingColumns) {
		return false
	}

	for _, col := range p.IdentifyingColumns {
		if !headers[col] {
			return false
		}
	}

	return true
}
