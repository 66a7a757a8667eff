package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountMap links a source-side account or group identity to a ledger
// account label. Identity fields are written once on first sight; the balance
// fields refresh on every bank sync.
type AccountMap struct {
	ExternalID       string
	Provider         string
	Name             string
	LedgerAccount    string
	Currency         string
	CurrentBalance   decimal.Decimal
	AvailableBalance decimal.Decimal
	LastUpdated      time.Time
}

// PlaceholderLedgerAccount returns the ledger account label assigned to a
// bank account the operator has not named yet.
func PlaceholderLedgerAccount(externalID string) string {
	return "Assets:FIXME:" + externalID
}

// SplitwiseAccountMap is the synthetic account map entry for the pooled
// shared-expense liability.
func SplitwiseAccountMap() *AccountMap {
	return &AccountMap{
		ExternalID:    SplitwiseAccountID,
		Provider:      ProviderSplitwise,
		Name:          "Splitwise Shared Expenses",
		LedgerAccount: "Liabilities:Payable:Splitwise",
	}
}
