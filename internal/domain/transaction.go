package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Provider tags identify which source (and sub-kind) produced a ledger entry.
const (
	ProviderManualCSV        = "manual_csv"
	ProviderSimpleFIN        = "simplefin"
	ProviderSplitwise        = "splitwise"
	ProviderSplitwisePayer   = "splitwise_payer"
	ProviderSplitwisePayment = "splitwise_payment"
)

// BankProviders are the providers whose entries represent real bank activity,
// i.e. the candidate pool for transfer matching.
var BankProviders = []string{ProviderSimpleFIN, ProviderManualCSV}

const (
	// CategoryUncategorized is the default category of every imported entry.
	CategoryUncategorized = "Expenses:Uncategorized"
	// CategoryTransferSplitwise marks both sides of a settled shared-expense
	// transfer.
	CategoryTransferSplitwise = "Transfers:Splitwise"

	// SplitwiseAccountID is the synthetic account holding the pooled
	// shared-expense liability.
	SplitwiseAccountID = "splitwise_group"
)

// DateLayout is the calendar-date form every transaction date is normalized to.
const DateLayout = "2006-01-02"

// Transaction is a persisted ledger entry. Everything except LedgerCategory
// and IsReviewed is write-once.
type Transaction struct {
	ID             string
	Provider       string
	AccountID      string
	Date           string
	Payee          string
	Amount         decimal.Decimal
	Currency       string
	LedgerCategory string
	Notes          string
	IsReviewed     bool
	CreatedAt      time.Time
}

// CanonicalTransaction is the normalized in-memory form a source record takes
// before identity assignment. Sign convention: negative means money leaving
// the tracked entity.
type CanonicalTransaction struct {
	Date        string
	Payee       string
	Amount      decimal.Decimal
	Currency    string
	Provider    string
	AccountID   string
	ExternalRef string
	Note        string
}
