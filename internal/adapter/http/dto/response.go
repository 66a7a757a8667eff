package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hbeck/ledgersync/internal/domain"
	"github.com/hbeck/ledgersync/internal/usecase"
)

// TransactionResponse represents a ledger entry in API responses.
type TransactionResponse struct {
	ID             string          `json:"id"`
	Provider       string          `json:"provider"`
	AccountID      string          `json:"account_id"`
	Date           string          `json:"date"`
	Payee          string          `json:"payee"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	LedgerCategory string          `json:"category"`
	Notes          string          `json:"notes,omitempty"`
	IsReviewed     bool            `json:"is_reviewed"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:             t.ID,
		Provider:       t.Provider,
		AccountID:      t.AccountID,
		Date:           t.Date,
		Payee:          t.Payee,
		Amount:         t.Amount,
		Currency:       t.Currency,
		LedgerCategory: t.LedgerCategory,
		Notes:          t.Notes,
		IsReviewed:     t.IsReviewed,
		CreatedAt:      t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse wraps a transaction listing.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
}

// AccountResponse represents an account mapping in API responses.
type AccountResponse struct {
	ExternalID       string          `json:"external_id"`
	Provider         string          `json:"provider"`
	Name             string          `json:"name"`
	LedgerAccount    string          `json:"ledger_account"`
	Currency         string          `json:"currency,omitempty"`
	CurrentBalance   decimal.Decimal `json:"current_balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	LastUpdated      time.Time       `json:"last_updated"`
}

// AccountFromDomain converts a domain account map to a response.
func AccountFromDomain(a *domain.AccountMap) *AccountResponse {
	return &AccountResponse{
		ExternalID:       a.ExternalID,
		Provider:         a.Provider,
		Name:             a.Name,
		LedgerAccount:    a.LedgerAccount,
		Currency:         a.Currency,
		CurrentBalance:   a.CurrentBalance,
		AvailableBalance: a.AvailableBalance,
		LastUpdated:      a.LastUpdated,
	}
}

// AccountsFromDomain converts domain account maps to responses.
func AccountsFromDomain(accounts []*domain.AccountMap) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// SyncResultResponse summarizes an import or sync run.
type SyncResultResponse struct {
	RunID     string `json:"run_id"`
	Created   int    `json:"created"`
	Duplicate int    `json:"duplicate"`
	Skipped   int    `json:"skipped"`
	Malformed int    `json:"malformed"`
}

// SyncResultFromUseCase converts an import result to a response.
func SyncResultFromUseCase(r *usecase.ImportResult) *SyncResultResponse {
	return &SyncResultResponse{
		RunID:     r.RunID,
		Created:   r.Created,
		Duplicate: r.Duplicate,
		Skipped:   r.Skipped,
		Malformed: r.Malformed,
	}
}

// ReconcileResponse summarizes a reconciliation pass.
type ReconcileResponse struct {
	Matched          int `json:"matched"`
	AmbiguousSkipped int `json:"ambiguous_skipped"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
