package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hbeck/ledgersync/internal/domain"
)

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	Provider string
	Category string
	Reviewed *bool
	Limit    int
	Offset   int
}

// TransactionRepository defines data access for ledger transactions.
type TransactionRepository interface {
	// InsertIfAbsent creates the transaction unless a row with the same ID
	// exists. Reports whether a row was created. Never mutates existing rows.
	InsertIfAbsent(ctx context.Context, t *domain.Transaction) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]*domain.Transaction, error)
	// ListByProviderNewestFirst returns all entries of a provider ordered by
	// date descending.
	ListByProviderNewestFirst(ctx context.Context, provider string) ([]*domain.Transaction, error)
	// FindTransferCandidates returns entries from the given providers with an
	// exact amount match inside [fromDate, toDate] whose category differs
	// from excludeCategory.
	FindTransferCandidates(ctx context.Context, tx Transaction, providers []string, amount decimal.Decimal, fromDate, toDate, excludeCategory string) ([]*domain.Transaction, error)
	// UpdateCategory relabels ledger_category and is_reviewed, the only
	// mutable fields of a transaction.
	UpdateCategory(ctx context.Context, id, category string, reviewed bool) error
	UpdateCategoryTx(ctx context.Context, tx Transaction, id, category string, reviewed bool) error
	// ResetCategories sets every entry back to the given category with
	// is_reviewed=false and reports the number of rows touched.
	ResetCategories(ctx context.Context, category string) (int64, error)
}

// AccountRepository defines data access for account identity maps.
type AccountRepository interface {
	// EnsureAccount creates the mapping unless one exists for
	// (external_id, provider). Reports whether a row was created.
	EnsureAccount(ctx context.Context, a *domain.AccountMap) (bool, error)
	List(ctx context.Context) ([]*domain.AccountMap, error)
	UpdateBalances(ctx context.Context, externalID, provider string, current, available decimal.Decimal, currency string, at time.Time) error
	UpdateLedgerAccount(ctx context.Context, externalID, provider, ledgerAccount string) error
}

// RuleRepository defines data access for category rules.
type RuleRepository interface {
	// List returns rules ordered by priority descending.
	List(ctx context.Context) ([]*domain.CategoryRule, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles database transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// SyncLocker serializes sync runs per provider. Fetching and writing for one
// provider must never run in parallel because batch-local occurrence counters
// assume a strictly ordered sequence.
type SyncLocker interface {
	// Acquire takes the provider lock for runID, reporting false when another
	// run holds it.
	Acquire(ctx context.Context, provider, runID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, provider, runID string) error
}

// ExpenseSource produces canonical records from the shared-expense service.
// Pages are fetched in source order; an empty page signals the end.
type ExpenseSource interface {
	FetchExpenses(ctx context.Context, offset, limit int) ([]*domain.CanonicalTransaction, error)
}

// BankSource produces account maps and canonical records from the bank
// aggregator for a posted-date window.
type BankSource interface {
	Fetch(ctx context.Context, start, end time.Time) ([]*domain.AccountMap, []*domain.CanonicalTransaction, error)
}

// MetricsRecorder receives engine-level counters.
type MetricsRecorder interface {
	RecordImport(provider string, created, duplicate, skipped int)
	RecordReconcile(matched, ambiguous int)
	RecordSync(provider string, seconds float64)
}
