package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hbeck/ledgersync/internal/domain"
	"github.com/hbeck/ledgersync/internal/usecase"
)

const transactionColumns = `id, provider, account_id, date, payee, amount, currency, ledger_category, notes, is_reviewed, created_at`

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// InsertIfAbsent creates the transaction unless its ID already exists.
// Existing rows are never touched.
func (r *TransactionRepository) InsertIfAbsent(ctx context.Context, t *domain.Transaction) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO transactions (id, provider, account_id, date, payee, amount, currency, ledger_category, notes, is_reviewed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (id) DO NOTHING`,
		t.ID, t.Provider, t.AccountID, t.Date, t.Payee, decimalToNumeric(t.Amount), t.Currency, t.LedgerCategory, t.Notes, t.IsReviewed,
	)
	if err != nil {
		return false, fmt.Errorf("insert transaction: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)

	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	return t, nil
}

// List returns transactions matching the filter, oldest first.
func (r *TransactionRepository) List(ctx context.Context, filter usecase.TransactionFilter) ([]*domain.Transaction, error) {
	var (
		conditions []string
		args       []any
	)

	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.Provider != "" {
		addCondition("provider = $%d", filter.Provider)
	}
	if filter.Category != "" {
		addCondition("ledger_category = $%d", filter.Category)
	}
	if filter.Reviewed != nil {
		addCondition("is_reviewed = $%d", *filter.Reviewed)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY date ASC, id ASC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListByProviderNewestFirst returns a provider's entries ordered by date
// descending, the audit order for reconciliation passes.
func (r *TransactionRepository) ListByProviderNewestFirst(ctx context.Context, provider string) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE provider = $1 ORDER BY date DESC, id ASC`,
		provider)
	if err != nil {
		return nil, fmt.Errorf("list by provider: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// FindTransferCandidates returns unreconciled entries from the given
// providers matching the mirrored amount inside the date window.
func (r *TransactionRepository) FindTransferCandidates(ctx context.Context, tx usecase.Transaction, providers []string, amount decimal.Decimal, fromDate, toDate, excludeCategory string) ([]*domain.Transaction, error) {
	pgxTx := tx.(*Tx).PgxTx()

	rows, err := pgxTx.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE provider = ANY($1)
		  AND amount = $2
		  AND date BETWEEN $3 AND $4
		  AND ledger_category <> $5
		ORDER BY date ASC, id ASC`,
		providers, decimalToNumeric(amount), fromDate, toDate, excludeCategory,
	)
	if err != nil {
		return nil, fmt.Errorf("find transfer candidates: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// UpdateCategory relabels ledger_category and is_reviewed, the only mutable
// fields.
func (r *TransactionRepository) UpdateCategory(ctx context.Context, id, category string, reviewed bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transactions SET ledger_category = $2, is_reviewed = $3 WHERE id = $1`,
		id, category, reviewed)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// UpdateCategoryTx is UpdateCategory inside a caller-owned transaction.
func (r *TransactionRepository) UpdateCategoryTx(ctx context.Context, tx usecase.Transaction, id, category string, reviewed bool) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE transactions SET ledger_category = $2, is_reviewed = $3 WHERE id = $1`,
		id, category, reviewed)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// ResetCategories sets every entry back to the given category, unreviewed.
func (r *TransactionRepository) ResetCategories(ctx context.Context, category string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transactions SET ledger_category = $1, is_reviewed = false`, category)
	if err != nil {
		return 0, fmt.Errorf("reset categories: %w", err)
	}

	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		t      domain.Transaction
		amount pgtype.Numeric
	)

	err := row.Scan(
		&t.ID, &t.Provider, &t.AccountID, &t.Date, &t.Payee,
		&amount, &t.Currency, &t.LedgerCategory, &t.Notes,
		&t.IsReviewed, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Amount = numericToDecimal(amount)

	return &t, nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var out []*domain.Transaction

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, rows.Err()
}
