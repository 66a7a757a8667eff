package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hbeck/ledgersync/internal/domain"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// EnsureAccount creates the mapping unless one exists for
// (external_id, provider). Identity fields are written once.
func (r *AccountRepository) EnsureAccount(ctx context.Context, a *domain.AccountMap) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO account_maps (external_id, provider, name, ledger_account, currency, current_balance, available_balance, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (external_id, provider) DO NOTHING`,
		a.ExternalID, a.Provider, a.Name, a.LedgerAccount, a.Currency,
		decimalToNumeric(a.CurrentBalance), decimalToNumeric(a.AvailableBalance),
	)
	if err != nil {
		return false, fmt.Errorf("ensure account: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// List returns all account maps ordered by provider then name.
func (r *AccountRepository) List(ctx context.Context) ([]*domain.AccountMap, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT external_id, provider, name, ledger_account, currency, current_balance, available_balance, last_updated
		FROM account_maps
		ORDER BY provider ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []*domain.AccountMap
	for rows.Next() {
		a, err := scanAccountMap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

// UpdateBalances refreshes the balance snapshot of an existing mapping.
func (r *AccountRepository) UpdateBalances(ctx context.Context, externalID, provider string, current, available decimal.Decimal, currency string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE account_maps
		SET current_balance = $3, available_balance = $4, currency = $5, last_updated = $6
		WHERE external_id = $1 AND provider = $2`,
		externalID, provider, decimalToNumeric(current), decimalToNumeric(available), currency, timeToPgTimestamptz(at))
	if err != nil {
		return fmt.Errorf("update balances: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// UpdateLedgerAccount renames the ledger account label of a mapping.
func (r *AccountRepository) UpdateLedgerAccount(ctx context.Context, externalID, provider, ledgerAccount string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE account_maps SET ledger_account = $3
		WHERE external_id = $1 AND provider = $2`,
		externalID, provider, ledgerAccount)
	if err != nil {
		return fmt.Errorf("update ledger account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func scanAccountMap(rows pgx.Rows) (*domain.AccountMap, error) {
	var (
		a                  domain.AccountMap
		current, available pgtype.Numeric
		updated            pgtype.Timestamptz
	)

	err := rows.Scan(
		&a.ExternalID, &a.Provider, &a.Name, &a.LedgerAccount,
		&a.Currency, &current, &available, &updated,
	)
	if err != nil {
		return nil, err
	}

	a.CurrentBalance = numericToDecimal(current)
	a.AvailableBalance = numericToDecimal(available)
	a.LastUpdated = updated.Time

	return &a, nil
}
