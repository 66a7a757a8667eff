package usecase

import (
	"context"

	"github.com/hbeck/ledgersync/internal/domain"
)

// AccountUseCase exposes the account identity map to operator tooling.
type AccountUseCase struct {
	accounts AccountRepository
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accounts AccountRepository) *AccountUseCase {
	return &AccountUseCase{accounts: accounts}
}

// ListAccounts returns every known account mapping.
func (uc *AccountUseCase) ListAccounts(ctx context.Context) ([]*domain.AccountMap, error) {
	return uc.accounts.List(ctx)
}

// RenameLedgerAccount updates the ledger label of a mapping, typically
// replacing the FIXME placeholder assigned on first sight.
func (uc *AccountUseCase) RenameLedgerAccount(ctx context.Context, externalID, provider, ledgerAccount string) error {
	return uc.accounts.UpdateLedgerAccount(ctx, externalID, provider, ledgerAccount)
}
