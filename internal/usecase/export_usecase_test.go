package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hbeck/ledgersync/internal/domain"
	"github.com/hbeck/ledgersync/internal/usecase"
	"github.com/hbeck/ledgersync/internal/usecase/mocks"
)

func TestExportWritesMonthlyJournals(t *testing.T) {
	repo := mocks.NewMockTransactionRepository()
	accRepo := mocks.NewMockAccountRepository()

	_, err := accRepo.EnsureAccount(context.Background(), &domain.AccountMap{
		ExternalID:    "bank-1",
		Provider:      domain.ProviderSimpleFIN,
		Name:          "Checking",
		LedgerAccount: "Assets:Checking",
	})
	require.NoError(t, err)

	entry := bankEntry("b1", "2024-03-05", "Grocery Store", "-31.20")
	entry.AccountID = "bank-1"
	entry.LedgerCategory = "Expenses:Groceries"
	repo.Seed(entry)

	payer := bankEntry("p1", "2024-03-06", "Dinner I covered", "80.00")
	payer.Provider = domain.ProviderSplitwisePayer
	repo.Seed(payer)

	dir := t.TempDir()
	uc := usecase.NewExportUseCase(repo, accRepo, dir, zerolog.Nop())

	require.NoError(t, uc.Export(context.Background()))

	month, err := os.ReadFile(filepath.Join(dir, "2024", "2024-03.journal"))
	require.NoError(t, err)

	content := string(month)
	require.Contains(t, content, "2024-03-05 * Grocery Store")
	require.Contains(t, content, "Expenses:Groceries")
	require.Contains(t, content, "31.20 USD")
	require.Contains(t, content, "Assets:Checking")
	require.NotContains(t, content, "Dinner I covered", "payer-side records are not exported")

	index, err := os.ReadFile(filepath.Join(dir, "main.journal"))
	require.NoError(t, err)
	require.True(t, strings.Contains(string(index), "include 2024/2024*.journal"))
}
