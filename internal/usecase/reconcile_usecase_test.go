package usecase_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hbeck/ledgersync/internal/domain"
	"github.com/hbeck/ledgersync/internal/usecase"
	"github.com/hbeck/ledgersync/internal/usecase/mocks"
)

func amt(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func settlement(id, date, amount string) *domain.Transaction {
	return &domain.Transaction{
		ID:             id,
		Provider:       domain.ProviderSplitwisePayment,
		AccountID:      domain.SplitwiseAccountID,
		Date:           date,
		Payee:          "Payment to Bob",
		Amount:         amt(amount),
		Currency:       "USD",
		LedgerCategory: domain.CategoryTransferSplitwise,
		IsReviewed:     true,
	}
}

func bankEntry(id, date, payee, amount string) *domain.Transaction {
	return &domain.Transaction{
		ID:             id,
		Provider:       domain.ProviderSimpleFIN,
		AccountID:      "bank-1",
		Date:           date,
		Payee:          payee,
		Amount:         amt(amount),
		Currency:       "USD",
		LedgerCategory: domain.CategoryUncategorized,
	}
}

func newReconciler(repo *mocks.MockTransactionRepository) (*usecase.ReconcileUseCase, *mocks.MockTxManager) {
	txm := &mocks.MockTxManager{}
	return usecase.NewReconcileUseCase(txm, repo, nil, nil, zerolog.Nop()), txm
}

func TestReconcileUniqueCandidate(t *testing.T) {
	repo := mocks.NewMockTransactionRepository()
	repo.Seed(settlement("s1", "2024-03-01", "50.00"))
	repo.Seed(bankEntry("b1", "2024-03-03", "VENMO PAYMENT", "-50.00"))

	uc, txm := newReconciler(repo)

	result, err := uc.ReconcileTransfers(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, 1, result.Matched)
	require.Equal(t, 0, result.AmbiguousSkipped)

	bank := repo.Get("b1")
	require.Equal(t, domain.CategoryTransferSplitwise, bank.LedgerCategory)
	require.True(t, bank.IsReviewed)

	// Settlement side untouched.
	require.Equal(t, domain.CategoryTransferSplitwise, repo.Get("s1").LedgerCategory)

	require.Len(t, txm.Txs, 1)
	require.True(t, txm.Txs[0].Committed)
}

func TestReconcileNoCandidate(t *testing.T) {
	repo := mocks.NewMockTransactionRepository()
	repo.Seed(settlement("s1", "2024-03-01", "50.00"))
	// Outside the 4-day window.
	repo.Seed(bankEntry("b1", "2024-03-10", "Transfer", "-50.00"))
	// Wrong amount.
	repo.Seed(bankEntry("b2", "2024-03-02", "Transfer", "-49.99"))

	uc, _ := newReconciler(repo)

	result, err := uc.ReconcileTransfers(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, 0, result.Matched)
	require.Equal(t, 0, result.AmbiguousSkipped)
	require.Equal(t, domain.CategoryUncategorized, repo.Get("b1").LedgerCategory)
}

func TestReconcileKeywordTieBreak(t *testing.T) {
	repo := mocks.NewMockTransactionRepository()
	repo.Seed(settlement("s1", "2024-03-01", "50.00"))
	repo.Seed(bankEntry("b1", "2024-03-02", "Coffee Shop", "-50.00"))
	repo.Seed(bankEntry("b2", "2024-03-02", "Venmo Payment", "-50.00"))

	uc, _ := newReconciler(repo)

	result, err := uc.ReconcileTransfers(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, 1, result.Matched)

	require.Equal(t, domain.CategoryUncategorized, repo.Get("b1").LedgerCategory)
	require.Equal(t, domain.CategoryTransferSplitwise, repo.Get("b2").LedgerCategory)
	require.True(t, repo.Get("b2").IsReviewed)
}

func TestReconcileTwoKeywordCandidatesSkipped(t *testing.T) {
	repo := mocks.NewMockTransactionRepository()
	repo.Seed(settlement("s1", "2024-03-01", "50.00"))
	repo.Seed(bankEntry("b1", "2024-03-02", "Venmo Payment", "-50.00"))
	repo.Seed(bankEntry("b2", "2024-03-03", "Zelle Transfer", "-50.00"))

	uc, _ := newReconciler(repo)

	result, err := uc.ReconcileTransfers(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, 0, result.Matched)
	require.Equal(t, 1, result.AmbiguousSkipped)

	require.Equal(t, domain.CategoryUncategorized, repo.Get("b1").LedgerCategory)
	require.Equal(t, domain.CategoryUncategorized, repo.Get("b2").LedgerCategory)
}

func TestReconcileZeroKeywordCandidatesSkipped(t *testing.T) {
	repo := mocks.NewMockTransactionRepository()
	repo.Seed(settlement("s1", "2024-03-01", "50.00"))
	repo.Seed(bankEntry("b1", "2024-03-02", "Coffee Shop", "-50.00"))
	repo.Seed(bankEntry("b2", "2024-03-03", "Book Store", "-50.00"))

	uc, _ := newReconciler(repo)

	result, err := uc.ReconcileTransfers(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, 0, result.Matched)
	require.Equal(t, 1, result.AmbiguousSkipped)
}

func TestReconcileReceivedSettlement(t *testing.T) {
	// Money received to settle what others owed: settlement is negative, the
	// bank side shows a positive credit.
	repo := mocks.NewMockTransactionRepository()
	repo.Seed(settlement("s1", "2024-04-10", "-75.00"))
	repo.Seed(bankEntry("b1", "2024-04-11", "ZELLE FROM ALICE", "75.00"))

	uc, _ := newReconciler(repo)

	result, err := uc.ReconcileTransfers(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, 1, result.Matched)
	require.Equal(t, domain.CategoryTransferSplitwise, repo.Get("b1").LedgerCategory)
}

func TestReconcileSkipsAlreadyReconciled(t *testing.T) {
	repo := mocks.NewMockTransactionRepository()
	repo.Seed(settlement("s1", "2024-03-01", "50.00"))

	already := bankEntry("b1", "2024-03-02", "Venmo Payment", "-50.00")
	already.LedgerCategory = domain.CategoryTransferSplitwise
	already.IsReviewed = true
	repo.Seed(already)

	uc, _ := newReconciler(repo)

	result, err := uc.ReconcileTransfers(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, 0, result.Matched)
	require.Equal(t, 0, result.AmbiguousSkipped)
}
