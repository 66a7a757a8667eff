package integration

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hbeck/ledgersync/internal/adapter/repository/postgres"
	"github.com/hbeck/ledgersync/internal/domain"
	"github.com/hbeck/ledgersync/internal/usecase"
	"github.com/hbeck/ledgersync/tests/testutil"
)

func settlement(db *testutil.TestDB, ctx context.Context, date, amount string) *domain.Transaction {
	return db.CreateTestTransaction(ctx, &domain.Transaction{
		Provider:       domain.ProviderSplitwisePayment,
		AccountID:      domain.SplitwiseAccountID,
		Date:           date,
		Payee:          "Settle all balances",
		Amount:         decimal.RequireFromString(amount),
		LedgerCategory: domain.CategoryTransferSplitwise,
		IsReviewed:     true,
	})
}

func bankEntry(db *testutil.TestDB, ctx context.Context, date, payee, amount string) *domain.Transaction {
	return db.CreateTestTransaction(ctx, &domain.Transaction{
		Provider:  domain.ProviderSimpleFIN,
		AccountID: "act-1",
		Date:      date,
		Payee:     payee,
		Amount:    decimal.RequireFromString(amount),
	})
}

func TestReconcileTransfers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	transactionRepo := postgres.NewTransactionRepository(testDB.Pool)
	txManager := postgres.NewTxManager(testDB.Pool)
	reconcileUC := usecase.NewReconcileUseCase(txManager, transactionRepo, nil, nil, zerolog.Nop())

	t.Run("lone candidate is relabeled", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		settlement(testDB, ctx, "2026-03-10", "50.00")
		bank := bankEntry(testDB, ctx, "2026-03-12", "VENMO PAYMENT", "-50.00")

		result, err := reconcileUC.ReconcileTransfers(ctx, 4)
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}
		if result.Matched != 1 {
			t.Fatalf("expected 1 match, got %d", result.Matched)
		}

		got, err := transactionRepo.GetByID(ctx, bank.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.LedgerCategory != domain.CategoryTransferSplitwise || !got.IsReviewed {
			t.Errorf("bank side not relabeled: category=%q reviewed=%v", got.LedgerCategory, got.IsReviewed)
		}
	})

	t.Run("candidate outside the window is ignored", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		settlement(testDB, ctx, "2026-03-10", "50.00")
		bank := bankEntry(testDB, ctx, "2026-03-20", "VENMO PAYMENT", "-50.00")

		result, err := reconcileUC.ReconcileTransfers(ctx, 4)
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}
		if result.Matched != 0 {
			t.Errorf("expected no match, got %d", result.Matched)
		}

		got, _ := transactionRepo.GetByID(ctx, bank.ID)
		if got.LedgerCategory != domain.CategoryUncategorized {
			t.Errorf("out-of-window entry was relabeled to %q", got.LedgerCategory)
		}
	})

	t.Run("sole keyword bearer wins among several candidates", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		settlement(testDB, ctx, "2026-03-10", "50.00")
		keyworded := bankEntry(testDB, ctx, "2026-03-11", "ZELLE TO ALEX", "-50.00")
		plain := bankEntry(testDB, ctx, "2026-03-12", "GROCERY MART", "-50.00")

		result, err := reconcileUC.ReconcileTransfers(ctx, 4)
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}
		if result.Matched != 1 {
			t.Fatalf("expected 1 match, got %d", result.Matched)
		}

		got, _ := transactionRepo.GetByID(ctx, keyworded.ID)
		if got.LedgerCategory != domain.CategoryTransferSplitwise {
			t.Errorf("keyword candidate not relabeled, got %q", got.LedgerCategory)
		}

		other, _ := transactionRepo.GetByID(ctx, plain.ID)
		if other.LedgerCategory != domain.CategoryUncategorized {
			t.Errorf("non-keyword candidate was relabeled to %q", other.LedgerCategory)
		}
	})

	t.Run("two keyword bearers are skipped as ambiguous", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		settlement(testDB, ctx, "2026-03-10", "50.00")
		bankEntry(testDB, ctx, "2026-03-11", "ZELLE TO ALEX", "-50.00")
		bankEntry(testDB, ctx, "2026-03-12", "VENMO CASHOUT", "-50.00")

		result, err := reconcileUC.ReconcileTransfers(ctx, 4)
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}
		if result.Matched != 0 || result.AmbiguousSkipped != 1 {
			t.Errorf("expected 0 matched / 1 ambiguous, got %d / %d", result.Matched, result.AmbiguousSkipped)
		}
	})

	t.Run("already reconciled entries leave the candidate pool", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		settlement(testDB, ctx, "2026-03-10", "50.00")
		bank := bankEntry(testDB, ctx, "2026-03-11", "VENMO PAYMENT", "-50.00")

		if _, err := reconcileUC.ReconcileTransfers(ctx, 4); err != nil {
			t.Fatalf("first pass failed: %v", err)
		}

		result, err := reconcileUC.ReconcileTransfers(ctx, 4)
		if err != nil {
			t.Fatalf("second pass failed: %v", err)
		}
		if result.Matched != 0 || result.AmbiguousSkipped != 0 {
			t.Errorf("second pass should be a no-op, got %d matched / %d ambiguous",
				result.Matched, result.AmbiguousSkipped)
		}

		got, _ := transactionRepo.GetByID(ctx, bank.ID)
		if got.LedgerCategory != domain.CategoryTransferSplitwise {
			t.Errorf("relabel lost on second pass, got %q", got.LedgerCategory)
		}
	})
}
