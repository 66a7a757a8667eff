package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hbeck/ledgersync/internal/adapter/repository/postgres"
	"github.com/hbeck/ledgersync/internal/domain"
	"github.com/hbeck/ledgersync/internal/usecase"
	"github.com/hbeck/ledgersync/tests/testutil"
)

// Two runs importing the same source window must converge on one row per
// record no matter how they interleave.
func TestConcurrentImport(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	transactionRepo := postgres.NewTransactionRepository(testDB.Pool)
	accountRepo := postgres.NewAccountRepository(testDB.Pool)
	importUC := usecase.NewImportUseCase(transactionRepo, accountRepo, nil, zerolog.Nop())

	records := []*domain.CanonicalTransaction{
		csvRecord("2026-05-01", "GROCERY MART", "-42.18"),
		csvRecord("2026-05-02", "COFFEE SHOP", "-4.50"),
		csvRecord("2026-05-02", "COFFEE SHOP", "-4.50"),
		csvRecord("2026-05-03", "PAYCHECK", "2500.00"),
	}

	const runs = 4

	var wg sync.WaitGroup
	results := make([]*usecase.ImportResult, runs)
	errs := make([]error, runs)

	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = importUC.ImportBatch(ctx, records, nil)
		}(i)
	}
	wg.Wait()

	totalCreated := 0
	for i := 0; i < runs; i++ {
		if errs[i] != nil {
			t.Fatalf("run %d failed: %v", i, errs[i])
		}
		totalCreated += results[i].Created
	}

	if totalCreated != len(records) {
		t.Errorf("expected %d rows created across all runs, got %d", len(records), totalCreated)
	}

	listed, err := transactionRepo.List(ctx, usecase.TransactionFilter{Provider: domain.ProviderManualCSV})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != len(records) {
		t.Errorf("expected %d rows in the ledger, got %d", len(records), len(listed))
	}
}
