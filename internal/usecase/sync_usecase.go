package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/hbeck/ledgersync/internal/domain"
)

const (
	splitwisePageSize = 50
	backfillChunkDays = 60

	// syncLockTTL bounds how long a crashed run can block the next one.
	syncLockTTL = 30 * time.Minute
)

// SyncUseCase orchestrates connector fetches into idempotent imports. One
// provider syncs at a time; the lock enforces that, re-running after any
// failure is always safe because every write is insert-if-absent.
type SyncUseCase struct {
	importer  *ImportUseCase
	accounts  AccountRepository
	rules     RuleRepository
	expenses  ExpenseSource
	bank      BankSource
	locks     SyncLocker
	metrics   MetricsRecorder
	logger    zerolog.Logger
	pagePause time.Duration
}

// NewSyncUseCase creates a new SyncUseCase.
func NewSyncUseCase(
	importer *ImportUseCase,
	accounts AccountRepository,
	rules RuleRepository,
	expenses ExpenseSource,
	bank BankSource,
	locks SyncLocker,
	metrics MetricsRecorder,
	logger zerolog.Logger,
) *SyncUseCase {
	return &SyncUseCase{
		importer:  importer,
		accounts:  accounts,
		rules:     rules,
		expenses:  expenses,
		bank:      bank,
		locks:     locks,
		metrics:   metrics,
		logger:    logger,
		pagePause: 500 * time.Millisecond,
	}
}

// SyncSplitwise imports shared expenses and settlements page by page.
// Settlements are created with the transfer category and marked reviewed;
// everything else starts uncategorized.
func (uc *SyncUseCase) SyncSplitwise(ctx context.Context) (*ImportResult, error) {
	runID := ulid.Make().String()

	release, err := uc.acquire(ctx, domain.ProviderSplitwise, runID)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()

	if _, err := uc.accounts.EnsureAccount(ctx, domain.SplitwiseAccountMap()); err != nil {
		return nil, fmt.Errorf("ensure splitwise account: %w", err)
	}

	total := &ImportResult{RunID: runID}

	for offset := 0; ; offset += splitwisePageSize {
		records, err := uc.expenses.FetchExpenses(ctx, offset, splitwisePageSize)
		if err != nil {
			return total, fmt.Errorf("fetch expenses at offset %d: %w", offset, err)
		}
		if len(records) == 0 {
			break
		}

		uc.logger.Info().
			Int("offset", offset).
			Int("records", len(records)).
			Str("newest", records[0].Date).
			Str("oldest", records[len(records)-1].Date).
			Msg("fetched expense page")

		result, err := uc.importer.ImportBatch(ctx, records, settlementCategorizer)
		if err != nil {
			return total, err
		}
		total.add(result)

		uc.pause(ctx)
	}

	uc.recordSync(domain.ProviderSplitwise, start)

	return total, nil
}

// settlementCategorizer gives settlement entries their fixed transfer
// category at creation, already reviewed.
func settlementCategorizer(t *domain.CanonicalTransaction) (string, bool) {
	if t.Provider == domain.ProviderSplitwisePayment {
		return domain.CategoryTransferSplitwise, true
	}
	return "", false
}

// SyncBank imports bank-aggregator activity for a posted-date window,
// refreshing account balances and applying category rules to new entries.
func (uc *SyncUseCase) SyncBank(ctx context.Context, windowStart, windowEnd time.Time) (*ImportResult, error) {
	runID := ulid.Make().String()

	release, err := uc.acquire(ctx, domain.ProviderSimpleFIN, runID)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()

	result, err := uc.syncBankWindow(ctx, runID, windowStart, windowEnd)
	if err != nil {
		return result, err
	}

	uc.recordSync(domain.ProviderSimpleFIN, start)

	return result, nil
}

// Backfill walks backwards through history in bounded chunks. Chunks already
// imported are harmless to refetch.
func (uc *SyncUseCase) Backfill(ctx context.Context, historyDays int) (*ImportResult, error) {
	runID := ulid.Make().String()

	release, err := uc.acquire(ctx, domain.ProviderSimpleFIN, runID)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()

	end := time.Now()
	limit := end.AddDate(0, 0, -historyDays)
	total := &ImportResult{RunID: runID}

	for chunkEnd := end; chunkEnd.After(limit); {
		chunkStart := chunkEnd.AddDate(0, 0, -backfillChunkDays)
		if chunkStart.Before(limit) {
			chunkStart = limit
		}

		uc.logger.Info().
			Str("from", chunkStart.Format(domain.DateLayout)).
			Str("to", chunkEnd.Format(domain.DateLayout)).
			Msg("backfill chunk")

		result, err := uc.syncBankWindow(ctx, runID, chunkStart, chunkEnd)
		if err != nil {
			return total, err
		}
		total.add(result)

		chunkEnd = chunkStart
		uc.pause(ctx)
	}

	uc.recordSync(domain.ProviderSimpleFIN, start)

	return total, nil
}

func (uc *SyncUseCase) syncBankWindow(ctx context.Context, runID string, start, end time.Time) (*ImportResult, error) {
	accounts, records, err := uc.bank.Fetch(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch bank window: %w", err)
	}

	for _, account := range accounts {
		if _, err := uc.accounts.EnsureAccount(ctx, account); err != nil {
			return nil, fmt.Errorf("ensure account %s: %w", account.ExternalID, err)
		}

		err = uc.accounts.UpdateBalances(ctx,
			account.ExternalID, account.Provider,
			account.CurrentBalance, account.AvailableBalance,
			account.Currency, time.Now().UTC(),
		)
		if err != nil {
			return nil, fmt.Errorf("update balances for %s: %w", account.ExternalID, err)
		}
	}

	categorize, err := uc.ruleCategorizer(ctx)
	if err != nil {
		return nil, err
	}

	result, err := uc.importer.ImportBatch(ctx, records, categorize)
	if err != nil {
		return result, err
	}
	result.RunID = runID

	return result, nil
}

// ruleCategorizer compiles the stored category rules once per window.
func (uc *SyncUseCase) ruleCategorizer(ctx context.Context) (Categorizer, error) {
	if uc.rules == nil {
		return nil, nil
	}

	stored, err := uc.rules.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load category rules: %w", err)
	}

	compiled, errs := domain.CompileRules(stored)
	for _, err := range errs {
		uc.logger.Warn().Err(err).Msg("invalid category rule skipped")
	}

	return func(t *domain.CanonicalTransaction) (string, bool) {
		return domain.ApplyRules(compiled, t.Payee), false
	}, nil
}

// SyncAll runs both connectors for the recent window.
func (uc *SyncUseCase) SyncAll(ctx context.Context, bankWindowDays int) error {
	end := time.Now()
	start := end.AddDate(0, 0, -bankWindowDays)

	if _, err := uc.SyncBank(ctx, start, end); err != nil {
		uc.logger.Warn().Err(err).Msg("bank sync failed")
	}

	if _, err := uc.SyncSplitwise(ctx); err != nil {
		uc.logger.Warn().Err(err).Msg("splitwise sync failed")
	}

	return nil
}

func (uc *SyncUseCase) acquire(ctx context.Context, provider, runID string) (func(), error) {
	if uc.locks == nil {
		return func() {}, nil
	}

	ok, err := uc.locks.Acquire(ctx, provider, runID, syncLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock for %s: %w", provider, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSyncInProgress, provider)
	}

	return func() {
		if err := uc.locks.Release(context.WithoutCancel(ctx), provider, runID); err != nil {
			uc.logger.Warn().Err(err).Str("provider", provider).Msg("failed to release sync lock")
		}
	}, nil
}

// pause is gentle rate limiting between source pages.
func (uc *SyncUseCase) pause(ctx context.Context) {
	if uc.pagePause <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(uc.pagePause):
	}
}

func (uc *SyncUseCase) recordSync(provider string, start time.Time) {
	if uc.metrics != nil {
		uc.metrics.RecordSync(provider, time.Since(start).Seconds())
	}
}
