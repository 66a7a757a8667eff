package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hbeck/ledgersync/internal/domain"
)

// DefaultMatchKeywords disambiguate competing transfer candidates by payee
// text. Configuration data, not behavior.
var DefaultMatchKeywords = []string{"venmo", "zelle", "splitwise"}

// ReconcileResult summarizes one reconciliation pass.
type ReconcileResult struct {
	Matched          int
	AmbiguousSkipped int
}

// ReconcileUseCase pairs settlement entries against the bank entries that
// represent the other side of the same real-world transfer, relabeling the
// bank side. Settlement entries are never modified.
type ReconcileUseCase struct {
	txManager    TransactionManager
	transactions TransactionRepository
	keywords     []string
	retrier      Retrier
	metrics      MetricsRecorder
	logger       zerolog.Logger
}

// NewReconcileUseCase creates a new ReconcileUseCase. A nil keyword list
// falls back to DefaultMatchKeywords.
func NewReconcileUseCase(
	txManager TransactionManager,
	transactions TransactionRepository,
	keywords []string,
	metrics MetricsRecorder,
	logger zerolog.Logger,
) *ReconcileUseCase {
	if keywords == nil {
		keywords = DefaultMatchKeywords
	}

	return &ReconcileUseCase{
		txManager:    txManager,
		transactions: transactions,
		keywords:     keywords,
		metrics:      metrics,
		logger:       logger,
	}
}

// WithRetrier retries each per-settlement store transaction on transient
// errors. Relabels are idempotent, so replaying a rolled-back attempt is safe.
func (uc *ReconcileUseCase) WithRetrier(retrier Retrier) *ReconcileUseCase {
	uc.retrier = retrier
	return uc
}

// ReconcileTransfers matches every settlement entry against unreconciled bank
// entries within ±toleranceDays. Each settlement is processed independently
// inside its own store transaction, newest first.
func (uc *ReconcileUseCase) ReconcileTransfers(ctx context.Context, toleranceDays int) (*ReconcileResult, error) {
	settlements, err := uc.transactions.ListByProviderNewestFirst(ctx, domain.ProviderSplitwisePayment)
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}

	uc.logger.Info().Int("settlements", len(settlements)).Int("tolerance_days", toleranceDays).Msg("reconciling transfers")

	result := &ReconcileResult{}

	for _, settlement := range settlements {
		run := func() error {
			return uc.reconcileOne(ctx, settlement, toleranceDays, result)
		}

		var err error
		if uc.retrier != nil {
			err = uc.retrier.Retry(ctx, run)
		} else {
			err = run()
		}
		if err != nil {
			return result, err
		}
	}

	if uc.metrics != nil {
		uc.metrics.RecordReconcile(result.Matched, result.AmbiguousSkipped)
	}

	return result, nil
}

func (uc *ReconcileUseCase) reconcileOne(ctx context.Context, settlement *domain.Transaction, toleranceDays int, result *ReconcileResult) error {
	settleDate, err := time.Parse(domain.DateLayout, settlement.Date)
	if err != nil {
		return fmt.Errorf("settlement %s has bad date %q: %w", settlement.ID, settlement.Date, err)
	}

	// The bank side shows the mirrored sign: paying out 50.00 to settle a
	// payable appears as -50.00 in the bank ledger.
	target := settlement.Amount.Neg()
	fromDate := settleDate.AddDate(0, 0, -toleranceDays).Format(domain.DateLayout)
	toDate := settleDate.AddDate(0, 0, toleranceDays).Format(domain.DateLayout)

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	candidates, err := uc.transactions.FindTransferCandidates(
		ctx, tx, domain.BankProviders, target, fromDate, toDate, domain.CategoryTransferSplitwise,
	)
	if err != nil {
		return fmt.Errorf("find candidates for settlement %s: %w", settlement.ID, err)
	}

	match := uc.pickMatch(candidates)
	if match == nil {
		if len(candidates) > 1 {
			result.AmbiguousSkipped++
			uc.logger.Warn().
				Str("settlement_id", settlement.ID).
				Str("date", settlement.Date).
				Str("amount", settlement.Amount.String()).
				Int("candidates", len(candidates)).
				Msg("ambiguous match skipped")
		}
		return nil
	}

	err = uc.transactions.UpdateCategoryTx(ctx, tx, match.ID, domain.CategoryTransferSplitwise, true)
	if err != nil {
		return fmt.Errorf("relabel bank entry %s: %w", match.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	result.Matched++
	uc.logger.Info().
		Str("settlement_id", settlement.ID).
		Str("bank_id", match.ID).
		Str("date", settlement.Date).
		Str("amount", settlement.Amount.String()).
		Str("payee", match.Payee).
		Msg("transfer matched")

	return nil
}

// pickMatch applies the decision policy: a lone candidate is confirmed; among
// several, only a candidate that is the sole keyword bearer is trusted.
func (uc *ReconcileUseCase) pickMatch(candidates []*domain.Transaction) *domain.Transaction {
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return candidates[0]
	}

	var keyworded *domain.Transaction
	for _, c := range candidates {
		if !uc.hasKeyword(c.Payee) {
			continue
		}
		if keyworded != nil {
			// Two keyword bearers: refusing beats mis-reconciling.
			return nil
		}
		keyworded = c
	}

	return keyworded
}

func (uc *ReconcileUseCase) hasKeyword(payee string) bool {
	lowered := strings.ToLower(payee)
	for _, kw := range uc.keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
