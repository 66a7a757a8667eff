package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/hbeck/ledgersync/internal/domain"
)

// Categorizer decides the initial category and reviewed flag for a record
// about to be created. The zero behavior is uncategorized and unreviewed.
type Categorizer func(t *domain.CanonicalTransaction) (category string, reviewed bool)

// ImportResult summarizes one import run.
type ImportResult struct {
	RunID     string
	Created   int
	Duplicate int
	Skipped   int
	Malformed int
}

func (r *ImportResult) add(other *ImportResult) {
	r.Created += other.Created
	r.Duplicate += other.Duplicate
	r.Skipped += other.Skipped
	r.Malformed += other.Malformed
}

// ImportUseCase runs the normalize → assign identity → insert-if-absent
// pipeline for a batch of source records.
type ImportUseCase struct {
	transactions TransactionRepository
	accounts     AccountRepository
	metrics      MetricsRecorder
	logger       zerolog.Logger
}

// NewImportUseCase creates a new ImportUseCase.
func NewImportUseCase(
	transactions TransactionRepository,
	accounts AccountRepository,
	metrics MetricsRecorder,
	logger zerolog.Logger,
) *ImportUseCase {
	return &ImportUseCase{
		transactions: transactions,
		accounts:     accounts,
		metrics:      metrics,
		logger:       logger,
	}
}

// ImportBatch writes canonical records into the ledger idempotently. Records
// must arrive in source order: the occurrence counter that disambiguates
// identical content is scoped to this call and depends on that order.
func (uc *ImportUseCase) ImportBatch(ctx context.Context, records []*domain.CanonicalTransaction, categorize Categorizer) (*ImportResult, error) {
	result := &ImportResult{RunID: ulid.Make().String()}
	counter := domain.NewBatchCounter()

	logger := uc.logger.With().Str("run_id", result.RunID).Logger()

	for _, record := range records {
		id := domain.AssignID(record, counter)

		category := domain.CategoryUncategorized
		reviewed := false
		if categorize != nil {
			if c, r := categorize(record); c != "" {
				category, reviewed = c, r
			}
		}

		created, err := uc.transactions.InsertIfAbsent(ctx, &domain.Transaction{
			ID:             id,
			Provider:       record.Provider,
			AccountID:      record.AccountID,
			Date:           record.Date,
			Payee:          record.Payee,
			Amount:         record.Amount,
			Currency:       record.Currency,
			LedgerCategory: category,
			Notes:          record.Note,
			IsReviewed:     reviewed,
		})
		if err != nil {
			return result, fmt.Errorf("write entry %s: %w", id, err)
		}

		if created {
			result.Created++
		} else {
			result.Duplicate++
		}
	}

	if uc.metrics != nil && len(records) > 0 {
		uc.metrics.RecordImport(records[0].Provider, result.Created, result.Duplicate, result.Skipped)
	}

	logger.Info().
		Int("created", result.Created).
		Int("duplicate", result.Duplicate).
		Msg("batch imported")

	return result, nil
}

// ImportCSV normalizes raw CSV rows through a profile and imports them.
// Rows with an empty amount are skipped; rows that fail to parse are counted
// as malformed warnings, never batch failures.
func (uc *ImportUseCase) ImportCSV(ctx context.Context, profile *domain.Profile, rows []map[string]string, accountID, currency string) (*ImportResult, error) {
	records := make([]*domain.CanonicalTransaction, 0, len(rows))
	skipped, malformed := 0, 0

	for i, row := range rows {
		record, err := domain.NormalizeRow(profile, row, accountID, currency)
		switch {
		case errors.Is(err, domain.ErrEmptyAmount):
			skipped++
		case err != nil:
			malformed++
			uc.logger.Warn().Err(err).Int("row", i+1).Msg("skipped malformed row")
		default:
			records = append(records, record)
		}
	}

	result, err := uc.ImportBatch(ctx, records, nil)
	result.Skipped += skipped
	result.Malformed += malformed

	return result, err
}
