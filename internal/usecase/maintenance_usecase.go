package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hbeck/ledgersync/internal/domain"
)

// MaintenanceUseCase holds the destructive and manual category operations.
type MaintenanceUseCase struct {
	transactions TransactionRepository
	logger       zerolog.Logger
}

// NewMaintenanceUseCase creates a new MaintenanceUseCase.
func NewMaintenanceUseCase(transactions TransactionRepository, logger zerolog.Logger) *MaintenanceUseCase {
	return &MaintenanceUseCase{transactions: transactions, logger: logger}
}

// ResetCategories sets every entry back to the default category and marks it
// unreviewed. Idempotent and intentionally destructive; the caller owns
// operator confirmation.
func (uc *MaintenanceUseCase) ResetCategories(ctx context.Context) (int64, error) {
	count, err := uc.transactions.ResetCategories(ctx, domain.CategoryUncategorized)
	if err != nil {
		return 0, fmt.Errorf("reset categories: %w", err)
	}

	uc.logger.Info().Int64("reset", count).Msg("categories reset")

	return count, nil
}

// UpdateCategory relabels one transaction. Category and reviewed flag are the
// only fields any workflow may change after creation.
func (uc *MaintenanceUseCase) UpdateCategory(ctx context.Context, id, category string, reviewed bool) error {
	if category == "" {
		return fmt.Errorf("category must not be empty")
	}

	if _, err := uc.transactions.GetByID(ctx, id); err != nil {
		return err
	}

	return uc.transactions.UpdateCategory(ctx, id, category, reviewed)
}
