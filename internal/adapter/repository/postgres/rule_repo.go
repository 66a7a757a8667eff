package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hbeck/ledgersync/internal/domain"
)

// RuleRepository implements usecase.RuleRepository.
type RuleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository creates a new RuleRepository.
func NewRuleRepository(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

// List returns all rules ordered by priority descending so higher-priority
// patterns win ties.
func (r *RuleRepository) List(ctx context.Context) ([]*domain.CategoryRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, priority, pattern, category
		FROM category_rules
		ORDER BY priority DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []*domain.CategoryRule
	for rows.Next() {
		var rule domain.CategoryRule
		if err := rows.Scan(&rule.ID, &rule.Priority, &rule.Pattern, &rule.Category); err != nil {
			return nil, err
		}
		out = append(out, &rule)
	}

	return out, rows.Err()
}
