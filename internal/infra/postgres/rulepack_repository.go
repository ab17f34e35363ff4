package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abnamro/repository-scanner/pkg/domain/rulepack"
	"github.com/abnamro/repository-scanner/pkg/domain/shared"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// RulePackRepository implements rulepack.Repository using PostgreSQL.
type RulePackRepository struct {
	db *DB
}

// NewRulePackRepository creates a new RulePackRepository.
func NewRulePackRepository(db *DB) *RulePackRepository {
	return &RulePackRepository{db: db}
}

const rulePackSelectQuery = `
	SELECT version, active, created_at
	FROM rule_pack
`

// Create persists a new rule pack version.
func (r *RulePackRepository) Create(ctx context.Context, pack *rulepack.RulePack) error {
	query := `
		INSERT INTO rule_pack (version, active, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.ExecContext(ctx, query, pack.Version, pack.Active, pack.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: rule pack %s", shared.ErrAlreadyExists, pack.Version)
		}
		return fmt.Errorf("failed to create rule pack: %w", err)
	}

	return nil
}

// GetByVersion retrieves a rule pack by version string.
func (r *RulePackRepository) GetByVersion(ctx context.Context, version string) (*rulepack.RulePack, error) {
	row := r.db.QueryRowContext(ctx, rulePackSelectQuery+" WHERE version = $1", version)
	return r.scanRulePack(row.Scan)
}

// GetActive retrieves the currently active rule pack.
func (r *RulePackRepository) GetActive(ctx context.Context) (*rulepack.RulePack, error) {
	row := r.db.QueryRowContext(ctx, rulePackSelectQuery+" WHERE active = true")
	return r.scanRulePack(row.Scan)
}

// Activate marks the given version active and deactivates all others.
func (r *RulePackRepository) Activate(ctx context.Context, version string) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE rule_pack SET active = false WHERE active = true`); err != nil {
			return fmt.Errorf("failed to deactivate rule packs: %w", err)
		}

		result, err := tx.ExecContext(ctx, `UPDATE rule_pack SET active = true WHERE version = $1`, version)
		if err != nil {
			return fmt.Errorf("failed to activate rule pack: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return fmt.Errorf("%w: rule pack %s", shared.ErrNotFound, version)
		}

		return nil
	})
}

// List returns rule pack versions, newest first.
func (r *RulePackRepository) List(ctx context.Context, page pagination.Pagination) (pagination.Result[*rulepack.RulePack], error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rule_pack`).Scan(&total); err != nil {
		return pagination.Result[*rulepack.RulePack]{}, fmt.Errorf("failed to count rule packs: %w", err)
	}

	query := rulePackSelectQuery + fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", page.Limit, page.Offset())
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return pagination.Result[*rulepack.RulePack]{}, fmt.Errorf("failed to query rule packs: %w", err)
	}
	defer rows.Close()

	var packs []*rulepack.RulePack
	for rows.Next() {
		pack, err := r.scanRulePack(rows.Scan)
		if err != nil {
			return pagination.Result[*rulepack.RulePack]{}, err
		}
		packs = append(packs, pack)
	}

	if err := rows.Err(); err != nil {
		return pagination.Result[*rulepack.RulePack]{}, fmt.Errorf("failed to iterate rule packs: %w", err)
	}

	return pagination.NewResult(packs, total, page), nil
}

func (r *RulePackRepository) scanRulePack(scan func(dest ...any) error) (*rulepack.RulePack, error) {
	var pack rulepack.RulePack

	err := scan(&pack.Version, &pack.Active, &pack.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: rule pack", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan rule pack: %w", err)
	}

	return &pack, nil
}
