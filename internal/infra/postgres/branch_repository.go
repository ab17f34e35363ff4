package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abnamro/repository-scanner/pkg/domain/branch"
	"github.com/abnamro/repository-scanner/pkg/domain/shared"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// BranchRepository implements branch.Repository using PostgreSQL.
type BranchRepository struct {
	db *DB
}

// NewBranchRepository creates a new BranchRepository.
func NewBranchRepository(db *DB) *BranchRepository {
	return &BranchRepository{db: db}
}

const branchSelectQuery = `
	SELECT id, repository_id, branch_id, branch_name, latest_commit
	FROM branch
`

// Create persists a new branch.
func (r *BranchRepository) Create(ctx context.Context, b *branch.Branch) error {
	query := `
		INSERT INTO branch (repository_id, branch_id, branch_name, latest_commit)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		b.RepositoryID,
		b.BranchID,
		b.BranchName,
		b.LatestCommit,
	).Scan(&b.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: branch %s", shared.ErrAlreadyExists, b.BranchName)
		}
		return fmt.Errorf("failed to create branch: %w", err)
	}

	return nil
}

// GetByID retrieves a branch by ID.
func (r *BranchRepository) GetByID(ctx context.Context, id int64) (*branch.Branch, error) {
	row := r.db.QueryRowContext(ctx, branchSelectQuery+" WHERE id = $1", id)
	return r.scanBranch(row.Scan)
}

// GetByNaturalKey retrieves a branch by (repository_id, branch_id).
func (r *BranchRepository) GetByNaturalKey(ctx context.Context, repositoryID int64, branchID string) (*branch.Branch, error) {
	row := r.db.QueryRowContext(ctx,
		branchSelectQuery+" WHERE repository_id = $1 AND branch_id = $2",
		repositoryID, branchID,
	)
	return r.scanBranch(row.Scan)
}

// Upsert creates the branch or updates the existing row matching its
// natural key.
func (r *BranchRepository) Upsert(ctx context.Context, b *branch.Branch) error {
	query := `
		INSERT INTO branch (repository_id, branch_id, branch_name, latest_commit)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (repository_id, branch_id) DO UPDATE SET
			branch_name = EXCLUDED.branch_name,
			latest_commit = EXCLUDED.latest_commit
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		b.RepositoryID,
		b.BranchID,
		b.BranchName,
		b.LatestCommit,
	).Scan(&b.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert branch: %w", err)
	}

	return nil
}

// Update updates an existing branch.
func (r *BranchRepository) Update(ctx context.Context, b *branch.Branch) error {
	query := `
		UPDATE branch SET branch_name = $2, latest_commit = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, b.ID, b.BranchName, b.LatestCommit)
	if err != nil {
		return fmt.Errorf("failed to update branch: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: branch %d", shared.ErrNotFound, b.ID)
	}

	return nil
}

// Delete removes a branch, cascading its scans.
func (r *BranchRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM branch WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete branch: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: branch %d", shared.ErrNotFound, id)
	}

	return nil
}

// ListByRepository returns the branches of a repository.
func (r *BranchRepository) ListByRepository(ctx context.Context, repositoryID int64, page pagination.Pagination) (pagination.Result[*branch.Branch], error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM branch WHERE repository_id = $1`, repositoryID).Scan(&total)
	if err != nil {
		return pagination.Result[*branch.Branch]{}, fmt.Errorf("failed to count branches: %w", err)
	}

	query := branchSelectQuery + fmt.Sprintf(" WHERE repository_id = $1 ORDER BY id LIMIT %d OFFSET %d", page.Limit, page.Offset())
	rows, err := r.db.QueryContext(ctx, query, repositoryID)
	if err != nil {
		return pagination.Result[*branch.Branch]{}, fmt.Errorf("failed to query branches: %w", err)
	}
	defer rows.Close()

	var branches []*branch.Branch
	for rows.Next() {
		b, err := r.scanBranch(rows.Scan)
		if err != nil {
			return pagination.Result[*branch.Branch]{}, err
		}
		branches = append(branches, b)
	}

	if err := rows.Err(); err != nil {
		return pagination.Result[*branch.Branch]{}, fmt.Errorf("failed to iterate branches: %w", err)
	}

	return pagination.NewResult(branches, total, page), nil
}

func (r *BranchRepository) scanBranch(scan func(dest ...any) error) (*branch.Branch, error) {
	var b branch.Branch

	err := scan(
		&b.ID,
		&b.RepositoryID,
		&b.BranchID,
		&b.BranchName,
		&b.LatestCommit,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: branch", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan branch: %w", err)
	}

	return &b, nil
}
