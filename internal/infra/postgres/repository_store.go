package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/abnamro/repository-scanner/pkg/domain/repository"
	"github.com/abnamro/repository-scanner/pkg/domain/shared"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// RepositoryStore implements repository.Store using PostgreSQL.
type RepositoryStore struct {
	db *DB
}

// NewRepositoryStore creates a new RepositoryStore.
func NewRepositoryStore(db *DB) *RepositoryStore {
	return &RepositoryStore{db: db}
}

const repositorySelectQuery = `
	SELECT r.id, r.vcs_instance_id, r.project_key, r.repository_id,
		r.repository_name, r.repository_url, r.latest_commit
	FROM repository r
`

// Create persists a new repository.
func (s *RepositoryStore) Create(ctx context.Context, repo *repository.Repository) error {
	query := `
		INSERT INTO repository (vcs_instance_id, project_key, repository_id, repository_name, repository_url, latest_commit)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		repo.VCSInstanceID,
		repo.ProjectKey,
		repo.RepositoryID,
		repo.RepositoryName,
		repo.RepositoryURL,
		nullString(repo.LatestCommit),
	).Scan(&repo.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: repository %s/%s", shared.ErrAlreadyExists, repo.ProjectKey, repo.RepositoryName)
		}
		return fmt.Errorf("failed to create repository: %w", err)
	}

	return nil
}

// GetByID retrieves a repository by ID.
func (s *RepositoryStore) GetByID(ctx context.Context, id int64) (*repository.Repository, error) {
	row := s.db.QueryRowContext(ctx, repositorySelectQuery+" WHERE r.id = $1", id)
	return s.scanRepository(row.Scan)
}

// GetByNaturalKey retrieves a repository by its natural key.
func (s *RepositoryStore) GetByNaturalKey(ctx context.Context, vcsInstanceID int64, projectKey, repositoryID string) (*repository.Repository, error) {
	row := s.db.QueryRowContext(ctx,
		repositorySelectQuery+" WHERE r.vcs_instance_id = $1 AND r.project_key = $2 AND r.repository_id = $3",
		vcsInstanceID, projectKey, repositoryID,
	)
	return s.scanRepository(row.Scan)
}

// Upsert creates the repository or updates the existing row matching its
// natural key.
func (s *RepositoryStore) Upsert(ctx context.Context, repo *repository.Repository) error {
	query := `
		INSERT INTO repository (vcs_instance_id, project_key, repository_id, repository_name, repository_url, latest_commit)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project_key, repository_id, vcs_instance_id) DO UPDATE SET
			repository_name = EXCLUDED.repository_name,
			repository_url = EXCLUDED.repository_url,
			latest_commit = EXCLUDED.latest_commit
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		repo.VCSInstanceID,
		repo.ProjectKey,
		repo.RepositoryID,
		repo.RepositoryName,
		repo.RepositoryURL,
		nullString(repo.LatestCommit),
	).Scan(&repo.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert repository: %w", err)
	}

	return nil
}

// Update updates an existing repository.
func (s *RepositoryStore) Update(ctx context.Context, repo *repository.Repository) error {
	query := `
		UPDATE repository SET
			repository_name = $2, repository_url = $3, latest_commit = $4
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		repo.ID,
		repo.RepositoryName,
		repo.RepositoryURL,
		nullString(repo.LatestCommit),
	)
	if err != nil {
		return fmt.Errorf("failed to update repository: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: repository %d", shared.ErrNotFound, repo.ID)
	}

	return nil
}

// Delete removes a repository, cascading branches, scans and findings.
func (s *RepositoryStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM repository WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete repository: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: repository %d", shared.ErrNotFound, id)
	}

	return nil
}

// List returns repositories matching the filter.
func (s *RepositoryStore) List(ctx context.Context, filter repository.Filter, page pagination.Pagination) (pagination.Result[*repository.Repository], error) {
	baseQuery := repositorySelectQuery
	countQuery := `SELECT COUNT(*) FROM repository r`

	whereClause, args := s.buildWhereClause(filter)
	if whereClause != "" {
		baseQuery += " WHERE " + whereClause
		countQuery += " WHERE " + whereClause
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return pagination.Result[*repository.Repository]{}, fmt.Errorf("failed to count repositories: %w", err)
	}

	baseQuery += fmt.Sprintf(" ORDER BY r.id LIMIT %d OFFSET %d", page.Limit, page.Offset())
	rows, err := s.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return pagination.Result[*repository.Repository]{}, fmt.Errorf("failed to query repositories: %w", err)
	}
	defer rows.Close()

	var repos []*repository.Repository
	for rows.Next() {
		repo, err := s.scanRepository(rows.Scan)
		if err != nil {
			return pagination.Result[*repository.Repository]{}, err
		}
		repos = append(repos, repo)
	}

	if err := rows.Err(); err != nil {
		return pagination.Result[*repository.Repository]{}, fmt.Errorf("failed to iterate repositories: %w", err)
	}

	return pagination.NewResult(repos, total, page), nil
}

// DistinctProjects returns the distinct project keys matching the filter.
func (s *RepositoryStore) DistinctProjects(ctx context.Context, filter repository.Filter) ([]string, error) {
	return s.distinctColumn(ctx, "r.project_key", filter)
}

// DistinctRepositories returns the distinct repository names matching the filter.
func (s *RepositoryStore) DistinctRepositories(ctx context.Context, filter repository.Filter) ([]string, error) {
	return s.distinctColumn(ctx, "r.repository_name", filter)
}

func (s *RepositoryStore) distinctColumn(ctx context.Context, column string, filter repository.Filter) ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT %s FROM repository r", column)

	whereClause, args := s.buildWhereClause(filter)
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	query += fmt.Sprintf(" ORDER BY %s", column)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct values: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan distinct value: %w", err)
		}
		values = append(values, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate distinct values: %w", err)
	}

	return values, nil
}

func (s *RepositoryStore) buildWhereClause(filter repository.Filter) (string, []any) {
	var conditions []string
	var args []any
	argIndex := 1

	if len(filter.VCSProviderTypes) > 0 {
		placeholders := make([]string, len(filter.VCSProviderTypes))
		for i, p := range filter.VCSProviderTypes {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, p.String())
			argIndex++
		}
		conditions = append(conditions, fmt.Sprintf(
			"r.vcs_instance_id IN (SELECT id FROM vcs_instance WHERE provider_type IN (%s))",
			strings.Join(placeholders, ", "),
		))
	}

	if filter.VCSInstanceName != "" {
		conditions = append(conditions, fmt.Sprintf(
			"r.vcs_instance_id IN (SELECT id FROM vcs_instance WHERE name = $%d)", argIndex))
		args = append(args, filter.VCSInstanceName)
		argIndex++
	}

	if filter.ProjectKey != "" {
		conditions = append(conditions, fmt.Sprintf("r.project_key = $%d", argIndex))
		args = append(args, filter.ProjectKey)
		argIndex++
	}

	if filter.RepositoryName != "" {
		conditions = append(conditions, fmt.Sprintf("r.repository_name ILIKE $%d", argIndex))
		args = append(args, wrapLikePattern(filter.RepositoryName))
		argIndex++
	}

	if filter.OnlyIfHasFindings {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM finding f WHERE f.repository_id = r.id)")
	}

	return strings.Join(conditions, " AND "), args
}

func (s *RepositoryStore) scanRepository(scan func(dest ...any) error) (*repository.Repository, error) {
	var (
		repo         repository.Repository
		latestCommit sql.NullString
	)

	err := scan(
		&repo.ID,
		&repo.VCSInstanceID,
		&repo.ProjectKey,
		&repo.RepositoryID,
		&repo.RepositoryName,
		&repo.RepositoryURL,
		&latestCommit,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: repository", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan repository: %w", err)
	}

	repo.LatestCommit = nullStringValue(latestCommit)
	return &repo, nil
}
