package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abnamro/repository-scanner/pkg/domain/shared"
	"github.com/abnamro/repository-scanner/pkg/domain/vcs"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// VCSRepository implements vcs.Repository using PostgreSQL.
type VCSRepository struct {
	db *DB
}

// NewVCSRepository creates a new VCSRepository.
func NewVCSRepository(db *DB) *VCSRepository {
	return &VCSRepository{db: db}
}

const vcsSelectQuery = `
	SELECT id, name, provider_type, hostname, port, scheme, organization
	FROM vcs_instance
`

// Create persists a new VCS instance.
func (r *VCSRepository) Create(ctx context.Context, instance *vcs.Instance) error {
	query := `
		INSERT INTO vcs_instance (name, provider_type, hostname, port, scheme, organization)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		instance.Name,
		instance.ProviderType.String(),
		instance.Hostname,
		instance.Port,
		instance.Scheme,
		nullString(instance.Organization),
	).Scan(&instance.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: vcs instance %q", shared.ErrAlreadyExists, instance.Name)
		}
		return fmt.Errorf("failed to create vcs instance: %w", err)
	}

	return nil
}

// GetByID retrieves a VCS instance by ID.
func (r *VCSRepository) GetByID(ctx context.Context, id int64) (*vcs.Instance, error) {
	row := r.db.QueryRowContext(ctx, vcsSelectQuery+" WHERE id = $1", id)
	return r.scanInstance(row.Scan)
}

// GetByName retrieves a VCS instance by its unique name.
func (r *VCSRepository) GetByName(ctx context.Context, name string) (*vcs.Instance, error) {
	row := r.db.QueryRowContext(ctx, vcsSelectQuery+" WHERE name = $1", name)
	return r.scanInstance(row.Scan)
}

// Upsert creates the instance or returns the existing row matching its name.
func (r *VCSRepository) Upsert(ctx context.Context, instance *vcs.Instance) error {
	query := `
		INSERT INTO vcs_instance (name, provider_type, hostname, port, scheme, organization)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			provider_type = EXCLUDED.provider_type,
			hostname = EXCLUDED.hostname,
			port = EXCLUDED.port,
			scheme = EXCLUDED.scheme,
			organization = EXCLUDED.organization
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		instance.Name,
		instance.ProviderType.String(),
		instance.Hostname,
		instance.Port,
		instance.Scheme,
		nullString(instance.Organization),
	).Scan(&instance.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert vcs instance: %w", err)
	}

	return nil
}

// List returns VCS instances, newest first.
func (r *VCSRepository) List(ctx context.Context, page pagination.Pagination) (pagination.Result[*vcs.Instance], error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vcs_instance`).Scan(&total); err != nil {
		return pagination.Result[*vcs.Instance]{}, fmt.Errorf("failed to count vcs instances: %w", err)
	}

	query := vcsSelectQuery + fmt.Sprintf(" ORDER BY id DESC LIMIT %d OFFSET %d", page.Limit, page.Offset())
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return pagination.Result[*vcs.Instance]{}, fmt.Errorf("failed to query vcs instances: %w", err)
	}
	defer rows.Close()

	var instances []*vcs.Instance
	for rows.Next() {
		instance, err := r.scanInstance(rows.Scan)
		if err != nil {
			return pagination.Result[*vcs.Instance]{}, err
		}
		instances = append(instances, instance)
	}

	if err := rows.Err(); err != nil {
		return pagination.Result[*vcs.Instance]{}, fmt.Errorf("failed to iterate vcs instances: %w", err)
	}

	return pagination.NewResult(instances, total, page), nil
}

// Delete removes a VCS instance, cascading its repositories.
func (r *VCSRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vcs_instance WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete vcs instance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: vcs instance %d", shared.ErrNotFound, id)
	}

	return nil
}

func (r *VCSRepository) scanInstance(scan func(dest ...any) error) (*vcs.Instance, error) {
	var (
		instance     vcs.Instance
		providerType string
		organization sql.NullString
	)

	err := scan(
		&instance.ID,
		&instance.Name,
		&providerType,
		&instance.Hostname,
		&instance.Port,
		&instance.Scheme,
		&organization,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: vcs instance", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan vcs instance: %w", err)
	}

	instance.ProviderType = vcs.ProviderType(providerType)
	instance.Organization = nullStringValue(organization)
	return &instance, nil
}
