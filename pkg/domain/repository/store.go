package repository

import (
	"context"

	"github.com/abnamro/repository-scanner/pkg/domain/vcs"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// Filter defines criteria for narrowing repository queries.
type Filter struct {
	VCSProviderTypes  []vcs.ProviderType
	VCSInstanceName   string
	ProjectKey        string
	RepositoryName    string // substring match
	OnlyIfHasFindings bool
}

// Store defines the repository persistence interface. The usual name
// Repository would collide with the entity in this package.
type Store interface {
	// Create persists a new repository and sets its ID.
	Create(ctx context.Context, repo *Repository) error

	// GetByID retrieves a repository by ID.
	GetByID(ctx context.Context, id int64) (*Repository, error)

	// GetByNaturalKey retrieves a repository by its
	// (project_key, repository_id, vcs_instance_id) identity.
	GetByNaturalKey(ctx context.Context, vcsInstanceID int64, projectKey, repositoryID string) (*Repository, error)

	// Upsert creates the repository or updates the mutable attributes of the
	// existing row matching its natural key. The ID is set either way.
	Upsert(ctx context.Context, repo *Repository) error

	// Update updates an existing repository.
	Update(ctx context.Context, repo *Repository) error

	// Delete removes a repository, cascading branches, scans and findings.
	Delete(ctx context.Context, id int64) error

	// List returns repositories matching the filter.
	List(ctx context.Context, filter Filter, page pagination.Pagination) (pagination.Result[*Repository], error)

	// DistinctProjects returns the distinct project keys matching the filter.
	DistinctProjects(ctx context.Context, filter Filter) ([]string, error)

	// DistinctRepositories returns the distinct repository names matching the
	// filter.
	DistinctRepositories(ctx context.Context, filter Filter) ([]string, error)
}
