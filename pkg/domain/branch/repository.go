package branch

import (
	"context"

	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// Repository defines the branch persistence interface.
type Repository interface {
	// Create persists a new branch and sets its ID.
	Create(ctx context.Context, b *Branch) error

	// GetByID retrieves a branch by ID.
	GetByID(ctx context.Context, id int64) (*Branch, error)

	// GetByNaturalKey retrieves a branch by its (repository_id, branch_id)
	// identity.
	GetByNaturalKey(ctx context.Context, repositoryID int64, branchID string) (*Branch, error)

	// Upsert creates the branch or updates the existing row matching its
	// natural key. The ID is set either way.
	Upsert(ctx context.Context, b *Branch) error

	// Update updates an existing branch.
	Update(ctx context.Context, b *Branch) error

	// Delete removes a branch, cascading its scans.
	Delete(ctx context.Context, id int64) error

	// ListByRepository returns the branches of a repository.
	ListByRepository(ctx context.Context, repositoryID int64, page pagination.Pagination) (pagination.Result[*Branch], error)
}
