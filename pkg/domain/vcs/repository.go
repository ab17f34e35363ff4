package vcs

import (
	"context"

	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// Repository defines the VCS instance persistence interface.
type Repository interface {
	// Create persists a new instance and sets its ID.
	Create(ctx context.Context, instance *Instance) error

	// GetByID retrieves an instance by ID.
	GetByID(ctx context.Context, id int64) (*Instance, error)

	// GetByName retrieves an instance by its unique name.
	GetByName(ctx context.Context, name string) (*Instance, error)

	// Upsert creates the instance or returns the existing row matching its
	// name. The instance ID is set either way.
	Upsert(ctx context.Context, instance *Instance) error

	// List returns instances, newest first.
	List(ctx context.Context, page pagination.Pagination) (pagination.Result[*Instance], error)

	// Delete removes an instance. Repositories under it are cascaded.
	Delete(ctx context.Context, id int64) error
}
