package rulepack

import (
	"context"

	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// Repository defines the rule pack persistence interface.
type Repository interface {
	// Create persists a new rule pack version.
	Create(ctx context.Context, pack *RulePack) error

	// GetByVersion retrieves a rule pack by version string.
	GetByVersion(ctx context.Context, version string) (*RulePack, error)

	// GetActive retrieves the currently active rule pack.
	GetActive(ctx context.Context) (*RulePack, error)

	// Activate marks the given version active and deactivates all others, in
	// one transaction.
	Activate(ctx context.Context, version string) error

	// List returns rule pack versions, newest first.
	List(ctx context.Context, page pagination.Pagination) (pagination.Result[*RulePack], error)
}
