package audit

import (
	"context"

	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// Repository defines the audit persistence interface. Audits are append-only.
type Repository interface {
	// Create persists a new audit and sets its ID.
	Create(ctx context.Context, a *Audit) error

	// CreateBatch persists audits for multiple findings in one transaction.
	CreateBatch(ctx context.Context, audits []*Audit) error

	// ListByFinding returns a finding's audits, newest first.
	ListByFinding(ctx context.Context, findingID int64, page pagination.Pagination) (pagination.Result[*Audit], error)

	// LatestForFinding returns the finding's most recent audit by id, or a
	// not found error when the finding has never been audited.
	LatestForFinding(ctx context.Context, findingID int64) (*Audit, error)
}
