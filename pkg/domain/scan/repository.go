package scan

import (
	"context"
	"time"

	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// Repository defines the scan persistence interface.
type Repository interface {
	// Create persists a new scan and sets its ID. The implementation must
	// serialize increment numbering per branch: it takes a branch-scoped row
	// lock, computes the increment number from the latest scan inside the
	// same transaction, and stores it on the scan.
	Create(ctx context.Context, s *Scan, forceBase bool) error

	// GetByID retrieves a scan by ID.
	GetByID(ctx context.Context, id int64) (*Scan, error)

	// Update applies an administrative correction to a scan.
	Update(ctx context.Context, s *Scan) error

	// Delete removes a scan and its finding associations.
	Delete(ctx context.Context, id int64) error

	// List returns scans, newest first.
	List(ctx context.Context, page pagination.Pagination) (pagination.Result[*Scan], error)

	// ListByBranch returns the scans of a branch, newest first.
	ListByBranch(ctx context.Context, branchID int64, page pagination.Pagination) (pagination.Result[*Scan], error)

	// LatestForBranch returns the branch's most recent scan by timestamp, or
	// a not found error when the branch has never been scanned.
	LatestForBranch(ctx context.Context, branchID int64) (*Scan, error)

	// ChainLinks streams the branch's scans with timestamp at or before
	// reference, ordered by timestamp descending, stopping after the first
	// base scan row. The result feeds BuildChain.
	ChainLinks(ctx context.Context, branchID int64, reference time.Time) ([]ChainLink, error)
}
