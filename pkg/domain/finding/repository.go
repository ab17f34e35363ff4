package finding

import (
	"context"
	"time"

	"github.com/abnamro/repository-scanner/pkg/domain/vcs"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// Filter defines criteria for narrowing finding queries.
type Filter struct {
	VCSProviderTypes []vcs.ProviderType
	ProjectKey       string
	RepositoryName   string
	BranchName       string
	ScanIDs          []int64
	RuleNames        []string
	Statuses         []Status
	StartDate        *time.Time
	EndDate          *time.Time
}

// RuleAggregate is the per-rule status breakdown used by rule-level reports.
type RuleAggregate struct {
	RuleName string          `json:"rule_name"`
	Counts   StatusAggregate `json:"counts"`
}

// Repository defines the finding persistence interface.
type Repository interface {
	// GetByID retrieves a finding by ID.
	GetByID(ctx context.Context, id int64) (*Finding, error)

	// List returns findings matching the filter, with their current status
	// resolved from the latest audit.
	List(ctx context.Context, filter Filter, page pagination.Pagination) (pagination.Result[*Finding], error)

	// ListByScans returns the distinct findings associated with the given
	// scans.
	ListByScans(ctx context.Context, scanIDs []int64, page pagination.Pagination) (pagination.Result[*Finding], error)

	// PatchComment updates a finding's comment.
	PatchComment(ctx context.Context, id int64, comment string) error

	// PatchEventSentOn records the notification dispatch time.
	PatchEventSentOn(ctx context.Context, id int64, sentOn time.Time) error

	// Reconcile dedups candidates against the repository's existing findings
	// and associates every resulting finding with scanID, all inside one
	// transaction. Candidates must share one repository. It returns the
	// canonical findings in submission order, reused rows first kept as-is.
	Reconcile(ctx context.Context, repositoryID, scanID int64, candidates []*Finding) ([]*Finding, error)

	// CountByStatus computes the per-status breakdown of the distinct
	// findings in the given scans. Empty scanIDs yields a zero aggregate.
	CountByStatus(ctx context.Context, scanIDs []int64) (StatusAggregate, error)

	// CountByStatusPerRule computes the breakdown grouped by rule name.
	CountByStatusPerRule(ctx context.Context, scanIDs []int64) ([]RuleAggregate, error)

	// CurrentStatus resolves one finding's current status from its latest
	// audit, NOT_ANALYZED when it has none.
	CurrentStatus(ctx context.Context, findingID int64) (Status, error)

	// DetectedRules returns the distinct rule names seen in the given scans.
	DetectedRules(ctx context.Context, scanIDs []int64) ([]string, error)
}
