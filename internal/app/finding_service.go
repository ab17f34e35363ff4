package app

import (
	"context"
	"fmt"
	"time"

	"github.com/abnamro/repository-scanner/internal/metrics"
	"github.com/abnamro/repository-scanner/pkg/domain/audit"
	"github.com/abnamro/repository-scanner/pkg/domain/finding"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// FindingService handles finding queries, patches and triage audits.
type FindingService struct {
	repo      finding.Repository
	auditRepo audit.Repository
	logger    *logger.Logger
}

// NewFindingService creates a new FindingService.
func NewFindingService(repo finding.Repository, auditRepo audit.Repository, log *logger.Logger) *FindingService {
	return &FindingService{
		repo:      repo,
		auditRepo: auditRepo,
		logger:    log.With("service", "finding"),
	}
}

// GetFinding retrieves a finding by ID.
func (s *FindingService) GetFinding(ctx context.Context, id int64) (*finding.Finding, error) {
	return s.repo.GetByID(ctx, id)
}

// ListFindings returns findings matching the filter.
func (s *FindingService) ListFindings(ctx context.Context, filter finding.Filter, page pagination.Pagination) (pagination.Result[*finding.Finding], error) {
	return s.repo.List(ctx, filter, page)
}

// ListFindingsByScans returns the distinct findings of the given scans.
func (s *FindingService) ListFindingsByScans(ctx context.Context, scanIDs []int64, page pagination.Pagination) (pagination.Result[*finding.Finding], error) {
	return s.repo.ListByScans(ctx, scanIDs, page)
}

// PatchFindingInput represents the patchable fields of a finding. Everything
// else is immutable after creation.
type PatchFindingInput struct {
	Comment     *string `validate:"omitempty,max=255"`
	EventSentOn *time.Time
}

// PatchFinding updates a finding's comment and/or notification timestamp.
func (s *FindingService) PatchFinding(ctx context.Context, id int64, input PatchFindingInput) (*finding.Finding, error) {
	if input.Comment != nil {
		if err := s.repo.PatchComment(ctx, id, *input.Comment); err != nil {
			return nil, err
		}
	}
	if input.EventSentOn != nil {
		if err := s.repo.PatchEventSentOn(ctx, id, *input.EventSentOn); err != nil {
			return nil, err
		}
	}

	return s.repo.GetByID(ctx, id)
}

// AuditFindingInput represents the input for one triage decision.
type AuditFindingInput struct {
	Status  string `validate:"required,finding_status"`
	Auditor string `validate:"required,max=200"`
	Comment string `validate:"max=255"`
}

// AuditFinding records a triage decision on a finding. The new audit becomes
// the finding's current status.
func (s *FindingService) AuditFinding(ctx context.Context, findingID int64, input AuditFindingInput) (*audit.Audit, error) {
	if _, err := s.repo.GetByID(ctx, findingID); err != nil {
		return nil, err
	}

	status, err := finding.ParseStatus(input.Status)
	if err != nil {
		return nil, err
	}

	a, err := audit.NewAudit(findingID, status, input.Auditor, input.Comment)
	if err != nil {
		return nil, err
	}

	if err := s.auditRepo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create audit: %w", err)
	}

	metrics.AuditsCreatedTotal.WithLabelValues(status.String()).Inc()
	s.logger.Info("finding audited", "finding_id", findingID, "status", status.String(), "auditor", input.Auditor)
	return a, nil
}

// AuditFindings records the same triage decision on multiple findings.
func (s *FindingService) AuditFindings(ctx context.Context, findingIDs []int64, input AuditFindingInput) ([]*audit.Audit, error) {
	status, err := finding.ParseStatus(input.Status)
	if err != nil {
		return nil, err
	}

	audits := make([]*audit.Audit, 0, len(findingIDs))
	for _, id := range findingIDs {
		a, err := audit.NewAudit(id, status, input.Auditor, input.Comment)
		if err != nil {
			return nil, err
		}
		audits = append(audits, a)
	}

	if err := s.auditRepo.CreateBatch(ctx, audits); err != nil {
		return nil, fmt.Errorf("failed to create audits: %w", err)
	}

	metrics.AuditsCreatedTotal.WithLabelValues(status.String()).Add(float64(len(audits)))
	s.logger.Info("findings audited", "count", len(audits), "status", status.String(), "auditor", input.Auditor)
	return audits, nil
}

// ListAudits returns a finding's audit history, newest first.
func (s *FindingService) ListAudits(ctx context.Context, findingID int64, page pagination.Pagination) (pagination.Result[*audit.Audit], error) {
	if _, err := s.repo.GetByID(ctx, findingID); err != nil {
		return pagination.Result[*audit.Audit]{}, err
	}
	return s.auditRepo.ListByFinding(ctx, findingID, page)
}

// AggregateStatusCounts computes the per-status breakdown of the distinct
// findings in the given scans. An empty scan id set yields a zero aggregate.
func (s *FindingService) AggregateStatusCounts(ctx context.Context, scanIDs []int64) (finding.StatusAggregate, error) {
	return s.repo.CountByStatus(ctx, scanIDs)
}

// AggregateStatusCountsPerRule computes the breakdown grouped by rule name.
func (s *FindingService) AggregateStatusCountsPerRule(ctx context.Context, scanIDs []int64) ([]finding.RuleAggregate, error) {
	return s.repo.CountByStatusPerRule(ctx, scanIDs)
}

// CurrentStatus resolves one finding's current status.
func (s *FindingService) CurrentStatus(ctx context.Context, findingID int64) (finding.Status, error) {
	return s.repo.CurrentStatus(ctx, findingID)
}

// SupportedStatuses returns the status vocabulary exposed to callers.
func (s *FindingService) SupportedStatuses() []finding.Status {
	return finding.AllStatuses()
}
