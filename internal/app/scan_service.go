package app

import (
	"context"
	"fmt"
	"time"

	"github.com/abnamro/repository-scanner/internal/metrics"
	"github.com/abnamro/repository-scanner/pkg/domain/finding"
	"github.com/abnamro/repository-scanner/pkg/domain/scan"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// ScanService handles scan orchestration and chain resolution.
type ScanService struct {
	repo        scan.Repository
	findingRepo finding.Repository
	logger      *logger.Logger
}

// NewScanService creates a new ScanService.
func NewScanService(repo scan.Repository, findingRepo finding.Repository, log *logger.Logger) *ScanService {
	return &ScanService{
		repo:        repo,
		findingRepo: findingRepo,
		logger:      log.With("service", "scan"),
	}
}

// CreateScanInput represents the input for submitting a scan.
type CreateScanInput struct {
	BranchID          int64  `validate:"required,gt=0"`
	LastScannedCommit string `validate:"required,max=100"`
	RulePack          string `validate:"required,max=100"`
	Timestamp         time.Time
	ForceBase         bool
}

// CreateScan creates a scan for a branch. The scan type and increment number
// are decided inside the creation transaction: a forced base or a branch
// without prior scans gets BASE/0, anything else continues the incremental
// sequence of the latest scan.
func (s *ScanService) CreateScan(ctx context.Context, input CreateScanInput) (*scan.Scan, error) {
	// Type is provisional here; Create recomputes it under the branch lock.
	newScan, err := scan.NewScan(input.BranchID, scan.TypeBase, input.LastScannedCommit, input.RulePack, input.Timestamp)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, newScan, input.ForceBase); err != nil {
		return nil, err
	}

	metrics.ScansCreatedTotal.WithLabelValues(newScan.ScanType.String()).Inc()
	s.logger.Info("scan created",
		"id", newScan.ID,
		"branch_id", newScan.BranchID,
		"scan_type", newScan.ScanType.String(),
		"increment", newScan.IncrementNumber,
	)
	return newScan, nil
}

// GetScan retrieves a scan by ID.
func (s *ScanService) GetScan(ctx context.Context, id int64) (*scan.Scan, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateScanInput represents the input for an administrative scan correction.
type UpdateScanInput struct {
	ScanType          string `validate:"required,scan_type"`
	LastScannedCommit string `validate:"required,max=100"`
	RulePack          string `validate:"required,max=100"`
	Timestamp         time.Time
	IncrementNumber   int `validate:"gte=0"`
}

// UpdateScan applies an administrative correction to a scan.
func (s *ScanService) UpdateScan(ctx context.Context, id int64, input UpdateScanInput) (*scan.Scan, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	scanType, err := scan.ParseType(input.ScanType)
	if err != nil {
		return nil, err
	}

	existing.ScanType = scanType
	existing.LastScannedCommit = input.LastScannedCommit
	existing.RulePack = input.RulePack
	existing.IncrementNumber = input.IncrementNumber
	if !input.Timestamp.IsZero() {
		existing.Timestamp = input.Timestamp
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.logger.Info("scan updated", "id", existing.ID)
	return existing, nil
}

// DeleteScan removes a scan and its finding associations.
func (s *ScanService) DeleteScan(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("scan deleted", "id", id)
	return nil
}

// ListScans returns scans, newest first.
func (s *ScanService) ListScans(ctx context.Context, page pagination.Pagination) (pagination.Result[*scan.Scan], error) {
	return s.repo.List(ctx, page)
}

// ListScansByBranch returns the scans of a branch, newest first.
func (s *ScanService) ListScansByBranch(ctx context.Context, branchID int64, page pagination.Pagination) (pagination.Result[*scan.Scan], error) {
	return s.repo.ListByBranch(ctx, branchID, page)
}

// LatestForBranch returns the branch's most recent scan by timestamp.
func (s *ScanService) LatestForBranch(ctx context.Context, branchID int64) (*scan.Scan, error) {
	return s.repo.LatestForBranch(ctx, branchID)
}

// ResolveChain resolves the branch's scan chain as of the reference time:
// the ordered scan ids from the most recent scan back to the bounding base
// scan, inclusive. A chain that exhausts the history without finding a base
// scan is returned in full but flagged incomplete and logged.
func (s *ScanService) ResolveChain(ctx context.Context, branchID int64, reference time.Time) (scan.Chain, error) {
	links, err := s.repo.ChainLinks(ctx, branchID, reference)
	if err != nil {
		return scan.Chain{}, fmt.Errorf("failed to resolve scan chain: %w", err)
	}

	chain := scan.BuildChain(links)
	if !chain.Complete {
		metrics.IncompleteChainsTotal.Inc()
		s.logger.Warn("scan chain has no base scan, using full history",
			"branch_id", branchID,
			"chain_length", chain.Len(),
		)
	}
	return chain, nil
}

// DetectedRules returns the distinct rule names seen in the given scans.
func (s *ScanService) DetectedRules(ctx context.Context, scanIDs []int64) ([]string, error) {
	return s.findingRepo.DetectedRules(ctx, scanIDs)
}
