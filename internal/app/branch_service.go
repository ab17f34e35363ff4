package app

import (
	"context"
	"fmt"
	"time"

	"github.com/abnamro/repository-scanner/pkg/domain/branch"
	"github.com/abnamro/repository-scanner/pkg/domain/finding"
	"github.com/abnamro/repository-scanner/pkg/domain/scan"
	"github.com/abnamro/repository-scanner/pkg/domain/shared"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// BranchService handles branch operations, including the findings metadata
// that resolves a branch's scan chain and aggregates statuses over it.
type BranchService struct {
	repo        branch.Repository
	scans       *ScanService
	findingRepo finding.Repository
	logger      *logger.Logger
}

// NewBranchService creates a new BranchService.
func NewBranchService(repo branch.Repository, scans *ScanService, findingRepo finding.Repository, log *logger.Logger) *BranchService {
	return &BranchService{
		repo:        repo,
		scans:       scans,
		findingRepo: findingRepo,
		logger:      log.With("service", "branch"),
	}
}

// UpsertBranchInput represents the input for branch ingestion.
type UpsertBranchInput struct {
	RepositoryID int64  `validate:"required,gt=0"`
	BranchID     string `validate:"required,max=200"`
	BranchName   string `validate:"required,max=200"`
	LatestCommit string `validate:"required,max=100"`
}

// UpsertBranch creates the branch on first ingestion or refreshes its
// mutable attributes on later ones.
func (s *BranchService) UpsertBranch(ctx context.Context, input UpsertBranchInput) (*branch.Branch, error) {
	b, err := branch.NewBranch(input.RepositoryID, input.BranchID, input.BranchName, input.LatestCommit)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to upsert branch: %w", err)
	}

	s.logger.Info("branch upserted", "id", b.ID, "name", b.BranchName)
	return b, nil
}

// GetBranch retrieves a branch by ID.
func (s *BranchService) GetBranch(ctx context.Context, id int64) (*branch.Branch, error) {
	return s.repo.GetByID(ctx, id)
}

// ListBranches returns the branches of a repository.
func (s *BranchService) ListBranches(ctx context.Context, repositoryID int64, page pagination.Pagination) (pagination.Result[*branch.Branch], error) {
	return s.repo.ListByRepository(ctx, repositoryID, page)
}

// DeleteBranch removes a branch and its scans.
func (s *BranchService) DeleteBranch(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("branch deleted", "id", id)
	return nil
}

// LastScan returns the branch's most recent scan.
func (s *BranchService) LastScan(ctx context.Context, branchID int64) (*scan.Scan, error) {
	return s.scans.LatestForBranch(ctx, branchID)
}

// FindingsMetadata is the status breakdown of a branch's live findings,
// bounded by its latest scan chain.
type FindingsMetadata struct {
	Counts        finding.StatusAggregate
	ChainComplete bool
}

// FindingsMetadata resolves the branch's scan chain as of now and aggregates
// the current status counts over it. A branch with no scans yields a zero
// aggregate.
func (s *BranchService) FindingsMetadata(ctx context.Context, branchID int64) (*FindingsMetadata, error) {
	if _, err := s.repo.GetByID(ctx, branchID); err != nil {
		return nil, err
	}

	chain, err := s.scans.ResolveChain(ctx, branchID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	counts, err := s.findingRepo.CountByStatus(ctx, chain.ScanIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate finding statuses: %w", err)
	}

	return &FindingsMetadata{Counts: counts, ChainComplete: chain.Complete}, nil
}

// AggregateForRepository aggregates the current status counts across the
// latest scan chains of every branch in a repository.
func (s *BranchService) AggregateForRepository(ctx context.Context, repositoryID int64, reference time.Time) (finding.StatusAggregate, error) {
	var scanIDs []int64

	page := pagination.New(0, pagination.DefaultMaxLimit, pagination.DefaultMaxLimit)
	for {
		branches, err := s.repo.ListByRepository(ctx, repositoryID, page)
		if err != nil {
			return finding.StatusAggregate{}, err
		}

		for _, b := range branches.Data {
			chain, err := s.scans.ResolveChain(ctx, b.ID, reference)
			if err != nil {
				if shared.IsNotFound(err) {
					continue
				}
				return finding.StatusAggregate{}, err
			}
			scanIDs = append(scanIDs, chain.ScanIDs...)
		}

		if int64(page.Skip+len(branches.Data)) >= branches.Total || len(branches.Data) == 0 {
			break
		}
		page = pagination.New(page.Skip+page.Limit, page.Limit, pagination.DefaultMaxLimit)
	}

	counts, err := s.findingRepo.CountByStatus(ctx, scanIDs)
	if err != nil {
		return finding.StatusAggregate{}, fmt.Errorf("failed to aggregate finding statuses: %w", err)
	}
	return counts, nil
}
