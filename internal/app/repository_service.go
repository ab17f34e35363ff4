package app

import (
	"context"
	"fmt"
	"time"

	"github.com/abnamro/repository-scanner/pkg/domain/finding"
	"github.com/abnamro/repository-scanner/pkg/domain/repository"
	"github.com/abnamro/repository-scanner/pkg/domain/shared"
	"github.com/abnamro/repository-scanner/pkg/domain/vcs"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// RepositoryService handles repository operations.
type RepositoryService struct {
	store       repository.Store
	vcsRepo     vcs.Repository
	branchStats *BranchService
	logger      *logger.Logger
}

// NewRepositoryService creates a new RepositoryService.
func NewRepositoryService(store repository.Store, vcsRepo vcs.Repository, branchStats *BranchService, log *logger.Logger) *RepositoryService {
	return &RepositoryService{
		store:       store,
		vcsRepo:     vcsRepo,
		branchStats: branchStats,
		logger:      log.With("service", "repository"),
	}
}

// UpsertRepositoryInput represents the input for repository ingestion.
type UpsertRepositoryInput struct {
	VCSInstanceName string `validate:"required,max=200"`
	ProjectKey      string `validate:"required,max=100"`
	RepositoryID    string `validate:"required,max=100"`
	RepositoryName  string `validate:"required,max=100"`
	RepositoryURL   string `validate:"required,url,max=200"`
	LatestCommit    string `validate:"max=100"`
}

// UpsertRepository creates the repository on first ingestion or refreshes
// its mutable attributes on later ones.
func (s *RepositoryService) UpsertRepository(ctx context.Context, input UpsertRepositoryInput) (*repository.Repository, error) {
	instance, err := s.vcsRepo.GetByName(ctx, input.VCSInstanceName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vcs instance %q: %w", input.VCSInstanceName, err)
	}

	repo, err := repository.NewRepository(instance.ID, input.ProjectKey, input.RepositoryID, input.RepositoryName, input.RepositoryURL)
	if err != nil {
		return nil, err
	}
	repo.LatestCommit = input.LatestCommit

	if err := s.store.Upsert(ctx, repo); err != nil {
		return nil, fmt.Errorf("failed to upsert repository: %w", err)
	}

	s.logger.Info("repository upserted", "id", repo.ID, "project", repo.ProjectKey, "name", repo.RepositoryName)
	return repo, nil
}

// RepositoryWithStats is a repository enriched with the finding status
// breakdown of its branches' latest scan chains.
type RepositoryWithStats struct {
	Repository *repository.Repository
	Counts     finding.StatusAggregate
}

// GetRepository retrieves a repository by ID.
func (s *RepositoryService) GetRepository(ctx context.Context, id int64) (*repository.Repository, error) {
	return s.store.GetByID(ctx, id)
}

// GetRepositoryWithStats retrieves a repository together with the current
// finding status counts across all of its branches.
func (s *RepositoryService) GetRepositoryWithStats(ctx context.Context, id int64) (*RepositoryWithStats, error) {
	repo, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	counts, err := s.branchStats.AggregateForRepository(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return &RepositoryWithStats{Repository: repo, Counts: counts}, nil
}

// ListRepositories returns repositories matching the filter.
func (s *RepositoryService) ListRepositories(ctx context.Context, filter repository.Filter, page pagination.Pagination) (pagination.Result[*repository.Repository], error) {
	return s.store.List(ctx, filter, page)
}

// DeleteRepository removes a repository, cascading branches, scans and
// findings.
func (s *RepositoryService) DeleteRepository(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if shared.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("failed to delete repository: %w", err)
	}
	s.logger.Info("repository deleted", "id", id)
	return nil
}

// DistinctProjects returns the distinct project keys matching the filter.
func (s *RepositoryService) DistinctProjects(ctx context.Context, filter repository.Filter) ([]string, error) {
	return s.store.DistinctProjects(ctx, filter)
}

// DistinctRepositories returns the distinct repository names matching the
// filter.
func (s *RepositoryService) DistinctRepositories(ctx context.Context, filter repository.Filter) ([]string, error) {
	return s.store.DistinctRepositories(ctx, filter)
}
