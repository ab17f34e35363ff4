// Package app contains the application services that implement the scan
// lifecycle on top of the domain and persistence layers.
package app

import (
	"context"
	"fmt"

	"github.com/abnamro/repository-scanner/pkg/domain/vcs"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// VCSService handles VCS instance operations.
type VCSService struct {
	repo   vcs.Repository
	logger *logger.Logger
}

// NewVCSService creates a new VCSService.
func NewVCSService(repo vcs.Repository, log *logger.Logger) *VCSService {
	return &VCSService{
		repo:   repo,
		logger: log.With("service", "vcs"),
	}
}

// CreateVCSInstanceInput represents the input for registering a VCS instance.
type CreateVCSInstanceInput struct {
	Name         string `validate:"required,min=1,max=200"`
	ProviderType string `validate:"required,vcs_provider"`
	Hostname     string `validate:"required,max=255"`
	Port         int    `validate:"required,gte=1,lte=65535"`
	Scheme       string `validate:"required,oneof=http https"`
	Organization string `validate:"max=200"`
}

// CreateVCSInstance registers a VCS instance, idempotently by name.
func (s *VCSService) CreateVCSInstance(ctx context.Context, input CreateVCSInstanceInput) (*vcs.Instance, error) {
	providerType, err := vcs.ParseProviderType(input.ProviderType)
	if err != nil {
		return nil, err
	}

	instance, err := vcs.NewInstance(input.Name, providerType, input.Hostname, input.Port, input.Scheme)
	if err != nil {
		return nil, err
	}
	instance.Organization = input.Organization

	if err := s.repo.Upsert(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to upsert vcs instance: %w", err)
	}

	s.logger.Info("vcs instance registered", "id", instance.ID, "name", instance.Name)
	return instance, nil
}

// GetVCSInstance retrieves a VCS instance by ID.
func (s *VCSService) GetVCSInstance(ctx context.Context, id int64) (*vcs.Instance, error) {
	return s.repo.GetByID(ctx, id)
}

// ListVCSInstances returns VCS instances.
func (s *VCSService) ListVCSInstances(ctx context.Context, page pagination.Pagination) (pagination.Result[*vcs.Instance], error) {
	return s.repo.List(ctx, page)
}

// DeleteVCSInstance removes a VCS instance and everything under it.
func (s *VCSService) DeleteVCSInstance(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("vcs instance deleted", "id", id)
	return nil
}
