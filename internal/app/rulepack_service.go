package app

import (
	"context"
	"fmt"

	"github.com/abnamro/repository-scanner/pkg/domain/rulepack"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// RulePackService handles rule pack version bookkeeping.
type RulePackService struct {
	repo   rulepack.Repository
	logger *logger.Logger
}

// NewRulePackService creates a new RulePackService.
func NewRulePackService(repo rulepack.Repository, log *logger.Logger) *RulePackService {
	return &RulePackService{
		repo:   repo,
		logger: log.With("service", "rulepack"),
	}
}

// CreateRulePackInput represents the input for registering a version.
type CreateRulePackInput struct {
	Version  string `validate:"required,max=100"`
	Activate bool
}

// CreateRulePack registers a new rule pack version, optionally activating it
// immediately.
func (s *RulePackService) CreateRulePack(ctx context.Context, input CreateRulePackInput) (*rulepack.RulePack, error) {
	pack, err := rulepack.NewRulePack(input.Version)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, pack); err != nil {
		return nil, err
	}

	if input.Activate {
		if err := s.repo.Activate(ctx, pack.Version); err != nil {
			return nil, fmt.Errorf("failed to activate rule pack: %w", err)
		}
		pack.Active = true
	}

	s.logger.Info("rule pack registered", "version", pack.Version, "active", pack.Active)
	return pack, nil
}

// ActivateRulePack marks the given version active and deactivates all others.
func (s *RulePackService) ActivateRulePack(ctx context.Context, version string) error {
	if err := s.repo.Activate(ctx, version); err != nil {
		return err
	}
	s.logger.Info("rule pack activated", "version", version)
	return nil
}

// GetActiveRulePack returns the currently active rule pack.
func (s *RulePackService) GetActiveRulePack(ctx context.Context) (*rulepack.RulePack, error) {
	return s.repo.GetActive(ctx)
}

// ListRulePacks returns rule pack versions, newest first.
func (s *RulePackService) ListRulePacks(ctx context.Context, page pagination.Pagination) (pagination.Result[*rulepack.RulePack], error) {
	return s.repo.List(ctx, page)
}
