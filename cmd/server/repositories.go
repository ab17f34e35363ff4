package main

import (
	"github.com/abnamro/repository-scanner/internal/infra/postgres"
	"github.com/abnamro/repository-scanner/pkg/domain/audit"
	"github.com/abnamro/repository-scanner/pkg/domain/branch"
	"github.com/abnamro/repository-scanner/pkg/domain/finding"
	"github.com/abnamro/repository-scanner/pkg/domain/repository"
	"github.com/abnamro/repository-scanner/pkg/domain/rulepack"
	"github.com/abnamro/repository-scanner/pkg/domain/scan"
	"github.com/abnamro/repository-scanner/pkg/domain/vcs"
)

// Repositories bundles every persistence interface backed by PostgreSQL.
type Repositories struct {
	VCS        vcs.Repository
	Repository repository.Store
	Branch     branch.Repository
	Scan       scan.Repository
	Finding    finding.Repository
	Audit      audit.Repository
	RulePack   rulepack.Repository
}

// NewRepositories wires the PostgreSQL implementations.
func NewRepositories(db *postgres.DB) *Repositories {
	return &Repositories{
		VCS:        postgres.NewVCSRepository(db),
		Repository: postgres.NewRepositoryStore(db),
		Branch:     postgres.NewBranchRepository(db),
		Scan:       postgres.NewScanRepository(db),
		Finding:    postgres.NewFindingRepository(db),
		Audit:      postgres.NewAuditRepository(db),
		RulePack:   postgres.NewRulePackRepository(db),
	}
}
