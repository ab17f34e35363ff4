package main

import (
	"github.com/abnamro/repository-scanner/internal/app"
	"github.com/abnamro/repository-scanner/pkg/logger"
)

// Services bundles the application services.
type Services struct {
	VCS        *app.VCSService
	Repository *app.RepositoryService
	Branch     *app.BranchService
	Scan       *app.ScanService
	Ingest     *app.IngestService
	Finding    *app.FindingService
	RulePack   *app.RulePackService
}

// NewServices wires the application services on top of the repositories.
func NewServices(repos *Repositories, log *logger.Logger) *Services {
	scans := app.NewScanService(repos.Scan, repos.Finding, log)
	branches := app.NewBranchService(repos.Branch, scans, repos.Finding, log)

	return &Services{
		VCS:        app.NewVCSService(repos.VCS, log),
		Repository: app.NewRepositoryService(repos.Repository, repos.VCS, branches, log),
		Branch:     branches,
		Scan:       scans,
		Ingest:     app.NewIngestService(repos.Scan, repos.Branch, repos.Finding, log),
		Finding:    app.NewFindingService(repos.Finding, repos.Audit, log),
		RulePack:   app.NewRulePackService(repos.RulePack, log),
	}
}
