// Package routes registers all HTTP routes for the API.
package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abnamro/repository-scanner/internal/infra/http/handler"
)

// Handlers holds all HTTP handlers for route registration.
type Handlers struct {
	Health     *handler.HealthHandler
	VCS        *handler.VCSHandler
	Repository *handler.RepositoryHandler
	Branch     *handler.BranchHandler
	Scan       *handler.ScanHandler
	Finding    *handler.FindingHandler
	RulePack   *handler.RulePackHandler
}

// Register registers all application routes on the router.
func Register(r chi.Router, h Handlers) {
	r.Get("/health", h.Health.Health)
	r.Get("/healthz", h.Health.Health)
	r.Get("/health/ready", h.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/vcs-instances", func(r chi.Router) {
			r.Post("/", h.VCS.Create)
			r.Get("/", h.VCS.List)
			r.Get("/{id}", h.VCS.Get)
			r.Delete("/{id}", h.VCS.Delete)
		})

		r.Route("/repositories", func(r chi.Router) {
			r.Post("/", h.Repository.Upsert)
			r.Get("/", h.Repository.List)
			r.Get("/distinct-projects", h.Repository.DistinctProjects)
			r.Get("/distinct-repositories", h.Repository.DistinctRepositories)
			r.Get("/{id}", h.Repository.Get)
			r.Delete("/{id}", h.Repository.Delete)
			r.Get("/{id}/branches", h.Branch.ListByRepository)
		})

		r.Route("/branches", func(r chi.Router) {
			r.Post("/", h.Branch.Upsert)
			r.Get("/{id}", h.Branch.Get)
			r.Delete("/{id}", h.Branch.Delete)
			r.Get("/{id}/last-scan", h.Branch.LastScan)
			r.Get("/{id}/findings-metadata", h.Branch.FindingsMetadata)
			r.Get("/{id}/scans", h.Scan.ListByBranch)
		})

		r.Route("/scans", func(r chi.Router) {
			r.Post("/", h.Scan.Create)
			r.Get("/", h.Scan.List)
			r.Get("/detected-rules", h.Scan.DetectedRules)
			r.Get("/{id}", h.Scan.Get)
			r.Put("/{id}", h.Scan.Update)
			r.Delete("/{id}", h.Scan.Delete)
			r.Post("/{id}/findings", h.Scan.IngestFindings)
			r.Get("/{id}/findings", h.Scan.ListFindings)
		})

		r.Route("/findings", func(r chi.Router) {
			r.Get("/", h.Finding.List)
			r.Get("/supported-statuses", h.Finding.SupportedStatuses)
			r.Get("/count-by-status", h.Finding.CountByStatus)
			r.Post("/audits", h.Finding.AuditBatch)
			r.Get("/{id}", h.Finding.Get)
			r.Patch("/{id}", h.Finding.Patch)
			r.Post("/{id}/audit", h.Finding.Audit)
			r.Get("/{id}/audits", h.Finding.ListAudits)
		})

		r.Route("/rule-packs", func(r chi.Router) {
			r.Post("/", h.RulePack.Create)
			r.Get("/", h.RulePack.List)
			r.Get("/active", h.RulePack.GetActive)
			r.Put("/{version}/activate", h.RulePack.Activate)
		})
	})
}
