package main

import (
	"github.com/abnamro/repository-scanner/internal/config"
	"github.com/abnamro/repository-scanner/internal/infra/http/handler"
	"github.com/abnamro/repository-scanner/internal/infra/http/routes"
	"github.com/abnamro/repository-scanner/internal/infra/postgres"
	"github.com/abnamro/repository-scanner/internal/infra/redis"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/validator"
)

// NewHandlers wires the HTTP handlers for route registration.
func NewHandlers(cfg *config.Config, services *Services, db *postgres.DB, redisClient *redis.Client, v *validator.Validator, log *logger.Logger) routes.Handlers {
	maxLimit := cfg.Pagination.MaxLimit

	return routes.Handlers{
		Health:     handler.NewHealthHandler(db, redisClient),
		VCS:        handler.NewVCSHandler(services.VCS, v, log, maxLimit),
		Repository: handler.NewRepositoryHandler(services.Repository, v, log, maxLimit),
		Branch:     handler.NewBranchHandler(services.Branch, v, log, maxLimit),
		Scan:       handler.NewScanHandler(services.Scan, services.Ingest, services.Finding, v, log, maxLimit),
		Finding:    handler.NewFindingHandler(services.Finding, v, log, maxLimit),
		RulePack:   handler.NewRulePackHandler(services.RulePack, v, log, maxLimit),
	}
}
