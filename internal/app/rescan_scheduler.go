package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/abnamro/repository-scanner/internal/infra/jobs"
	"github.com/abnamro/repository-scanner/pkg/domain/repository"
	"github.com/abnamro/repository-scanner/pkg/domain/vcs"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// ScanEnqueuer queues repository scan jobs for the scanner worker.
type ScanEnqueuer interface {
	EnqueueRepositoryScan(ctx context.Context, payload jobs.ScanRepositoryPayload) error
}

// RescanScheduler periodically enqueues scan jobs for every known
// repository so branches are re-checked on a fixed cadence.
type RescanScheduler struct {
	store    repository.Store
	vcsRepo  vcs.Repository
	enqueuer ScanEnqueuer
	cron     *cron.Cron
	cronExpr string
	logger   *logger.Logger
}

// NewRescanScheduler creates a new RescanScheduler.
func NewRescanScheduler(store repository.Store, vcsRepo vcs.Repository, enqueuer ScanEnqueuer, cronExpr string, log *logger.Logger) *RescanScheduler {
	return &RescanScheduler{
		store:    store,
		vcsRepo:  vcsRepo,
		enqueuer: enqueuer,
		cron:     cron.New(),
		cronExpr: cronExpr,
		logger:   log.With("service", "rescan_scheduler"),
	}
}

// Start registers the cron entry and starts the scheduler.
func (s *RescanScheduler) Start() error {
	_, err := s.cron.AddFunc(s.cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		s.EnqueueAll(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("rescan scheduler started", "cron", s.cronExpr)
	return nil
}

// Stop stops the scheduler and waits for a running enqueue pass to finish.
func (s *RescanScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("rescan scheduler stopped")
}

// EnqueueAll queues a scan job for every known repository. Failures are
// logged per repository and do not stop the pass.
func (s *RescanScheduler) EnqueueAll(ctx context.Context) {
	instances := make(map[int64]*vcs.Instance)
	queued := 0

	page := pagination.New(0, pagination.DefaultMaxLimit, pagination.DefaultMaxLimit)
	for {
		repos, err := s.store.List(ctx, repository.Filter{}, page)
		if err != nil {
			s.logger.Error("failed to list repositories for rescan", "error", err)
			return
		}

		for _, repo := range repos.Data {
			instance, ok := instances[repo.VCSInstanceID]
			if !ok {
				instance, err = s.vcsRepo.GetByID(ctx, repo.VCSInstanceID)
				if err != nil {
					s.logger.Error("failed to resolve vcs instance", "id", repo.VCSInstanceID, "error", err)
					continue
				}
				instances[repo.VCSInstanceID] = instance
			}

			payload := jobs.ScanRepositoryPayload{
				VCSInstanceName: instance.Name,
				ProjectKey:      repo.ProjectKey,
				RepositoryID:    repo.RepositoryID,
				RepositoryName:  repo.RepositoryName,
				RepositoryURL:   repo.RepositoryURL,
			}
			if err := s.enqueuer.EnqueueRepositoryScan(ctx, payload); err != nil {
				s.logger.Error("failed to enqueue rescan", "repository", repo.RepositoryName, "error", err)
				continue
			}
			queued++
		}

		if int64(page.Skip+len(repos.Data)) >= repos.Total || len(repos.Data) == 0 {
			break
		}
		page = pagination.New(page.Skip+page.Limit, page.Limit, pagination.DefaultMaxLimit)
	}

	s.logger.Info("rescan pass complete", "queued", queued)
}
