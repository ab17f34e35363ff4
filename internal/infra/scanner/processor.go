package scanner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/zricethezav/gitleaks/v8/detect"

	"github.com/abnamro/repository-scanner/internal/config"
	"github.com/abnamro/repository-scanner/internal/infra/apiclient"
	"github.com/abnamro/repository-scanner/internal/infra/jobs"
	"github.com/abnamro/repository-scanner/internal/metrics"
	"github.com/abnamro/repository-scanner/pkg/domain/shared"
	"github.com/abnamro/repository-scanner/pkg/logger"
)

// Processor runs one repository scan end to end: clone, decide scan type,
// detect secrets, report to the API.
type Processor struct {
	api       *apiclient.Client
	detector  *detect.Detector
	vcsConfig *VCSConfig
	cfg       *config.ScannerConfig
	logger    *logger.Logger
}

// NewProcessor creates a scan processor.
func NewProcessor(api *apiclient.Client, detector *detect.Detector, vcsConfig *VCSConfig, cfg *config.ScannerConfig, log *logger.Logger) *Processor {
	return &Processor{
		api:       api,
		detector:  detector,
		vcsConfig: vcsConfig,
		cfg:       cfg,
		logger:    log.With("component", "scanner"),
	}
}

var _ jobs.ScanProcessor = (*Processor)(nil)

// ProcessScan handles one scan task from the queue.
func (p *Processor) ProcessScan(ctx context.Context, payload jobs.ScanRepositoryPayload) error {
	log := p.logger.With(
		"task_id", payload.TaskID,
		"project", payload.ProjectKey,
		"repository", payload.RepositoryName,
		"branch", payload.BranchName,
	)

	instance, err := p.vcsConfig.Instance(payload.VCSInstanceName)
	if err != nil {
		return err
	}

	repo, err := p.api.UpsertRepository(ctx, apiclient.UpsertRepositoryInput{
		VCSInstanceName: payload.VCSInstanceName,
		ProjectKey:      payload.ProjectKey,
		RepositoryID:    payload.RepositoryID,
		RepositoryName:  payload.RepositoryName,
		RepositoryURL:   payload.RepositoryURL,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert repository: %w", err)
	}

	dir, headCommit, err := CloneRepository(ctx, payload.RepositoryURL, p.cfg.WorkDir, instance.Credentials())
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", payload.RepositoryURL, err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Error("failed to clean up clone directory", "dir", dir, "error", err)
		}
	}()

	branch, err := p.api.UpsertBranch(ctx, apiclient.UpsertBranchInput{
		RepositoryID: repo.ID,
		BranchID:     payload.BranchName,
		BranchName:   payload.BranchName,
		LatestCommit: headCommit,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert branch: %w", err)
	}

	previous, err := p.api.LastScan(ctx, branch.ID)
	if err != nil && !shared.IsNotFound(err) {
		return fmt.Errorf("failed to fetch last scan: %w", err)
	}

	rulePackVersion := ""
	if active, err := p.api.ActiveRulePack(ctx); err == nil {
		rulePackVersion = active.Version
	} else if !shared.IsNotFound(err) {
		return fmt.Errorf("failed to fetch active rule pack: %w", err)
	}
	if rulePackVersion == "" {
		rulePackVersion = "0.0.0"
	}

	decision := DetermineScanType(previous, headCommit, rulePackVersion, payload.ForceBase || p.cfg.ForceBaseScan)
	if decision == DecisionSkip {
		metrics.ScansSkippedTotal.Inc()
		log.Info("branch unchanged, skipping scan", "commit", headCommit)
		return nil
	}

	sinceCommit := ""
	if decision == DecisionIncremental {
		sinceCommit = previous.LastScannedCommit
	}

	start := time.Now()
	findings, err := DetectSecrets(p.detector, dir, sinceCommit)
	if err != nil {
		return err
	}
	metrics.ScanDuration.WithLabelValues(decision.String()).Observe(time.Since(start).Seconds())

	created, err := p.api.CreateScan(ctx, apiclient.CreateScanInput{
		BranchID:          branch.ID,
		LastScannedCommit: headCommit,
		RulePack:          rulePackVersion,
		Timestamp:         time.Now().UTC(),
		ForceBase:         decision == DecisionBase,
	})
	if err != nil {
		return fmt.Errorf("failed to create scan: %w", err)
	}

	result, err := p.api.IngestFindings(ctx, created.ID, toCandidates(findings))
	if err != nil {
		return fmt.Errorf("failed to ingest findings: %w", err)
	}

	log.Info("scan completed",
		"scan_id", created.ID,
		"scan_type", created.ScanType,
		"detected", len(findings),
		"ingested", result.Total,
		"duration", time.Since(start),
	)
	return nil
}
