package app

import (
	"context"
	"fmt"
	"time"

	"github.com/abnamro/repository-scanner/internal/metrics"
	"github.com/abnamro/repository-scanner/pkg/domain/branch"
	"github.com/abnamro/repository-scanner/pkg/domain/finding"
	"github.com/abnamro/repository-scanner/pkg/domain/scan"
	"github.com/abnamro/repository-scanner/pkg/logger"
)

// IngestService writes scanner results into the finding store, deduplicating
// against each repository's existing findings.
type IngestService struct {
	scanRepo    scan.Repository
	branchRepo  branch.Repository
	findingRepo finding.Repository
	logger      *logger.Logger
}

// NewIngestService creates a new IngestService.
func NewIngestService(scanRepo scan.Repository, branchRepo branch.Repository, findingRepo finding.Repository, log *logger.Logger) *IngestService {
	return &IngestService{
		scanRepo:    scanRepo,
		branchRepo:  branchRepo,
		findingRepo: findingRepo,
		logger:      log.With("service", "ingest"),
	}
}

// CandidateFinding represents one raw finding from a scanner run.
type CandidateFinding struct {
	RuleName        string    `validate:"required,max=400"`
	FilePath        string    `validate:"required,max=500"`
	LineNumber      int       `validate:"gte=0"`
	ColumnStart     int       `validate:"gte=0"`
	ColumnEnd       int       `validate:"gte=0"`
	CommitID        string    `validate:"required,max=120"`
	CommitMessage   string    `validate:"max=800"`
	CommitTimestamp time.Time
	Author          string `validate:"max=200"`
	Email           string `validate:"max=100"`
}

// IngestFindings reconciles the candidates of one scan run against the
// owning repository's existing findings. Matched candidates reuse the
// existing row; the rest are inserted. Every returned finding is associated
// with the scan. Re-submitting the same candidate set creates zero new rows.
func (s *IngestService) IngestFindings(ctx context.Context, scanID int64, candidates []CandidateFinding) ([]*finding.Finding, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	sc, err := s.scanRepo.GetByID(ctx, scanID)
	if err != nil {
		return nil, err
	}

	b, err := s.branchRepo.GetByID(ctx, sc.BranchID)
	if err != nil {
		return nil, err
	}

	incoming := make([]*finding.Finding, 0, len(candidates))
	for _, c := range candidates {
		f, err := finding.NewFinding(b.RepositoryID, c.RuleName, c.FilePath, c.LineNumber, c.ColumnStart, c.ColumnEnd, c.CommitID)
		if err != nil {
			return nil, err
		}
		f.CommitMessage = c.CommitMessage
		f.CommitTimestamp = c.CommitTimestamp
		f.Author = c.Author
		f.Email = c.Email
		incoming = append(incoming, f)
	}

	result, err := s.findingRepo.Reconcile(ctx, b.RepositoryID, scanID, incoming)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile findings: %w", err)
	}

	submitted := make(map[*finding.Finding]struct{}, len(incoming))
	for _, c := range incoming {
		submitted[c] = struct{}{}
	}
	created := 0
	for _, f := range result {
		if _, ok := submitted[f]; ok {
			created++
		}
	}
	reused := len(result) - created

	metrics.FindingsIngestedTotal.Add(float64(created))
	metrics.FindingsReusedTotal.Add(float64(reused))
	s.logger.Info("findings ingested",
		"scan_id", scanID,
		"repository_id", b.RepositoryID,
		"candidates", len(candidates),
		"created", created,
		"reused", reused,
	)
	return result, nil
}
