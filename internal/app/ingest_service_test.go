package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abnamro/repository-scanner/pkg/domain/branch"
	"github.com/abnamro/repository-scanner/pkg/domain/scan"
	"github.com/abnamro/repository-scanner/pkg/logger"
)

type ingestFixture struct {
	svc         *IngestService
	scanRepo    *mockScanRepo
	branchRepo  *mockBranchRepo
	findingRepo *mockFindingRepo
	scanID      int64
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	scanRepo := newMockScanRepo()
	branchRepo := newMockBranchRepo()
	findingRepo := newMockFindingRepo()

	b := branchRepo.add(&branch.Branch{
		RepositoryID: 10,
		BranchID:     "refs/heads/main",
		BranchName:   "main",
		LatestCommit: "abc123",
	})

	s, err := scan.NewScan(b.ID, scan.TypeBase, "abc123", "1.0.0", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, scanRepo.Create(context.Background(), s, true))

	return &ingestFixture{
		svc:         NewIngestService(scanRepo, branchRepo, findingRepo, logger.NewDefault()),
		scanRepo:    scanRepo,
		branchRepo:  branchRepo,
		findingRepo: findingRepo,
		scanID:      s.ID,
	}
}

func candidate(rule, file string, line int, commit string) CandidateFinding {
	return CandidateFinding{
		RuleName:    rule,
		FilePath:    file,
		LineNumber:  line,
		ColumnStart: 0,
		ColumnEnd:   10,
		CommitID:    commit,
		Author:      "dev",
		Email:       "dev@example.com",
	}
}

func TestIngestService_IngestFindings(t *testing.T) {
	ctx := context.Background()

	t.Run("empty candidates is a no-op", func(t *testing.T) {
		fix := newIngestFixture(t)

		result, err := fix.svc.IngestFindings(ctx, fix.scanID, nil)

		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("fresh candidates are inserted and associated", func(t *testing.T) {
		fix := newIngestFixture(t)

		result, err := fix.svc.IngestFindings(ctx, fix.scanID, []CandidateFinding{
			candidate("aws-key", "config.py", 10, "abc"),
			candidate("gcp-key", "settings.py", 5, "abc"),
		})

		require.NoError(t, err)
		require.Len(t, result, 2)
		for _, f := range result {
			assert.NotZero(t, f.ID)
			assert.Equal(t, int64(10), f.RepositoryID)
		}
		assert.Len(t, fix.findingRepo.scanFindings[fix.scanID], 2)
	})

	t.Run("resubmission reuses existing rows", func(t *testing.T) {
		fix := newIngestFixture(t)
		candidates := []CandidateFinding{
			candidate("aws-key", "config.py", 10, "abc"),
			candidate("gcp-key", "settings.py", 5, "abc"),
		}

		first, err := fix.svc.IngestFindings(ctx, fix.scanID, candidates)
		require.NoError(t, err)
		second, err := fix.svc.IngestFindings(ctx, fix.scanID, candidates)
		require.NoError(t, err)

		assert.Len(t, fix.findingRepo.findings, 2)
		firstIDs := map[int64]struct{}{}
		for _, f := range first {
			firstIDs[f.ID] = struct{}{}
		}
		for _, f := range second {
			assert.Contains(t, firstIDs, f.ID)
		}
	})

	t.Run("incremental scan reuses overlap and adds new", func(t *testing.T) {
		fix := newIngestFixture(t)

		_, err := fix.svc.IngestFindings(ctx, fix.scanID, []CandidateFinding{
			candidate("aws-key", "config.py", 10, "abc"),
		})
		require.NoError(t, err)

		next, err := scan.NewScan(1, scan.TypeIncremental, "def456", "1.0.0", time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, fix.scanRepo.Create(ctx, next, false))

		result, err := fix.svc.IngestFindings(ctx, next.ID, []CandidateFinding{
			candidate("aws-key", "config.py", 10, "abc"),
			candidate("slack-token", "notify.py", 3, "def"),
		})

		require.NoError(t, err)
		assert.Len(t, result, 2)
		assert.Len(t, fix.findingRepo.findings, 2)
		assert.Len(t, fix.findingRepo.scanFindings[next.ID], 2)
	})

	t.Run("unknown scan", func(t *testing.T) {
		fix := newIngestFixture(t)

		_, err := fix.svc.IngestFindings(ctx, 999, []CandidateFinding{
			candidate("aws-key", "config.py", 10, "abc"),
		})

		assert.Error(t, err)
	})

	t.Run("invalid candidate rejected", func(t *testing.T) {
		fix := newIngestFixture(t)

		_, err := fix.svc.IngestFindings(ctx, fix.scanID, []CandidateFinding{
			candidate("", "config.py", 10, "abc"),
		})

		assert.Error(t, err)
	})
}
