package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abnamro/repository-scanner/pkg/domain/scan"
	"github.com/abnamro/repository-scanner/pkg/logger"
)

func newScanService(scanRepo *mockScanRepo, findingRepo *mockFindingRepo) *ScanService {
	return NewScanService(scanRepo, findingRepo, logger.NewDefault())
}

func TestScanService_CreateScan(t *testing.T) {
	ctx := context.Background()

	t.Run("first scan of a branch is a base scan", func(t *testing.T) {
		svc := newScanService(newMockScanRepo(), newMockFindingRepo())

		created, err := svc.CreateScan(ctx, CreateScanInput{
			BranchID:          1,
			LastScannedCommit: "abc123",
			RulePack:          "1.0.0",
		})

		require.NoError(t, err)
		assert.Equal(t, scan.TypeBase, created.ScanType)
		assert.Equal(t, 0, created.IncrementNumber)
		assert.NotZero(t, created.ID)
	})

	t.Run("subsequent scans continue the incremental sequence", func(t *testing.T) {
		svc := newScanService(newMockScanRepo(), newMockFindingRepo())

		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			_, err := svc.CreateScan(ctx, CreateScanInput{
				BranchID:          1,
				LastScannedCommit: "abc123",
				RulePack:          "1.0.0",
				Timestamp:         base.Add(time.Duration(i) * time.Hour),
			})
			require.NoError(t, err)
		}

		last, err := svc.CreateScan(ctx, CreateScanInput{
			BranchID:          1,
			LastScannedCommit: "def456",
			RulePack:          "1.0.0",
			Timestamp:         base.Add(4 * time.Hour),
		})

		require.NoError(t, err)
		assert.Equal(t, scan.TypeIncremental, last.ScanType)
		assert.Equal(t, 3, last.IncrementNumber)
	})

	t.Run("forceBase resets the chain", func(t *testing.T) {
		repo := newMockScanRepo()
		svc := newScanService(repo, newMockFindingRepo())

		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		_, err := svc.CreateScan(ctx, CreateScanInput{
			BranchID: 1, LastScannedCommit: "abc123", RulePack: "1.0.0", Timestamp: base,
		})
		require.NoError(t, err)

		forced, err := svc.CreateScan(ctx, CreateScanInput{
			BranchID:          1,
			LastScannedCommit: "def456",
			RulePack:          "1.0.0",
			Timestamp:         base.Add(time.Hour),
			ForceBase:         true,
		})

		require.NoError(t, err)
		assert.Equal(t, scan.TypeBase, forced.ScanType)
		assert.Equal(t, 0, forced.IncrementNumber)
	})

	t.Run("invalid input rejected", func(t *testing.T) {
		svc := newScanService(newMockScanRepo(), newMockFindingRepo())

		_, err := svc.CreateScan(ctx, CreateScanInput{
			BranchID:          0,
			LastScannedCommit: "abc123",
			RulePack:          "1.0.0",
		})

		assert.Error(t, err)
	})

	t.Run("repository error surfaces", func(t *testing.T) {
		repo := newMockScanRepo()
		repo.createErr = errors.New("boom")
		svc := newScanService(repo, newMockFindingRepo())

		_, err := svc.CreateScan(ctx, CreateScanInput{
			BranchID: 1, LastScannedCommit: "abc123", RulePack: "1.0.0",
		})

		assert.Error(t, err)
	})
}

func TestScanService_ResolveChain(t *testing.T) {
	ctx := context.Background()

	t.Run("complete chain stops at base scan", func(t *testing.T) {
		repo := newMockScanRepo()
		repo.chainLinks = []scan.ChainLink{
			{ID: 3, ScanType: scan.TypeIncremental},
			{ID: 2, ScanType: scan.TypeIncremental},
			{ID: 1, ScanType: scan.TypeBase},
		}
		svc := newScanService(repo, newMockFindingRepo())

		chain, err := svc.ResolveChain(ctx, 1, time.Now())

		require.NoError(t, err)
		assert.Equal(t, []int64{3, 2, 1}, chain.ScanIDs)
		assert.True(t, chain.Complete)
	})

	t.Run("history without base scan flagged incomplete", func(t *testing.T) {
		repo := newMockScanRepo()
		repo.chainLinks = []scan.ChainLink{
			{ID: 2, ScanType: scan.TypeIncremental},
			{ID: 1, ScanType: scan.TypeIncremental},
		}
		svc := newScanService(repo, newMockFindingRepo())

		chain, err := svc.ResolveChain(ctx, 1, time.Now())

		require.NoError(t, err)
		assert.Equal(t, []int64{2, 1}, chain.ScanIDs)
		assert.False(t, chain.Complete)
	})

	t.Run("store error surfaces wrapped", func(t *testing.T) {
		repo := newMockScanRepo()
		repo.chainErr = errors.New("query failed")
		svc := newScanService(repo, newMockFindingRepo())

		_, err := svc.ResolveChain(ctx, 1, time.Now())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to resolve scan chain")
	})
}

func TestScanService_UpdateScan(t *testing.T) {
	ctx := context.Background()
	repo := newMockScanRepo()
	svc := newScanService(repo, newMockFindingRepo())

	created, err := svc.CreateScan(ctx, CreateScanInput{
		BranchID: 1, LastScannedCommit: "abc123", RulePack: "1.0.0",
	})
	require.NoError(t, err)

	t.Run("applies correction", func(t *testing.T) {
		updated, err := svc.UpdateScan(ctx, created.ID, UpdateScanInput{
			ScanType:          "INCREMENTAL",
			LastScannedCommit: "def456",
			RulePack:          "1.1.0",
			IncrementNumber:   2,
		})

		require.NoError(t, err)
		assert.Equal(t, scan.TypeIncremental, updated.ScanType)
		assert.Equal(t, "def456", updated.LastScannedCommit)
		assert.Equal(t, 2, updated.IncrementNumber)
	})

	t.Run("unknown scan", func(t *testing.T) {
		_, err := svc.UpdateScan(ctx, 999, UpdateScanInput{
			ScanType: "BASE", LastScannedCommit: "abc", RulePack: "1.0.0",
		})

		assert.Error(t, err)
	})

	t.Run("invalid scan type", func(t *testing.T) {
		_, err := svc.UpdateScan(ctx, created.ID, UpdateScanInput{
			ScanType: "FULL", LastScannedCommit: "abc", RulePack: "1.0.0",
		})

		assert.ErrorIs(t, err, scan.ErrInvalidType)
	})
}

func TestScanService_LatestForBranch(t *testing.T) {
	ctx := context.Background()
	repo := newMockScanRepo()
	svc := newScanService(repo, newMockFindingRepo())

	t.Run("unscanned branch", func(t *testing.T) {
		_, err := svc.LatestForBranch(ctx, 42)
		assert.Error(t, err)
	})

	t.Run("returns most recent by timestamp", func(t *testing.T) {
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		_, err := svc.CreateScan(ctx, CreateScanInput{
			BranchID: 1, LastScannedCommit: "old", RulePack: "1.0.0", Timestamp: base,
		})
		require.NoError(t, err)
		_, err = svc.CreateScan(ctx, CreateScanInput{
			BranchID: 1, LastScannedCommit: "new", RulePack: "1.0.0", Timestamp: base.Add(time.Hour),
		})
		require.NoError(t, err)

		latest, err := svc.LatestForBranch(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, "new", latest.LastScannedCommit)
	})
}
