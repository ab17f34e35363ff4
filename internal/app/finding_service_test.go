package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abnamro/repository-scanner/pkg/domain/finding"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

func newFindingFixture(t *testing.T) (*FindingService, *mockFindingRepo, *mockAuditRepo, *finding.Finding) {
	t.Helper()
	findingRepo := newMockFindingRepo()
	auditRepo := newMockAuditRepo()

	f, err := finding.NewFinding(10, "aws-key", "config.py", 10, 0, 20, "abc")
	require.NoError(t, err)
	findingRepo.add(f)

	svc := NewFindingService(findingRepo, auditRepo, logger.NewDefault())
	return svc, findingRepo, auditRepo, f
}

func TestFindingService_AuditFinding(t *testing.T) {
	ctx := context.Background()

	t.Run("records triage decision", func(t *testing.T) {
		svc, _, auditRepo, f := newFindingFixture(t)

		a, err := svc.AuditFinding(ctx, f.ID, AuditFindingInput{
			Status:  "TRUE_POSITIVE",
			Auditor: "alice",
			Comment: "confirmed live key",
		})

		require.NoError(t, err)
		assert.NotZero(t, a.ID)
		assert.Equal(t, finding.StatusTruePositive, a.Status)
		assert.Equal(t, "alice", a.Auditor)
		assert.Len(t, auditRepo.audits, 1)
	})

	t.Run("unknown finding", func(t *testing.T) {
		svc, _, _, _ := newFindingFixture(t)

		_, err := svc.AuditFinding(ctx, 999, AuditFindingInput{
			Status: "TRUE_POSITIVE", Auditor: "alice",
		})

		assert.Error(t, err)
	})

	t.Run("invalid status", func(t *testing.T) {
		svc, _, _, f := newFindingFixture(t)

		_, err := svc.AuditFinding(ctx, f.ID, AuditFindingInput{
			Status: "MAYBE", Auditor: "alice",
		})

		assert.ErrorIs(t, err, finding.ErrInvalidStatus)
	})

	t.Run("audit store error surfaces", func(t *testing.T) {
		svc, _, auditRepo, f := newFindingFixture(t)
		auditRepo.createErr = errors.New("boom")

		_, err := svc.AuditFinding(ctx, f.ID, AuditFindingInput{
			Status: "FALSE_POSITIVE", Auditor: "alice",
		})

		assert.Error(t, err)
	})
}

func TestFindingService_AuditFindings(t *testing.T) {
	ctx := context.Background()
	svc, findingRepo, auditRepo, f1 := newFindingFixture(t)

	f2, err := finding.NewFinding(10, "gcp-key", "settings.py", 5, 0, 15, "abc")
	require.NoError(t, err)
	findingRepo.add(f2)

	audits, err := svc.AuditFindings(ctx, []int64{f1.ID, f2.ID}, AuditFindingInput{
		Status:  "FALSE_POSITIVE",
		Auditor: "bob",
		Comment: "test fixture data",
	})

	require.NoError(t, err)
	assert.Len(t, audits, 2)
	assert.Len(t, auditRepo.audits, 2)
	for _, a := range audits {
		assert.Equal(t, finding.StatusFalsePositive, a.Status)
		assert.Equal(t, "bob", a.Auditor)
	}
}

func TestFindingService_PatchFinding(t *testing.T) {
	ctx := context.Background()

	t.Run("patches comment", func(t *testing.T) {
		svc, _, _, f := newFindingFixture(t)
		comment := "rotated on 2025-06-01"

		patched, err := svc.PatchFinding(ctx, f.ID, PatchFindingInput{Comment: &comment})

		require.NoError(t, err)
		assert.Equal(t, comment, patched.Comment)
	})

	t.Run("patches event sent timestamp", func(t *testing.T) {
		svc, _, _, f := newFindingFixture(t)
		sentOn := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		patched, err := svc.PatchFinding(ctx, f.ID, PatchFindingInput{EventSentOn: &sentOn})

		require.NoError(t, err)
		require.NotNil(t, patched.EventSentOn)
		assert.Equal(t, sentOn, *patched.EventSentOn)
	})

	t.Run("empty patch returns unchanged finding", func(t *testing.T) {
		svc, _, _, f := newFindingFixture(t)

		patched, err := svc.PatchFinding(ctx, f.ID, PatchFindingInput{})

		require.NoError(t, err)
		assert.Equal(t, f.ID, patched.ID)
		assert.Empty(t, patched.Comment)
	})

	t.Run("unknown finding", func(t *testing.T) {
		svc, _, _, _ := newFindingFixture(t)
		comment := "x"

		_, err := svc.PatchFinding(ctx, 999, PatchFindingInput{Comment: &comment})

		assert.Error(t, err)
	})
}

func TestFindingService_CurrentStatus(t *testing.T) {
	ctx := context.Background()
	svc, findingRepo, _, f := newFindingFixture(t)

	t.Run("unaudited finding is NOT_ANALYZED", func(t *testing.T) {
		status, err := svc.CurrentStatus(ctx, f.ID)

		require.NoError(t, err)
		assert.Equal(t, finding.StatusNotAnalyzed, status)
	})

	t.Run("latest audit is authoritative", func(t *testing.T) {
		findingRepo.statuses[f.ID] = finding.StatusTruePositive

		status, err := svc.CurrentStatus(ctx, f.ID)

		require.NoError(t, err)
		assert.Equal(t, finding.StatusTruePositive, status)
	})
}

func TestFindingService_ListAudits(t *testing.T) {
	ctx := context.Background()
	svc, _, _, f := newFindingFixture(t)

	_, err := svc.AuditFinding(ctx, f.ID, AuditFindingInput{Status: "UNDER_REVIEW", Auditor: "alice"})
	require.NoError(t, err)
	_, err = svc.AuditFinding(ctx, f.ID, AuditFindingInput{Status: "TRUE_POSITIVE", Auditor: "bob"})
	require.NoError(t, err)

	t.Run("newest first", func(t *testing.T) {
		result, err := svc.ListAudits(ctx, f.ID, pagination.New(0, 10, 100))

		require.NoError(t, err)
		require.Len(t, result.Data, 2)
		assert.Equal(t, finding.StatusTruePositive, result.Data[0].Status)
		assert.Equal(t, finding.StatusUnderReview, result.Data[1].Status)
	})

	t.Run("unknown finding", func(t *testing.T) {
		_, err := svc.ListAudits(ctx, 999, pagination.New(0, 10, 100))
		assert.Error(t, err)
	})
}

func TestFindingService_SupportedStatuses(t *testing.T) {
	svc, _, _, _ := newFindingFixture(t)

	statuses := svc.SupportedStatuses()

	assert.Len(t, statuses, 5)
	assert.Contains(t, statuses, finding.StatusNotAnalyzed)
	assert.Contains(t, statuses, finding.StatusTruePositive)
}
