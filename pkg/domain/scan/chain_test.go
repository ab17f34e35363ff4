package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildChain(t *testing.T) {
	t.Run("stops at first base scan inclusive", func(t *testing.T) {
		links := []ChainLink{
			{ID: 5, ScanType: TypeIncremental},
			{ID: 4, ScanType: TypeIncremental},
			{ID: 3, ScanType: TypeBase},
			{ID: 2, ScanType: TypeIncremental},
			{ID: 1, ScanType: TypeBase},
		}

		chain := BuildChain(links)

		assert.Equal(t, []int64{5, 4, 3}, chain.ScanIDs)
		assert.True(t, chain.Complete)
		assert.Equal(t, 3, chain.Len())
	})

	t.Run("base scan at head yields single-element chain", func(t *testing.T) {
		links := []ChainLink{
			{ID: 7, ScanType: TypeBase},
			{ID: 6, ScanType: TypeIncremental},
		}

		chain := BuildChain(links)

		assert.Equal(t, []int64{7}, chain.ScanIDs)
		assert.True(t, chain.Complete)
	})

	t.Run("no base scan returns full history marked incomplete", func(t *testing.T) {
		links := []ChainLink{
			{ID: 3, ScanType: TypeIncremental},
			{ID: 2, ScanType: TypeIncremental},
			{ID: 1, ScanType: TypeIncremental},
		}

		chain := BuildChain(links)

		assert.Equal(t, []int64{3, 2, 1}, chain.ScanIDs)
		assert.False(t, chain.Complete)
	})

	t.Run("empty history yields empty complete chain", func(t *testing.T) {
		chain := BuildChain(nil)

		assert.Empty(t, chain.ScanIDs)
		assert.True(t, chain.Complete)
		assert.Equal(t, 0, chain.Len())
	})
}

func TestPlanNext(t *testing.T) {
	previous := &Scan{
		ID:                10,
		BranchID:          1,
		ScanType:          TypeIncremental,
		LastScannedCommit: "abc123",
		Timestamp:         time.Now().UTC(),
		IncrementNumber:   4,
		RulePack:          "1.0.0",
	}

	tests := []struct {
		name          string
		previous      *Scan
		forceBase     bool
		wantType      Type
		wantIncrement int
	}{
		{"no previous scan starts a base", nil, false, TypeBase, 0},
		{"no previous scan ignores forceBase", nil, true, TypeBase, 0},
		{"forceBase resets the chain", previous, true, TypeBase, 0},
		{"previous scan continues incrementally", previous, false, TypeIncremental, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanNext(tt.previous, tt.forceBase)

			assert.Equal(t, tt.wantType, plan.ScanType)
			assert.Equal(t, tt.wantIncrement, plan.IncrementNumber)
		})
	}
}

func TestNewScan(t *testing.T) {
	t.Run("valid scan", func(t *testing.T) {
		ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		s, err := NewScan(1, TypeBase, "abc123", "1.0.0", ts)

		require.NoError(t, err)
		assert.Equal(t, int64(1), s.BranchID)
		assert.Equal(t, TypeBase, s.ScanType)
		assert.Equal(t, ts, s.Timestamp)
		assert.True(t, s.IsBase())
	})

	t.Run("zero timestamp defaults to now", func(t *testing.T) {
		s, err := NewScan(1, TypeIncremental, "abc123", "1.0.0", time.Time{})

		require.NoError(t, err)
		assert.False(t, s.Timestamp.IsZero())
		assert.False(t, s.IsBase())
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name     string
			branchID int64
			scanType Type
			commit   string
			rulePack string
		}{
			{"missing branch id", 0, TypeBase, "abc123", "1.0.0"},
			{"invalid scan type", 1, Type("FULL"), "abc123", "1.0.0"},
			{"missing commit", 1, TypeBase, "", "1.0.0"},
			{"missing rule pack", 1, TypeBase, "abc123", ""},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewScan(tt.branchID, tt.scanType, tt.commit, tt.rulePack, time.Time{})
				assert.Error(t, err)
			})
		}
	})
}

func TestParseType(t *testing.T) {
	for _, typ := range AllTypes() {
		parsed, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}

	_, err := ParseType("FULL")
	assert.ErrorIs(t, err, ErrInvalidType)
}
