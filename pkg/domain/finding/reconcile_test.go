package finding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeFinding(t *testing.T, rule, file string, line int, commit string) *Finding {
	t.Helper()
	f, err := NewFinding(1, rule, file, line, 0, 10, commit)
	require.NoError(t, err)
	return f
}

func TestReconcile(t *testing.T) {
	t.Run("all candidates fresh against empty pool", func(t *testing.T) {
		candidates := []*Finding{
			makeFinding(t, "aws-key", "config.py", 10, "abc"),
			makeFinding(t, "gcp-key", "config.py", 20, "abc"),
		}

		result := Reconcile(nil, candidates)

		assert.Len(t, result.Fresh, 2)
		assert.Empty(t, result.Reused)
	})

	t.Run("matching candidate reuses existing row", func(t *testing.T) {
		existing := makeFinding(t, "aws-key", "config.py", 10, "abc")
		existing.ID = 42
		candidate := makeFinding(t, "aws-key", "config.py", 10, "abc")

		result := Reconcile([]*Finding{existing}, []*Finding{candidate})

		require.Len(t, result.Reused, 1)
		assert.Equal(t, int64(42), result.Reused[0].ID)
		assert.Empty(t, result.Fresh)
	})

	t.Run("mixed reused and fresh", func(t *testing.T) {
		existing := []*Finding{
			makeFinding(t, "aws-key", "config.py", 10, "abc"),
			makeFinding(t, "gcp-key", "settings.py", 5, "abc"),
		}
		existing[0].ID = 1
		existing[1].ID = 2
		candidates := []*Finding{
			makeFinding(t, "aws-key", "config.py", 10, "abc"),
			makeFinding(t, "slack-token", "notify.py", 3, "def"),
		}

		result := Reconcile(existing, candidates)

		require.Len(t, result.Reused, 1)
		assert.Equal(t, int64(1), result.Reused[0].ID)
		require.Len(t, result.Fresh, 1)
		assert.Equal(t, "slack-token", result.Fresh[0].RuleName)
	})

	t.Run("duplicate candidates merge into first occurrence", func(t *testing.T) {
		candidates := []*Finding{
			makeFinding(t, "aws-key", "config.py", 10, "abc"),
			makeFinding(t, "aws-key", "config.py", 10, "abc"),
			makeFinding(t, "aws-key", "config.py", 10, "abc"),
		}

		result := Reconcile(nil, candidates)

		assert.Len(t, result.Fresh, 1)
		assert.Empty(t, result.Reused)
	})

	t.Run("duplicate candidates consume one existing row once", func(t *testing.T) {
		existing := makeFinding(t, "aws-key", "config.py", 10, "abc")
		existing.ID = 7
		candidates := []*Finding{
			makeFinding(t, "aws-key", "config.py", 10, "abc"),
			makeFinding(t, "aws-key", "config.py", 10, "abc"),
		}

		result := Reconcile([]*Finding{existing}, candidates)

		assert.Len(t, result.Reused, 1)
		assert.Empty(t, result.Fresh)
	})

	t.Run("differing position fields are distinct identities", func(t *testing.T) {
		existing := makeFinding(t, "aws-key", "config.py", 10, "abc")
		moved := makeFinding(t, "aws-key", "config.py", 11, "abc")

		result := Reconcile([]*Finding{existing}, []*Finding{moved})

		assert.Empty(t, result.Reused)
		assert.Len(t, result.Fresh, 1)
	})

	t.Run("empty candidates yield empty result", func(t *testing.T) {
		existing := []*Finding{makeFinding(t, "aws-key", "config.py", 10, "abc")}

		result := Reconcile(existing, nil)

		assert.Empty(t, result.Reused)
		assert.Empty(t, result.Fresh)
	})
}

func TestIdentity(t *testing.T) {
	f := makeFinding(t, "aws-key", "config.py", 10, "abc")
	f.ColumnStart = 4
	f.ColumnEnd = 24

	id := f.Identity()

	assert.Equal(t, Identity{
		CommitID:    "abc",
		RuleName:    "aws-key",
		FilePath:    "config.py",
		LineNumber:  10,
		ColumnStart: 4,
		ColumnEnd:   24,
	}, id)
}

func TestNewFinding_Validation(t *testing.T) {
	tests := []struct {
		name   string
		repoID int64
		rule   string
		file   string
		line   int
		commit string
	}{
		{"missing repository id", 0, "aws-key", "config.py", 1, "abc"},
		{"missing rule name", 1, "", "config.py", 1, "abc"},
		{"missing file path", 1, "aws-key", "", 1, "abc"},
		{"negative line number", 1, "aws-key", "config.py", -1, "abc"},
		{"missing commit id", 1, "aws-key", "config.py", 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFinding(tt.repoID, tt.rule, tt.file, tt.line, 0, 0, tt.commit)
			assert.Error(t, err)
		})
	}
}

func TestStatusAggregate_Add(t *testing.T) {
	var agg StatusAggregate

	agg.Add(StatusTruePositive, 3)
	agg.Add(StatusFalsePositive, 2)
	agg.Add(StatusNotAnalyzed, 5)
	agg.Add(StatusUnderReview, 1)
	agg.Add(StatusClarificationRequired, 1)

	assert.Equal(t, 3, agg.TruePositive)
	assert.Equal(t, 2, agg.FalsePositive)
	assert.Equal(t, 5, agg.NotAnalyzed)
	assert.Equal(t, 1, agg.UnderReview)
	assert.Equal(t, 1, agg.ClarificationRequired)
	assert.Equal(t, 12, agg.Total)
}

func TestStatusAggregate_AddUnknownStatus(t *testing.T) {
	var agg StatusAggregate

	agg.Add(Status("WEIRD"), 2)

	assert.Equal(t, 2, agg.NotAnalyzed)
	assert.Equal(t, 2, agg.Total)
}

func TestParseStatus(t *testing.T) {
	for _, status := range AllStatuses() {
		parsed, err := ParseStatus(status.String())
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}

	_, err := ParseStatus("MAYBE")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
