package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		skip      int
		limit     int
		max       int
		wantSkip  int
		wantLimit int
	}{
		{"valid values pass through", 10, 50, 500, 10, 50},
		{"negative skip clamps to zero", -5, 50, 500, 0, 50},
		{"zero limit falls back to default", 0, 0, 500, 0, DefaultLimit},
		{"negative limit falls back to default", 0, -1, 500, 0, DefaultLimit},
		{"limit clamps to max", 0, 1000, 500, 0, 500},
		{"zero max falls back to default max", 0, 9999, 0, 0, DefaultMaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.skip, tt.limit, tt.max)
			assert.Equal(t, tt.wantSkip, p.Skip)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantSkip, p.Offset())
		})
	}
}

func TestNewResult(t *testing.T) {
	t.Run("carries data and paging", func(t *testing.T) {
		p := New(20, 10, 100)

		result := NewResult([]string{"a", "b"}, 42, p)

		assert.Equal(t, []string{"a", "b"}, result.Data)
		assert.Equal(t, int64(42), result.Total)
		assert.Equal(t, 20, result.Skip)
		assert.Equal(t, 10, result.Limit)
	})

	t.Run("nil data becomes empty slice", func(t *testing.T) {
		result := NewResult[string](nil, 0, New(0, 0, 0))

		assert.NotNil(t, result.Data)
		assert.Empty(t, result.Data)
	})
}
