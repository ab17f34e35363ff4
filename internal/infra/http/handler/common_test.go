package handler

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abnamro/repository-scanner/pkg/domain/shared"
	"github.com/abnamro/repository-scanner/pkg/logger"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantSkip  int
		wantLimit int
	}{
		{"defaults", "", 0, 100},
		{"explicit values", "skip=20&limit=50", 20, 50},
		{"limit clamped to max", "limit=9999", 0, 500},
		{"garbage ignored", "skip=abc&limit=xyz", 0, 100},
		{"negative skip clamped", "skip=-5", 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/findings?"+tt.query, nil)

			page := parsePage(r, 500)

			assert.Equal(t, tt.wantSkip, page.Skip)
			assert.Equal(t, tt.wantLimit, page.Limit)
		})
	}
}

func TestParseQueryIDs(t *testing.T) {
	assert.Equal(t, []int64{1, 2, 3}, parseQueryIDs("1,2,3"))
	assert.Equal(t, []int64{1, 3}, parseQueryIDs("1, bogus ,3"))
	assert.Equal(t, []int64{5}, parseQueryIDs("5,-2,0"))
	assert.Nil(t, parseQueryIDs(""))
}

func TestParseQueryArray(t *testing.T) {
	assert.Equal(t, []string{"aws-key", "gcp-key"}, parseQueryArray("aws-key,gcp-key"))
	assert.Nil(t, parseQueryArray(""))
}

func TestParseQueryBool(t *testing.T) {
	assert.True(t, parseQueryBool("true"))
	assert.True(t, parseQueryBool("1"))
	assert.False(t, parseQueryBool("yes"))
	assert.False(t, parseQueryBool(""))
}

func TestParseQueryTime(t *testing.T) {
	parsed := parseQueryTime("2025-06-01T12:00:00Z")
	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), parsed.UTC())

	assert.Nil(t, parseQueryTime(""))
	assert.Nil(t, parseQueryTime("yesterday"))
}

func TestHandleServiceError(t *testing.T) {
	log := logger.NewDefault()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", shared.ErrNotFound, 404},
		{"already exists", shared.ErrAlreadyExists, 409},
		{"conflict", shared.ErrConflict, 409},
		{"validation", shared.ErrValidation, 422},
		{"unknown", assert.AnError, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			handleServiceError(w, log, "scan", tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestPathID(t *testing.T) {
	// pathID reads chi route params; without a route context every value
	// parses as empty and fails.
	r := httptest.NewRequest("GET", "/scans/abc", nil)

	_, ok := pathID(r, "id")

	assert.False(t, ok)
}
