package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abnamro/repository-scanner/internal/infra/apiclient"
)

func TestDetermineScanType(t *testing.T) {
	previous := &apiclient.Scan{
		ID:                10,
		ScanType:          "INCREMENTAL",
		LastScannedCommit: "aaa111",
		RulePack:          "1.0.0",
	}

	tests := []struct {
		name           string
		previous       *apiclient.Scan
		latestCommit   string
		activeRulePack string
		forceBase      bool
		want           Decision
	}{
		{"force base overrides everything", previous, "aaa111", "1.0.0", true, DecisionBase},
		{"never scanned branch", nil, "aaa111", "1.0.0", false, DecisionBase},
		{"rule pack changed", previous, "aaa111", "2.0.0", false, DecisionBase},
		{"empty active rule pack does not force base", previous, "aaa111", "", false, DecisionSkip},
		{"commit advanced", previous, "bbb222", "1.0.0", false, DecisionIncremental},
		{"unchanged branch", previous, "aaa111", "1.0.0", false, DecisionSkip},
		{"rule pack change wins over commit advance", previous, "bbb222", "2.0.0", false, DecisionBase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetermineScanType(tt.previous, tt.latestCommit, tt.activeRulePack, tt.forceBase)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "BASE", DecisionBase.String())
	assert.Equal(t, "INCREMENTAL", DecisionIncremental.String())
	assert.Equal(t, "SKIP", DecisionSkip.String())
}
