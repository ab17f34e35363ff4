package scanner

import (
	"github.com/abnamro/repository-scanner/internal/infra/apiclient"
)

// Decision is the outcome of deciding whether and how to scan a branch.
type Decision int

const (
	// DecisionSkip means the branch has nothing new to scan.
	DecisionSkip Decision = iota
	// DecisionBase means the full history must be scanned.
	DecisionBase
	// DecisionIncremental means only commits after the previous scan
	// need scanning.
	DecisionIncremental
)

func (d Decision) String() string {
	switch d {
	case DecisionBase:
		return "BASE"
	case DecisionIncremental:
		return "INCREMENTAL"
	default:
		return "SKIP"
	}
}

// DetermineScanType decides how to scan a branch. A forced base, a branch
// that was never scanned, or a rule pack change all require a BASE scan: the
// finding set must be rebuilt from full history. If only the latest commit
// advanced, an INCREMENTAL scan suffices. An unchanged branch is skipped.
func DetermineScanType(previous *apiclient.Scan, latestCommit, activeRulePack string, forceBase bool) Decision {
	if forceBase || previous == nil {
		return DecisionBase
	}

	if activeRulePack != "" && previous.RulePack != activeRulePack {
		return DecisionBase
	}

	if previous.LastScannedCommit != latestCommit {
		return DecisionIncremental
	}

	return DecisionSkip
}
