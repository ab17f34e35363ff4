// Package scan defines scan records and the chain semantics that bound a
// branch's live findings to its most recent full scan.
package scan

import (
	"time"

	"github.com/abnamro/repository-scanner/pkg/domain/shared"
)

// Scan represents one scan run of a branch. Scans are immutable after
// creation except for administrative correction.
//
// Within a branch, ids increase with insertion order, but Timestamp is the
// authoritative ordering key for "most recent".
type Scan struct {
	ID                int64
	BranchID          int64
	ScanType          Type
	LastScannedCommit string
	Timestamp         time.Time
	IncrementNumber   int
	RulePack          string
}

// NewScan creates a new scan record. IncrementNumber is assigned by the
// orchestrator at creation time, not by the caller.
func NewScan(branchID int64, scanType Type, lastScannedCommit, rulePack string, timestamp time.Time) (*Scan, error) {
	if branchID <= 0 {
		return nil, shared.NewDomainError("VALIDATION", "branch_id is required", shared.ErrValidation)
	}
	if !scanType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", "invalid scan_type", shared.ErrValidation)
	}
	if lastScannedCommit == "" {
		return nil, shared.NewDomainError("VALIDATION", "last_scanned_commit is required", shared.ErrValidation)
	}
	if rulePack == "" {
		return nil, shared.NewDomainError("VALIDATION", "rule_pack is required", shared.ErrValidation)
	}
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	return &Scan{
		BranchID:          branchID,
		ScanType:          scanType,
		LastScannedCommit: lastScannedCommit,
		Timestamp:         timestamp,
		RulePack:          rulePack,
	}, nil
}

// IsBase reports whether this scan establishes a baseline.
func (s *Scan) IsBase() bool {
	return s.ScanType == TypeBase
}
