// Package audit defines the append-only triage log attached to findings. The
// audit row with the highest id is authoritative for a finding's status.
package audit

import (
	"time"

	"github.com/abnamro/repository-scanner/pkg/domain/finding"
	"github.com/abnamro/repository-scanner/pkg/domain/shared"
)

// MaxCommentLength bounds audit comments, matching the column width.
const MaxCommentLength = 255

// Audit represents one triage decision on a finding.
type Audit struct {
	ID        int64
	FindingID int64
	Status    finding.Status
	Auditor   string
	Comment   string
	Timestamp time.Time
}

// NewAudit creates a new audit record.
func NewAudit(findingID int64, status finding.Status, auditor, comment string) (*Audit, error) {
	if findingID <= 0 {
		return nil, shared.NewDomainError("VALIDATION", "finding_id is required", shared.ErrValidation)
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", "invalid status", shared.ErrValidation)
	}
	if auditor == "" {
		return nil, shared.NewDomainError("VALIDATION", "auditor is required", shared.ErrValidation)
	}
	if len(comment) > MaxCommentLength {
		return nil, shared.NewDomainError("VALIDATION", "comment exceeds 255 characters", shared.ErrValidation)
	}

	return &Audit{
		FindingID: findingID,
		Status:    status,
		Auditor:   auditor,
		Comment:   comment,
		Timestamp: time.Now().UTC(),
	}, nil
}
