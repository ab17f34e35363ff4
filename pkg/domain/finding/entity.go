// Package finding defines detected secrets and the dedup semantics that keep
// a finding unique per repository across scans.
package finding

import (
	"time"

	"github.com/abnamro/repository-scanner/pkg/domain/shared"
)

// Finding represents a secret detected in a repository. A finding is
// immutable after creation except for Comment and EventSentOn patches, and is
// associated with every scan that re-detects it.
type Finding struct {
	ID              int64
	RepositoryID    int64
	RuleName        string
	FilePath        string
	LineNumber      int
	ColumnStart     int
	ColumnEnd       int
	CommitID        string
	CommitMessage   string
	CommitTimestamp time.Time
	Author          string
	Email           string
	Comment         string
	EventSentOn     *time.Time
}

// Identity is the composite dedup key of a finding within a repository.
// Re-detection of the same secret at the same location never creates a
// second row.
type Identity struct {
	CommitID    string
	RuleName    string
	FilePath    string
	LineNumber  int
	ColumnStart int
	ColumnEnd   int
}

// NewFinding creates a new finding record.
func NewFinding(repositoryID int64, ruleName, filePath string, lineNumber, columnStart, columnEnd int, commitID string) (*Finding, error) {
	if repositoryID <= 0 {
		return nil, shared.NewDomainError("VALIDATION", "repository_id is required", shared.ErrValidation)
	}
	if ruleName == "" {
		return nil, shared.NewDomainError("VALIDATION", "rule_name is required", shared.ErrValidation)
	}
	if filePath == "" {
		return nil, shared.NewDomainError("VALIDATION", "file_path is required", shared.ErrValidation)
	}
	if lineNumber < 0 || columnStart < 0 || columnEnd < 0 {
		return nil, shared.NewDomainError("VALIDATION", "position fields must not be negative", shared.ErrValidation)
	}
	if commitID == "" {
		return nil, shared.NewDomainError("VALIDATION", "commit_id is required", shared.ErrValidation)
	}

	return &Finding{
		RepositoryID: repositoryID,
		RuleName:     ruleName,
		FilePath:     filePath,
		LineNumber:   lineNumber,
		ColumnStart:  columnStart,
		ColumnEnd:    columnEnd,
		CommitID:     commitID,
	}, nil
}

// Identity returns the finding's composite dedup key.
func (f *Finding) Identity() Identity {
	return Identity{
		CommitID:    f.CommitID,
		RuleName:    f.RuleName,
		FilePath:    f.FilePath,
		LineNumber:  f.LineNumber,
		ColumnStart: f.ColumnStart,
		ColumnEnd:   f.ColumnEnd,
	}
}

// MarkEventSent records that a downstream notification was dispatched.
func (f *Finding) MarkEventSent(at time.Time) {
	f.EventSentOn = &at
}
