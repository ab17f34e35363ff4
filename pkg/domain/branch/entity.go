// Package branch defines git branches tracked per repository. Branch identity
// is the VCS-native branch id, not the display name.
package branch

import (
	"github.com/abnamro/repository-scanner/pkg/domain/shared"
)

// Branch represents a tracked branch of a repository.
type Branch struct {
	ID           int64
	RepositoryID int64
	BranchID     string // VCS-native identifier
	BranchName   string
	LatestCommit string
}

// NewBranch creates a new branch record.
func NewBranch(repositoryID int64, branchID, branchName, latestCommit string) (*Branch, error) {
	if repositoryID <= 0 {
		return nil, shared.NewDomainError("VALIDATION", "repository_id is required", shared.ErrValidation)
	}
	if branchID == "" {
		return nil, shared.NewDomainError("VALIDATION", "branch_id is required", shared.ErrValidation)
	}
	if branchName == "" {
		return nil, shared.NewDomainError("VALIDATION", "branch_name is required", shared.ErrValidation)
	}
	if latestCommit == "" {
		return nil, shared.NewDomainError("VALIDATION", "latest_commit is required", shared.ErrValidation)
	}

	return &Branch{
		RepositoryID: repositoryID,
		BranchID:     branchID,
		BranchName:   branchName,
		LatestCommit: latestCommit,
	}, nil
}
