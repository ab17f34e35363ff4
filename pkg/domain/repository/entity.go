// Package repository defines the scanned repository entity. A repository is
// identified by (project_key, repository_id, vcs_instance_id) and is created
// idempotently on first scan ingestion.
package repository

import (
	"github.com/abnamro/repository-scanner/pkg/domain/shared"
)

// Repository represents a repository on a VCS instance.
type Repository struct {
	ID             int64
	VCSInstanceID  int64
	ProjectKey     string
	RepositoryID   string // VCS-native identifier, not our row id
	RepositoryName string
	RepositoryURL  string
	LatestCommit   string
}

// NewRepository creates a new repository record.
func NewRepository(vcsInstanceID int64, projectKey, repositoryID, repositoryName, repositoryURL string) (*Repository, error) {
	if vcsInstanceID <= 0 {
		return nil, shared.NewDomainError("VALIDATION", "vcs_instance_id is required", shared.ErrValidation)
	}
	if projectKey == "" {
		return nil, shared.NewDomainError("VALIDATION", "project_key is required", shared.ErrValidation)
	}
	if repositoryID == "" {
		return nil, shared.NewDomainError("VALIDATION", "repository_id is required", shared.ErrValidation)
	}
	if repositoryName == "" {
		return nil, shared.NewDomainError("VALIDATION", "repository_name is required", shared.ErrValidation)
	}
	if repositoryURL == "" {
		return nil, shared.NewDomainError("VALIDATION", "repository_url is required", shared.ErrValidation)
	}

	return &Repository{
		VCSInstanceID:  vcsInstanceID,
		ProjectKey:     projectKey,
		RepositoryID:   repositoryID,
		RepositoryName: repositoryName,
		RepositoryURL:  repositoryURL,
	}, nil
}
