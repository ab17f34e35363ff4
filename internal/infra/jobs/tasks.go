// Package jobs provides background scan task definitions and handlers using Asynq.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task types for scan jobs
const (
	TypeScanRepository = "scan:repository"
)

// QueueScans is the queue scan tasks are routed to.
const QueueScans = "scans"

// ScanRepositoryPayload contains everything the scanner worker needs to run
// one repository scan.
type ScanRepositoryPayload struct {
	TaskID          string `json:"task_id"`
	VCSInstanceName string `json:"vcs_instance_name"`
	ProjectKey      string `json:"project_key"`
	RepositoryID    string `json:"repository_id"`
	RepositoryName  string `json:"repository_name"`
	RepositoryURL   string `json:"repository_url"`
	BranchName      string `json:"branch_name"`
	ForceBase       bool   `json:"force_base"`
}

// NewScanRepositoryTask creates a new repository scan task.
func NewScanRepositoryTask(payload ScanRepositoryPayload) (*asynq.Task, error) {
	if payload.TaskID == "" {
		payload.TaskID = uuid.NewString()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scan payload: %w", err)
	}
	return asynq.NewTask(
		TypeScanRepository,
		data,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Minute),
		asynq.Queue(QueueScans),
	), nil
}
