// Package apiclient is the REST client the scanner worker uses to report
// repositories, scans and findings to the tracking API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/abnamro/repository-scanner/pkg/domain/shared"
	"github.com/abnamro/repository-scanner/pkg/logger"
)

const defaultTimeout = 30 * time.Second

// Client talks to the tracking API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// New creates a new API client for the given base URL.
func New(baseURL string, log *logger.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log.With("component", "apiclient"),
	}
}

// Repository mirrors the API's repository representation.
type Repository struct {
	ID             int64  `json:"id"`
	VCSInstanceID  int64  `json:"vcs_instance_id"`
	ProjectKey     string `json:"project_key"`
	RepositoryID   string `json:"repository_id"`
	RepositoryName string `json:"repository_name"`
	RepositoryURL  string `json:"repository_url"`
	LatestCommit   string `json:"latest_commit"`
}

// Branch mirrors the API's branch representation.
type Branch struct {
	ID           int64  `json:"id"`
	RepositoryID int64  `json:"repository_id"`
	BranchID     string `json:"branch_id"`
	BranchName   string `json:"branch_name"`
	LatestCommit string `json:"latest_commit"`
}

// Scan mirrors the API's scan representation.
type Scan struct {
	ID                int64     `json:"id"`
	BranchID          int64     `json:"branch_id"`
	ScanType          string    `json:"scan_type"`
	LastScannedCommit string    `json:"last_scanned_commit"`
	Timestamp         time.Time `json:"timestamp"`
	IncrementNumber   int       `json:"increment_number"`
	RulePack          string    `json:"rule_pack"`
}

// RulePack mirrors the API's rule pack representation.
type RulePack struct {
	Version   string    `json:"version"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// CandidateFinding is one raw finding in an ingestion batch.
type CandidateFinding struct {
	RuleName        string    `json:"rule_name"`
	FilePath        string    `json:"file_path"`
	LineNumber      int       `json:"line_number"`
	ColumnStart     int       `json:"column_start"`
	ColumnEnd       int       `json:"column_end"`
	CommitID        string    `json:"commit_id"`
	CommitMessage   string    `json:"commit_message"`
	CommitTimestamp time.Time `json:"commit_timestamp"`
	Author          string    `json:"author"`
	Email           string    `json:"email"`
}

// VCSInstanceInput registers a VCS instance.
type VCSInstanceInput struct {
	Name         string `json:"name"`
	ProviderType string `json:"provider_type"`
	Hostname     string `json:"hostname"`
	Port         int    `json:"port"`
	Scheme       string `json:"scheme"`
	Organization string `json:"organization,omitempty"`
}

// UpsertRepositoryInput creates or refreshes a repository.
type UpsertRepositoryInput struct {
	VCSInstanceName string `json:"vcs_instance_name"`
	ProjectKey      string `json:"project_key"`
	RepositoryID    string `json:"repository_id"`
	RepositoryName  string `json:"repository_name"`
	RepositoryURL   string `json:"repository_url"`
	LatestCommit    string `json:"latest_commit,omitempty"`
}

// UpsertBranchInput creates or refreshes a branch.
type UpsertBranchInput struct {
	RepositoryID int64  `json:"repository_id"`
	BranchID     string `json:"branch_id"`
	BranchName   string `json:"branch_name"`
	LatestCommit string `json:"latest_commit"`
}

// CreateScanInput creates a scan. Type and increment number are decided
// server-side.
type CreateScanInput struct {
	BranchID          int64     `json:"branch_id"`
	LastScannedCommit string    `json:"last_scanned_commit"`
	RulePack          string    `json:"rule_pack"`
	Timestamp         time.Time `json:"timestamp"`
	ForceBase         bool      `json:"force_base"`
}

// IngestResult reports the outcome of one findings batch.
type IngestResult struct {
	FindingIDs []int64 `json:"finding_ids"`
	Total      int     `json:"total"`
}

// RegisterVCSInstance registers a VCS instance, idempotently by name.
func (c *Client) RegisterVCSInstance(ctx context.Context, input VCSInstanceInput) error {
	return c.do(ctx, http.MethodPost, "/api/v1/vcs-instances", input, nil)
}

// UpsertRepository creates or refreshes a repository.
func (c *Client) UpsertRepository(ctx context.Context, input UpsertRepositoryInput) (*Repository, error) {
	var repo Repository
	if err := c.do(ctx, http.MethodPost, "/api/v1/repositories", input, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// UpsertBranch creates or refreshes a branch.
func (c *Client) UpsertBranch(ctx context.Context, input UpsertBranchInput) (*Branch, error) {
	var b Branch
	if err := c.do(ctx, http.MethodPost, "/api/v1/branches", input, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// LastScan returns the branch's most recent scan, or shared.ErrNotFound if
// it has never been scanned.
func (c *Client) LastScan(ctx context.Context, branchID int64) (*Scan, error) {
	var s Scan
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/branches/%d/last-scan", branchID), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ActiveRulePack returns the currently active rule pack, or shared.ErrNotFound
// if none is active.
func (c *Client) ActiveRulePack(ctx context.Context) (*RulePack, error) {
	var rp RulePack
	if err := c.do(ctx, http.MethodGet, "/api/v1/rule-packs/active", nil, &rp); err != nil {
		return nil, err
	}
	return &rp, nil
}

// CreateScan creates a scan for a branch.
func (c *Client) CreateScan(ctx context.Context, input CreateScanInput) (*Scan, error) {
	var s Scan
	if err := c.do(ctx, http.MethodPost, "/api/v1/scans", input, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// IngestFindings submits one batch of candidate findings for a scan.
func (c *Client) IngestFindings(ctx context.Context, scanID int64, candidates []CandidateFinding) (*IngestResult, error) {
	var result IngestResult
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/scans/%d/findings", scanID), candidates, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// apiError is the error body the API returns.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			if resp.StatusCode == http.StatusNotFound {
				return fmt.Errorf("%s %s: %s: %w", method, path, apiErr.Message, shared.ErrNotFound)
			}
			return fmt.Errorf("%s %s: %s (%s)", method, path, apiErr.Message, apiErr.Code)
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, shared.ErrNotFound)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
