package handler

import (
	"net/http"
	"time"

	"github.com/abnamro/repository-scanner/internal/app"
	"github.com/abnamro/repository-scanner/pkg/apierror"
	"github.com/abnamro/repository-scanner/pkg/domain/branch"
	"github.com/abnamro/repository-scanner/pkg/domain/finding"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/pagination"
	"github.com/abnamro/repository-scanner/pkg/validator"
)

// BranchHandler handles branch HTTP requests.
type BranchHandler struct {
	service   *app.BranchService
	validator *validator.Validator
	logger    *logger.Logger
	maxLimit  int
}

// NewBranchHandler creates a new branch handler.
func NewBranchHandler(svc *app.BranchService, v *validator.Validator, log *logger.Logger, maxLimit int) *BranchHandler {
	return &BranchHandler{
		service:   svc,
		validator: v,
		logger:    log,
		maxLimit:  maxLimit,
	}
}

// BranchResponse represents a branch in API responses.
type BranchResponse struct {
	ID           int64  `json:"id"`
	RepositoryID int64  `json:"repository_id"`
	BranchID     string `json:"branch_id"`
	BranchName   string `json:"branch_name"`
	LatestCommit string `json:"latest_commit"`
}

func toBranchResponse(b *branch.Branch) BranchResponse {
	return BranchResponse{
		ID:           b.ID,
		RepositoryID: b.RepositoryID,
		BranchID:     b.BranchID,
		BranchName:   b.BranchName,
		LatestCommit: b.LatestCommit,
	}
}

// UpsertBranchRequest represents the request to upsert a branch.
type UpsertBranchRequest struct {
	RepositoryID int64  `json:"repository_id" validate:"required,gt=0"`
	BranchID     string `json:"branch_id" validate:"required,max=200"`
	BranchName   string `json:"branch_name" validate:"required,max=200"`
	LatestCommit string `json:"latest_commit" validate:"required,max=100"`
}

// Upsert handles POST /api/v1/branches. Creation is idempotent on the
// (repository, branch id) natural key.
func (h *BranchHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertBranchRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	b, err := h.service.UpsertBranch(r.Context(), app.UpsertBranchInput{
		RepositoryID: req.RepositoryID,
		BranchID:     req.BranchID,
		BranchName:   req.BranchName,
		LatestCommit: req.LatestCommit,
	})
	if err != nil {
		handleServiceError(w, h.logger, "Branch", err)
		return
	}

	respondJSON(w, http.StatusCreated, toBranchResponse(b))
}

// Get handles GET /api/v1/branches/{id}.
func (h *BranchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid branch ID").WriteJSON(w)
		return
	}

	b, err := h.service.GetBranch(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, "Branch", err)
		return
	}

	respondJSON(w, http.StatusOK, toBranchResponse(b))
}

// ListByRepository handles GET /api/v1/repositories/{id}/branches.
func (h *BranchHandler) ListByRepository(w http.ResponseWriter, r *http.Request) {
	repositoryID, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid repository ID").WriteJSON(w)
		return
	}

	result, err := h.service.ListBranches(r.Context(), repositoryID, parsePage(r, h.maxLimit))
	if err != nil {
		handleServiceError(w, h.logger, "Repository", err)
		return
	}

	data := make([]BranchResponse, len(result.Data))
	for i, b := range result.Data {
		data[i] = toBranchResponse(b)
	}

	respondJSON(w, http.StatusOK, pagination.Result[BranchResponse]{
		Data:  data,
		Total: result.Total,
		Skip:  result.Skip,
		Limit: result.Limit,
	})
}

// Delete handles DELETE /api/v1/branches/{id}.
func (h *BranchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid branch ID").WriteJSON(w)
		return
	}

	if err := h.service.DeleteBranch(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, "Branch", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LastScan handles GET /api/v1/branches/{id}/last-scan.
func (h *BranchHandler) LastScan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid branch ID").WriteJSON(w)
		return
	}

	s, err := h.service.LastScan(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, "Scan", err)
		return
	}

	respondJSON(w, http.StatusOK, toScanResponse(s))
}

// FindingsMetadataResponse is the current finding status breakdown of a
// branch's latest scan chain.
type FindingsMetadataResponse struct {
	FindingsCounts finding.StatusAggregate `json:"findings_counts"`
	ChainComplete  bool                    `json:"chain_complete"`
	ResolvedAt     time.Time               `json:"resolved_at"`
}

// FindingsMetadata handles GET /api/v1/branches/{id}/findings-metadata.
func (h *BranchHandler) FindingsMetadata(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid branch ID").WriteJSON(w)
		return
	}

	meta, err := h.service.FindingsMetadata(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, "Branch", err)
		return
	}

	respondJSON(w, http.StatusOK, FindingsMetadataResponse{
		FindingsCounts: meta.Counts,
		ChainComplete:  meta.ChainComplete,
		ResolvedAt:     time.Now().UTC(),
	})
}
