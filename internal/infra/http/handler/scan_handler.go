package handler

import (
	"net/http"
	"time"

	"github.com/abnamro/repository-scanner/internal/app"
	"github.com/abnamro/repository-scanner/pkg/apierror"
	"github.com/abnamro/repository-scanner/pkg/domain/scan"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/pagination"
	"github.com/abnamro/repository-scanner/pkg/validator"
)

// ScanHandler handles scan HTTP requests, including finding ingestion.
type ScanHandler struct {
	scans     *app.ScanService
	ingest    *app.IngestService
	findings  *app.FindingService
	validator *validator.Validator
	logger    *logger.Logger
	maxLimit  int
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(scans *app.ScanService, ingest *app.IngestService, findings *app.FindingService, v *validator.Validator, log *logger.Logger, maxLimit int) *ScanHandler {
	return &ScanHandler{
		scans:     scans,
		ingest:    ingest,
		findings:  findings,
		validator: v,
		logger:    log,
		maxLimit:  maxLimit,
	}
}

// ScanResponse represents a scan in API responses.
type ScanResponse struct {
	ID                int64     `json:"id"`
	BranchID          int64     `json:"branch_id"`
	ScanType          string    `json:"scan_type"`
	LastScannedCommit string    `json:"last_scanned_commit"`
	Timestamp         time.Time `json:"timestamp"`
	IncrementNumber   int       `json:"increment_number"`
	RulePack          string    `json:"rule_pack"`
}

func toScanResponse(s *scan.Scan) ScanResponse {
	return ScanResponse{
		ID:                s.ID,
		BranchID:          s.BranchID,
		ScanType:          s.ScanType.String(),
		LastScannedCommit: s.LastScannedCommit,
		Timestamp:         s.Timestamp,
		IncrementNumber:   s.IncrementNumber,
		RulePack:          s.RulePack,
	}
}

// CreateScanRequest represents the request to create a scan. The scan type
// and increment number are decided server-side.
type CreateScanRequest struct {
	BranchID          int64     `json:"branch_id" validate:"required,gt=0"`
	LastScannedCommit string    `json:"last_scanned_commit" validate:"required,max=100"`
	RulePack          string    `json:"rule_pack" validate:"required,max=100"`
	Timestamp         time.Time `json:"timestamp"`
	ForceBase         bool      `json:"force_base"`
}

// Create handles POST /api/v1/scans.
func (h *ScanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateScanRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	s, err := h.scans.CreateScan(r.Context(), app.CreateScanInput{
		BranchID:          req.BranchID,
		LastScannedCommit: req.LastScannedCommit,
		RulePack:          req.RulePack,
		Timestamp:         req.Timestamp,
		ForceBase:         req.ForceBase,
	})
	if err != nil {
		handleServiceError(w, h.logger, "Scan", err)
		return
	}

	respondJSON(w, http.StatusCreated, toScanResponse(s))
}

// Get handles GET /api/v1/scans/{id}.
func (h *ScanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid scan ID").WriteJSON(w)
		return
	}

	s, err := h.scans.GetScan(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, "Scan", err)
		return
	}

	respondJSON(w, http.StatusOK, toScanResponse(s))
}

// UpdateScanRequest represents an administrative scan correction.
type UpdateScanRequest struct {
	ScanType          string    `json:"scan_type" validate:"required,scan_type"`
	LastScannedCommit string    `json:"last_scanned_commit" validate:"required,max=100"`
	RulePack          string    `json:"rule_pack" validate:"required,max=100"`
	Timestamp         time.Time `json:"timestamp"`
	IncrementNumber   int       `json:"increment_number" validate:"gte=0"`
}

// Update handles PUT /api/v1/scans/{id}.
func (h *ScanHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid scan ID").WriteJSON(w)
		return
	}

	var req UpdateScanRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	s, err := h.scans.UpdateScan(r.Context(), id, app.UpdateScanInput{
		ScanType:          req.ScanType,
		LastScannedCommit: req.LastScannedCommit,
		RulePack:          req.RulePack,
		Timestamp:         req.Timestamp,
		IncrementNumber:   req.IncrementNumber,
	})
	if err != nil {
		handleServiceError(w, h.logger, "Scan", err)
		return
	}

	respondJSON(w, http.StatusOK, toScanResponse(s))
}

// Delete handles DELETE /api/v1/scans/{id}.
func (h *ScanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid scan ID").WriteJSON(w)
		return
	}

	if err := h.scans.DeleteScan(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, "Scan", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/v1/scans.
func (h *ScanHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.scans.ListScans(r.Context(), parsePage(r, h.maxLimit))
	if err != nil {
		handleServiceError(w, h.logger, "Scan", err)
		return
	}

	data := make([]ScanResponse, len(result.Data))
	for i, s := range result.Data {
		data[i] = toScanResponse(s)
	}

	respondJSON(w, http.StatusOK, pagination.Result[ScanResponse]{
		Data:  data,
		Total: result.Total,
		Skip:  result.Skip,
		Limit: result.Limit,
	})
}

// ListByBranch handles GET /api/v1/branches/{id}/scans.
func (h *ScanHandler) ListByBranch(w http.ResponseWriter, r *http.Request) {
	branchID, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid branch ID").WriteJSON(w)
		return
	}

	result, err := h.scans.ListScansByBranch(r.Context(), branchID, parsePage(r, h.maxLimit))
	if err != nil {
		handleServiceError(w, h.logger, "Branch", err)
		return
	}

	data := make([]ScanResponse, len(result.Data))
	for i, s := range result.Data {
		data[i] = toScanResponse(s)
	}

	respondJSON(w, http.StatusOK, pagination.Result[ScanResponse]{
		Data:  data,
		Total: result.Total,
		Skip:  result.Skip,
		Limit: result.Limit,
	})
}

// CandidateFindingRequest represents one raw finding in an ingestion batch.
type CandidateFindingRequest struct {
	RuleName        string    `json:"rule_name" validate:"required,max=400"`
	FilePath        string    `json:"file_path" validate:"required,max=500"`
	LineNumber      int       `json:"line_number" validate:"gte=0"`
	ColumnStart     int       `json:"column_start" validate:"gte=0"`
	ColumnEnd       int       `json:"column_end" validate:"gte=0"`
	CommitID        string    `json:"commit_id" validate:"required,max=120"`
	CommitMessage   string    `json:"commit_message" validate:"max=800"`
	CommitTimestamp time.Time `json:"commit_timestamp"`
	Author          string    `json:"author" validate:"max=200"`
	Email           string    `json:"email" validate:"max=100"`
}

// IngestFindingsResponse reports the outcome of one ingestion batch.
type IngestFindingsResponse struct {
	FindingIDs []int64 `json:"finding_ids"`
	Total      int     `json:"total"`
}

// IngestFindings handles POST /api/v1/scans/{id}/findings. Candidates are
// reconciled against the repository's existing findings; re-submitting the
// same batch creates no new rows.
func (h *ScanHandler) IngestFindings(w http.ResponseWriter, r *http.Request) {
	scanID, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid scan ID").WriteJSON(w)
		return
	}

	var req []CandidateFindingRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	candidates := make([]app.CandidateFinding, len(req))
	for i, c := range req {
		if err := h.validator.Validate(c); err != nil {
			handleValidationError(w, err)
			return
		}
		candidates[i] = app.CandidateFinding{
			RuleName:        c.RuleName,
			FilePath:        c.FilePath,
			LineNumber:      c.LineNumber,
			ColumnStart:     c.ColumnStart,
			ColumnEnd:       c.ColumnEnd,
			CommitID:        c.CommitID,
			CommitMessage:   c.CommitMessage,
			CommitTimestamp: c.CommitTimestamp,
			Author:          c.Author,
			Email:           c.Email,
		}
	}

	findings, err := h.ingest.IngestFindings(r.Context(), scanID, candidates)
	if err != nil {
		handleServiceError(w, h.logger, "Scan", err)
		return
	}

	ids := make([]int64, len(findings))
	for i, f := range findings {
		ids[i] = f.ID
	}

	respondJSON(w, http.StatusCreated, IngestFindingsResponse{
		FindingIDs: ids,
		Total:      len(ids),
	})
}

// ListFindings handles GET /api/v1/scans/{id}/findings.
func (h *ScanHandler) ListFindings(w http.ResponseWriter, r *http.Request) {
	scanID, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid scan ID").WriteJSON(w)
		return
	}

	result, err := h.findings.ListFindingsByScans(r.Context(), []int64{scanID}, parsePage(r, h.maxLimit))
	if err != nil {
		handleServiceError(w, h.logger, "Scan", err)
		return
	}

	data := make([]FindingResponse, len(result.Data))
	for i, f := range result.Data {
		data[i] = toFindingResponse(f)
	}

	respondJSON(w, http.StatusOK, pagination.Result[FindingResponse]{
		Data:  data,
		Total: result.Total,
		Skip:  result.Skip,
		Limit: result.Limit,
	})
}

// DetectedRules handles GET /api/v1/scans/detected-rules.
func (h *ScanHandler) DetectedRules(w http.ResponseWriter, r *http.Request) {
	scanIDs := parseQueryIDs(r.URL.Query().Get("scan_ids"))
	if len(scanIDs) == 0 {
		apierror.BadRequest("At least one scan ID is required").WriteJSON(w)
		return
	}

	rules, err := h.scans.DetectedRules(r.Context(), scanIDs)
	if err != nil {
		handleServiceError(w, h.logger, "Scan", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string][]string{"data": rules})
}
