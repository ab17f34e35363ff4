package handler

import (
	"net/http"
	"time"

	"github.com/abnamro/repository-scanner/internal/app"
	"github.com/abnamro/repository-scanner/pkg/apierror"
	"github.com/abnamro/repository-scanner/pkg/domain/audit"
	"github.com/abnamro/repository-scanner/pkg/domain/finding"
	"github.com/abnamro/repository-scanner/pkg/domain/vcs"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/pagination"
	"github.com/abnamro/repository-scanner/pkg/validator"
)

// FindingHandler handles finding and audit HTTP requests.
type FindingHandler struct {
	service   *app.FindingService
	validator *validator.Validator
	logger    *logger.Logger
	maxLimit  int
}

// NewFindingHandler creates a new finding handler.
func NewFindingHandler(svc *app.FindingService, v *validator.Validator, log *logger.Logger, maxLimit int) *FindingHandler {
	return &FindingHandler{
		service:   svc,
		validator: v,
		logger:    log,
		maxLimit:  maxLimit,
	}
}

// FindingResponse represents a finding in API responses.
type FindingResponse struct {
	ID              int64      `json:"id"`
	RepositoryID    int64      `json:"repository_id"`
	RuleName        string     `json:"rule_name"`
	FilePath        string     `json:"file_path"`
	LineNumber      int        `json:"line_number"`
	ColumnStart     int        `json:"column_start"`
	ColumnEnd       int        `json:"column_end"`
	CommitID        string     `json:"commit_id"`
	CommitMessage   string     `json:"commit_message,omitempty"`
	CommitTimestamp time.Time  `json:"commit_timestamp"`
	Author          string     `json:"author,omitempty"`
	Email           string     `json:"email,omitempty"`
	Comment         string     `json:"comment,omitempty"`
	EventSentOn     *time.Time `json:"event_sent_on,omitempty"`
	Status          string     `json:"status,omitempty"`
}

func toFindingResponse(f *finding.Finding) FindingResponse {
	return FindingResponse{
		ID:              f.ID,
		RepositoryID:    f.RepositoryID,
		RuleName:        f.RuleName,
		FilePath:        f.FilePath,
		LineNumber:      f.LineNumber,
		ColumnStart:     f.ColumnStart,
		ColumnEnd:       f.ColumnEnd,
		CommitID:        f.CommitID,
		CommitMessage:   f.CommitMessage,
		CommitTimestamp: f.CommitTimestamp,
		Author:          f.Author,
		Email:           f.Email,
		Comment:         f.Comment,
		EventSentOn:     f.EventSentOn,
	}
}

// findingFilter builds a finding filter from query parameters.
func findingFilter(r *http.Request) finding.Filter {
	query := r.URL.Query()

	var providers []vcs.ProviderType
	for _, p := range parseQueryArray(query.Get("vcs_providers")) {
		if provider, err := vcs.ParseProviderType(p); err == nil {
			providers = append(providers, provider)
		}
	}

	var statuses []finding.Status
	for _, s := range parseQueryArray(query.Get("statuses")) {
		if status, err := finding.ParseStatus(s); err == nil {
			statuses = append(statuses, status)
		}
	}

	return finding.Filter{
		VCSProviderTypes: providers,
		ProjectKey:       query.Get("project_key"),
		RepositoryName:   query.Get("repository_name"),
		BranchName:       query.Get("branch_name"),
		ScanIDs:          parseQueryIDs(query.Get("scan_ids")),
		RuleNames:        parseQueryArray(query.Get("rule_names")),
		Statuses:         statuses,
		StartDate:        parseQueryTime(query.Get("start_date")),
		EndDate:          parseQueryTime(query.Get("end_date")),
	}
}

// List handles GET /api/v1/findings.
func (h *FindingHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListFindings(r.Context(), findingFilter(r), parsePage(r, h.maxLimit))
	if err != nil {
		handleServiceError(w, h.logger, "Finding", err)
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

// Get handles GET /api/v1/findings/{id}. The response includes the
// finding's current audit status.
func (h *FindingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid finding ID").WriteJSON(w)
		return
	}

	f, err := h.service.GetFinding(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, "Finding", err)
		return
	}

	status, err := h.service.CurrentStatus(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, "Finding", err)
		return
	}

	resp := toFindingResponse(f)
	resp.Status = status.String()
	respondJSON(w, http.StatusOK, resp)
}

// PatchFindingRequest represents a partial finding update. Only the comment
// and the event-sent marker are mutable.
type PatchFindingRequest struct {
	Comment     *string    `json:"comment" validate:"omitempty,max=255"`
	EventSentOn *time.Time `json:"event_sent_on"`
}

// Patch handles PATCH /api/v1/findings/{id}.
func (h *FindingHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid finding ID").WriteJSON(w)
		return
	}

	var req PatchFindingRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	f, err := h.service.PatchFinding(r.Context(), id, app.PatchFindingInput{
		Comment:     req.Comment,
		EventSentOn: req.EventSentOn,
	})
	if err != nil {
		handleServiceError(w, h.logger, "Finding", err)
		return
	}

	respondJSON(w, http.StatusOK, toFindingResponse(f))
}

// AuditResponse represents an audit in API responses.
type AuditResponse struct {
	ID        int64     `json:"id"`
	FindingID int64     `json:"finding_id"`
	Status    string    `json:"status"`
	Auditor   string    `json:"auditor"`
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func toAuditResponse(a *audit.Audit) AuditResponse {
	return AuditResponse{
		ID:        a.ID,
		FindingID: a.FindingID,
		Status:    a.Status.String(),
		Auditor:   a.Auditor,
		Comment:   a.Comment,
		Timestamp: a.Timestamp,
	}
}

// AuditFindingRequest represents a triage decision on a finding.
type AuditFindingRequest struct {
	Status  string `json:"status" validate:"required,finding_status"`
	Auditor string `json:"auditor" validate:"required,max=200"`
	Comment string `json:"comment" validate:"max=255"`
}

// Audit handles POST /api/v1/findings/{id}/audit. The new audit becomes
// the finding's current status.
func (h *FindingHandler) Audit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid finding ID").WriteJSON(w)
		return
	}

	var req AuditFindingRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	a, err := h.service.AuditFinding(r.Context(), id, app.AuditFindingInput{
		Status:  req.Status,
		Auditor: req.Auditor,
		Comment: req.Comment,
	})
	if err != nil {
		handleServiceError(w, h.logger, "Finding", err)
		return
	}

	respondJSON(w, http.StatusCreated, toAuditResponse(a))
}

// AuditBatchRequest applies one triage decision to multiple findings.
type AuditBatchRequest struct {
	FindingIDs []int64 `json:"finding_ids" validate:"required,min=1,dive,gt=0"`
	Status     string  `json:"status" validate:"required,finding_status"`
	Auditor    string  `json:"auditor" validate:"required,max=200"`
	Comment    string  `json:"comment" validate:"max=255"`
}

// AuditBatch handles POST /api/v1/findings/audits.
func (h *FindingHandler) AuditBatch(w http.ResponseWriter, r *http.Request) {
	var req AuditBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	audits, err := h.service.AuditFindings(r.Context(), req.FindingIDs, app.AuditFindingInput{
		Status:  req.Status,
		Auditor: req.Auditor,
		Comment: req.Comment,
	})
	if err != nil {
		handleServiceError(w, h.logger, "Finding", err)
		return
	}

	data := make([]AuditResponse, len(audits))
	for i, a := range audits {
		data[i] = toAuditResponse(a)
	}

	respondJSON(w, http.StatusCreated, map[string]any{"data": data})
}

// ListAudits handles GET /api/v1/findings/{id}/audits.
func (h *FindingHandler) ListAudits(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid finding ID").WriteJSON(w)
		return
	}

	result, err := h.service.ListAudits(r.Context(), id, parsePage(r, h.maxLimit))
	if err != nil {
		handleServiceError(w, h.logger, "Finding", err)
		return
	}

	data := make([]AuditResponse, len(result.Data))
	for i, a := range result.Data {
		data[i] = toAuditResponse(a)
	}

	respondJSON(w, http.StatusOK, pagination.Result[AuditResponse]{
		Data:  data,
		Total: result.Total,
		Skip:  result.Skip,
		Limit: result.Limit,
	})
}

// CountByStatus handles GET /api/v1/findings/count-by-status.
func (h *FindingHandler) CountByStatus(w http.ResponseWriter, r *http.Request) {
	scanIDs := parseQueryIDs(r.URL.Query().Get("scan_ids"))
	if len(scanIDs) == 0 {
		apierror.BadRequest("At least one scan ID is required").WriteJSON(w)
		return
	}

	if parseQueryBool(r.URL.Query().Get("per_rule")) {
		aggregates, err := h.service.AggregateStatusCountsPerRule(r.Context(), scanIDs)
		if err != nil {
			handleServiceError(w, h.logger, "Finding", err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"data": aggregates})
		return
	}

	counts, err := h.service.AggregateStatusCounts(r.Context(), scanIDs)
	if err != nil {
		handleServiceError(w, h.logger, "Finding", err)
		return
	}

	respondJSON(w, http.StatusOK, counts)
}

// SupportedStatuses handles GET /api/v1/findings/supported-statuses.
func (h *FindingHandler) SupportedStatuses(w http.ResponseWriter, _ *http.Request) {
	statuses := h.service.SupportedStatuses()
	data := make([]string, len(statuses))
	for i, s := range statuses {
		data[i] = s.String()
	}

	respondJSON(w, http.StatusOK, map[string][]string{"data": data})
}
