package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abnamro/repository-scanner/internal/app"
	"github.com/abnamro/repository-scanner/pkg/apierror"
	"github.com/abnamro/repository-scanner/pkg/domain/rulepack"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/pagination"
	"github.com/abnamro/repository-scanner/pkg/validator"
)

// RulePackHandler handles rule pack HTTP requests.
type RulePackHandler struct {
	service   *app.RulePackService
	validator *validator.Validator
	logger    *logger.Logger
	maxLimit  int
}

// NewRulePackHandler creates a new rule pack handler.
func NewRulePackHandler(svc *app.RulePackService, v *validator.Validator, log *logger.Logger, maxLimit int) *RulePackHandler {
	return &RulePackHandler{
		service:   svc,
		validator: v,
		logger:    log,
		maxLimit:  maxLimit,
	}
}

// RulePackResponse represents a rule pack in API responses.
type RulePackResponse struct {
	Version   string    `json:"version"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func toRulePackResponse(rp *rulepack.RulePack) RulePackResponse {
	return RulePackResponse{
		Version:   rp.Version,
		Active:    rp.Active,
		CreatedAt: rp.CreatedAt,
	}
}

// CreateRulePackRequest represents the request to register a rule pack
// version.
type CreateRulePackRequest struct {
	Version  string `json:"version" validate:"required,max=100"`
	Activate bool   `json:"activate"`
}

// Create handles POST /api/v1/rule-packs.
func (h *RulePackHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRulePackRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	rp, err := h.service.CreateRulePack(r.Context(), app.CreateRulePackInput{
		Version:  req.Version,
		Activate: req.Activate,
	})
	if err != nil {
		handleServiceError(w, h.logger, "Rule pack", err)
		return
	}

	respondJSON(w, http.StatusCreated, toRulePackResponse(rp))
}

// List handles GET /api/v1/rule-packs.
func (h *RulePackHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListRulePacks(r.Context(), parsePage(r, h.maxLimit))
	if err != nil {
		handleServiceError(w, h.logger, "Rule pack", err)
		return
	}

	data := make([]RulePackResponse, len(result.Data))
	for i, rp := range result.Data {
		data[i] = toRulePackResponse(rp)
	}

	respondJSON(w, http.StatusOK, pagination.Result[RulePackResponse]{
		Data:  data,
		Total: result.Total,
		Skip:  result.Skip,
		Limit: result.Limit,
	})
}

// GetActive handles GET /api/v1/rule-packs/active.
func (h *RulePackHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	rp, err := h.service.GetActiveRulePack(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, "Rule pack", err)
		return
	}

	respondJSON(w, http.StatusOK, toRulePackResponse(rp))
}

// Activate handles PUT /api/v1/rule-packs/{version}/activate. Exactly one
// rule pack is active at a time.
func (h *RulePackHandler) Activate(w http.ResponseWriter, r *http.Request) {
	version := chi.URLParam(r, "version")
	if version == "" {
		apierror.BadRequest("Rule pack version is required").WriteJSON(w)
		return
	}

	if err := h.service.ActivateRulePack(r.Context(), version); err != nil {
		handleServiceError(w, h.logger, "Rule pack", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
