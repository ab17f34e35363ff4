package handler

import (
	"net/http"

	"github.com/abnamro/repository-scanner/internal/app"
	"github.com/abnamro/repository-scanner/pkg/apierror"
	"github.com/abnamro/repository-scanner/pkg/domain/vcs"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/pagination"
	"github.com/abnamro/repository-scanner/pkg/validator"
)

// VCSHandler handles VCS instance HTTP requests.
type VCSHandler struct {
	service   *app.VCSService
	validator *validator.Validator
	logger    *logger.Logger
	maxLimit  int
}

// NewVCSHandler creates a new VCS instance handler.
func NewVCSHandler(svc *app.VCSService, v *validator.Validator, log *logger.Logger, maxLimit int) *VCSHandler {
	return &VCSHandler{
		service:   svc,
		validator: v,
		logger:    log,
		maxLimit:  maxLimit,
	}
}

// VCSInstanceResponse represents a VCS instance in API responses.
type VCSInstanceResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ProviderType string `json:"provider_type"`
	Hostname     string `json:"hostname"`
	Port         int    `json:"port"`
	Scheme       string `json:"scheme"`
	Organization string `json:"organization,omitempty"`
}

func toVCSInstanceResponse(i *vcs.Instance) VCSInstanceResponse {
	return VCSInstanceResponse{
		ID:           i.ID,
		Name:         i.Name,
		ProviderType: i.ProviderType.String(),
		Hostname:     i.Hostname,
		Port:         i.Port,
		Scheme:       i.Scheme,
		Organization: i.Organization,
	}
}

// CreateVCSInstanceRequest represents the request to register a VCS instance.
type CreateVCSInstanceRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=200"`
	ProviderType string `json:"provider_type" validate:"required,vcs_provider"`
	Hostname     string `json:"hostname" validate:"required,max=255"`
	Port         int    `json:"port" validate:"required,gte=1,lte=65535"`
	Scheme       string `json:"scheme" validate:"required,oneof=http https"`
	Organization string `json:"organization" validate:"max=200"`
}

// Create handles POST /api/v1/vcs-instances. Registration is idempotent
// by instance name.
func (h *VCSHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateVCSInstanceRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	instance, err := h.service.CreateVCSInstance(r.Context(), app.CreateVCSInstanceInput{
		Name:         req.Name,
		ProviderType: req.ProviderType,
		Hostname:     req.Hostname,
		Port:         req.Port,
		Scheme:       req.Scheme,
		Organization: req.Organization,
	})
	if err != nil {
		handleServiceError(w, h.logger, "VCS instance", err)
		return
	}

	respondJSON(w, http.StatusCreated, toVCSInstanceResponse(instance))
}

// Get handles GET /api/v1/vcs-instances/{id}.
func (h *VCSHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid VCS instance ID").WriteJSON(w)
		return
	}

	instance, err := h.service.GetVCSInstance(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, "VCS instance", err)
		return
	}

	respondJSON(w, http.StatusOK, toVCSInstanceResponse(instance))
}

// List handles GET /api/v1/vcs-instances.
func (h *VCSHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListVCSInstances(r.Context(), parsePage(r, h.maxLimit))
	if err != nil {
		handleServiceError(w, h.logger, "VCS instance", err)
		return
	}

	data := make([]VCSInstanceResponse, len(result.Data))
	for i, instance := range result.Data {
		data[i] = toVCSInstanceResponse(instance)
	}

	respondJSON(w, http.StatusOK, pagination.Result[VCSInstanceResponse]{
		Data:  data,
		Total: result.Total,
		Skip:  result.Skip,
		Limit: result.Limit,
	})
}

// Delete handles DELETE /api/v1/vcs-instances/{id}.
func (h *VCSHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid VCS instance ID").WriteJSON(w)
		return
	}

	if err := h.service.DeleteVCSInstance(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, "VCS instance", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
