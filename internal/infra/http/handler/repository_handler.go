package handler

import (
	"net/http"

	"github.com/abnamro/repository-scanner/internal/app"
	"github.com/abnamro/repository-scanner/pkg/apierror"
	"github.com/abnamro/repository-scanner/pkg/domain/finding"
	"github.com/abnamro/repository-scanner/pkg/domain/repository"
	"github.com/abnamro/repository-scanner/pkg/domain/vcs"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/pagination"
	"github.com/abnamro/repository-scanner/pkg/validator"
)

// RepositoryHandler handles repository HTTP requests.
type RepositoryHandler struct {
	service   *app.RepositoryService
	validator *validator.Validator
	logger    *logger.Logger
	maxLimit  int
}

// NewRepositoryHandler creates a new repository handler.
func NewRepositoryHandler(svc *app.RepositoryService, v *validator.Validator, log *logger.Logger, maxLimit int) *RepositoryHandler {
	return &RepositoryHandler{
		service:   svc,
		validator: v,
		logger:    log,
		maxLimit:  maxLimit,
	}
}

// RepositoryResponse represents a repository in API responses.
type RepositoryResponse struct {
	ID             int64  `json:"id"`
	VCSInstanceID  int64  `json:"vcs_instance_id"`
	ProjectKey     string `json:"project_key"`
	RepositoryID   string `json:"repository_id"`
	RepositoryName string `json:"repository_name"`
	RepositoryURL  string `json:"repository_url"`
	LatestCommit   string `json:"latest_commit,omitempty"`
}

func toRepositoryResponse(repo *repository.Repository) RepositoryResponse {
	return RepositoryResponse{
		ID:             repo.ID,
		VCSInstanceID:  repo.VCSInstanceID,
		ProjectKey:     repo.ProjectKey,
		RepositoryID:   repo.RepositoryID,
		RepositoryName: repo.RepositoryName,
		RepositoryURL:  repo.RepositoryURL,
		LatestCommit:   repo.LatestCommit,
	}
}

// RepositoryWithStatsResponse is a repository enriched with the current
// finding status counts across its branches.
type RepositoryWithStatsResponse struct {
	RepositoryResponse
	FindingsCounts finding.StatusAggregate `json:"findings_counts"`
}

// UpsertRepositoryRequest represents the request to upsert a repository.
type UpsertRepositoryRequest struct {
	VCSInstanceName string `json:"vcs_instance_name" validate:"required,max=200"`
	ProjectKey      string `json:"project_key" validate:"required,max=100"`
	RepositoryID    string `json:"repository_id" validate:"required,max=100"`
	RepositoryName  string `json:"repository_name" validate:"required,max=100"`
	RepositoryURL   string `json:"repository_url" validate:"required,url,max=200"`
	LatestCommit    string `json:"latest_commit" validate:"max=100"`
}

// Upsert handles POST /api/v1/repositories. Creation is idempotent on the
// (vcs instance, project key, repository id) natural key.
func (h *RepositoryHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertRepositoryRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	repo, err := h.service.UpsertRepository(r.Context(), app.UpsertRepositoryInput{
		VCSInstanceName: req.VCSInstanceName,
		ProjectKey:      req.ProjectKey,
		RepositoryID:    req.RepositoryID,
		RepositoryName:  req.RepositoryName,
		RepositoryURL:   req.RepositoryURL,
		LatestCommit:    req.LatestCommit,
	})
	if err != nil {
		handleServiceError(w, h.logger, "Repository", err)
		return
	}

	respondJSON(w, http.StatusCreated, toRepositoryResponse(repo))
}

// Get handles GET /api/v1/repositories/{id}. The response is enriched with
// the current finding status counts across the repository's branches.
func (h *RepositoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid repository ID").WriteJSON(w)
		return
	}

	enriched, err := h.service.GetRepositoryWithStats(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, "Repository", err)
		return
	}

	respondJSON(w, http.StatusOK, RepositoryWithStatsResponse{
		RepositoryResponse: toRepositoryResponse(enriched.Repository),
		FindingsCounts:     enriched.Counts,
	})
}

// repositoryFilter builds a repository filter from query parameters.
func repositoryFilter(r *http.Request) repository.Filter {
	query := r.URL.Query()

	var providers []vcs.ProviderType
	for _, p := range parseQueryArray(query.Get("vcs_providers")) {
		if provider, err := vcs.ParseProviderType(p); err == nil {
			providers = append(providers, provider)
		}
	}

	return repository.Filter{
		VCSProviderTypes:  providers,
		VCSInstanceName:   query.Get("vcs_instance_name"),
		ProjectKey:        query.Get("project_key"),
		RepositoryName:    query.Get("repository_name"),
		OnlyIfHasFindings: parseQueryBool(query.Get("only_if_has_findings")),
	}
}

// List handles GET /api/v1/repositories.
func (h *RepositoryHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListRepositories(r.Context(), repositoryFilter(r), parsePage(r, h.maxLimit))
	if err != nil {
		handleServiceError(w, h.logger, "Repository", err)
		return
	}

	data := make([]RepositoryResponse, len(result.Data))
	for i, repo := range result.Data {
		data[i] = toRepositoryResponse(repo)
	}

	respondJSON(w, http.StatusOK, pagination.Result[RepositoryResponse]{
		Data:  data,
		Total: result.Total,
		Skip:  result.Skip,
		Limit: result.Limit,
	})
}

// Delete handles DELETE /api/v1/repositories/{id}. Branches, scans and
// findings of the repository are removed with it.
func (h *RepositoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apierror.BadRequest("Invalid repository ID").WriteJSON(w)
		return
	}

	if err := h.service.DeleteRepository(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, "Repository", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DistinctProjects handles GET /api/v1/repositories/distinct-projects.
func (h *RepositoryHandler) DistinctProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.DistinctProjects(r.Context(), repositoryFilter(r))
	if err != nil {
		handleServiceError(w, h.logger, "Repository", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string][]string{"data": projects})
}

// DistinctRepositories handles GET /api/v1/repositories/distinct-repositories.
func (h *RepositoryHandler) DistinctRepositories(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.DistinctRepositories(r.Context(), repositoryFilter(r))
	if err != nil {
		handleServiceError(w, h.logger, "Repository", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string][]string{"data": names})
}
