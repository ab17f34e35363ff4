// Package handler contains the HTTP handlers for the REST API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abnamro/repository-scanner/pkg/apierror"
	"github.com/abnamro/repository-scanner/pkg/domain/shared"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/pagination"
	"github.com/abnamro/repository-scanner/pkg/validator"
)

// respondJSON writes v as a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// pathID parses the named chi URL parameter as a positive integer ID.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parsePage builds a Pagination from skip/limit query parameters,
// bounded by maxLimit.
func parsePage(r *http.Request, maxLimit int) pagination.Pagination {
	query := r.URL.Query()
	return pagination.New(
		parseQueryInt(query.Get("skip"), 0),
		parseQueryInt(query.Get("limit"), pagination.DefaultLimit),
		maxLimit,
	)
}

// parseQueryInt parses a query parameter as an integer.
// Returns defaultVal if the input is empty or invalid.
func parseQueryInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return val
}

// parseQueryArray parses a comma-separated query parameter into a string
// slice. Returns nil if the input is empty.
func parseQueryArray(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// parseQueryIDs parses a comma-separated query parameter into integer IDs.
// Invalid entries are skipped.
func parseQueryIDs(s string) []int64 {
	parts := parseQueryArray(s)
	if parts == nil {
		return nil
	}
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// parseQueryBool parses a query parameter as a boolean.
// Accepts "true" and "1" as true; anything else as false.
func parseQueryBool(s string) bool {
	return s == "true" || s == "1"
}

// parseQueryTime parses an RFC 3339 query parameter into a time pointer.
// Returns nil if the input is empty or invalid.
func parseQueryTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

// handleValidationError converts validation errors to API errors.
func handleValidationError(w http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apiErrors := make([]apierror.ValidationError, len(validationErrors))
		for i, ve := range validationErrors {
			apiErrors[i] = apierror.ValidationError{
				Field:   ve.Field,
				Message: ve.Message,
			}
		}
		apierror.ValidationFailed("Validation failed", apiErrors).WriteJSON(w)
		return
	}
	apierror.BadRequest("Validation error").WriteJSON(w)
}

// handleServiceError converts service errors to API errors. The resource
// name is used for not-found responses.
func handleServiceError(w http.ResponseWriter, log *logger.Logger, resource string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		apierror.NotFound(resource).WriteJSON(w)
	case errors.Is(err, shared.ErrAlreadyExists):
		apierror.Conflict(resource + " already exists").WriteJSON(w)
	case errors.Is(err, shared.ErrConflict):
		apierror.Conflict(err.Error()).WriteJSON(w)
	case errors.Is(err, shared.ErrValidation):
		apierror.UnprocessableEntity(err.Error()).WriteJSON(w)
	default:
		log.Error("service error", "error", err)
		apierror.InternalError(err).WriteJSON(w)
	}
}
