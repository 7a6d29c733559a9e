package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"ingestion-api/internal/product"
	"ingestion-api/internal/user"
)

const (
	defaultListSkip  = 0
	defaultListLimit = 100
)

var errInvalidQueryParam = errors.New("invalid query parameter")

type messageResponse struct {
	Message string `json:"message"`
}

type validationErrorResponse struct {
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors,omitempty"`
}

// respondWithError sends an error body in the shape the original API used.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"detail": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondWithValidationError(w http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make(map[string]string, len(validationErrors))
		for _, fieldError := range validationErrors {
			details[fieldError.Field()] = "failed on '" + fieldError.Tag() + "' validation"
		}
		respondWithJSON(w, http.StatusUnprocessableEntity, validationErrorResponse{
			Detail: "Validation failed",
			Errors: details,
		})
		return
	}

	log.Error().Err(err).Msg("Unexpected error type during validation")
	respondWithError(w, http.StatusInternalServerError, "Internal validation error")
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, user.ErrNotFound), errors.Is(err, product.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrEmailExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// parseListParams reads skip and limit from the query string, applying the
// defaults when absent. Non-integer or negative values are rejected.
func parseListParams(r *http.Request) (int, int, error) {
	skip, limit := defaultListSkip, defaultListLimit

	if raw := r.URL.Query().Get("skip"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return 0, 0, errInvalidQueryParam
		}
		skip = value
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return 0, 0, errInvalidQueryParam
		}
		limit = value
	}

	return skip, limit, nil
}

func optString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
