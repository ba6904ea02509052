package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/ensemble-clustering/pkg/models"
	"github.com/gilchrisn/ensemble-clustering/pkg/service"
)

// WriteSuccessResponse writes a successful JSON response
func WriteSuccessResponse(w http.ResponseWriter, message string, data interface{}) {
	writeJSONResponse(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// WriteAcceptedResponse writes a 202 response for accepted asynchronous work
func WriteAcceptedResponse(w http.ResponseWriter, message string, data interface{}) {
	writeJSONResponse(w, http.StatusAccepted, models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// WriteErrorResponse writes an error JSON response
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	response := models.APIResponse{
		Success: false,
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}
	writeJSONResponse(w, statusCode, response)
}

// WriteValidationErrorResponse writes a validation error response
func WriteValidationErrorResponse(w http.ResponseWriter, message string, errs map[string]string) {
	writeJSONResponse(w, http.StatusBadRequest, models.APIResponse{
		Success: false,
		Message: message,
		Data:    map[string]interface{}{"validation_errors": errs},
	})
}

// writeServiceError maps service errors onto status codes.
func writeServiceError(w http.ResponseWriter, message string, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		WriteValidationErrorResponse(w, message, validationMessages(verrs))
	case errors.Is(err, service.ErrNotFound):
		WriteErrorResponse(w, http.StatusNotFound, message, err)
	case errors.Is(err, service.ErrInvalidParameters):
		WriteErrorResponse(w, http.StatusBadRequest, message, err)
	default:
		WriteErrorResponse(w, http.StatusInternalServerError, message, err)
	}
}

func validationMessages(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		msg := "failed on " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out[field] = msg
	}
	return out
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Err(err).
			Int("status_code", statusCode).
			Msg("Failed to encode JSON response")
	}
}
