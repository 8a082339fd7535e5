// Package handlers adapts HTTP requests to story service calls.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"silkmaker-backend/internal/interfaces/http/validation"
	"silkmaker-backend/internal/middleware"
	"silkmaker-backend/pkg/api"
	appErrors "silkmaker-backend/pkg/errors"
)

// maxBodyBytes bounds request bodies. Node content is plain text so this is generous.
const maxBodyBytes = 4 << 20

// handleServiceError converts service errors to appropriate HTTP responses
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	fields := []zap.Field{
		zap.String("request_id", middleware.GetRequestIDFromRequest(r)),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	switch appErrors.TypeOf(err) {
	case appErrors.ErrorTypeValidation:
		logger.Debug("validation error", fields...)
		api.Error(w, http.StatusBadRequest, appErrors.MessageOf(err))
	case appErrors.ErrorTypeNotFound:
		logger.Debug("not found", fields...)
		api.Error(w, http.StatusNotFound, appErrors.MessageOf(err))
	case appErrors.ErrorTypeConflict:
		logger.Info("conflict", fields...)
		api.Error(w, http.StatusConflict, appErrors.MessageOf(err))
	case appErrors.ErrorTypeUnavailable:
		logger.Warn("service unavailable", fields...)
		api.Error(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		// Log the full error details while hiding them from the client
		logger.Error("internal error", fields...)
		api.Error(w, http.StatusInternalServerError, "An internal error occurred")
	}
}

// decodeJSON reads a single JSON object into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return appErrors.NewValidation("Request body is required")
		case errors.As(err, &maxErr):
			return appErrors.NewValidation("Request body is too large")
		default:
			return appErrors.NewValidation("Invalid request body: " + err.Error())
		}
	}
	return validation.Default().Struct(dst)
}

// projectIDParam parses the {projectId} route parameter.
func projectIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "projectId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.NewValidationf("invalid project id %q", raw)
	}
	return id, nil
}
