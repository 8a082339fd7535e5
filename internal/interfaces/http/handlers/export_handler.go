package handlers

import (
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"silkmaker-backend/internal/export"
	"silkmaker-backend/internal/service/story"
	appErrors "silkmaker-backend/pkg/errors"
)

// ExportHandler serves the static HTML export
type ExportHandler struct {
	svc    story.Service
	logger *zap.Logger
}

func NewExportHandler(svc story.Service, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{svc: svc, logger: logger}
}

// Export handles POST /api/projects/{projectId}/export?strict=true
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	var opts export.Options
	if raw := r.URL.Query().Get("strict"); raw != "" {
		strict, err := strconv.ParseBool(raw)
		if err != nil {
			handleServiceError(w, r, h.logger, appErrors.NewValidationf("invalid strict value %q", raw))
			return
		}
		opts.Strict = strict
	}

	result, err := h.svc.ExportProject(r.Context(), projectID, opts)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.HTML)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.HTML); err != nil {
		h.logger.Debug("export write aborted", zap.Int64("project_id", projectID), zap.Error(err))
	}
}
