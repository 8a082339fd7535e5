package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"silkmaker-backend/internal/interfaces/http/dto"
	"silkmaker-backend/internal/service/story"
	"silkmaker-backend/pkg/api"
)

// ProjectHandler handles project HTTP requests
type ProjectHandler struct {
	svc    story.Service
	logger *zap.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(svc story.Service, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, logger: logger}
}

// ListProjects handles GET /api/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.ListProjects(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, dto.ProjectSummaries(projects))
}

// GetProject handles GET /api/projects/{projectId}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	detail, err := h.svc.GetProject(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, dto.ProjectDetail(detail))
}

// CreateProject handles POST /api/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	created, err := h.svc.CreateProject(r.Context(), req.ToInput())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusCreated, dto.ProjectSummary(created))
}

// UpdateProject handles PUT /api/projects/{projectId}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	var req dto.UpdateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	updated, err := h.svc.UpdateProject(r.Context(), projectID, req.ToPatch())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, dto.ProjectSummary(updated))
}

// DeleteProject handles DELETE /api/projects/{projectId}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	if err := h.svc.DeleteProject(r.Context(), projectID); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.NoContent(w)
}

// GetStats handles GET /api/projects/{projectId}/stats
func (h *ProjectHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	stats, err := h.svc.ProjectStats(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, dto.Stats(stats))
}
