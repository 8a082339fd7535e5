package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"silkmaker-backend/internal/interfaces/http/dto"
	"silkmaker-backend/internal/service/story"
	"silkmaker-backend/pkg/api"
)

// GroupHandler handles node group requests
type GroupHandler struct {
	svc    story.Service
	logger *zap.Logger
}

func NewGroupHandler(svc story.Service, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{svc: svc, logger: logger}
}

func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	groups, err := h.svc.ListGroups(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, dto.Groups(groups))
}

func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	var req dto.CreateGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	group, err := h.svc.CreateGroup(r.Context(), projectID, req.ToInput())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusCreated, dto.Group(group))
}

func (h *GroupHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	var req dto.UpdateGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	group, err := h.svc.UpdateGroup(r.Context(), projectID, chi.URLParam(r, "groupId"), req.ToPatch())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, dto.Group(group))
}

func (h *GroupHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	if err := h.svc.DeleteGroup(r.Context(), projectID, chi.URLParam(r, "groupId")); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.NoContent(w)
}
