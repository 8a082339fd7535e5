package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"silkmaker-backend/internal/domain"
	"silkmaker-backend/internal/interfaces/http/dto"
	"silkmaker-backend/internal/service/story"
	"silkmaker-backend/pkg/api"
)

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	svc    story.Service
	logger *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(svc story.Service, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{svc: svc, logger: logger}
}

// nodeFilter reads ?search= and ?type=. type may repeat or hold a comma
// separated list.
func nodeFilter(r *http.Request) story.NodeFilter {
	q := r.URL.Query()
	filter := story.NodeFilter{Search: q.Get("search")}
	for _, raw := range q["type"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" && t != "all" {
				filter.Types = append(filter.Types, domain.NodeType(t))
			}
		}
	}
	return filter
}

// ListNodes handles GET /api/projects/{projectId}/nodes
func (h *NodeHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	nodes, err := h.svc.ListNodes(r.Context(), projectID, nodeFilter(r))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, dto.Nodes(nodes))
}

// GetNode handles GET /api/projects/{projectId}/nodes/{nodeId}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	node, err := h.svc.GetNode(r.Context(), projectID, chi.URLParam(r, "nodeId"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, dto.Node(node))
}

// GetConnections handles GET /api/projects/{projectId}/nodes/{nodeId}/connections
func (h *NodeHandler) GetConnections(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	nodes, err := h.svc.ConnectedNodes(r.Context(), projectID, chi.URLParam(r, "nodeId"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, dto.Nodes(nodes))
}

// CreateNode handles POST /api/projects/{projectId}/nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	var req dto.CreateNodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	node, err := h.svc.CreateNode(r.Context(), projectID, req.ToInput())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusCreated, dto.Node(node))
}

// UpdateNode handles PUT /api/projects/{projectId}/nodes/{nodeId}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	var req dto.UpdateNodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	node, err := h.svc.UpdateNode(r.Context(), projectID, chi.URLParam(r, "nodeId"), req.ToPatch())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, dto.Node(node))
}

// DeleteNode handles DELETE /api/projects/{projectId}/nodes/{nodeId}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	if err := h.svc.DeleteNode(r.Context(), projectID, chi.URLParam(r, "nodeId")); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.NoContent(w)
}
