package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"silkmaker-backend/internal/interfaces/http/dto"
	"silkmaker-backend/internal/service/story"
	"silkmaker-backend/pkg/api"
)

// AssetHandler handles asset metadata requests
type AssetHandler struct {
	svc    story.Service
	logger *zap.Logger
}

func NewAssetHandler(svc story.Service, logger *zap.Logger) *AssetHandler {
	return &AssetHandler{svc: svc, logger: logger}
}

func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	assets, err := h.svc.ListAssets(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, dto.Assets(assets))
}

func (h *AssetHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	var req dto.CreateAssetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	asset, err := h.svc.CreateAsset(r.Context(), projectID, req.ToInput())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusCreated, dto.Asset(asset))
}

func (h *AssetHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	if err := h.svc.DeleteAsset(r.Context(), projectID, chi.URLParam(r, "assetId")); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.NoContent(w)
}
