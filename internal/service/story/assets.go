package story

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"silkmaker-backend/internal/domain"
	appErrors "silkmaker-backend/pkg/errors"
)

func (s *service) ListAssets(ctx context.Context, projectID int64) (_ []domain.Asset, err error) {
	ctx, span := s.start(ctx, "ListAssets", projectAttr(projectID))
	defer func() { finish(span, err) }()

	if _, err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	assets, err := s.repo.ListAssets(ctx, projectID)
	if err != nil {
		return nil, translate(err, "failed to list assets")
	}
	return assets, nil
}

// CreateAsset records metadata for media that is already hosted at in.URL.
func (s *service) CreateAsset(ctx context.Context, projectID int64, in AssetInput) (_ domain.Asset, err error) {
	ctx, span := s.start(ctx, "CreateAsset", projectAttr(projectID))
	defer func() { finish(span, err) }()

	switch {
	case strings.TrimSpace(in.Name) == "":
		return domain.Asset{}, appErrors.NewValidation("asset name is required")
	case !in.Type.Valid():
		return domain.Asset{}, appErrors.NewValidationf("unknown asset type %q", in.Type)
	case strings.TrimSpace(in.URL) == "":
		return domain.Asset{}, appErrors.NewValidation("asset url is required")
	case in.Size < 0:
		return domain.Asset{}, appErrors.NewValidation("asset size cannot be negative")
	}
	if _, err := s.requireProject(ctx, projectID); err != nil {
		return domain.Asset{}, err
	}

	asset := domain.Asset{
		ProjectID: projectID,
		AssetID:   in.AssetID,
		Name:      in.Name,
		Type:      in.Type,
		URL:       in.URL,
		Size:      in.Size,
		MimeType:  in.MimeType,
		Thumbnail: in.Thumbnail,
		CreatedAt: s.now(),
	}
	if asset.AssetID == "" {
		asset.AssetID = uuid.NewString()
	}

	created, err := s.repo.CreateAsset(ctx, asset)
	if err != nil {
		return domain.Asset{}, translate(err, "failed to create asset")
	}
	s.publish(ctx, domain.NewEvent(domain.EventAssetCreated, projectID, created.AssetID).
		With("type", string(created.Type)))
	return created, nil
}

func (s *service) DeleteAsset(ctx context.Context, projectID int64, assetID string) (err error) {
	ctx, span := s.start(ctx, "DeleteAsset", projectAttr(projectID))
	defer func() { finish(span, err) }()

	if _, err := s.requireProject(ctx, projectID); err != nil {
		return err
	}
	if err := s.repo.DeleteAsset(ctx, projectID, assetID); err != nil {
		return translate(err, "failed to delete asset")
	}
	s.publish(ctx, domain.NewEvent(domain.EventAssetDeleted, projectID, assetID))
	return nil
}
