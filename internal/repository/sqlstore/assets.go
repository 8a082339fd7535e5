package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"silkmaker-backend/internal/domain"
	"silkmaker-backend/internal/repository"
)

const assetColumns = "project_id, asset_id, name, type, url, size, mime_type, thumbnail, created_at"

func scanAsset(row rowScanner) (domain.Asset, error) {
	var (
		a         domain.Asset
		assetType string
		createdAt int64
	)
	if err := row.Scan(&a.ProjectID, &a.AssetID, &a.Name, &assetType, &a.URL, &a.Size, &a.MimeType, &a.Thumbnail, &createdAt); err != nil {
		return domain.Asset{}, err
	}
	a.Type = domain.AssetType(assetType)
	a.CreatedAt = fromMillis(createdAt)
	return a, nil
}

// ListAssets returns the project's assets in creation order.
func (s *Store) ListAssets(ctx context.Context, projectID int64) ([]domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.q("SELECT "+assetColumns+" FROM assets WHERE project_id = ? ORDER BY id ASC"), projectID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	out := []domain.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return out, nil
}

// GetAsset loads one asset by its client id.
func (s *Store) GetAsset(ctx context.Context, projectID int64, assetID string) (domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Asset{}, err
	}
	row := s.db.QueryRowContext(ctx, s.q("SELECT "+assetColumns+" FROM assets WHERE project_id = ? AND asset_id = ?"), projectID, assetID)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return domain.Asset{}, repository.NewNotFound(repository.ResourceAsset, assetID)
	}
	if err != nil {
		return domain.Asset{}, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}

// CreateAsset records asset metadata for an existing project.
func (s *Store) CreateAsset(ctx context.Context, asset domain.Asset) (domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Asset{}, err
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.requireProject(ctx, tx, asset.ProjectID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, s.q(`
INSERT INTO assets (`+assetColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			asset.ProjectID, asset.AssetID, asset.Name, string(asset.Type), asset.URL, asset.Size,
			asset.MimeType, asset.Thumbnail, toMillis(asset.CreatedAt),
		)
		if isUniqueViolation(err) {
			return repository.NewAlreadyExists(repository.ResourceAsset, asset.AssetID)
		}
		if err != nil {
			return fmt.Errorf("insert asset: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Asset{}, err
	}
	return asset, nil
}

// DeleteAsset removes one asset record.
func (s *Store) DeleteAsset(ctx context.Context, projectID int64, assetID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM assets WHERE project_id = ? AND asset_id = ?"), projectID, assetID)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	} else if n == 0 {
		return repository.NewNotFound(repository.ResourceAsset, assetID)
	}
	return nil
}
