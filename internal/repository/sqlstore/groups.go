package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"silkmaker-backend/internal/domain"
	"silkmaker-backend/internal/repository"
)

const groupColumns = "project_id, group_id, name, color, node_ids, is_visible, created_at"

func scanGroup(row rowScanner) (domain.NodeGroup, error) {
	var (
		g         domain.NodeGroup
		nodeIDs   string
		createdAt int64
	)
	if err := row.Scan(&g.ProjectID, &g.GroupID, &g.Name, &g.Color, &nodeIDs, &g.IsVisible, &createdAt); err != nil {
		return domain.NodeGroup{}, err
	}
	list, err := decodeList(nodeIDs)
	if err != nil {
		return domain.NodeGroup{}, fmt.Errorf("decode node ids: %w", err)
	}
	g.NodeIDs = list
	g.CreatedAt = fromMillis(createdAt)
	return g, nil
}

// ListGroups returns the project's groups in creation order.
func (s *Store) ListGroups(ctx context.Context, projectID int64) ([]domain.NodeGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.q("SELECT "+groupColumns+" FROM node_groups WHERE project_id = ? ORDER BY id ASC"), projectID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	out := []domain.NodeGroup{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return out, nil
}

// GetGroup loads one group by its client id.
func (s *Store) GetGroup(ctx context.Context, projectID int64, groupID string) (domain.NodeGroup, error) {
	if err := ctx.Err(); err != nil {
		return domain.NodeGroup{}, err
	}
	row := s.db.QueryRowContext(ctx, s.q("SELECT "+groupColumns+" FROM node_groups WHERE project_id = ? AND group_id = ?"), projectID, groupID)
	g, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return domain.NodeGroup{}, repository.NewNotFound(repository.ResourceGroup, groupID)
	}
	if err != nil {
		return domain.NodeGroup{}, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

// CreateGroup inserts a group into an existing project.
func (s *Store) CreateGroup(ctx context.Context, group domain.NodeGroup) (domain.NodeGroup, error) {
	if err := ctx.Err(); err != nil {
		return domain.NodeGroup{}, err
	}
	nodeIDs, err := encodeList(group.NodeIDs)
	if err != nil {
		return domain.NodeGroup{}, fmt.Errorf("encode node ids: %w", err)
	}
	if group.NodeIDs == nil {
		group.NodeIDs = []string{}
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.requireProject(ctx, tx, group.ProjectID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, s.q(`
INSERT INTO node_groups (`+groupColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?)`),
			group.ProjectID, group.GroupID, group.Name, group.Color, nodeIDs, group.IsVisible, toMillis(group.CreatedAt),
		)
		if isUniqueViolation(err) {
			return repository.NewAlreadyExists(repository.ResourceGroup, group.GroupID)
		}
		if err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.NodeGroup{}, err
	}
	return group, nil
}

// UpdateGroup replaces a group's mutable fields.
func (s *Store) UpdateGroup(ctx context.Context, group domain.NodeGroup) (domain.NodeGroup, error) {
	if err := ctx.Err(); err != nil {
		return domain.NodeGroup{}, err
	}
	nodeIDs, err := encodeList(group.NodeIDs)
	if err != nil {
		return domain.NodeGroup{}, fmt.Errorf("encode node ids: %w", err)
	}

	res, err := s.db.ExecContext(ctx, s.q(`
UPDATE node_groups SET name = ?, color = ?, node_ids = ?, is_visible = ?
WHERE project_id = ? AND group_id = ?`),
		group.Name, group.Color, nodeIDs, group.IsVisible, group.ProjectID, group.GroupID,
	)
	if err != nil {
		return domain.NodeGroup{}, fmt.Errorf("update group: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return domain.NodeGroup{}, fmt.Errorf("update group: %w", err)
	} else if n == 0 {
		return domain.NodeGroup{}, repository.NewNotFound(repository.ResourceGroup, group.GroupID)
	}
	return s.GetGroup(ctx, group.ProjectID, group.GroupID)
}

// DeleteGroup removes one group. Member nodes are untouched.
func (s *Store) DeleteGroup(ctx context.Context, projectID int64, groupID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM node_groups WHERE project_id = ? AND group_id = ?"), projectID, groupID)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete group: %w", err)
	} else if n == 0 {
		return repository.NewNotFound(repository.ResourceGroup, groupID)
	}
	return nil
}
