package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"silkmaker-backend/internal/domain"
	"silkmaker-backend/internal/repository"
)

const nodeColumns = `project_id, node_id, title, content, type, position, connections, color,
       variables, css_styles, audio_file, video_file, word_count, version, created_at, updated_at`

func scanNode(row rowScanner) (domain.StoryNode, error) {
	var (
		n                     domain.StoryNode
		nodeType              string
		position, connections string
		variables, cssStyles  sql.NullString
		createdAt, updatedAt  int64
	)
	if err := row.Scan(
		&n.ProjectID, &n.NodeID, &n.Title, &n.Content, &nodeType, &position, &connections, &n.Color,
		&variables, &cssStyles, &n.AudioFile, &n.VideoFile, &n.WordCount, &n.Version, &createdAt, &updatedAt,
	); err != nil {
		return domain.StoryNode{}, err
	}
	n.Type = domain.NodeType(nodeType)
	if err := decodeJSON(sql.NullString{String: position, Valid: true}, &n.Position); err != nil {
		return domain.StoryNode{}, fmt.Errorf("decode position: %w", err)
	}
	list, err := decodeList(connections)
	if err != nil {
		return domain.StoryNode{}, fmt.Errorf("decode connections: %w", err)
	}
	n.Connections = list
	if variables.Valid {
		if err := decodeJSON(variables, &n.Variables); err != nil {
			return domain.StoryNode{}, fmt.Errorf("decode variables: %w", err)
		}
	}
	if cssStyles.Valid {
		n.CSSStyles = &domain.CSSStyles{}
		if err := decodeJSON(cssStyles, n.CSSStyles); err != nil {
			return domain.StoryNode{}, fmt.Errorf("decode css styles: %w", err)
		}
	}
	n.CreatedAt = fromMillis(createdAt)
	n.UpdatedAt = fromMillis(updatedAt)
	return n, nil
}

type nodeArgs struct {
	position    string
	connections string
	variables   any
	cssStyles   any
}

func encodeNode(n domain.StoryNode) (nodeArgs, error) {
	var (
		args nodeArgs
		err  error
	)
	pos, err := encodeJSON(n.Position, false)
	if err != nil {
		return args, fmt.Errorf("encode position: %w", err)
	}
	args.position = pos.(string)
	if args.connections, err = encodeList(n.Connections); err != nil {
		return args, fmt.Errorf("encode connections: %w", err)
	}
	if args.variables, err = encodeJSON(n.Variables, n.Variables == nil); err != nil {
		return args, fmt.Errorf("encode variables: %w", err)
	}
	if args.cssStyles, err = encodeJSON(n.CSSStyles, n.CSSStyles == nil); err != nil {
		return args, fmt.Errorf("encode css styles: %w", err)
	}
	return args, nil
}

// ListNodes returns the project's nodes in creation order.
func (s *Store) ListNodes(ctx context.Context, projectID int64) ([]domain.StoryNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.q("SELECT "+nodeColumns+" FROM story_nodes WHERE project_id = ? ORDER BY id ASC"), projectID)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	out := []domain.StoryNode{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return out, nil
}

func (s *Store) getNode(ctx context.Context, q querier, projectID int64, nodeID string) (domain.StoryNode, error) {
	row := q.QueryRowContext(ctx, s.q("SELECT "+nodeColumns+" FROM story_nodes WHERE project_id = ? AND node_id = ?"), projectID, nodeID)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return domain.StoryNode{}, repository.NewNotFound(repository.ResourceNode, nodeID)
	}
	if err != nil {
		return domain.StoryNode{}, fmt.Errorf("get node: %w", err)
	}
	return n, nil
}

// GetNode loads one node by its client id.
func (s *Store) GetNode(ctx context.Context, projectID int64, nodeID string) (domain.StoryNode, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoryNode{}, err
	}
	return s.getNode(ctx, s.db, projectID, nodeID)
}

// CreateNode inserts a node into an existing project.
func (s *Store) CreateNode(ctx context.Context, node domain.StoryNode) (domain.StoryNode, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoryNode{}, err
	}
	args, err := encodeNode(node)
	if err != nil {
		return domain.StoryNode{}, err
	}

	node.Version = 1
	if node.Connections == nil {
		node.Connections = []string{}
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.requireProject(ctx, tx, node.ProjectID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, s.q(`
INSERT INTO story_nodes (`+nodeColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			node.ProjectID, node.NodeID, node.Title, node.Content, string(node.Type), args.position, args.connections, node.Color,
			args.variables, args.cssStyles, node.AudioFile, node.VideoFile, node.WordCount, node.Version,
			toMillis(node.CreatedAt), toMillis(node.UpdatedAt),
		)
		if isUniqueViolation(err) {
			return repository.NewAlreadyExists(repository.ResourceNode, node.NodeID)
		}
		if err != nil {
			return fmt.Errorf("insert node: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.StoryNode{}, err
	}
	return node, nil
}

// UpdateNode writes the node when its version still matches.
func (s *Store) UpdateNode(ctx context.Context, node domain.StoryNode) (domain.StoryNode, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoryNode{}, err
	}
	args, err := encodeNode(node)
	if err != nil {
		return domain.StoryNode{}, err
	}

	var out domain.StoryNode
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(`
UPDATE story_nodes
SET title = ?, content = ?, type = ?, position = ?, connections = ?, color = ?,
    variables = ?, css_styles = ?, audio_file = ?, video_file = ?, word_count = ?,
    version = version + 1, updated_at = ?
WHERE project_id = ? AND node_id = ? AND version = ?`),
			node.Title, node.Content, string(node.Type), args.position, args.connections, node.Color,
			args.variables, args.cssStyles, node.AudioFile, node.VideoFile, node.WordCount,
			toMillis(node.UpdatedAt),
			node.ProjectID, node.NodeID, node.Version,
		)
		if err != nil {
			return fmt.Errorf("update node: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("update node: %w", err)
		} else if n == 0 {
			current, err := s.getNode(ctx, tx, node.ProjectID, node.NodeID)
			if err != nil {
				return err
			}
			return repository.NewVersionConflict(repository.ResourceNode, node.NodeID, node.Version, current.Version)
		}
		out, err = s.getNode(ctx, tx, node.ProjectID, node.NodeID)
		return err
	})
	if err != nil {
		return domain.StoryNode{}, err
	}
	return out, nil
}

// DeleteNode removes the node and strips its id from the remaining nodes'
// connections and from every group in the same transaction.
func (s *Store) DeleteNode(ctx context.Context, projectID int64, nodeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q("DELETE FROM story_nodes WHERE project_id = ? AND node_id = ?"), projectID, nodeID)
		if err != nil {
			return fmt.Errorf("delete node: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("delete node: %w", err)
		} else if n == 0 {
			return repository.NewNotFound(repository.ResourceNode, nodeID)
		}

		if err := s.pruneReferences(ctx, tx, projectID, nodeID,
			"SELECT node_id, connections FROM story_nodes WHERE project_id = ?",
			"UPDATE story_nodes SET connections = ?, version = version + 1 WHERE project_id = ? AND node_id = ?",
		); err != nil {
			return fmt.Errorf("prune connections: %w", err)
		}
		if err := s.pruneReferences(ctx, tx, projectID, nodeID,
			"SELECT group_id, node_ids FROM node_groups WHERE project_id = ?",
			"UPDATE node_groups SET node_ids = ? WHERE project_id = ? AND group_id = ?",
		); err != nil {
			return fmt.Errorf("prune groups: %w", err)
		}
		return nil
	})
}

// pruneReferences rewrites every JSON id list selected by selectSQL that
// mentions nodeID. Rows are read fully before any update is issued.
func (s *Store) pruneReferences(ctx context.Context, tx *sql.Tx, projectID int64, nodeID, selectSQL, updateSQL string) error {
	rows, err := tx.QueryContext(ctx, s.q(selectSQL), projectID)
	if err != nil {
		return err
	}
	type change struct {
		id   string
		list string
	}
	var changes []change
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return err
		}
		list, err := decodeList(raw)
		if err != nil {
			rows.Close()
			return err
		}
		pruned, changed := domain.RemoveConnection(list, nodeID)
		if !changed {
			continue
		}
		encoded, err := encodeList(pruned)
		if err != nil {
			rows.Close()
			return err
		}
		changes = append(changes, change{id: id, list: encoded})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, c := range changes {
		if _, err := tx.ExecContext(ctx, s.q(updateSQL), c.list, projectID, c.id); err != nil {
			return err
		}
	}
	return nil
}
