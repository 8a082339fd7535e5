package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"silkmaker-backend/internal/domain"
	"silkmaker-backend/internal/repository"
)

const projectColumns = "p.id, p.name, p.description, p.settings, p.version, p.created_at, p.updated_at"

func scanProject(row rowScanner, extra ...any) (domain.Project, error) {
	var (
		p                    domain.Project
		settings             sql.NullString
		createdAt, updatedAt int64
	)
	dest := append([]any{&p.ID, &p.Name, &p.Description, &settings, &p.Version, &createdAt, &updatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return domain.Project{}, err
	}
	if settings.Valid {
		p.Settings = &domain.ProjectSettings{}
		if err := decodeJSON(settings, p.Settings); err != nil {
			return domain.Project{}, fmt.Errorf("decode project settings: %w", err)
		}
	}
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

func projectKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ListProjects returns every project with its node count, oldest update first.
func (s *Store) ListProjects(ctx context.Context) ([]domain.ProjectSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+projectColumns+`,
       (SELECT COUNT(*) FROM story_nodes n WHERE n.project_id = p.id) AS node_count
FROM projects p
ORDER BY p.updated_at ASC, p.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []domain.ProjectSummary
	for rows.Next() {
		var count int
		p, err := scanProject(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, domain.ProjectSummary{Project: p, NodeCount: count})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

func (s *Store) getProject(ctx context.Context, q querier, id int64) (domain.Project, error) {
	row := q.QueryRowContext(ctx, s.q("SELECT "+projectColumns+" FROM projects p WHERE p.id = ?"), id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return domain.Project{}, repository.NewNotFound(repository.ResourceProject, projectKey(id))
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// GetProject loads one project.
func (s *Store) GetProject(ctx context.Context, id int64) (domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return domain.Project{}, err
	}
	return s.getProject(ctx, s.db, id)
}

// CreateProject inserts a project and assigns its id.
func (s *Store) CreateProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return domain.Project{}, err
	}
	settings, err := encodeJSON(project.Settings, project.Settings == nil)
	if err != nil {
		return domain.Project{}, fmt.Errorf("encode project settings: %w", err)
	}

	project.Version = 1
	err = s.db.QueryRowContext(ctx, s.q(`
INSERT INTO projects (name, description, settings, version, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id`),
		project.Name, project.Description, settings, project.Version,
		toMillis(project.CreatedAt), toMillis(project.UpdatedAt),
	).Scan(&project.ID)
	if err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return project, nil
}

// UpdateProject writes the project when its version still matches.
func (s *Store) UpdateProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return domain.Project{}, err
	}
	settings, err := encodeJSON(project.Settings, project.Settings == nil)
	if err != nil {
		return domain.Project{}, fmt.Errorf("encode project settings: %w", err)
	}

	var out domain.Project
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(`
UPDATE projects
SET name = ?, description = ?, settings = ?, version = version + 1, updated_at = ?
WHERE id = ? AND version = ?`),
			project.Name, project.Description, settings, toMillis(project.UpdatedAt),
			project.ID, project.Version,
		)
		if err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("update project: %w", err)
		} else if n == 0 {
			current, err := s.getProject(ctx, tx, project.ID)
			if err != nil {
				return err
			}
			return repository.NewVersionConflict(repository.ResourceProject, projectKey(project.ID), project.Version, current.Version)
		}
		out, err = s.getProject(ctx, tx, project.ID)
		return err
	})
	if err != nil {
		return domain.Project{}, err
	}
	return out, nil
}

// DeleteProject removes the project and everything it owns. Children are
// deleted explicitly so the cascade does not depend on foreign key enforcement.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.requireProject(ctx, tx, id); err != nil {
			return err
		}
		for _, table := range []string{"story_nodes", "node_groups", "assets"} {
			if _, err := tx.ExecContext(ctx, s.q("DELETE FROM "+table+" WHERE project_id = ?"), id); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		if _, err := tx.ExecContext(ctx, s.q("DELETE FROM projects WHERE id = ?"), id); err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		return nil
	})
}
