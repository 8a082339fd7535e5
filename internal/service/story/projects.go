package story

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"silkmaker-backend/internal/domain"
	"silkmaker-backend/internal/repository"
	appErrors "silkmaker-backend/pkg/errors"
)

func (s *service) ListProjects(ctx context.Context) (_ []domain.ProjectSummary, err error) {
	ctx, span := s.start(ctx, "ListProjects")
	defer func() { finish(span, err) }()

	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, translate(err, "failed to list projects")
	}
	return projects, nil
}

func (s *service) GetProject(ctx context.Context, projectID int64) (_ ProjectDetail, err error) {
	ctx, span := s.start(ctx, "GetProject", projectAttr(projectID))
	defer func() { finish(span, err) }()

	project, err := s.requireProject(ctx, projectID)
	if err != nil {
		return ProjectDetail{}, err
	}
	nodes, err := s.repo.ListNodes(ctx, projectID)
	if err != nil {
		return ProjectDetail{}, translate(err, "failed to list nodes")
	}
	groups, err := s.repo.ListGroups(ctx, projectID)
	if err != nil {
		return ProjectDetail{}, translate(err, "failed to list groups")
	}
	assets, err := s.repo.ListAssets(ctx, projectID)
	if err != nil {
		return ProjectDetail{}, translate(err, "failed to list assets")
	}
	return ProjectDetail{Project: project, Nodes: nodes, Groups: groups, Assets: assets}, nil
}

func (s *service) CreateProject(ctx context.Context, in ProjectInput) (_ domain.ProjectSummary, err error) {
	ctx, span := s.start(ctx, "CreateProject")
	defer func() { finish(span, err) }()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.ProjectSummary{}, appErrors.NewValidation("project name is required")
	}

	now := s.now()
	created, err := s.repo.CreateProject(ctx, domain.Project{
		Name:        name,
		Description: in.Description,
		Settings:    in.Settings,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return domain.ProjectSummary{}, translate(err, "failed to create project")
	}

	s.logger.Debug("project created", zap.Int64("project_id", created.ID))
	s.publish(ctx, domain.NewEvent(domain.EventProjectCreated, created.ID, strconv.FormatInt(created.ID, 10)).
		With("name", created.Name))
	return domain.ProjectSummary{Project: created}, nil
}

func (s *service) UpdateProject(ctx context.Context, projectID int64, patch ProjectPatch) (_ domain.ProjectSummary, err error) {
	ctx, span := s.start(ctx, "UpdateProject", projectAttr(projectID))
	defer func() { finish(span, err) }()

	var name string
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
		if name == "" {
			return domain.ProjectSummary{}, appErrors.NewValidation("project name cannot be empty")
		}
	}

	var updated domain.Project
	for attempt := 0; ; attempt++ {
		project, err := s.requireProject(ctx, projectID)
		if err != nil {
			return domain.ProjectSummary{}, err
		}
		if patch.Version != nil && *patch.Version != project.Version {
			return domain.ProjectSummary{}, versionConflict(repository.ResourceProject,
				strconv.FormatInt(projectID, 10), *patch.Version, project.Version)
		}

		if patch.Name != nil {
			project.Name = name
		}
		if patch.Description != nil {
			project.Description = *patch.Description
		}
		if patch.Settings != nil {
			project.Settings = patch.Settings
		}
		project.UpdatedAt = s.now()

		updated, err = s.repo.UpdateProject(ctx, project)
		if err == nil {
			break
		}
		if !retryUnversioned(err, patch.Version, attempt) {
			return domain.ProjectSummary{}, translate(err, "failed to update project")
		}
	}
	nodes, err := s.repo.ListNodes(ctx, projectID)
	if err != nil {
		return domain.ProjectSummary{}, translate(err, "failed to count nodes")
	}

	s.publish(ctx, domain.NewEvent(domain.EventProjectUpdated, projectID, strconv.FormatInt(projectID, 10)).
		With("version", updated.Version))
	return domain.ProjectSummary{Project: updated, NodeCount: len(nodes)}, nil
}

func (s *service) DeleteProject(ctx context.Context, projectID int64) (err error) {
	ctx, span := s.start(ctx, "DeleteProject", projectAttr(projectID))
	defer func() { finish(span, err) }()

	if err := s.repo.DeleteProject(ctx, projectID); err != nil {
		return translate(err, "failed to delete project")
	}
	s.publish(ctx, domain.NewEvent(domain.EventProjectDeleted, projectID, strconv.FormatInt(projectID, 10)))
	return nil
}

func (s *service) ProjectStats(ctx context.Context, projectID int64) (_ domain.Stats, err error) {
	ctx, span := s.start(ctx, "ProjectStats", projectAttr(projectID))
	defer func() { finish(span, err) }()

	if _, err := s.requireProject(ctx, projectID); err != nil {
		return domain.Stats{}, err
	}
	nodes, err := s.repo.ListNodes(ctx, projectID)
	if err != nil {
		return domain.Stats{}, translate(err, "failed to list nodes")
	}
	return domain.NewGraph(nodes).Stats(), nil
}
