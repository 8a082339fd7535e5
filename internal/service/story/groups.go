package story

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"silkmaker-backend/internal/domain"
	appErrors "silkmaker-backend/pkg/errors"
)

func (s *service) ListGroups(ctx context.Context, projectID int64) (_ []domain.NodeGroup, err error) {
	ctx, span := s.start(ctx, "ListGroups", projectAttr(projectID))
	defer func() { finish(span, err) }()

	if _, err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	groups, err := s.repo.ListGroups(ctx, projectID)
	if err != nil {
		return nil, translate(err, "failed to list groups")
	}
	return groups, nil
}

func (s *service) CreateGroup(ctx context.Context, projectID int64, in GroupInput) (_ domain.NodeGroup, err error) {
	ctx, span := s.start(ctx, "CreateGroup", projectAttr(projectID))
	defer func() { finish(span, err) }()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.NodeGroup{}, appErrors.NewValidation("group name is required")
	}
	if _, err := s.requireProject(ctx, projectID); err != nil {
		return domain.NodeGroup{}, err
	}

	group := domain.NodeGroup{
		ProjectID: projectID,
		GroupID:   in.GroupID,
		Name:      name,
		Color:     in.Color,
		NodeIDs:   in.NodeIDs,
		IsVisible: true,
		CreatedAt: s.now(),
	}
	if group.GroupID == "" {
		group.GroupID = uuid.NewString()
	}
	if group.NodeIDs == nil {
		group.NodeIDs = []string{}
	}
	if in.IsVisible != nil {
		group.IsVisible = *in.IsVisible
	}

	created, err := s.repo.CreateGroup(ctx, group)
	if err != nil {
		return domain.NodeGroup{}, translate(err, "failed to create group")
	}
	s.publish(ctx, domain.NewEvent(domain.EventGroupCreated, projectID, created.GroupID))
	return created, nil
}

func (s *service) UpdateGroup(ctx context.Context, projectID int64, groupID string, patch GroupPatch) (_ domain.NodeGroup, err error) {
	ctx, span := s.start(ctx, "UpdateGroup", projectAttr(projectID))
	defer func() { finish(span, err) }()

	if _, err := s.requireProject(ctx, projectID); err != nil {
		return domain.NodeGroup{}, err
	}
	group, err := s.repo.GetGroup(ctx, projectID, groupID)
	if err != nil {
		return domain.NodeGroup{}, translate(err, "failed to get group")
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return domain.NodeGroup{}, appErrors.NewValidation("group name cannot be empty")
		}
		group.Name = name
	}
	if patch.Color != nil {
		group.Color = *patch.Color
	}
	if patch.NodeIDs != nil {
		group.NodeIDs = *patch.NodeIDs
		if group.NodeIDs == nil {
			group.NodeIDs = []string{}
		}
	}
	if patch.IsVisible != nil {
		group.IsVisible = *patch.IsVisible
	}

	updated, err := s.repo.UpdateGroup(ctx, group)
	if err != nil {
		return domain.NodeGroup{}, translate(err, "failed to update group")
	}
	s.publish(ctx, domain.NewEvent(domain.EventGroupUpdated, projectID, groupID))
	return updated, nil
}

func (s *service) DeleteGroup(ctx context.Context, projectID int64, groupID string) (err error) {
	ctx, span := s.start(ctx, "DeleteGroup", projectAttr(projectID))
	defer func() { finish(span, err) }()

	if _, err := s.requireProject(ctx, projectID); err != nil {
		return err
	}
	if err := s.repo.DeleteGroup(ctx, projectID, groupID); err != nil {
		return translate(err, "failed to delete group")
	}
	s.publish(ctx, domain.NewEvent(domain.EventGroupDeleted, projectID, groupID))
	return nil
}
