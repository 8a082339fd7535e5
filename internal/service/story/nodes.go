package story

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"silkmaker-backend/internal/domain"
	"silkmaker-backend/internal/repository"
	appErrors "silkmaker-backend/pkg/errors"
)

func nodeAttr(id string) attribute.KeyValue {
	return attribute.String("story.node_id", id)
}

func (s *service) ListNodes(ctx context.Context, projectID int64, filter NodeFilter) (_ []domain.StoryNode, err error) {
	ctx, span := s.start(ctx, "ListNodes", projectAttr(projectID))
	defer func() { finish(span, err) }()

	for _, t := range filter.Types {
		if !t.Valid() {
			return nil, appErrors.NewValidationf("unknown node type %q", t)
		}
	}
	if _, err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	nodes, err := s.repo.ListNodes(ctx, projectID)
	if err != nil {
		return nil, translate(err, "failed to list nodes")
	}
	if filter.Search == "" && len(filter.Types) == 0 {
		return nodes, nil
	}
	return domain.NewGraph(nodes).Filter(filter.Search, filter.Types), nil
}

func (s *service) GetNode(ctx context.Context, projectID int64, nodeID string) (_ domain.StoryNode, err error) {
	ctx, span := s.start(ctx, "GetNode", projectAttr(projectID), nodeAttr(nodeID))
	defer func() { finish(span, err) }()

	if _, err := s.requireProject(ctx, projectID); err != nil {
		return domain.StoryNode{}, err
	}
	node, err := s.repo.GetNode(ctx, projectID, nodeID)
	if err != nil {
		return domain.StoryNode{}, translate(err, "failed to get node")
	}
	return node, nil
}

// ConnectedNodes returns the existing nodes that nodeID connects to, in
// connection order without duplicates. An unknown nodeID has no neighbours.
func (s *service) ConnectedNodes(ctx context.Context, projectID int64, nodeID string) (_ []domain.StoryNode, err error) {
	ctx, span := s.start(ctx, "ConnectedNodes", projectAttr(projectID), nodeAttr(nodeID))
	defer func() { finish(span, err) }()

	if _, err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	nodes, err := s.repo.ListNodes(ctx, projectID)
	if err != nil {
		return nil, translate(err, "failed to list nodes")
	}
	return domain.NewGraph(nodes).ConnectedNodes(nodeID), nil
}

func (s *service) CreateNode(ctx context.Context, projectID int64, in NodeInput) (_ domain.StoryNode, err error) {
	ctx, span := s.start(ctx, "CreateNode", projectAttr(projectID))
	defer func() { finish(span, err) }()

	if !in.Type.Valid() {
		return domain.StoryNode{}, appErrors.NewValidationf("unknown node type %q", in.Type)
	}
	if _, err := s.requireProject(ctx, projectID); err != nil {
		return domain.StoryNode{}, err
	}

	nodeID := in.NodeID
	if nodeID == "" {
		nodeID = uuid.NewString()
	}
	connections := in.Connections
	if connections == nil {
		connections = []string{}
	}

	now := s.now()
	node := domain.StoryNode{
		ProjectID:   projectID,
		NodeID:      nodeID,
		Title:       in.Title,
		Type:        in.Type,
		Position:    in.Position,
		Connections: connections,
		Variables:   in.Variables,
		Color:       in.Color,
		CSSStyles:   in.CSSStyles,
		AudioFile:   in.AudioFile,
		VideoFile:   in.VideoFile,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	node.SetContent(in.Content)

	created, err := s.repo.CreateNode(ctx, node)
	if err != nil {
		return domain.StoryNode{}, translate(err, "failed to create node")
	}
	s.publish(ctx, domain.NewEvent(domain.EventNodeCreated, projectID, created.NodeID).
		With("type", string(created.Type)))
	return created, nil
}

func (s *service) UpdateNode(ctx context.Context, projectID int64, nodeID string, patch NodePatch) (_ domain.StoryNode, err error) {
	ctx, span := s.start(ctx, "UpdateNode", projectAttr(projectID), nodeAttr(nodeID))
	defer func() { finish(span, err) }()

	if patch.Type != nil && !patch.Type.Valid() {
		return domain.StoryNode{}, appErrors.NewValidationf("unknown node type %q", *patch.Type)
	}
	if _, err := s.requireProject(ctx, projectID); err != nil {
		return domain.StoryNode{}, err
	}
	var updated domain.StoryNode
	for attempt := 0; ; attempt++ {
		node, err := s.repo.GetNode(ctx, projectID, nodeID)
		if err != nil {
			return domain.StoryNode{}, translate(err, "failed to get node")
		}
		if patch.Version != nil && *patch.Version != node.Version {
			return domain.StoryNode{}, versionConflict(repository.ResourceNode, nodeID, *patch.Version, node.Version)
		}

		applyNodePatch(&node, patch)
		node.UpdatedAt = s.now()

		updated, err = s.repo.UpdateNode(ctx, node)
		if err == nil {
			break
		}
		if !retryUnversioned(err, patch.Version, attempt) {
			return domain.StoryNode{}, translate(err, "failed to update node")
		}
	}
	s.publish(ctx, domain.NewEvent(domain.EventNodeUpdated, projectID, nodeID).
		With("version", updated.Version))
	return updated, nil
}

func applyNodePatch(node *domain.StoryNode, patch NodePatch) {
	if patch.Title != nil {
		node.Title = *patch.Title
	}
	if patch.Content != nil {
		node.SetContent(*patch.Content)
	}
	if patch.Type != nil {
		node.Type = *patch.Type
	}
	if patch.Position != nil {
		node.Position = *patch.Position
	}
	if patch.Connections != nil {
		node.Connections = *patch.Connections
		if node.Connections == nil {
			node.Connections = []string{}
		}
	}
	if patch.Variables != nil {
		node.Variables = *patch.Variables
	}
	if patch.Color != nil {
		node.Color = *patch.Color
	}
	if patch.CSSStyles != nil {
		node.CSSStyles = patch.CSSStyles
	}
	if patch.AudioFile != nil {
		node.AudioFile = *patch.AudioFile
	}
	if patch.VideoFile != nil {
		node.VideoFile = *patch.VideoFile
	}
}

func (s *service) DeleteNode(ctx context.Context, projectID int64, nodeID string) (err error) {
	ctx, span := s.start(ctx, "DeleteNode", projectAttr(projectID), nodeAttr(nodeID))
	defer func() { finish(span, err) }()

	if _, err := s.requireProject(ctx, projectID); err != nil {
		return err
	}
	if err := s.repo.DeleteNode(ctx, projectID, nodeID); err != nil {
		return translate(err, "failed to delete node")
	}
	s.publish(ctx, domain.NewEvent(domain.EventNodeDeleted, projectID, nodeID))
	return nil
}
