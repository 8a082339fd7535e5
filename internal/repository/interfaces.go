// Package repository defines the persistence port for projects and the
// nodes, groups and assets they own. Internal row keys never leave the
// implementations.
package repository

import (
	"context"

	"silkmaker-backend/internal/domain"
)

// ProjectRepository persists projects.
type ProjectRepository interface {
	// ListProjects returns every project with its node count, oldest update first.
	ListProjects(ctx context.Context) ([]domain.ProjectSummary, error)
	GetProject(ctx context.Context, id int64) (domain.Project, error)
	// CreateProject assigns the id and sets the version to 1.
	CreateProject(ctx context.Context, project domain.Project) (domain.Project, error)
	// UpdateProject writes project if the stored version still equals
	// project.Version, and increments it.
	UpdateProject(ctx context.Context, project domain.Project) (domain.Project, error)
	// DeleteProject removes the project with all its nodes, groups and assets.
	DeleteProject(ctx context.Context, id int64) error
}

// NodeRepository persists story nodes scoped by project.
type NodeRepository interface {
	// ListNodes returns the project's nodes in creation order.
	ListNodes(ctx context.Context, projectID int64) ([]domain.StoryNode, error)
	GetNode(ctx context.Context, projectID int64, nodeID string) (domain.StoryNode, error)
	CreateNode(ctx context.Context, node domain.StoryNode) (domain.StoryNode, error)
	// UpdateNode writes node if the stored version still equals node.Version,
	// and increments it.
	UpdateNode(ctx context.Context, node domain.StoryNode) (domain.StoryNode, error)
	// DeleteNode removes the node and strips its id from every other node's
	// connections and every group's node ids in one transaction.
	DeleteNode(ctx context.Context, projectID int64, nodeID string) error
}

// GroupRepository persists node groups scoped by project.
type GroupRepository interface {
	ListGroups(ctx context.Context, projectID int64) ([]domain.NodeGroup, error)
	GetGroup(ctx context.Context, projectID int64, groupID string) (domain.NodeGroup, error)
	CreateGroup(ctx context.Context, group domain.NodeGroup) (domain.NodeGroup, error)
	UpdateGroup(ctx context.Context, group domain.NodeGroup) (domain.NodeGroup, error)
	DeleteGroup(ctx context.Context, projectID int64, groupID string) error
}

// AssetRepository persists asset metadata scoped by project.
type AssetRepository interface {
	ListAssets(ctx context.Context, projectID int64) ([]domain.Asset, error)
	GetAsset(ctx context.Context, projectID int64, assetID string) (domain.Asset, error)
	CreateAsset(ctx context.Context, asset domain.Asset) (domain.Asset, error)
	DeleteAsset(ctx context.Context, projectID int64, assetID string) error
}

// Repository is the complete store used by the story service.
type Repository interface {
	ProjectRepository
	NodeRepository
	GroupRepository
	AssetRepository

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
	Close() error
}
