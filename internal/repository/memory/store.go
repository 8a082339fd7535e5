// Package memory provides an in-memory implementation of the repository
// port. It backs tests and the "memory" storage driver.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"sync"

	"silkmaker-backend/internal/domain"
	"silkmaker-backend/internal/repository"
)

// Store is a map-backed repository guarded by a single RWMutex. Child
// entities are kept in per-project slices so listing preserves creation order.
type Store struct {
	mu sync.RWMutex

	nextProjectID int64
	projects      map[int64]domain.Project
	nodes         map[int64][]domain.StoryNode
	groups        map[int64][]domain.NodeGroup
	assets        map[int64][]domain.Asset

	// For testing error scenarios
	shouldFailOn map[string]error
}

var _ repository.Repository = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		projects:     make(map[int64]domain.Project),
		nodes:        make(map[int64][]domain.StoryNode),
		groups:       make(map[int64][]domain.NodeGroup),
		assets:       make(map[int64][]domain.Asset),
		shouldFailOn: make(map[string]error),
	}
}

// SetError configures the store to return an error for a specific method.
func (s *Store) SetError(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shouldFailOn[method] = err
}

// ClearErrors removes all configured errors.
func (s *Store) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shouldFailOn = make(map[string]error)
}

// checkError must be called with s.mu held.
func (s *Store) checkError(method string) error {
	return s.shouldFailOn[method]
}

func (s *Store) begin(ctx context.Context, method string, write bool) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if write {
		s.mu.Lock()
		if err := s.checkError(method); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		return s.mu.Unlock, nil
	}
	s.mu.RLock()
	if err := s.checkError(method); err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	return s.mu.RUnlock, nil
}

func projectKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Ping always succeeds unless an error is configured.
func (s *Store) Ping(ctx context.Context) error {
	done, err := s.begin(ctx, "Ping", false)
	if err != nil {
		return err
	}
	done()
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Project operations

func (s *Store) ListProjects(ctx context.Context) ([]domain.ProjectSummary, error) {
	done, err := s.begin(ctx, "ListProjects", false)
	if err != nil {
		return nil, err
	}
	defer done()

	out := make([]domain.ProjectSummary, 0, len(s.projects))
	for id, p := range s.projects {
		out = append(out, domain.ProjectSummary{Project: p.Clone(), NodeCount: len(s.nodes[id])})
	}
	slices.SortStableFunc(out, func(a, b domain.ProjectSummary) int {
		if c := a.UpdatedAt.Compare(b.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) GetProject(ctx context.Context, id int64) (domain.Project, error) {
	done, err := s.begin(ctx, "GetProject", false)
	if err != nil {
		return domain.Project{}, err
	}
	defer done()

	p, ok := s.projects[id]
	if !ok {
		return domain.Project{}, repository.NewNotFound(repository.ResourceProject, projectKey(id))
	}
	return p.Clone(), nil
}

func (s *Store) CreateProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	done, err := s.begin(ctx, "CreateProject", true)
	if err != nil {
		return domain.Project{}, err
	}
	defer done()

	s.nextProjectID++
	project = project.Clone()
	project.ID = s.nextProjectID
	project.Version = 1
	s.projects[project.ID] = project
	return project.Clone(), nil
}

func (s *Store) UpdateProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	done, err := s.begin(ctx, "UpdateProject", true)
	if err != nil {
		return domain.Project{}, err
	}
	defer done()

	stored, ok := s.projects[project.ID]
	if !ok {
		return domain.Project{}, repository.NewNotFound(repository.ResourceProject, projectKey(project.ID))
	}
	if stored.Version != project.Version {
		return domain.Project{}, repository.NewVersionConflict(repository.ResourceProject, projectKey(project.ID), project.Version, stored.Version)
	}

	project = project.Clone()
	project.CreatedAt = stored.CreatedAt
	project.Version = stored.Version + 1
	s.projects[project.ID] = project
	return project.Clone(), nil
}

func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	done, err := s.begin(ctx, "DeleteProject", true)
	if err != nil {
		return err
	}
	defer done()

	if _, ok := s.projects[id]; !ok {
		return repository.NewNotFound(repository.ResourceProject, projectKey(id))
	}
	delete(s.projects, id)
	delete(s.nodes, id)
	delete(s.groups, id)
	delete(s.assets, id)
	return nil
}

// Node operations

func (s *Store) ListNodes(ctx context.Context, projectID int64) ([]domain.StoryNode, error) {
	done, err := s.begin(ctx, "ListNodes", false)
	if err != nil {
		return nil, err
	}
	defer done()

	nodes := s.nodes[projectID]
	out := make([]domain.StoryNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Clone())
	}
	return out, nil
}

func (s *Store) findNode(projectID int64, nodeID string) int {
	return slices.IndexFunc(s.nodes[projectID], func(n domain.StoryNode) bool { return n.NodeID == nodeID })
}

func (s *Store) GetNode(ctx context.Context, projectID int64, nodeID string) (domain.StoryNode, error) {
	done, err := s.begin(ctx, "GetNode", false)
	if err != nil {
		return domain.StoryNode{}, err
	}
	defer done()

	i := s.findNode(projectID, nodeID)
	if i < 0 {
		return domain.StoryNode{}, repository.NewNotFound(repository.ResourceNode, nodeID)
	}
	return s.nodes[projectID][i].Clone(), nil
}

func (s *Store) CreateNode(ctx context.Context, node domain.StoryNode) (domain.StoryNode, error) {
	done, err := s.begin(ctx, "CreateNode", true)
	if err != nil {
		return domain.StoryNode{}, err
	}
	defer done()

	if _, ok := s.projects[node.ProjectID]; !ok {
		return domain.StoryNode{}, repository.NewNotFound(repository.ResourceProject, projectKey(node.ProjectID))
	}
	if s.findNode(node.ProjectID, node.NodeID) >= 0 {
		return domain.StoryNode{}, repository.NewAlreadyExists(repository.ResourceNode, node.NodeID)
	}

	node = node.Clone()
	node.Version = 1
	s.nodes[node.ProjectID] = append(s.nodes[node.ProjectID], node)
	return node.Clone(), nil
}

func (s *Store) UpdateNode(ctx context.Context, node domain.StoryNode) (domain.StoryNode, error) {
	done, err := s.begin(ctx, "UpdateNode", true)
	if err != nil {
		return domain.StoryNode{}, err
	}
	defer done()

	i := s.findNode(node.ProjectID, node.NodeID)
	if i < 0 {
		return domain.StoryNode{}, repository.NewNotFound(repository.ResourceNode, node.NodeID)
	}
	stored := s.nodes[node.ProjectID][i]
	if stored.Version != node.Version {
		return domain.StoryNode{}, repository.NewVersionConflict(repository.ResourceNode, node.NodeID, node.Version, stored.Version)
	}

	node = node.Clone()
	node.CreatedAt = stored.CreatedAt
	node.Version = stored.Version + 1
	s.nodes[node.ProjectID][i] = node
	return node.Clone(), nil
}

func (s *Store) DeleteNode(ctx context.Context, projectID int64, nodeID string) error {
	done, err := s.begin(ctx, "DeleteNode", true)
	if err != nil {
		return err
	}
	defer done()

	i := s.findNode(projectID, nodeID)
	if i < 0 {
		return repository.NewNotFound(repository.ResourceNode, nodeID)
	}
	nodes := slices.Delete(s.nodes[projectID], i, i+1)
	for j := range nodes {
		if pruned, changed := domain.RemoveConnection(nodes[j].Connections, nodeID); changed {
			nodes[j].Connections = pruned
			nodes[j].Version++
		}
	}
	s.nodes[projectID] = nodes

	groups := s.groups[projectID]
	for j := range groups {
		groups[j].NodeIDs, _ = domain.RemoveConnection(groups[j].NodeIDs, nodeID)
	}
	return nil
}

// Group operations

func (s *Store) ListGroups(ctx context.Context, projectID int64) ([]domain.NodeGroup, error) {
	done, err := s.begin(ctx, "ListGroups", false)
	if err != nil {
		return nil, err
	}
	defer done()

	groups := s.groups[projectID]
	out := make([]domain.NodeGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Clone())
	}
	return out, nil
}

func (s *Store) findGroup(projectID int64, groupID string) int {
	return slices.IndexFunc(s.groups[projectID], func(g domain.NodeGroup) bool { return g.GroupID == groupID })
}

func (s *Store) GetGroup(ctx context.Context, projectID int64, groupID string) (domain.NodeGroup, error) {
	done, err := s.begin(ctx, "GetGroup", false)
	if err != nil {
		return domain.NodeGroup{}, err
	}
	defer done()

	i := s.findGroup(projectID, groupID)
	if i < 0 {
		return domain.NodeGroup{}, repository.NewNotFound(repository.ResourceGroup, groupID)
	}
	return s.groups[projectID][i].Clone(), nil
}

func (s *Store) CreateGroup(ctx context.Context, group domain.NodeGroup) (domain.NodeGroup, error) {
	done, err := s.begin(ctx, "CreateGroup", true)
	if err != nil {
		return domain.NodeGroup{}, err
	}
	defer done()

	if _, ok := s.projects[group.ProjectID]; !ok {
		return domain.NodeGroup{}, repository.NewNotFound(repository.ResourceProject, projectKey(group.ProjectID))
	}
	if s.findGroup(group.ProjectID, group.GroupID) >= 0 {
		return domain.NodeGroup{}, repository.NewAlreadyExists(repository.ResourceGroup, group.GroupID)
	}

	group = group.Clone()
	s.groups[group.ProjectID] = append(s.groups[group.ProjectID], group)
	return group.Clone(), nil
}

func (s *Store) UpdateGroup(ctx context.Context, group domain.NodeGroup) (domain.NodeGroup, error) {
	done, err := s.begin(ctx, "UpdateGroup", true)
	if err != nil {
		return domain.NodeGroup{}, err
	}
	defer done()

	i := s.findGroup(group.ProjectID, group.GroupID)
	if i < 0 {
		return domain.NodeGroup{}, repository.NewNotFound(repository.ResourceGroup, group.GroupID)
	}
	group = group.Clone()
	group.CreatedAt = s.groups[group.ProjectID][i].CreatedAt
	s.groups[group.ProjectID][i] = group
	return group.Clone(), nil
}

func (s *Store) DeleteGroup(ctx context.Context, projectID int64, groupID string) error {
	done, err := s.begin(ctx, "DeleteGroup", true)
	if err != nil {
		return err
	}
	defer done()

	i := s.findGroup(projectID, groupID)
	if i < 0 {
		return repository.NewNotFound(repository.ResourceGroup, groupID)
	}
	s.groups[projectID] = slices.Delete(s.groups[projectID], i, i+1)
	return nil
}

// Asset operations

func (s *Store) ListAssets(ctx context.Context, projectID int64) ([]domain.Asset, error) {
	done, err := s.begin(ctx, "ListAssets", false)
	if err != nil {
		return nil, err
	}
	defer done()

	return slices.Clone(s.assets[projectID]), nil
}

func (s *Store) findAsset(projectID int64, assetID string) int {
	return slices.IndexFunc(s.assets[projectID], func(a domain.Asset) bool { return a.AssetID == assetID })
}

func (s *Store) GetAsset(ctx context.Context, projectID int64, assetID string) (domain.Asset, error) {
	done, err := s.begin(ctx, "GetAsset", false)
	if err != nil {
		return domain.Asset{}, err
	}
	defer done()

	i := s.findAsset(projectID, assetID)
	if i < 0 {
		return domain.Asset{}, repository.NewNotFound(repository.ResourceAsset, assetID)
	}
	return s.assets[projectID][i], nil
}

func (s *Store) CreateAsset(ctx context.Context, asset domain.Asset) (domain.Asset, error) {
	done, err := s.begin(ctx, "CreateAsset", true)
	if err != nil {
		return domain.Asset{}, err
	}
	defer done()

	if _, ok := s.projects[asset.ProjectID]; !ok {
		return domain.Asset{}, repository.NewNotFound(repository.ResourceProject, projectKey(asset.ProjectID))
	}
	if s.findAsset(asset.ProjectID, asset.AssetID) >= 0 {
		return domain.Asset{}, repository.NewAlreadyExists(repository.ResourceAsset, asset.AssetID)
	}
	s.assets[asset.ProjectID] = append(s.assets[asset.ProjectID], asset)
	return asset, nil
}

func (s *Store) DeleteAsset(ctx context.Context, projectID int64, assetID string) error {
	done, err := s.begin(ctx, "DeleteAsset", true)
	if err != nil {
		return err
	}
	defer done()

	i := s.findAsset(projectID, assetID)
	if i < 0 {
		return repository.NewNotFound(repository.ResourceAsset, assetID)
	}
	s.assets[projectID] = slices.Delete(s.assets[projectID], i, i+1)
	return nil
}
