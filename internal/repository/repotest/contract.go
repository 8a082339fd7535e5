// Package repotest holds the behavioural contract every repository
// implementation must satisfy. Implementations call Run from their own tests.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"silkmaker-backend/internal/domain"
	"silkmaker-backend/internal/repository"
)

// Factory returns an empty repository. It is called once per subtest.
type Factory func(t *testing.T) repository.Repository

var epoch = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return epoch.Add(time.Duration(minutes) * time.Minute)
}

// Run executes the repository contract against implementations built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, repo repository.Repository)
	}{
		{"ProjectLifecycle", testProjectLifecycle},
		{"ProjectListingOrderAndCounts", testProjectListing},
		{"ProjectVersionConflict", testProjectVersionConflict},
		{"NodeLifecycle", testNodeLifecycle},
		{"NodeDuplicateID", testNodeDuplicate},
		{"NodeVersionConflict", testNodeVersionConflict},
		{"NodeDeleteCleansReferences", testNodeDeleteCleansReferences},
		{"GroupLifecycle", testGroupLifecycle},
		{"AssetLifecycle", testAssetLifecycle},
		{"ProjectDeleteCascades", testProjectDeleteCascades},
		{"ChildrenRequireProject", testChildrenRequireProject},
		{"CanceledContext", testCanceledContext},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo(t)
			tt.fn(t, repo)
		})
	}
}

func mustProject(t *testing.T, repo repository.Repository, name string, updated time.Time) domain.Project {
	t.Helper()
	p, err := repo.CreateProject(context.Background(), domain.Project{
		Name:      name,
		CreatedAt: updated,
		UpdatedAt: updated,
	})
	require.NoError(t, err)
	return p
}

func mustNode(t *testing.T, repo repository.Repository, projectID int64, nodeID string, connections ...string) domain.StoryNode {
	t.Helper()
	n := domain.StoryNode{
		ProjectID:   projectID,
		NodeID:      nodeID,
		Title:       "Title " + nodeID,
		Type:        domain.NodeTypeStory,
		Connections: connections,
		CreatedAt:   epoch,
		UpdatedAt:   epoch,
	}
	if connections == nil {
		n.Connections = []string{}
	}
	n.SetContent("content of " + nodeID)
	created, err := repo.CreateNode(context.Background(), n)
	require.NoError(t, err)
	return created
}

func testProjectLifecycle(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	settings := &domain.ProjectSettings{
		DefaultTheme:   "dark",
		ExportSettings: map[string]any{"minify": true},
		CanvasSettings: &domain.CanvasSettings{Zoom: 1.5, Pan: domain.Pan{X: 10, Y: -4}},
	}
	created, err := repo.CreateProject(ctx, domain.Project{
		Name:        "Gatekeeper",
		Description: "A short tale",
		Settings:    settings,
		CreatedAt:   at(0),
		UpdatedAt:   at(0),
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 1, created.Version)

	got, err := repo.GetProject(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gatekeeper", got.Name)
	assert.Equal(t, "A short tale", got.Description)
	require.NotNil(t, got.Settings)
	assert.Equal(t, "dark", got.Settings.DefaultTheme)
	assert.Equal(t, true, got.Settings.ExportSettings["minify"])
	assert.Equal(t, 1.5, got.Settings.CanvasSettings.Zoom)
	assert.True(t, got.CreatedAt.Equal(at(0)))

	got.Name = "Gatekeeper II"
	got.UpdatedAt = at(5)
	updated, err := repo.UpdateProject(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "Gatekeeper II", updated.Name)

	got, err = repo.GetProject(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gatekeeper II", got.Name)
	assert.True(t, got.UpdatedAt.Equal(at(5)))
	assert.True(t, got.CreatedAt.Equal(at(0)))

	require.NoError(t, repo.DeleteProject(ctx, created.ID))
	_, err = repo.GetProject(ctx, created.ID)
	assert.True(t, repository.IsNotFound(err))
	assert.True(t, repository.IsNotFound(repo.DeleteProject(ctx, created.ID)))
}

func testProjectListing(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	late := mustProject(t, repo, "late", at(30))
	early := mustProject(t, repo, "early", at(10))
	mustNode(t, repo, late.ID, "a")
	mustNode(t, repo, late.ID, "b")

	list, err := repo.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].ID)
	assert.Equal(t, 0, list[0].NodeCount)
	assert.Equal(t, late.ID, list[1].ID)
	assert.Equal(t, 2, list[1].NodeCount)
}

func testProjectVersionConflict(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	p := mustProject(t, repo, "original", at(0))

	stale := p
	p.Name = "first writer"
	_, err := repo.UpdateProject(ctx, p)
	require.NoError(t, err)

	stale.Name = "second writer"
	_, err = repo.UpdateProject(ctx, stale)
	assert.True(t, repository.IsConflict(err))

	got, err := repo.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "first writer", got.Name)
	assert.Equal(t, 2, got.Version)

	_, err = repo.UpdateProject(ctx, domain.Project{ID: p.ID + 1000, Version: 1})
	assert.True(t, repository.IsNotFound(err))
}

func testNodeLifecycle(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	p := mustProject(t, repo, "nodes", at(0))

	n := domain.StoryNode{
		ProjectID:   p.ID,
		NodeID:      "intro",
		Title:       "Intro",
		Type:        domain.NodeTypeStart,
		Position:    domain.Position{X: 12.5, Y: 40},
		Connections: []string{"next", "next"},
		Variables:   map[string]any{"gold": float64(3), "name": "Ada"},
		Color:       "#ff0000",
		CSSStyles:   &domain.CSSStyles{BackgroundImage: "https://cdn.example.com/bg.png"},
		AudioFile:   "theme.mp3",
		CreatedAt:   at(1),
		UpdatedAt:   at(1),
	}
	n.SetContent("Once upon a time")
	created, err := repo.CreateNode(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)
	mustNode(t, repo, p.ID, "next")

	got, err := repo.GetNode(ctx, p.ID, "intro")
	require.NoError(t, err)
	assert.Equal(t, "Intro", got.Title)
	assert.Equal(t, domain.NodeTypeStart, got.Type)
	assert.Equal(t, domain.Position{X: 12.5, Y: 40}, got.Position)
	assert.Equal(t, []string{"next", "next"}, got.Connections)
	assert.Equal(t, float64(3), got.Variables["gold"])
	assert.Equal(t, 4, got.WordCount)
	assert.True(t, got.HasImage())
	assert.Equal(t, "theme.mp3", got.AudioFile)

	got.SetContent("Once")
	got.UpdatedAt = at(2)
	updated, err := repo.UpdateNode(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, 1, updated.WordCount)

	list, err := repo.ListNodes(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "intro", list[0].NodeID)
	assert.Equal(t, "next", list[1].NodeID)

	require.NoError(t, repo.DeleteNode(ctx, p.ID, "next"))
	_, err = repo.GetNode(ctx, p.ID, "next")
	assert.True(t, repository.IsNotFound(err))
	assert.True(t, repository.IsNotFound(repo.DeleteNode(ctx, p.ID, "next")))
}

func testNodeDuplicate(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	p := mustProject(t, repo, "dup", at(0))
	other := mustProject(t, repo, "other", at(0))
	mustNode(t, repo, p.ID, "a")

	_, err := repo.CreateNode(ctx, domain.StoryNode{ProjectID: p.ID, NodeID: "a", Type: domain.NodeTypeStory})
	assert.True(t, repository.IsAlreadyExists(err))

	// ids are scoped by project
	mustNode(t, repo, other.ID, "a")
}

func testNodeVersionConflict(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	p := mustProject(t, repo, "occ", at(0))
	n := mustNode(t, repo, p.ID, "a")

	stale := n
	n.Title = "fresh"
	_, err := repo.UpdateNode(ctx, n)
	require.NoError(t, err)

	stale.Title = "stale"
	_, err = repo.UpdateNode(ctx, stale)
	assert.True(t, repository.IsConflict(err))

	got, err := repo.GetNode(ctx, p.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Title)
}

func testNodeDeleteCleansReferences(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	p := mustProject(t, repo, "cleanup", at(0))
	mustNode(t, repo, p.ID, "a", "b", "c", "b")
	mustNode(t, repo, p.ID, "b", "b")
	mustNode(t, repo, p.ID, "c", "a")

	_, err := repo.CreateGroup(ctx, domain.NodeGroup{
		ProjectID: p.ID, GroupID: "g", Name: "Act I", Color: "#00ff00",
		NodeIDs: []string{"a", "b", "c"}, IsVisible: true, CreatedAt: epoch,
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteNode(ctx, p.ID, "b"))

	a, err := repo.GetNode(ctx, p.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, a.Connections)
	assert.Equal(t, 2, a.Version)

	c, err := repo.GetNode(ctx, p.ID, "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, c.Connections)
	assert.Equal(t, 1, c.Version)

	g, err := repo.GetGroup(ctx, p.ID, "g")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, g.NodeIDs)
}

func testGroupLifecycle(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	p := mustProject(t, repo, "groups", at(0))

	for i, id := range []string{"g1", "g2"} {
		_, err := repo.CreateGroup(ctx, domain.NodeGroup{
			ProjectID: p.ID, GroupID: id, Name: "Group " + id, Color: "#123456",
			NodeIDs: []string{}, IsVisible: true, CreatedAt: at(i),
		})
		require.NoError(t, err)
	}
	_, err := repo.CreateGroup(ctx, domain.NodeGroup{ProjectID: p.ID, GroupID: "g1", Name: "again", Color: "#000"})
	assert.True(t, repository.IsAlreadyExists(err))

	g, err := repo.GetGroup(ctx, p.ID, "g1")
	require.NoError(t, err)
	g.IsVisible = false
	g.NodeIDs = []string{"x"}
	updated, err := repo.UpdateGroup(ctx, g)
	require.NoError(t, err)
	assert.False(t, updated.IsVisible)

	list, err := repo.ListGroups(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "g1", list[0].GroupID)
	assert.False(t, list[0].IsVisible)
	assert.Equal(t, []string{"x"}, list[0].NodeIDs)

	require.NoError(t, repo.DeleteGroup(ctx, p.ID, "g1"))
	_, err = repo.GetGroup(ctx, p.ID, "g1")
	assert.True(t, repository.IsNotFound(err))
	_, err = repo.UpdateGroup(ctx, g)
	assert.True(t, repository.IsNotFound(err))
}

func testAssetLifecycle(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	p := mustProject(t, repo, "assets", at(0))

	asset := domain.Asset{
		ProjectID: p.ID, AssetID: "bg", Name: "Background", Type: domain.AssetTypeImage,
		URL: "https://cdn.example.com/bg.png", Size: 2048, MimeType: "image/png",
		Thumbnail: "https://cdn.example.com/bg-thumb.png", CreatedAt: at(3),
	}
	_, err := repo.CreateAsset(ctx, asset)
	require.NoError(t, err)
	_, err = repo.CreateAsset(ctx, asset)
	assert.True(t, repository.IsAlreadyExists(err))

	got, err := repo.GetAsset(ctx, p.ID, "bg")
	require.NoError(t, err)
	assert.Equal(t, int64(2048), got.Size)
	assert.Equal(t, "image/png", got.MimeType)
	assert.True(t, got.CreatedAt.Equal(at(3)))

	list, err := repo.ListAssets(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.DeleteAsset(ctx, p.ID, "bg"))
	assert.True(t, repository.IsNotFound(repo.DeleteAsset(ctx, p.ID, "bg")))
}

func testProjectDeleteCascades(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	p := mustProject(t, repo, "doomed", at(0))
	keep := mustProject(t, repo, "keep", at(0))
	mustNode(t, repo, p.ID, "a")
	mustNode(t, repo, keep.ID, "a")
	_, err := repo.CreateGroup(ctx, domain.NodeGroup{ProjectID: p.ID, GroupID: "g", Name: "g", Color: "#fff", NodeIDs: []string{"a"}})
	require.NoError(t, err)
	_, err = repo.CreateAsset(ctx, domain.Asset{ProjectID: p.ID, AssetID: "x", Name: "x", Type: domain.AssetTypeAudio, URL: "u", MimeType: "audio/mpeg"})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteProject(ctx, p.ID))

	_, err = repo.GetNode(ctx, p.ID, "a")
	assert.True(t, repository.IsNotFound(err))
	_, err = repo.GetGroup(ctx, p.ID, "g")
	assert.True(t, repository.IsNotFound(err))
	_, err = repo.GetAsset(ctx, p.ID, "x")
	assert.True(t, repository.IsNotFound(err))

	nodes, err := repo.ListNodes(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	_, err = repo.GetNode(ctx, keep.ID, "a")
	assert.NoError(t, err)
}

func testChildrenRequireProject(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	_, err := repo.CreateNode(ctx, domain.StoryNode{ProjectID: 4242, NodeID: "orphan", Type: domain.NodeTypeStory})
	assert.True(t, repository.IsNotFound(err))
	_, err = repo.CreateGroup(ctx, domain.NodeGroup{ProjectID: 4242, GroupID: "orphan"})
	assert.True(t, repository.IsNotFound(err))
	_, err = repo.CreateAsset(ctx, domain.Asset{ProjectID: 4242, AssetID: "orphan"})
	assert.True(t, repository.IsNotFound(err))
}

func testCanceledContext(t *testing.T, repo repository.Repository) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListProjects(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = repo.CreateProject(ctx, domain.Project{Name: "never"})
	assert.ErrorIs(t, err, context.Canceled)
}
