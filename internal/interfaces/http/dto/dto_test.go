package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"silkmaker-backend/internal/domain"
)

func TestProjectSummaryFormatting(t *testing.T) {
	p := domain.ProjectSummary{
		Project: domain.Project{
			ID:        12,
			Name:      "Tale",
			Version:   3,
			UpdatedAt: time.Date(2024, time.March, 9, 23, 0, 0, 0, time.UTC),
		},
		NodeCount: 4,
	}
	got := ProjectSummary(p)
	assert.Equal(t, "12", got.ID)
	assert.Equal(t, "Mar 9, 2024", got.LastModified)
	assert.Equal(t, 4, got.NodeCount)
}

func TestNodeResponseJSON(t *testing.T) {
	n := domain.StoryNode{
		NodeID:    "intro",
		Title:     "Intro",
		Type:      domain.NodeTypeStart,
		CSSStyles: &domain.CSSStyles{BackgroundImage: "bg.png"},
		WordCount: 2,
		Version:   1,
	}
	raw, err := json.Marshal(Node(n))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "intro", m["id"])
	assert.Equal(t, true, m["hasImage"])
	assert.Equal(t, []any{}, m["connections"])
	assert.NotContains(t, m, "nodeId")
}

func TestAssetUploadDate(t *testing.T) {
	a := Asset(domain.Asset{AssetID: "a1", CreatedAt: time.Date(2023, 1, 5, 10, 0, 0, 0, time.UTC)})
	assert.Equal(t, "2023-01-05", a.UploadDate)
	assert.Equal(t, "a1", a.ID)
}

func TestCreateRequestsPreferExplicitIDs(t *testing.T) {
	assert.Equal(t, "n1", CreateNodeRequest{ID: "x", NodeID: "n1"}.ToInput().NodeID)
	assert.Equal(t, "x", CreateNodeRequest{ID: "x"}.ToInput().NodeID)
	assert.Equal(t, "g", CreateGroupRequest{ID: "g"}.ToInput().GroupID)
	assert.Equal(t, "a", CreateAssetRequest{AssetID: "a", ID: "b"}.ToInput().AssetID)
}

func TestUpdateNodeRequestType(t *testing.T) {
	typ := "end"
	patch := UpdateNodeRequest{Type: &typ}.ToPatch()
	require.NotNil(t, patch.Type)
	assert.Equal(t, domain.NodeTypeEnd, *patch.Type)
	assert.Nil(t, UpdateNodeRequest{}.ToPatch().Type)
}
