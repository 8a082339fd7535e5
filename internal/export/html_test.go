package export

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"silkmaker-backend/internal/domain"
)

func render(t *testing.T, story Story, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, story, opts))
	return buf.String()
}

func TestRenderSingleStartNodeVisible(t *testing.T) {
	out := render(t, Story{
		Name: "Gatekeeper",
		Nodes: []domain.StoryNode{
			{NodeID: "a", Title: "Intro", Type: domain.NodeTypeStory},
			{NodeID: "b", Title: "Begin", Type: domain.NodeTypeStart, Connections: []string{"a"}},
			{NodeID: "c", Title: "Fin", Type: domain.NodeTypeEnd},
		},
	}, Options{})

	assert.Contains(t, out, `<div id="node-b" class="node">`)
	assert.Contains(t, out, `<div id="node-a" class="node hidden">`)
	assert.Contains(t, out, `<div id="node-c" class="node hidden">`)
	assert.Equal(t, 1, strings.Count(out, `class="node"`))
	assert.Equal(t, 2, strings.Count(out, `class="node hidden"`))
	assert.Contains(t, out, `<h1 class="project-title">Gatekeeper</h1>`)
	assert.Contains(t, out, "<title>Gatekeeper</title>")
}

func TestRenderNoStartNodeHidesEverything(t *testing.T) {
	out := render(t, Story{
		Name: "Headless",
		Nodes: []domain.StoryNode{
			{NodeID: "a", Title: "One", Type: domain.NodeTypeStory},
			{NodeID: "b", Title: "Two", Type: domain.NodeTypeEnd},
		},
	}, Options{})

	assert.Equal(t, 0, strings.Count(out, `class="node"`))
	assert.Equal(t, 2, strings.Count(out, `class="node hidden"`))
}

func TestRenderFirstStartWinsWhenNotStrict(t *testing.T) {
	out := render(t, Story{
		Nodes: []domain.StoryNode{
			{NodeID: "s1", Title: "First", Type: domain.NodeTypeStart},
			{NodeID: "s2", Title: "Second", Type: domain.NodeTypeStart},
		},
	}, Options{})

	assert.Contains(t, out, `<div id="node-s1" class="node">`)
	assert.Contains(t, out, `<div id="node-s2" class="node hidden">`)
}

func TestRenderChoicesSkipMissingTargets(t *testing.T) {
	out := render(t, Story{
		Name: "Branches",
		Nodes: []domain.StoryNode{
			{NodeID: "start", Title: "Crossroads", Type: domain.NodeTypeStart, Connections: []string{"north", "deleted", "south"}},
			{NodeID: "north", Title: "Go north", Type: domain.NodeTypeStory},
			{NodeID: "south", Title: "Go south", Type: domain.NodeTypeStory},
		},
	}, Options{})

	assert.Contains(t, out, `<button class="choice-button" onclick="showNode('north')">Go north</button>`)
	assert.Contains(t, out, `<button class="choice-button" onclick="showNode('south')">Go south</button>`)
	assert.NotContains(t, out, "deleted")
	assert.Equal(t, 2, strings.Count(out, `class="choice-button"`))
	assert.Equal(t, 1, strings.Count(out, `<div class="choices">`))
}

func TestRenderEmbedsShowNodeScript(t *testing.T) {
	out := render(t, Story{Name: "x"}, Options{})
	assert.Contains(t, out, "function showNode(nodeId)")
	assert.Contains(t, out, "scrollIntoView")
	assert.Equal(t, 1, strings.Count(out, "<script>"))
}

func TestRenderDescriptionOnlyWhenPresent(t *testing.T) {
	out := render(t, Story{Name: "x"}, Options{})
	assert.NotContains(t, out, `class="project-description"`)

	out = render(t, Story{Name: "x", Description: "A short tale"}, Options{})
	assert.Contains(t, out, `<p class="project-description">A short tale</p>`)
}

func TestRenderEscapesUserText(t *testing.T) {
	out := render(t, Story{
		Name: "<b>bold</b>",
		Nodes: []domain.StoryNode{
			{NodeID: "a", Title: "<script>alert(1)</script>", Content: "Tom & Jerry", Type: domain.NodeTypeStart},
		},
	}, Options{})

	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Contains(t, out, "Tom &amp; Jerry")
	assert.Contains(t, out, "&lt;b&gt;bold&lt;/b&gt;")
}

func TestRenderStrict(t *testing.T) {
	var buf bytes.Buffer

	err := Render(&buf, Story{Nodes: []domain.StoryNode{{NodeID: "a", Type: domain.NodeTypeStory}}}, Options{Strict: true})
	assert.ErrorIs(t, err, ErrNoStartNode)
	assert.Zero(t, buf.Len())

	err = Render(&buf, Story{Nodes: []domain.StoryNode{
		{NodeID: "a", Type: domain.NodeTypeStart},
		{NodeID: "b", Type: domain.NodeTypeStart},
	}}, Options{Strict: true})
	assert.True(t, errors.Is(err, ErrMultipleStartNodes))
	assert.Zero(t, buf.Len())

	err = Render(&buf, Story{Nodes: []domain.StoryNode{{NodeID: "a", Type: domain.NodeTypeStart}}}, Options{Strict: true})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `<div id="node-a" class="node">`)
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Gatekeeper", "Gatekeeper.html"},
		{"  My Tale ", "My Tale.html"},
		{"", "story.html"},
		{"   ", "story.html"},
		{"../escaped", "__escaped.html"},
		{"a/b", "a_b.html"},
		{`..\windows\x`, "__windows_x.html"},
		{"/etc/passwd", "_etc_passwd.html"},
		{"..", "story.html"},
		{"/", "story.html"},
		{".hidden", "hidden.html"},
		{"tab\there", "tab_there.html"},
		{"Tale\n", "Tale.html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filename(tt.name)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, filepath.Base(got))
		})
	}
}
