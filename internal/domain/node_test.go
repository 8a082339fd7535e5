package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeWordCount(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"   \t\n ", 0},
		{"one", 1},
		{"The hero wakes up", 4},
		{"  leading and   trailing  ", 3},
		{"line\nbreaks\tand tabs", 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ComputeWordCount(tt.content), "content %q", tt.content)
	}
}

func TestSetContentRederivesWordCount(t *testing.T) {
	n := StoryNode{}
	n.SetContent("a b c")
	assert.Equal(t, 3, n.WordCount)

	n.SetContent("")
	assert.Equal(t, 0, n.WordCount)
}

func TestHasImage(t *testing.T) {
	n := StoryNode{}
	assert.False(t, n.HasImage())

	n.CSSStyles = &CSSStyles{TextColor: "#fff"}
	assert.False(t, n.HasImage())

	n.CSSStyles.BackgroundImage = "https://cdn.example.com/bg.png"
	assert.True(t, n.HasImage())
}

func TestCloneIsDeep(t *testing.T) {
	n := StoryNode{
		NodeID:      "a",
		Connections: []string{"b"},
		Variables:   map[string]any{"gold": 3},
		CSSStyles:   &CSSStyles{FontSize: "12px"},
	}
	c := n.Clone()
	c.Connections[0] = "z"
	c.Variables["gold"] = 0
	c.CSSStyles.FontSize = "20px"

	assert.Equal(t, "b", n.Connections[0])
	assert.Equal(t, 3, n.Variables["gold"])
	assert.Equal(t, "12px", n.CSSStyles.FontSize)
	assert.NotNil(t, StoryNode{}.Clone().Connections)
}

func TestNodeTypeValid(t *testing.T) {
	for _, nt := range NodeTypes {
		assert.True(t, nt.Valid())
	}
	assert.False(t, NodeType("chapter").Valid())
	assert.True(t, AssetTypeGIF.Valid())
	assert.False(t, AssetType("pdf").Valid())
}
