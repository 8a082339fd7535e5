package domain

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// NodeType is the kind of a story node.
type NodeType string

const (
	NodeTypeStart     NodeType = "start"
	NodeTypeStory     NodeType = "story"
	NodeTypeChoice    NodeType = "choice"
	NodeTypeEnd       NodeType = "end"
	NodeTypeCSS       NodeType = "css"
	NodeTypeVariable  NodeType = "variable"
	NodeTypeCondition NodeType = "condition"
	NodeTypeAudio     NodeType = "audio"
	NodeTypeVideo     NodeType = "video"
)

// NodeTypes lists every node type in display order.
var NodeTypes = []NodeType{
	NodeTypeStart, NodeTypeStory, NodeTypeChoice, NodeTypeEnd, NodeTypeCSS,
	NodeTypeVariable, NodeTypeCondition, NodeTypeAudio, NodeTypeVideo,
}

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	return slices.Contains(NodeTypes, t)
}

// Position is the canvas coordinate of a node. It is never used outside the editor.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CSSStyles holds per-node presentation overrides.
type CSSStyles struct {
	FontFamily      string `json:"fontFamily,omitempty"`
	FontSize        string `json:"fontSize,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
}

// StoryNode is a unit of story content with outgoing connections.
//
// NodeID is assigned by the client and is unique within its project.
// Connections is an ordered list of target node ids; duplicates and self
// references are allowed and carry no meaning.
type StoryNode struct {
	ProjectID   int64
	NodeID      string
	Title       string
	Content     string
	Type        NodeType
	Position    Position
	Connections []string
	Variables   map[string]any
	Color       string
	CSSStyles   *CSSStyles
	AudioFile   string
	VideoFile   string
	WordCount   int
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ComputeWordCount returns the number of whitespace-delimited tokens in content.
func ComputeWordCount(content string) int {
	return len(strings.Fields(content))
}

// SetContent replaces the content and re-derives the word count.
func (n *StoryNode) SetContent(content string) {
	n.Content = content
	n.WordCount = ComputeWordCount(content)
}

// HasImage reports whether the node carries a background image.
func (n *StoryNode) HasImage() bool {
	return n.CSSStyles != nil && n.CSSStyles.BackgroundImage != ""
}

// Clone returns a deep copy of the node.
func (n StoryNode) Clone() StoryNode {
	out := n
	out.Connections = slices.Clone(n.Connections)
	if out.Connections == nil {
		out.Connections = []string{}
	}
	if n.Variables != nil {
		out.Variables = maps.Clone(n.Variables)
	}
	if n.CSSStyles != nil {
		styles := *n.CSSStyles
		out.CSSStyles = &styles
	}
	return out
}
