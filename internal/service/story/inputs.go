package story

import "silkmaker-backend/internal/domain"

// ProjectDetail is a project with everything it owns.
type ProjectDetail struct {
	Project domain.Project
	Nodes   []domain.StoryNode
	Groups  []domain.NodeGroup
	Assets  []domain.Asset
}

// ProjectInput creates a project.
type ProjectInput struct {
	Name        string
	Description string
	Settings    *domain.ProjectSettings
}

// ProjectPatch updates the fields that are set. A non-nil Version must match
// the stored version.
type ProjectPatch struct {
	Name        *string
	Description *string
	Settings    *domain.ProjectSettings
	Version     *int
}

// NodeFilter narrows ListNodes. Zero values match everything.
type NodeFilter struct {
	Search string
	Types  []domain.NodeType
}

// NodeInput creates a node. An empty NodeID is replaced by a generated one.
type NodeInput struct {
	NodeID      string
	Title       string
	Content     string
	Type        domain.NodeType
	Position    domain.Position
	Connections []string
	Variables   map[string]any
	Color       string
	CSSStyles   *domain.CSSStyles
	AudioFile   string
	VideoFile   string
}

// NodePatch updates the fields that are set. A non-nil Version must match
// the stored version.
type NodePatch struct {
	Title       *string
	Content     *string
	Type        *domain.NodeType
	Position    *domain.Position
	Connections *[]string
	Variables   *map[string]any
	Color       *string
	CSSStyles   *domain.CSSStyles
	AudioFile   *string
	VideoFile   *string
	Version     *int
}

// GroupInput creates a group. IsVisible defaults to true.
type GroupInput struct {
	GroupID   string
	Name      string
	Color     string
	NodeIDs   []string
	IsVisible *bool
}

// GroupPatch updates the fields that are set.
type GroupPatch struct {
	Name      *string
	Color     *string
	NodeIDs   *[]string
	IsVisible *bool
}

// AssetInput records an asset.
type AssetInput struct {
	AssetID   string
	Name      string
	Type      domain.AssetType
	URL       string
	Size      int64
	MimeType  string
	Thumbnail string
}

// ExportResult is a rendered HTML document ready for download.
type ExportResult struct {
	Filename    string
	ProjectName string
	HTML        []byte
}
