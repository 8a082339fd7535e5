package dto

import (
	"strconv"
	"time"

	"silkmaker-backend/internal/domain"
	"silkmaker-backend/internal/service/story"
)

// Display formats used by the editor.
const (
	LastModifiedLayout = "Jan 2, 2006"
	UploadDateLayout   = "2006-01-02"
)

// ProjectSummaryResponse is a project as listed in the sidebar.
type ProjectSummaryResponse struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description,omitempty"`
	NodeCount    int                     `json:"nodeCount"`
	LastModified string                  `json:"lastModified"`
	Settings     *domain.ProjectSettings `json:"settings,omitempty"`
	Version      int                     `json:"version"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
}

func ProjectSummary(p domain.ProjectSummary) ProjectSummaryResponse {
	return ProjectSummaryResponse{
		ID:           strconv.FormatInt(p.ID, 10),
		Name:         p.Name,
		Description:  p.Description,
		NodeCount:    p.NodeCount,
		LastModified: p.UpdatedAt.Format(LastModifiedLayout),
		Settings:     p.Settings,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func ProjectSummaries(list []domain.ProjectSummary) []ProjectSummaryResponse {
	out := make([]ProjectSummaryResponse, 0, len(list))
	for _, p := range list {
		out = append(out, ProjectSummary(p))
	}
	return out
}

// ProjectDetailResponse is a project with all of its content.
type ProjectDetailResponse struct {
	ProjectSummaryResponse
	Nodes  []NodeResponse  `json:"nodes"`
	Groups []GroupResponse `json:"groups"`
	Assets []AssetResponse `json:"assets"`
}

func ProjectDetail(d story.ProjectDetail) ProjectDetailResponse {
	return ProjectDetailResponse{
		ProjectSummaryResponse: ProjectSummary(domain.ProjectSummary{Project: d.Project, NodeCount: len(d.Nodes)}),
		Nodes:                  Nodes(d.Nodes),
		Groups:                 Groups(d.Groups),
		Assets:                 Assets(d.Assets),
	}
}

// NodeResponse exposes the client node id as id.
type NodeResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Type        domain.NodeType   `json:"type"`
	Position    domain.Position   `json:"position"`
	Connections []string          `json:"connections"`
	Variables   map[string]any    `json:"variables,omitempty"`
	HasImage    bool              `json:"hasImage"`
	Color       string            `json:"color,omitempty"`
	CSSStyles   *domain.CSSStyles `json:"cssStyles,omitempty"`
	AudioFile   string            `json:"audioFile,omitempty"`
	VideoFile   string            `json:"videoFile,omitempty"`
	WordCount   int               `json:"wordCount"`
	Version     int               `json:"version"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func Node(n domain.StoryNode) NodeResponse {
	connections := n.Connections
	if connections == nil {
		connections = []string{}
	}
	return NodeResponse{
		ID:          n.NodeID,
		Title:       n.Title,
		Content:     n.Content,
		Type:        n.Type,
		Position:    n.Position,
		Connections: connections,
		Variables:   n.Variables,
		HasImage:    n.HasImage(),
		Color:       n.Color,
		CSSStyles:   n.CSSStyles,
		AudioFile:   n.AudioFile,
		VideoFile:   n.VideoFile,
		WordCount:   n.WordCount,
		Version:     n.Version,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func Nodes(list []domain.StoryNode) []NodeResponse {
	out := make([]NodeResponse, 0, len(list))
	for _, n := range list {
		out = append(out, Node(n))
	}
	return out
}

type GroupResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	NodeIDs   []string  `json:"nodeIds"`
	IsVisible bool      `json:"isVisible"`
	CreatedAt time.Time `json:"createdAt"`
}

func Group(g domain.NodeGroup) GroupResponse {
	nodeIDs := g.NodeIDs
	if nodeIDs == nil {
		nodeIDs = []string{}
	}
	return GroupResponse{
		ID:        g.GroupID,
		Name:      g.Name,
		Color:     g.Color,
		NodeIDs:   nodeIDs,
		IsVisible: g.IsVisible,
		CreatedAt: g.CreatedAt,
	}
}

func Groups(list []domain.NodeGroup) []GroupResponse {
	out := make([]GroupResponse, 0, len(list))
	for _, g := range list {
		out = append(out, Group(g))
	}
	return out
}

type AssetResponse struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Type       domain.AssetType `json:"type"`
	URL        string           `json:"url"`
	Size       int64            `json:"size"`
	MimeType   string           `json:"mimeType"`
	UploadDate string           `json:"uploadDate"`
	Thumbnail  string           `json:"thumbnail,omitempty"`
}

func Asset(a domain.Asset) AssetResponse {
	return AssetResponse{
		ID:         a.AssetID,
		Name:       a.Name,
		Type:       a.Type,
		URL:        a.URL,
		Size:       a.Size,
		MimeType:   a.MimeType,
		UploadDate: a.CreatedAt.Format(UploadDateLayout),
		Thumbnail:  a.Thumbnail,
	}
}

func Assets(list []domain.Asset) []AssetResponse {
	out := make([]AssetResponse, 0, len(list))
	for _, a := range list {
		out = append(out, Asset(a))
	}
	return out
}

// StatsResponse summarizes a project graph.
type StatsResponse struct {
	TotalNodes          int                     `json:"totalNodes"`
	TotalWords          int                     `json:"totalWords"`
	StartNodes          int                     `json:"startNodes"`
	DanglingConnections int                     `json:"danglingConnections"`
	ByType              map[domain.NodeType]int `json:"byType"`
}

func Stats(s domain.Stats) StatsResponse {
	return StatsResponse{
		TotalNodes:          s.TotalNodes,
		TotalWords:          s.TotalWords,
		StartNodes:          s.StartNodes,
		DanglingConnections: s.DanglingConnections,
		ByType:              s.ByType,
	}
}
