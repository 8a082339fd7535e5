// Package dto defines the JSON request and response bodies of the REST API.
package dto

import (
	"silkmaker-backend/internal/domain"
	"silkmaker-backend/internal/service/story"
)

// CreateProjectRequest is the body of POST /api/projects.
type CreateProjectRequest struct {
	Name        string                  `json:"name" validate:"required,max=200"`
	Description string                  `json:"description" validate:"max=5000"`
	Settings    *domain.ProjectSettings `json:"settings,omitempty"`
}

// ToInput converts the request to a service input.
func (r CreateProjectRequest) ToInput() story.ProjectInput {
	return story.ProjectInput{Name: r.Name, Description: r.Description, Settings: r.Settings}
}

// UpdateProjectRequest is the body of PUT /api/projects/{id}. Absent fields
// are left unchanged.
type UpdateProjectRequest struct {
	Name        *string                 `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string                 `json:"description,omitempty" validate:"omitempty,max=5000"`
	Settings    *domain.ProjectSettings `json:"settings,omitempty"`
	Version     *int                    `json:"version,omitempty" validate:"omitempty,min=1"`
}

func (r UpdateProjectRequest) ToPatch() story.ProjectPatch {
	return story.ProjectPatch{Name: r.Name, Description: r.Description, Settings: r.Settings, Version: r.Version}
}

// CreateNodeRequest is the body of POST /api/projects/{projectId}/nodes.
// The client id may be sent as nodeId or id; a missing one is generated.
type CreateNodeRequest struct {
	ID          string            `json:"id,omitempty" validate:"omitempty,max=128"`
	NodeID      string            `json:"nodeId,omitempty" validate:"omitempty,max=128"`
	Title       string            `json:"title" validate:"max=500"`
	Content     string            `json:"content"`
	Type        string            `json:"type" validate:"required,nodetype"`
	Position    domain.Position   `json:"position"`
	Connections []string          `json:"connections,omitempty" validate:"omitempty,dive,required"`
	Variables   map[string]any    `json:"variables,omitempty"`
	Color       string            `json:"color,omitempty"`
	CSSStyles   *domain.CSSStyles `json:"cssStyles,omitempty"`
	AudioFile   string            `json:"audioFile,omitempty"`
	VideoFile   string            `json:"videoFile,omitempty"`
}

func (r CreateNodeRequest) ToInput() story.NodeInput {
	nodeID := r.NodeID
	if nodeID == "" {
		nodeID = r.ID
	}
	return story.NodeInput{
		NodeID:      nodeID,
		Title:       r.Title,
		Content:     r.Content,
		Type:        domain.NodeType(r.Type),
		Position:    r.Position,
		Connections: r.Connections,
		Variables:   r.Variables,
		Color:       r.Color,
		CSSStyles:   r.CSSStyles,
		AudioFile:   r.AudioFile,
		VideoFile:   r.VideoFile,
	}
}

// UpdateNodeRequest is the body of PUT .../nodes/{nodeId}.
type UpdateNodeRequest struct {
	Title       *string           `json:"title,omitempty" validate:"omitempty,max=500"`
	Content     *string           `json:"content,omitempty"`
	Type        *string           `json:"type,omitempty" validate:"omitempty,nodetype"`
	Position    *domain.Position  `json:"position,omitempty"`
	Connections *[]string         `json:"connections,omitempty" validate:"omitempty,dive,required"`
	Variables   *map[string]any   `json:"variables,omitempty"`
	Color       *string           `json:"color,omitempty"`
	CSSStyles   *domain.CSSStyles `json:"cssStyles,omitempty"`
	AudioFile   *string           `json:"audioFile,omitempty"`
	VideoFile   *string           `json:"videoFile,omitempty"`
	Version     *int              `json:"version,omitempty" validate:"omitempty,min=1"`
}

func (r UpdateNodeRequest) ToPatch() story.NodePatch {
	patch := story.NodePatch{
		Title:       r.Title,
		Content:     r.Content,
		Position:    r.Position,
		Connections: r.Connections,
		Variables:   r.Variables,
		Color:       r.Color,
		CSSStyles:   r.CSSStyles,
		AudioFile:   r.AudioFile,
		VideoFile:   r.VideoFile,
		Version:     r.Version,
	}
	if r.Type != nil {
		t := domain.NodeType(*r.Type)
		patch.Type = &t
	}
	return patch
}

// CreateGroupRequest is the body of POST .../groups.
type CreateGroupRequest struct {
	ID        string   `json:"id,omitempty" validate:"omitempty,max=128"`
	GroupID   string   `json:"groupId,omitempty" validate:"omitempty,max=128"`
	Name      string   `json:"name" validate:"required,max=200"`
	Color     string   `json:"color" validate:"required"`
	NodeIDs   []string `json:"nodeIds,omitempty"`
	IsVisible *bool    `json:"isVisible,omitempty"`
}

func (r CreateGroupRequest) ToInput() story.GroupInput {
	groupID := r.GroupID
	if groupID == "" {
		groupID = r.ID
	}
	return story.GroupInput{GroupID: groupID, Name: r.Name, Color: r.Color, NodeIDs: r.NodeIDs, IsVisible: r.IsVisible}
}

// UpdateGroupRequest is the body of PUT .../groups/{groupId}.
type UpdateGroupRequest struct {
	Name      *string   `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Color     *string   `json:"color,omitempty" validate:"omitempty,min=1"`
	NodeIDs   *[]string `json:"nodeIds,omitempty"`
	IsVisible *bool     `json:"isVisible,omitempty"`
}

func (r UpdateGroupRequest) ToPatch() story.GroupPatch {
	return story.GroupPatch{Name: r.Name, Color: r.Color, NodeIDs: r.NodeIDs, IsVisible: r.IsVisible}
}

// CreateAssetRequest is the body of POST .../assets. Only metadata is
// accepted; the media itself is hosted elsewhere.
type CreateAssetRequest struct {
	ID        string `json:"id,omitempty" validate:"omitempty,max=128"`
	AssetID   string `json:"assetId,omitempty" validate:"omitempty,max=128"`
	Name      string `json:"name" validate:"required,max=500"`
	Type      string `json:"type" validate:"required,assettype"`
	URL       string `json:"url" validate:"required"`
	Size      int64  `json:"size" validate:"min=0"`
	MimeType  string `json:"mimeType" validate:"required"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

func (r CreateAssetRequest) ToInput() story.AssetInput {
	assetID := r.AssetID
	if assetID == "" {
		assetID = r.ID
	}
	return story.AssetInput{
		AssetID:   assetID,
		Name:      r.Name,
		Type:      domain.AssetType(r.Type),
		URL:       r.URL,
		Size:      r.Size,
		MimeType:  r.MimeType,
		Thumbnail: r.Thumbnail,
	}
}
