package domain

import (
	"maps"
	"time"
)

// Pan is the canvas scroll offset.
type Pan struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CanvasSettings stores the editor viewport of a project.
type CanvasSettings struct {
	Zoom float64 `json:"zoom"`
	Pan  Pan     `json:"pan"`
}

// ProjectSettings are free-form editor preferences persisted with a project.
type ProjectSettings struct {
	DefaultTheme   string          `json:"defaultTheme,omitempty"`
	ExportSettings map[string]any  `json:"exportSettings,omitempty"`
	CanvasSettings *CanvasSettings `json:"canvasSettings,omitempty"`
}

// Project owns a set of nodes, groups and assets. Deleting a project
// deletes everything it owns.
type Project struct {
	ID          int64
	Name        string
	Description string
	Settings    *ProjectSettings
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	out := p
	if p.Settings != nil {
		settings := *p.Settings
		if p.Settings.ExportSettings != nil {
			settings.ExportSettings = maps.Clone(p.Settings.ExportSettings)
		}
		if p.Settings.CanvasSettings != nil {
			canvas := *p.Settings.CanvasSettings
			settings.CanvasSettings = &canvas
		}
		out.Settings = &settings
	}
	return out
}

// ProjectSummary is a project together with its node count, as shown in
// project listings.
type ProjectSummary struct {
	Project
	NodeCount int
}
