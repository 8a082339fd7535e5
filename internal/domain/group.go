package domain

import (
	"slices"
	"time"
)

// NodeGroup is a named, coloured set of node ids. Groups are purely
// organizational and have no effect on export.
type NodeGroup struct {
	ProjectID int64
	GroupID   string
	Name      string
	Color     string
	NodeIDs   []string
	IsVisible bool
	CreatedAt time.Time
}

// Clone returns a deep copy of the group.
func (g NodeGroup) Clone() NodeGroup {
	out := g
	out.NodeIDs = slices.Clone(g.NodeIDs)
	if out.NodeIDs == nil {
		out.NodeIDs = []string{}
	}
	return out
}
