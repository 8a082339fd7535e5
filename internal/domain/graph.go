package domain

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Graph is a read-only index over a project's nodes in persisted order.
// Traversal never goes beyond one hop.
type Graph struct {
	nodes []StoryNode
	index map[string]int
}

// Connection is a directed link from one node to another.
type Connection struct {
	From string
	To   string
}

// Stats summarizes a project's node graph.
type Stats struct {
	TotalNodes          int
	TotalWords          int
	StartNodes          int
	DanglingConnections int
	ByType              map[NodeType]int
}

// NewGraph indexes nodes by id. When two nodes share an id the first one wins.
func NewGraph(nodes []StoryNode) *Graph {
	g := &Graph{
		nodes: nodes,
		index: make(map[string]int, len(nodes)),
	}
	for i, n := range nodes {
		if _, exists := g.index[n.NodeID]; !exists {
			g.index[n.NodeID] = i
		}
	}
	return g
}

// Nodes returns the nodes in persisted order.
func (g *Graph) Nodes() []StoryNode {
	return g.nodes
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node looks a node up by id.
func (g *Graph) Node(id string) (StoryNode, bool) {
	i, ok := g.index[id]
	if !ok {
		return StoryNode{}, false
	}
	return g.nodes[i], true
}

// Has reports whether a node with the given id exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// ConnectedNodes returns the nodes directly reachable from id, in connection
// order. Each target appears once and unknown targets are skipped. An unknown
// id yields an empty result.
func (g *Graph) ConnectedNodes(id string) []StoryNode {
	src, ok := g.Node(id)
	if !ok {
		return []StoryNode{}
	}

	out := make([]StoryNode, 0, len(src.Connections))
	seen := make(map[string]struct{}, len(src.Connections))
	for _, target := range src.Connections {
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		if n, ok := g.Node(target); ok {
			out = append(out, n)
		}
	}
	return out
}

// Filter returns nodes whose title or content contains search (case-folded)
// and whose type is one of types. An empty search or an empty types list
// matches everything.
func (g *Graph) Filter(search string, types []NodeType) []StoryNode {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(search))

	out := make([]StoryNode, 0, len(g.nodes))
	for _, n := range g.nodes {
		if len(types) > 0 && !slices.Contains(types, n.Type) {
			continue
		}
		if needle != "" &&
			!strings.Contains(fold.String(n.Title), needle) &&
			!strings.Contains(fold.String(n.Content), needle) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// StartNodes returns every start node in persisted order.
func (g *Graph) StartNodes() []StoryNode {
	var out []StoryNode
	for _, n := range g.nodes {
		if n.Type == NodeTypeStart {
			out = append(out, n)
		}
	}
	return out
}

// DanglingConnections returns every connection whose target does not exist.
func (g *Graph) DanglingConnections() []Connection {
	var out []Connection
	for _, n := range g.nodes {
		for _, target := range n.Connections {
			if !g.Has(target) {
				out = append(out, Connection{From: n.NodeID, To: target})
			}
		}
	}
	return out
}

// Stats computes node, word and type counts for the graph.
func (g *Graph) Stats() Stats {
	s := Stats{
		TotalNodes:          len(g.nodes),
		DanglingConnections: len(g.DanglingConnections()),
		ByType:              make(map[NodeType]int),
	}
	for _, n := range g.nodes {
		s.TotalWords += n.WordCount
		s.ByType[n.Type]++
		if n.Type == NodeTypeStart {
			s.StartNodes++
		}
	}
	return s
}

// RemoveConnection returns list without any occurrence of id. The second
// result reports whether anything was removed.
func RemoveConnection(list []string, id string) ([]string, bool) {
	if !slices.Contains(list, id) {
		return list, false
	}
	out := make([]string, 0, len(list))
	for _, target := range list {
		if target != id {
			out = append(out, target)
		}
	}
	return out, true
}
