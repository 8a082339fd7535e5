// Package export renders a project's node graph into a single self-contained
// HTML document that plays the story back in a browser.
package export

import (
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
	"unicode"

	"silkmaker-backend/internal/domain"
)

//go:embed template.html
var documentTemplate string

var tmpl = template.Must(template.New("story").Parse(documentTemplate))

var (
	// ErrNoStartNode is returned in strict mode when the project has no start node.
	ErrNoStartNode = errors.New("export: project has no start node")
	// ErrMultipleStartNodes is returned in strict mode when more than one start node exists.
	ErrMultipleStartNodes = errors.New("export: project has more than one start node")
)

// DefaultFilename is used when the project name is empty.
const DefaultFilename = "story.html"

// Options controls rendering.
type Options struct {
	// Strict requires exactly one start node. Without it the first start node
	// in persisted order is shown and, when there is none, every node starts
	// hidden.
	Strict bool
}

// Story is the input to Render.
type Story struct {
	Name        string
	Description string
	Nodes       []domain.StoryNode
}

type choiceView struct {
	TargetID string
	Label    string
}

type nodeView struct {
	ID             string
	Title          string
	Content        string
	Hidden         bool
	HasConnections bool
	Choices        []choiceView
}

type documentView struct {
	Name        string
	Description string
	Nodes       []nodeView
}

// Render writes the playable HTML document for story to w. Connections to
// nodes that do not exist produce no choice button.
func Render(w io.Writer, story Story, opts Options) error {
	graph := domain.NewGraph(story.Nodes)
	starts := graph.StartNodes()

	if opts.Strict {
		switch {
		case len(starts) == 0:
			return ErrNoStartNode
		case len(starts) > 1:
			return fmt.Errorf("%w: found %d", ErrMultipleStartNodes, len(starts))
		}
	}

	startID, hasStart := "", len(starts) > 0
	if hasStart {
		startID = starts[0].NodeID
	}

	view := documentView{
		Name:        story.Name,
		Description: story.Description,
		Nodes:       make([]nodeView, 0, len(story.Nodes)),
	}
	for _, n := range story.Nodes {
		nv := nodeView{
			ID:             n.NodeID,
			Title:          n.Title,
			Content:        n.Content,
			Hidden:         !hasStart || n.NodeID != startID,
			HasConnections: len(n.Connections) > 0,
		}
		for _, target := range n.Connections {
			t, ok := graph.Node(target)
			if !ok {
				continue
			}
			nv.Choices = append(nv.Choices, choiceView{TargetID: target, Label: t.Title})
		}
		view.Nodes = append(view.Nodes, nv)
	}

	if err := tmpl.Execute(w, view); err != nil {
		return fmt.Errorf("export: render template: %w", err)
	}
	return nil
}

// Filename returns the download name for a project export. The result is a
// single path element: separators, control characters and ".." are replaced
// with '_', and a name with nothing usable left falls back to DefaultFilename.
func Filename(projectName string) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(projectName))
	name = strings.TrimLeft(strings.ReplaceAll(name, "..", "_"), ".")
	if strings.Trim(name, "_. ") == "" {
		return DefaultFilename
	}
	return name + ".html"
}
