package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"silkmaker-backend/internal/domain"
	"silkmaker-backend/internal/interfaces/http/dto"
	"silkmaker-backend/internal/service/story"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#BD93F9")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
)

func newProjectsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "projects",
		Aliases: []string{"ls"},
		Short:   "List projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withService(cmd.Context(), func(svc story.Service) error {
				projects, err := svc.ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				renderProjects(cmd.OutOrStdout(), projects)
				return nil
			})
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <projectId>",
		Short: "Show node statistics for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return opts.withService(cmd.Context(), func(svc story.Service) error {
				stats, err := svc.ProjectStats(cmd.Context(), id)
				if err != nil {
					return err
				}
				renderStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
}

func parseProjectID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid project id %q", raw)
	}
	return id, nil
}

// renderTable pads every column to its widest cell.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(style lipgloss.Style, cells []string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			// padding is two cells wide
			parts[i] = style.Width(widths[i] + 2).Render(cell)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}

	fmt.Fprintln(w, line(headerStyle, headers))
	for _, row := range rows {
		fmt.Fprintln(w, line(cellStyle, row))
	}
}

func renderProjects(w io.Writer, projects []domain.ProjectSummary) {
	if len(projects) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("(no projects)"))
		return
	}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			strconv.Itoa(p.NodeCount),
			p.UpdatedAt.Format(dto.LastModifiedLayout),
		})
	}
	renderTable(w, []string{"ID", "NAME", "NODES", "LAST MODIFIED"}, rows)
}

func renderStats(w io.Writer, stats domain.Stats) {
	rows := [][]string{
		{"total nodes", strconv.Itoa(stats.TotalNodes)},
		{"total words", strconv.Itoa(stats.TotalWords)},
		{"start nodes", strconv.Itoa(stats.StartNodes)},
		{"dangling connections", strconv.Itoa(stats.DanglingConnections)},
	}
	types := make([]string, 0, len(stats.ByType))
	for t := range stats.ByType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		rows = append(rows, []string{"type " + t, strconv.Itoa(stats.ByType[domain.NodeType(t)])})
	}
	renderTable(w, []string{"METRIC", "VALUE"}, rows)
}
