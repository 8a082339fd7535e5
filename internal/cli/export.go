package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"silkmaker-backend/internal/export"
	"silkmaker-backend/internal/service/story"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		output string
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "export <projectId>",
		Short: "Render a project to a standalone HTML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return opts.withService(cmd.Context(), func(svc story.Service) error {
				result, err := svc.ExportProject(cmd.Context(), id, export.Options{Strict: strict})
				if err != nil {
					return err
				}
				if output == "-" {
					_, err = cmd.OutOrStdout().Write(result.HTML)
					return err
				}
				path := output
				if path == "" {
					path = result.Filename
				}
				if err := os.WriteFile(path, result.HTML, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %q to %s (%d bytes)\n", result.ProjectName, path, len(result.HTML))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file; \"-\" writes to stdout (defaults to the project's file name)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail unless the project has exactly one start node")
	return cmd
}
