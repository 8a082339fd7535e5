package story

import (
	"bytes"
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"silkmaker-backend/internal/domain"
	"silkmaker-backend/internal/export"
	appErrors "silkmaker-backend/pkg/errors"
)

// ExportProject renders the project into memory first so a failed render
// never yields a partial document.
func (s *service) ExportProject(ctx context.Context, projectID int64, opts export.Options) (_ ExportResult, err error) {
	ctx, span := s.start(ctx, "ExportProject", projectAttr(projectID), attribute.Bool("story.export.strict", opts.Strict))
	defer func() {
		if !appErrors.IsNotFound(err) {
			s.recorder.RecordExport(err == nil)
		}
		finish(span, err)
	}()

	project, err := s.requireProject(ctx, projectID)
	if err != nil {
		return ExportResult{}, err
	}
	nodes, err := s.repo.ListNodes(ctx, projectID)
	if err != nil {
		return ExportResult{}, translate(err, "failed to list nodes")
	}

	var buf bytes.Buffer
	story := export.Story{Name: project.Name, Description: project.Description, Nodes: nodes}
	if err := export.Render(&buf, story, opts); err != nil {
		switch {
		case errors.Is(err, export.ErrNoStartNode):
			return ExportResult{}, appErrors.NewValidation("export requires a start node")
		case errors.Is(err, export.ErrMultipleStartNodes):
			return ExportResult{}, appErrors.NewValidation("export requires exactly one start node")
		}
		s.logger.Error("failed to render export", zap.Int64("project_id", projectID), zap.Error(err))
		return ExportResult{}, appErrors.NewInternal("failed to render export", err)
	}

	result := ExportResult{
		Filename:    export.Filename(project.Name),
		ProjectName: project.Name,
		HTML:        buf.Bytes(),
	}
	s.publish(ctx, domain.NewEvent(domain.EventProjectExported, projectID, "").
		With("filename", result.Filename).
		With("nodes", len(nodes)))
	return result, nil
}
