// Package story provides the business logic for story projects: CRUD over
// projects, nodes, groups and assets, graph queries and HTML export.
package story

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"silkmaker-backend/internal/domain"
	"silkmaker-backend/internal/export"
	"silkmaker-backend/internal/infrastructure/messaging"
	"silkmaker-backend/internal/repository"
	appErrors "silkmaker-backend/pkg/errors"
)

// Service defines the story editor's business operations.
type Service interface {
	// Projects
	ListProjects(ctx context.Context) ([]domain.ProjectSummary, error)
	GetProject(ctx context.Context, projectID int64) (ProjectDetail, error)
	CreateProject(ctx context.Context, in ProjectInput) (domain.ProjectSummary, error)
	UpdateProject(ctx context.Context, projectID int64, patch ProjectPatch) (domain.ProjectSummary, error)
	DeleteProject(ctx context.Context, projectID int64) error
	ProjectStats(ctx context.Context, projectID int64) (domain.Stats, error)

	// Nodes
	ListNodes(ctx context.Context, projectID int64, filter NodeFilter) ([]domain.StoryNode, error)
	GetNode(ctx context.Context, projectID int64, nodeID string) (domain.StoryNode, error)
	ConnectedNodes(ctx context.Context, projectID int64, nodeID string) ([]domain.StoryNode, error)
	CreateNode(ctx context.Context, projectID int64, in NodeInput) (domain.StoryNode, error)
	UpdateNode(ctx context.Context, projectID int64, nodeID string, patch NodePatch) (domain.StoryNode, error)
	DeleteNode(ctx context.Context, projectID int64, nodeID string) error

	// Groups
	ListGroups(ctx context.Context, projectID int64) ([]domain.NodeGroup, error)
	CreateGroup(ctx context.Context, projectID int64, in GroupInput) (domain.NodeGroup, error)
	UpdateGroup(ctx context.Context, projectID int64, groupID string, patch GroupPatch) (domain.NodeGroup, error)
	DeleteGroup(ctx context.Context, projectID int64, groupID string) error

	// Assets
	ListAssets(ctx context.Context, projectID int64) ([]domain.Asset, error)
	CreateAsset(ctx context.Context, projectID int64, in AssetInput) (domain.Asset, error)
	DeleteAsset(ctx context.Context, projectID int64, assetID string) error

	// Export renders the project into a downloadable HTML document.
	ExportProject(ctx context.Context, projectID int64, opts export.Options) (ExportResult, error)
}

// Recorder receives business metrics. observability.Collector implements it.
type Recorder interface {
	RecordEvent(eventType string)
	RecordExport(ok bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordEvent(string) {}
func (nopRecorder) RecordExport(bool)  {}

// Option customizes the service.
type Option func(*service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *service) { s.tracer = tracer }
}

// WithRecorder sets the business metrics sink.
func WithRecorder(r Recorder) Option {
	return func(s *service) { s.recorder = r }
}

// service implements the Service interface with concrete business logic.
type service struct {
	repo      repository.Repository
	publisher messaging.Publisher
	logger    *zap.Logger
	tracer    trace.Tracer
	recorder  Recorder
	now       func() time.Time
}

// NewService creates a story service over repo. Events go to publisher.
func NewService(repo repository.Repository, publisher messaging.Publisher, logger *zap.Logger, opts ...Option) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &service{
		repo:      repo,
		publisher: publisher,
		logger:    logger.Named("story"),
		tracer:    otel.Tracer("silkmaker-backend/story"),
		recorder:  nopRecorder{},
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "story."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil && !appErrors.IsValidation(err) && !appErrors.IsNotFound(err) && !appErrors.IsConflict(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func projectAttr(id int64) attribute.KeyValue {
	return attribute.Int64("story.project_id", id)
}

// publish delivers events best effort. Failures are logged and never returned.
func (s *service) publish(ctx context.Context, events ...domain.Event) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.Int("count", len(events)),
			zap.String("first_type", string(events[0].Type)),
			zap.Error(err),
		)
		return
	}
	for _, e := range events {
		s.recorder.RecordEvent(string(e.Type))
	}
}

var notFoundMessages = map[string]string{
	repository.ResourceProject: "Project not found",
	repository.ResourceNode:    "Node not found",
	repository.ResourceGroup:   "Group not found",
	repository.ResourceAsset:   "Asset not found",
}

// translate maps repository errors onto the application taxonomy.
func translate(err error, message string) error {
	if err == nil {
		return nil
	}
	var notFound repository.ErrNotFound
	var exists repository.ErrAlreadyExists
	switch {
	case errors.As(err, &notFound):
		if msg, ok := notFoundMessages[notFound.Resource]; ok {
			return appErrors.NewNotFound(msg)
		}
		return appErrors.NewNotFound(notFound.Error())
	case errors.As(err, &exists):
		return appErrors.NewConflict(capitalize(exists.Resource)+" with id '"+exists.ID+"' already exists", err)
	case repository.IsConflict(err):
		return appErrors.NewConflict("The resource has been modified by another request. Please retry with the latest version.", err)
	case errors.Is(err, repository.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return appErrors.NewUnavailable("Service temporarily unavailable", err)
	default:
		return appErrors.NewInternal(message, err)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func versionConflict(resource, id string, expected, actual int) error {
	return appErrors.NewConflict(
		"The resource has been modified by another request. Please retry with the latest version.",
		repository.NewVersionConflict(resource, id, expected, actual),
	)
}

// retryUnversioned reports whether an update that lost a compare-and-set race
// should be replayed on a fresh read. Only requests without a version are
// replayed, and only once.
func retryUnversioned(err error, version *int, attempt int) bool {
	return version == nil && attempt == 0 && repository.IsConflict(err)
}

// requireProject returns a not-found error when the project does not exist.
func (s *service) requireProject(ctx context.Context, projectID int64) (domain.Project, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, translate(err, "failed to load project")
	}
	return p, nil
}
