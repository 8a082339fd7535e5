// Package persistence decorates the repository port with cross-cutting
// concerns: tracing, circuit breaking, metrics and debug logging.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"silkmaker-backend/internal/domain"
	"silkmaker-backend/internal/infrastructure/observability"
	"silkmaker-backend/internal/repository"
)

// BreakerConfig configures the circuit breaker guarding the store.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // requests allowed while half-open
	Interval         time.Duration // closed-state window after which counts reset
	Timeout          time.Duration // how long the breaker stays open
	FailureThreshold float64       // failure ratio that trips the breaker
	MinRequests      uint32        // requests needed before the ratio is evaluated
}

// DefaultBreakerConfig returns the breaker settings used in production.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "repository",
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      10,
	}
}

// Options carries the collaborators of the decorator. Nil fields are
// replaced by no-op defaults.
type Options struct {
	Logger    *zap.Logger
	Collector *observability.Collector
	Tracer    trace.Tracer
	Breaker   BreakerConfig
}

// InstrumentedRepository wraps a repository.Repository.
type InstrumentedRepository struct {
	inner     repository.Repository
	logger    *zap.Logger
	collector *observability.Collector
	tracer    trace.Tracer
	breaker   *gobreaker.CircuitBreaker
}

var _ repository.Repository = (*InstrumentedRepository)(nil)

// Instrument wraps inner with tracing, a circuit breaker, metrics and logging.
// Not-found, duplicate and version-conflict outcomes never count as breaker
// failures.
func Instrument(inner repository.Repository, opts Options) *InstrumentedRepository {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("repository")
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("silkmaker-backend/repository")
	}
	cfg := opts.Breaker
	if cfg.Name == "" {
		cfg = DefaultBreakerConfig()
	}

	r := &InstrumentedRepository{
		inner:     inner,
		logger:    logger,
		collector: opts.Collector,
		tracer:    tracer,
	}
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if r.collector != nil {
				r.collector.BreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
		IsSuccessful: func(err error) bool {
			// a canceled request says nothing about the health of the store
			return repository.IsExpected(err) || errors.Is(err, context.Canceled)
		},
	})
	return r
}

// State reports the breaker state.
func (r *InstrumentedRepository) State() gobreaker.State {
	return r.breaker.State()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case repository.IsNotFound(err):
		return "not_found"
	case repository.IsAlreadyExists(err):
		return "already_exists"
	case repository.IsConflict(err):
		return "conflict"
	case errors.Is(err, repository.ErrUnavailable):
		return "rejected"
	default:
		return "error"
	}
}

func call[T any](ctx context.Context, r *InstrumentedRepository, op string, fn func(ctx context.Context) (T, error), attrs ...attribute.KeyValue) (T, error) {
	ctx, span := r.tracer.Start(ctx, "repository."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	start := time.Now()
	res, err := r.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	duration := time.Since(start)
	status := outcome(err)

	if r.collector != nil {
		r.collector.DBOperations.WithLabelValues(op, status).Inc()
		r.collector.DBDuration.WithLabelValues(op).Observe(duration.Seconds())
	}

	span.SetAttributes(attribute.String("db.outcome", status))
	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("outcome", status),
		zap.Duration("duration", duration),
	}
	if err != nil && !repository.IsExpected(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("repository operation failed", append(fields, zap.Error(err))...)
	} else {
		r.logger.Debug("repository operation", fields...)
	}

	out, _ := res.(T)
	return out, err
}

func exec(ctx context.Context, r *InstrumentedRepository, op string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	_, err := call(ctx, r, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, attrs...)
	return err
}

func projectAttr(id int64) attribute.KeyValue {
	return attribute.Int64("story.project_id", id)
}

func (r *InstrumentedRepository) Ping(ctx context.Context) error {
	// readiness probes bypass the breaker so they can observe recovery
	return r.inner.Ping(ctx)
}

func (r *InstrumentedRepository) Close() error {
	return r.inner.Close()
}

// Project operations

func (r *InstrumentedRepository) ListProjects(ctx context.Context) ([]domain.ProjectSummary, error) {
	return call(ctx, r, "ListProjects", r.inner.ListProjects)
}

func (r *InstrumentedRepository) GetProject(ctx context.Context, id int64) (domain.Project, error) {
	return call(ctx, r, "GetProject", func(ctx context.Context) (domain.Project, error) {
		return r.inner.GetProject(ctx, id)
	}, projectAttr(id))
}

func (r *InstrumentedRepository) CreateProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	return call(ctx, r, "CreateProject", func(ctx context.Context) (domain.Project, error) {
		return r.inner.CreateProject(ctx, project)
	})
}

func (r *InstrumentedRepository) UpdateProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	return call(ctx, r, "UpdateProject", func(ctx context.Context) (domain.Project, error) {
		return r.inner.UpdateProject(ctx, project)
	}, projectAttr(project.ID))
}

func (r *InstrumentedRepository) DeleteProject(ctx context.Context, id int64) error {
	return exec(ctx, r, "DeleteProject", func(ctx context.Context) error {
		return r.inner.DeleteProject(ctx, id)
	}, projectAttr(id))
}

// Node operations

func (r *InstrumentedRepository) ListNodes(ctx context.Context, projectID int64) ([]domain.StoryNode, error) {
	return call(ctx, r, "ListNodes", func(ctx context.Context) ([]domain.StoryNode, error) {
		return r.inner.ListNodes(ctx, projectID)
	}, projectAttr(projectID))
}

func (r *InstrumentedRepository) GetNode(ctx context.Context, projectID int64, nodeID string) (domain.StoryNode, error) {
	return call(ctx, r, "GetNode", func(ctx context.Context) (domain.StoryNode, error) {
		return r.inner.GetNode(ctx, projectID, nodeID)
	}, projectAttr(projectID), attribute.String("story.node_id", nodeID))
}

func (r *InstrumentedRepository) CreateNode(ctx context.Context, node domain.StoryNode) (domain.StoryNode, error) {
	return call(ctx, r, "CreateNode", func(ctx context.Context) (domain.StoryNode, error) {
		return r.inner.CreateNode(ctx, node)
	}, projectAttr(node.ProjectID), attribute.String("story.node_id", node.NodeID))
}

func (r *InstrumentedRepository) UpdateNode(ctx context.Context, node domain.StoryNode) (domain.StoryNode, error) {
	return call(ctx, r, "UpdateNode", func(ctx context.Context) (domain.StoryNode, error) {
		return r.inner.UpdateNode(ctx, node)
	}, projectAttr(node.ProjectID), attribute.String("story.node_id", node.NodeID))
}

func (r *InstrumentedRepository) DeleteNode(ctx context.Context, projectID int64, nodeID string) error {
	return exec(ctx, r, "DeleteNode", func(ctx context.Context) error {
		return r.inner.DeleteNode(ctx, projectID, nodeID)
	}, projectAttr(projectID), attribute.String("story.node_id", nodeID))
}

// Group operations

func (r *InstrumentedRepository) ListGroups(ctx context.Context, projectID int64) ([]domain.NodeGroup, error) {
	return call(ctx, r, "ListGroups", func(ctx context.Context) ([]domain.NodeGroup, error) {
		return r.inner.ListGroups(ctx, projectID)
	}, projectAttr(projectID))
}

func (r *InstrumentedRepository) GetGroup(ctx context.Context, projectID int64, groupID string) (domain.NodeGroup, error) {
	return call(ctx, r, "GetGroup", func(ctx context.Context) (domain.NodeGroup, error) {
		return r.inner.GetGroup(ctx, projectID, groupID)
	}, projectAttr(projectID))
}

func (r *InstrumentedRepository) CreateGroup(ctx context.Context, group domain.NodeGroup) (domain.NodeGroup, error) {
	return call(ctx, r, "CreateGroup", func(ctx context.Context) (domain.NodeGroup, error) {
		return r.inner.CreateGroup(ctx, group)
	}, projectAttr(group.ProjectID))
}

func (r *InstrumentedRepository) UpdateGroup(ctx context.Context, group domain.NodeGroup) (domain.NodeGroup, error) {
	return call(ctx, r, "UpdateGroup", func(ctx context.Context) (domain.NodeGroup, error) {
		return r.inner.UpdateGroup(ctx, group)
	}, projectAttr(group.ProjectID))
}

func (r *InstrumentedRepository) DeleteGroup(ctx context.Context, projectID int64, groupID string) error {
	return exec(ctx, r, "DeleteGroup", func(ctx context.Context) error {
		return r.inner.DeleteGroup(ctx, projectID, groupID)
	}, projectAttr(projectID))
}

// Asset operations

func (r *InstrumentedRepository) ListAssets(ctx context.Context, projectID int64) ([]domain.Asset, error) {
	return call(ctx, r, "ListAssets", func(ctx context.Context) ([]domain.Asset, error) {
		return r.inner.ListAssets(ctx, projectID)
	}, projectAttr(projectID))
}

func (r *InstrumentedRepository) GetAsset(ctx context.Context, projectID int64, assetID string) (domain.Asset, error) {
	return call(ctx, r, "GetAsset", func(ctx context.Context) (domain.Asset, error) {
		return r.inner.GetAsset(ctx, projectID, assetID)
	}, projectAttr(projectID))
}

func (r *InstrumentedRepository) CreateAsset(ctx context.Context, asset domain.Asset) (domain.Asset, error) {
	return call(ctx, r, "CreateAsset", func(ctx context.Context) (domain.Asset, error) {
		return r.inner.CreateAsset(ctx, asset)
	}, projectAttr(asset.ProjectID))
}

func (r *InstrumentedRepository) DeleteAsset(ctx context.Context, projectID int64, assetID string) error {
	return exec(ctx, r, "DeleteAsset", func(ctx context.Context) error {
		return r.inner.DeleteAsset(ctx, projectID, assetID)
	}, projectAttr(projectID))
}
