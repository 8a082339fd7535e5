// Package di wires the backend's components with google/wire.
package di

import (
	"context"
	"fmt"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/google/wire"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"silkmaker-backend/internal/config"
	"silkmaker-backend/internal/infrastructure/messaging"
	"silkmaker-backend/internal/infrastructure/observability"
	"silkmaker-backend/internal/infrastructure/persistence"
	"silkmaker-backend/internal/interfaces/http/rest"
	"silkmaker-backend/internal/middleware"
	"silkmaker-backend/internal/repository"
	"silkmaker-backend/internal/repository/memory"
	"silkmaker-backend/internal/repository/sqlstore"
	"silkmaker-backend/internal/service/story"
)

// App is the fully wired HTTP application.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Repository repository.Repository
	Service    story.Service
	Handler    http.Handler
}

// InfrastructureSet provides storage, events and observability.
var InfrastructureSet = wire.NewSet(
	ProvideTracerProvider,
	ProvideTracer,
	ProvideCollector,
	ProvideRepository,
	ProvidePublisher,
)

// ApplicationSet provides the story service and the HTTP surface.
var ApplicationSet = wire.NewSet(
	ProvideStoryService,
	ProvideRouter,
	wire.Struct(new(App), "*"),
)

// ProvideTracerProvider starts tracing when it is enabled.
func ProvideTracerProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.ServiceName,
		Version:     cfg.Version,
		Environment: string(cfg.Environment),
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init tracing: %w", err)
	}
	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

func ProvideTracer(tp *observability.TracerProvider) trace.Tracer {
	return tp.Tracer()
}

// ProvideCollector returns nil when metrics are disabled.
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return observability.NewCollector(cfg.Metrics.Namespace)
}

// OpenStore opens the configured backing store without any decoration.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (repository.Repository, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite, config.DriverPostgres:
		store, err := sqlstore.Open(ctx, sqlstore.Config{
			Driver:          cfg.Driver,
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			SkipMigrations:  cfg.SkipMigrations,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ProvideRepository opens the store and wraps it with tracing, metrics and
// the storage circuit breaker.
func ProvideRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger, collector *observability.Collector, tracer trace.Tracer) (repository.Repository, func(), error) {
	store, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	breaker := persistence.DefaultBreakerConfig()
	if cfg.Breaker.Enabled {
		breaker.FailureThreshold = cfg.Breaker.FailureThreshold
		breaker.MinRequests = cfg.Breaker.MinRequests
		breaker.Timeout = cfg.Breaker.OpenTimeout
	} else {
		// a failure ratio above one never trips
		breaker.FailureThreshold = 2
	}

	repo := persistence.Instrument(store, persistence.Options{
		Logger:    logger,
		Collector: collector,
		Tracer:    tracer,
		Breaker:   breaker,
	})
	cleanup := func() {
		if err := repo.Close(); err != nil {
			logger.Warn("closing store failed", zap.Error(err))
		}
	}
	return repo, cleanup, nil
}

// ProvidePublisher selects the domain event sink.
func ProvidePublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (messaging.Publisher, error) {
	switch cfg.Events.Publisher {
	case config.PublisherEventBridge:
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.Events.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Events.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := eventbridge.NewFromConfig(awsCfg)
		return messaging.NewEventBridgePublisher(client, cfg.Events.BusName, cfg.Events.Source, logger), nil
	case config.PublisherNone:
		return nil, nil
	default:
		return messaging.NewLogPublisher(logger), nil
	}
}

func ProvideStoryService(repo repository.Repository, publisher messaging.Publisher, logger *zap.Logger, tracer trace.Tracer, collector *observability.Collector) story.Service {
	opts := []story.Option{story.WithTracer(tracer)}
	if collector != nil {
		opts = append(opts, story.WithRecorder(collector))
	}
	return story.NewService(repo, publisher, logger, opts...)
}

func ProvideRouter(cfg *config.Config, svc story.Service, repo repository.Repository, collector *observability.Collector, logger *zap.Logger) http.Handler {
	opts := rest.Options{
		ServiceName:    cfg.ServiceName,
		Version:        cfg.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		EnableTracing:  cfg.Tracing.Enabled,
	}
	if cfg.Breaker.Enabled {
		opts.Breaker = middleware.DefaultCircuitBreakerConfig("api-routes")
		opts.Breaker.FailureThreshold = cfg.Breaker.FailureThreshold
		opts.Breaker.MinRequests = cfg.Breaker.MinRequests
		opts.Breaker.Timeout = cfg.Breaker.OpenTimeout
	}
	return rest.NewRouter(svc, repo, collector, logger, opts).Setup()
}
