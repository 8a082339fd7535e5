//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"silkmaker-backend/internal/config"
	"silkmaker-backend/internal/infrastructure/observability"
	"silkmaker-backend/internal/service/story"
)

// InitializeApp builds the HTTP application.
func InitializeApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, func(), error) {
	wire.Build(InfrastructureSet, ApplicationSet)
	return nil, nil, nil
}

// InitializeStoryService builds the service alone, for command line tools.
// Tracing and metrics are left out.
func InitializeStoryService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (story.Service, func(), error) {
	wire.Build(
		ProvideRepository,
		ProvidePublisher,
		ProvideStoryService,
		provideCLITracer,
		wire.Value((*observability.Collector)(nil)),
	)
	return nil, nil, nil
}

func provideCLITracer() trace.Tracer {
	return otel.Tracer("silkmaker-backend/cli")
}
