package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"silkmaker-backend/internal/config"
	"silkmaker-backend/internal/di"
	"silkmaker-backend/internal/infrastructure/logging"
)

var (
	chiLambda *chiadapter.ChiLambdaV2
	logger    *zap.Logger

	coldStart     = true
	coldStartTime time.Time
)

// init builds the application once per cold start.
func init() {
	coldStartTime = time.Now()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	lvl, err := cfg.LogLevel()
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger, err = logging.New(zap.NewAtomicLevelAt(lvl), cfg.IsDevelopment(), cfg.ServiceName)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// The container lives as long as the execution environment, so its
	// cleanup is never run.
	app, _, err := di.InitializeApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	mux, ok := app.Handler.(*chi.Mux)
	if !ok {
		logger.Fatal("Router is not a chi.Mux")
	}
	chiLambda = chiadapter.NewV2(mux)

	logger.Info("Lambda cold start completed", zap.Duration("duration", time.Since(coldStartTime)))
}

// Handler proxies API Gateway HTTP API requests into the router.
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := chiLambda.ProxyWithContextV2(ctx, req)
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Lambda-Request-ID"] = req.RequestContext.RequestID
	}

	if resp.StatusCode >= 500 {
		logger.Error("Lambda error response",
			zap.String("method", req.RequestContext.HTTP.Method),
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("request_id", req.RequestContext.RequestID),
		)
	}
	return resp, err
}

func main() {
	lambda.Start(Handler)
}
