package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"silkmaker-backend/internal/config"
	"silkmaker-backend/internal/service/story"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory
	cfg.Events.Publisher = config.PublisherLog
	cfg.Tracing.Enabled = false
	return cfg
}

func TestInitializeAppServesRequests(t *testing.T) {
	app, cleanup, err := InitializeApp(context.Background(), memoryConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(cleanup)

	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(`{"name":"Wired"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "silkmaker_")

	projects, err := app.Service.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Wired", projects[0].Name)
}

func TestInitializeAppWithoutMetrics(t *testing.T) {
	cfg := memoryConfig()
	cfg.Metrics.Enabled = false
	cfg.Breaker.Enabled = false

	app, cleanup, err := InitializeApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(cleanup)

	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInitializeStoryServiceWithSQLite(t *testing.T) {
	cfg := memoryConfig()
	cfg.Storage.Driver = config.DriverSQLite
	cfg.Storage.DSN = t.TempDir() + "/cli.db"
	cfg.Events.Publisher = config.PublisherNone

	svc, cleanup, err := InitializeStoryService(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(cleanup)

	created, err := svc.CreateProject(context.Background(), story.ProjectInput{Name: "On disk"})
	require.NoError(t, err)
	assert.Positive(t, created.ID)
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), config.StorageConfig{Driver: "dynamo"})
	assert.ErrorContains(t, err, `unknown storage driver "dynamo"`)
}

func TestProvidePublisherNone(t *testing.T) {
	cfg := memoryConfig()
	cfg.Events.Publisher = config.PublisherNone
	pub, err := ProvidePublisher(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Nil(t, pub)
}
