package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"silkmaker-backend/internal/config"
	"silkmaker-backend/internal/domain"
	"silkmaker-backend/internal/repository/sqlstore"
	"silkmaker-backend/internal/service/story"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seed creates a project with a start node directly through the store.
func seed(t *testing.T, dsn, name string) int64 {
	t.Helper()
	ctx := context.Background()
	store, err := sqlstore.Open(ctx, sqlstore.Config{Driver: config.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	defer store.Close()

	svc := story.NewService(store, nil, zap.NewNop())
	project, err := svc.CreateProject(ctx, story.ProjectInput{Name: name})
	require.NoError(t, err)
	_, err = svc.CreateNode(ctx, project.ID, story.NodeInput{
		NodeID:  "start",
		Title:   "Platform 9",
		Content: "The train is late again.",
		Type:    domain.NodeTypeStart,
	})
	require.NoError(t, err)
	return project.ID
}

func TestStoryctl(t *testing.T) {
	t.Setenv(config.FileEnvVar, "")
	dir := t.TempDir()
	dsn := filepath.Join(dir, "story.db")
	storage := []string{"--driver", config.DriverSQLite, "--dsn", dsn}

	t.Run("migrate applies then reports up to date", func(t *testing.T) {
		out, err := run(t, append([]string{"migrate"}, storage...)...)
		require.NoError(t, err)
		assert.Contains(t, out, "applied sqlite/")

		out, err = run(t, append([]string{"migrate"}, storage...)...)
		require.NoError(t, err)
		assert.Contains(t, out, "database is up to date")
	})

	t.Run("projects on an empty database", func(t *testing.T) {
		out, err := run(t, append([]string{"projects"}, storage...)...)
		require.NoError(t, err)
		assert.Contains(t, out, "(no projects)")
	})

	id := seed(t, dsn, "Night Train")
	idArg := []string{strconv.FormatInt(id, 10)}

	t.Run("projects lists the seeded project", func(t *testing.T) {
		out, err := run(t, append([]string{"projects"}, storage...)...)
		require.NoError(t, err)
		assert.Contains(t, out, "Night Train")
		assert.Contains(t, out, "NODES")
	})

	t.Run("stats", func(t *testing.T) {
		out, err := run(t, append(append([]string{"stats"}, idArg...), storage...)...)
		require.NoError(t, err)
		assert.Contains(t, out, "start nodes")
		assert.Contains(t, out, "type start")
	})

	t.Run("export writes html", func(t *testing.T) {
		target := filepath.Join(dir, "out.html")
		args := append(append([]string{"export"}, idArg...), "-o", target, "--strict")
		out, err := run(t, append(args, storage...)...)
		require.NoError(t, err)
		assert.Contains(t, out, `exported "Night Train"`)

		html, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Contains(t, string(html), "Platform 9")
	})

	t.Run("export to stdout", func(t *testing.T) {
		args := append(append([]string{"export"}, idArg...), "-o", "-")
		out, err := run(t, append(args, storage...)...)
		require.NoError(t, err)
		assert.Contains(t, out, "<!DOCTYPE html>")
	})

	t.Run("export file stays in the working directory", func(t *testing.T) {
		evil := seed(t, dsn, "../escaped")
		work := filepath.Join(dir, "work")
		require.NoError(t, os.Mkdir(work, 0o755))
		t.Chdir(work)

		out, err := run(t, append([]string{"export", strconv.FormatInt(evil, 10)}, storage...)...)
		require.NoError(t, err)
		assert.Contains(t, out, "to __escaped.html")
		assert.FileExists(t, filepath.Join(work, "__escaped.html"))
		assert.NoFileExists(t, filepath.Join(dir, "escaped.html"))
	})

	t.Run("export of a missing project fails", func(t *testing.T) {
		_, err := run(t, append([]string{"export", "999"}, storage...)...)
		assert.ErrorContains(t, err, "Project not found")
	})

	t.Run("invalid project id", func(t *testing.T) {
		_, err := run(t, append([]string{"stats", "abc"}, storage...)...)
		assert.ErrorContains(t, err, `invalid project id "abc"`)
	})
}
