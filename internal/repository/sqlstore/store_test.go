package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"silkmaker-backend/internal/repository"
	"silkmaker-backend/internal/repository/repotest"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "silkmaker.db")
	store, err := Open(context.Background(), Config{Driver: "sqlite", DSN: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Repository {
		return openTempStore(t)
	})
}

func TestPostgresContract(t *testing.T) {
	dsn := os.Getenv("SILKMAKER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SILKMAKER_TEST_POSTGRES_DSN not set")
	}
	repotest.Run(t, func(t *testing.T) repository.Repository {
		store, err := Open(context.Background(), Config{Driver: "postgres", DSN: dsn})
		require.NoError(t, err)
		_, err = store.db.Exec("TRUNCATE projects, story_nodes, node_groups, assets RESTART IDENTITY")
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestMigrationsApplyOnce(t *testing.T) {
	store := openTempStore(t)
	applied, err := store.Migrate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestApplyMigrationsOrdersFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.db")
	store, err := Open(context.Background(), Config{Driver: "sqlite", DSN: path, SkipMigrations: true})
	require.NoError(t, err)
	defer store.Close()

	fsys := fstest.MapFS{
		"sqlite/002_b.sql": {Data: []byte("-- +migrate Up\nINSERT INTO t (v) VALUES ('b');\n-- +migrate Down\nDELETE FROM t;")},
		"sqlite/001_a.sql": {Data: []byte("CREATE TABLE t (v TEXT);")},
		"sqlite/notes.txt": {Data: []byte("ignored")},
	}
	applied, err := ApplyMigrations(context.Background(), store.db, SQLite, fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"sqlite/001_a.sql", "sqlite/002_b.sql"}, applied)

	var v string
	require.NoError(t, store.db.QueryRow("SELECT v FROM t").Scan(&v))
	assert.Equal(t, "b", v)
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)

	_, err = Open(context.Background(), Config{Driver: "sqlite"})
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = '?' AND c = ?"
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = '?' AND c = $2", Postgres.Rebind(q))
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE x (id INT);\n-- +migrate Down\nDROP TABLE x;"
	assert.Equal(t, "\nCREATE TABLE x (id INT);\n", ExtractUpMigration(content))
	assert.Equal(t, "SELECT 1;", ExtractUpMigration("SELECT 1;"))
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, "pgx", d.DriverName)

	d, err = DialectFor("sqlite")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.DriverName)
}
