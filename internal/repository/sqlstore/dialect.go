package sqlstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	// Name is the storage driver name used in configuration.
	Name string
	// DriverName is the database/sql driver registered for the dialect.
	DriverName string
	// MigrationRoot is the directory inside migrations.FS holding the dialect's files.
	MigrationRoot string

	numbered bool
}

var (
	// SQLite is the pure Go modernc.org/sqlite engine.
	SQLite = Dialect{Name: "sqlite", DriverName: "sqlite", MigrationRoot: "sqlite"}
	// Postgres uses pgx through its database/sql adapter.
	Postgres = Dialect{Name: "postgres", DriverName: "pgx", MigrationRoot: "postgres", numbered: true}
)

// DialectFor resolves a storage driver name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported sql driver %q", name)
	}
}

// Rebind rewrites ? placeholders into the dialect's bind syntax.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isUniqueViolation reports whether err is a unique or primary key violation
// in either engine.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
