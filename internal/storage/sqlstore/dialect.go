package sqlstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect captures what differs between the supported SQL backends
type Dialect struct {
	// Name is the value selected by configuration
	Name string
	// Driver is the database/sql driver name
	Driver string
	// Goose is the migration dialect
	Goose goose.Dialect
	// MigrationsDir is the directory under migrations/ for this dialect
	MigrationsDir string

	numberedPlaceholders bool
	uniqueViolation      func(error) bool
}

// Postgres uses pgx through its database/sql adapter
var Postgres = Dialect{
	Name:                 "postgres",
	Driver:               "pgx",
	Goose:                goose.DialectPostgres,
	MigrationsDir:        "postgres",
	numberedPlaceholders: true,
	uniqueViolation: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == "23505"
	},
}

// SQLite uses the pure-Go modernc driver
var SQLite = Dialect{
	Name:          "sqlite",
	Driver:        "sqlite",
	Goose:         goose.DialectSQLite3,
	MigrationsDir: "sqlite",
	uniqueViolation: func(err error) bool {
		var sqliteErr *sqlite.Error
		return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	},
}

// DialectByName returns the dialect for a configured storage type
func DialectByName(name string) (Dialect, error) {
	switch name {
	case Postgres.Name:
		return Postgres, nil
	case SQLite.Name:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unknown sql dialect %q", name)
	}
}

// Rebind rewrites ? placeholders into the dialect's form
func (d Dialect) Rebind(query string) string {
	if !d.numberedPlaceholders {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsUniqueViolation reports whether err is the driver's unique constraint error
func (d Dialect) IsUniqueViolation(err error) bool {
	return err != nil && d.uniqueViolation != nil && d.uniqueViolation(err)
}
