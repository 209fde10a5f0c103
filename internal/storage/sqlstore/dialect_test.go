package sqlstore

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? OR c = ?"

	assert.Equal(t, "SELECT a FROM t WHERE b = $1 OR c = $2", Postgres.Rebind(q))
	assert.Equal(t, q, SQLite.Rebind(q))
}

func TestDialectByName(t *testing.T) {
	d, err := DialectByName("postgres")
	require.NoError(t, err)
	assert.Equal(t, "pgx", d.Driver)

	d, err = DialectByName("sqlite")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Driver)

	_, err = DialectByName("mysql")
	assert.Error(t, err)
}

func TestPostgresUniqueViolation(t *testing.T) {
	assert.True(t, Postgres.IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, Postgres.IsUniqueViolation(&pgconn.PgError{Code: "23502"}))
	assert.False(t, Postgres.IsUniqueViolation(errors.New("23505")))
	assert.False(t, Postgres.IsUniqueViolation(nil))
}

func TestTimestampScan(t *testing.T) {
	want := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, src := range []any{
		want,
		"2024-01-01 12:00:00+00:00",
		"2024-01-01T12:00:00Z",
		[]byte("2024-01-01 12:00:00"),
		want.Unix(),
	} {
		var ts timestamp
		require.NoError(t, ts.Scan(src), "%T", src)
		assert.True(t, ts.Equal(want), "%T: got %v", src, ts.Time)
	}

	var ts timestamp
	assert.Error(t, ts.Scan(3.14))
	assert.Error(t, ts.Scan("yesterday"))
}
