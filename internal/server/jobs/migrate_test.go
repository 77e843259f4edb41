package jobs

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_UsesEmbeddedDir(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, RunMigrations(context.Background(), db))
	require.Equal(t, "migrations", gotDir)
}

func TestRunMigrations_Error(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	err = RunMigrations(context.Background(), db)
	require.Error(t, err)
	require.Contains(t, err.Error(), "migrate")
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestOpenPostgres_PingFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	var gotDriver string
	sqlOpen = func(driverName, dsn string) (*sql.DB, error) {
		gotDriver = driverName
		return db, nil
	}

	mock.ExpectPing().WillReturnError(errors.New("refused"))

	_, err = OpenPostgres(context.Background(), "postgres://x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "ping db")
	require.Equal(t, "pgx", gotDriver)
}

func TestOpenPostgres_OK(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	sqlOpen = func(driverName, dsn string) (*sql.DB, error) { return db, nil }

	mock.ExpectPing()

	got, err := OpenPostgres(context.Background(), "postgres://x")
	require.NoError(t, err)
	require.Same(t, db, got)
}
