package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/userfile-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubGooseRun(t *testing.T, fn func(ctx context.Context, command string, db *sql.DB, dir string) error) {
	t.Helper()
	original := gooseRun
	gooseRun = fn
	t.Cleanup(func() { gooseRun = original })
}

func TestMigrate(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t.Run("runs command against embedded migrations", func(t *testing.T) {
		var gotCommand, gotDir string
		stubGooseRun(t, func(_ context.Context, command string, _ *sql.DB, dir string) error {
			gotCommand, gotDir = command, dir
			return nil
		})

		buf, l := logger.NewTestLogger(t)
		require.NoError(t, Migrate(context.Background(), db, MigrateUp, l))

		assert.Equal(t, MigrateUp, gotCommand)
		assert.Equal(t, ".", gotDir)
		logger.AssertLogField(t, buf, "component", "migrations")
	})

	t.Run("goose failure is wrapped", func(t *testing.T) {
		gooseErr := errors.New("dirty database")
		stubGooseRun(t, func(context.Context, string, *sql.DB, string) error { return gooseErr })

		err := Migrate(context.Background(), db, MigrateDown, nil)

		assert.ErrorIs(t, err, gooseErr)
		assert.Contains(t, err.Error(), "migration down failed")
	})

	t.Run("unknown command", func(t *testing.T) {
		err := Migrate(context.Background(), db, "redo-all", nil)
		assert.ErrorContains(t, err, "unsupported migration command")
	})
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	entries, err := migrationsFS()
	require.NoError(t, err)
	assert.Contains(t, entries, "00001_create_users.sql")
}

func TestSlogGooseLogger(t *testing.T) {
	buf, l := logger.NewTestLogger(t)
	gl := &slogGooseLogger{logger: l}

	gl.Printf("applied %d migrations", 2)
	gl.Fatalf("failed: %s", "boom")

	logger.AssertLogContains(t, buf, "applied 2 migrations")
	logger.AssertLogContains(t, buf, "failed: boom")
}

func TestPing(t *testing.T) {
	t.Run("retries until the database answers", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing().WillReturnError(errors.New("starting up"))
		mock.ExpectPing()

		_, l := logger.NewTestLogger(t)
		require.NoError(t, Ping(context.Background(), db, l))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing().WillReturnError(errors.New("down"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, l := logger.NewTestLogger(t)
		assert.Error(t, Ping(ctx, db, l))
	})
}
