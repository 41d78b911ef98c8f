package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMigrationPart(t *testing.T) {
	content := `
-- +migrate Up
CREATE TABLE cafes (id int);
ALTER TABLE cafes ADD COLUMN name text;

-- +migrate Down
DROP TABLE cafes;
`
	up := extractMigrationPart(content, "Up")
	assert.Contains(t, up, "CREATE TABLE cafes")
	assert.Contains(t, up, "ALTER TABLE cafes")
	assert.NotContains(t, up, "DROP TABLE cafes")
	assert.NotContains(t, up, "-- +migrate")

	down := extractMigrationPart(content, "Down")
	assert.Contains(t, down, "DROP TABLE cafes")
	assert.NotContains(t, down, "CREATE TABLE cafes")

	assert.Empty(t, extractMigrationPart(content, "Sideways"))
}

func TestInitialMigrationShape(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("..", "..", "migrations", "0001_init.sql"))
	require.NoError(t, err)

	up := extractMigrationPart(string(content), "Up")
	for _, name := range []string{
		"uq_orders_order_number",
		"uq_active_booking_slot",
		"uq_payments_transaction_id",
		"fk_payments_order FOREIGN KEY (order_id) REFERENCES orders (id) ON DELETE RESTRICT",
		"CREATE TABLE cafe_tables",
		"CREATE TABLE table_bookings",
	} {
		assert.Contains(t, up, name)
	}
	assert.Contains(t, extractMigrationPart(string(content), "Down"), "DROP TABLE IF EXISTS orders")
}

type fixture struct {
	mock sqlmock.Sqlmock
	m    *migrator
	out  *bytes.Buffer
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	out := &bytes.Buffer{}
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	return &fixture{mock: mock, m: &migrator{db: database, dir: dir, out: out}, out: out}
}

func (f *fixture) expectApplied(versions ...string) {
	rows := sqlmock.NewRows([]string{"version"})
	for _, v := range versions {
		rows.AddRow(v)
	}
	f.mock.ExpectQuery("SELECT version FROM schema_migrations").WillReturnRows(rows)
}

func TestUp(t *testing.T) {
	f := newFixture(t, map[string]string{
		"0001_init.sql": "-- +migrate Up\nCREATE TABLE a (id int);",
		"0002_more.sql": "-- +migrate Up\nCREATE TABLE b (id int);\n-- +migrate Down\nDROP TABLE b;",
	})
	f.expectApplied("0001_init.sql")
	f.mock.ExpectBegin()
	f.mock.ExpectExec("CREATE TABLE b").WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs("0002_more.sql").
		WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectCommit()

	require.NoError(t, f.m.run(context.Background(), "up", 1))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUp_FailureRollsBack(t *testing.T) {
	f := newFixture(t, map[string]string{
		"0001_init.sql": "-- +migrate Up\nCREATE TABLE a (id int);",
		"0002_more.sql": "-- +migrate Up\nCREATE TABLE b (id int);",
	})
	f.expectApplied()
	f.mock.ExpectBegin()
	f.mock.ExpectExec("CREATE TABLE a").WillReturnError(errors.New("syntax error"))
	f.mock.ExpectRollback()

	err := f.m.run(context.Background(), "up", 1)

	assert.ErrorContains(t, err, "migration 0001_init.sql failed")
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDown(t *testing.T) {
	files := map[string]string{
		"0001_init.sql": "-- +migrate Up\nCREATE TABLE a (id int);\n-- +migrate Down\nDROP TABLE a;",
		"0002_more.sql": "-- +migrate Up\nCREATE TABLE b (id int);\n-- +migrate Down\nDROP TABLE b;",
	}

	t.Run("RollsBackLatest", func(t *testing.T) {
		f := newFixture(t, files)
		f.expectApplied("0002_more.sql", "0001_init.sql")
		f.mock.ExpectBegin()
		f.mock.ExpectExec("DROP TABLE b").WillReturnResult(sqlmock.NewResult(0, 0))
		f.mock.ExpectExec("DELETE FROM schema_migrations").
			WithArgs("0002_more.sql").
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.mock.ExpectCommit()

		require.NoError(t, f.m.run(context.Background(), "down", 1))
		require.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("MultipleSteps", func(t *testing.T) {
		f := newFixture(t, files)
		f.expectApplied("0002_more.sql", "0001_init.sql")
		for _, v := range []struct{ drop, version string }{
			{"DROP TABLE b", "0002_more.sql"},
			{"DROP TABLE a", "0001_init.sql"},
		} {
			f.mock.ExpectBegin()
			f.mock.ExpectExec(v.drop).WillReturnResult(sqlmock.NewResult(0, 0))
			f.mock.ExpectExec("DELETE FROM schema_migrations").
				WithArgs(v.version).
				WillReturnResult(sqlmock.NewResult(0, 1))
			f.mock.ExpectCommit()
		}

		require.NoError(t, f.m.run(context.Background(), "down", 5))
		require.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("NothingApplied", func(t *testing.T) {
		f := newFixture(t, files)
		f.expectApplied()

		assert.NoError(t, f.m.run(context.Background(), "down", 1))
	})

	t.Run("MissingFile", func(t *testing.T) {
		f := newFixture(t, files)
		f.expectApplied("0009_gone.sql")

		err := f.m.run(context.Background(), "down", 1)
		assert.ErrorContains(t, err, "migration file not found")
	})

	t.Run("BadSteps", func(t *testing.T) {
		f := newFixture(t, files)
		f.expectApplied("0001_init.sql")

		err := f.m.run(context.Background(), "down", 0)
		assert.ErrorContains(t, err, "steps must be at least 1")
	})
}

func TestStatus(t *testing.T) {
	f := newFixture(t, map[string]string{
		"0001_init.sql": "-- +migrate Up\nSELECT 1;",
		"0002_more.sql": "-- +migrate Up\nSELECT 2;",
	})
	f.expectApplied("0001_init.sql")

	require.NoError(t, f.m.run(context.Background(), "status", 1))
	assert.Equal(t, "applied  0001_init.sql\npending  0002_more.sql\n", f.out.String())
}

func TestRun_Errors(t *testing.T) {
	t.Run("UnknownMode", func(t *testing.T) {
		f := newFixture(t, nil)
		f.expectApplied()

		err := f.m.run(context.Background(), "sideways", 1)
		assert.ErrorContains(t, err, "unknown mode")
	})

	t.Run("ListFails", func(t *testing.T) {
		f := newFixture(t, nil)
		f.mock.ExpectQuery("SELECT version FROM schema_migrations").WillReturnError(sql.ErrConnDone)

		err := f.m.run(context.Background(), "up", 1)
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})
}
