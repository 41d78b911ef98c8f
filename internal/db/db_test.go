package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"cafe-be/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "localhost",
		DBUser:     "cafe",
		DBPassword: "cafe_pw",
		DBName:     "cafe_db",
		DBPort:     "5432",
	}

	expected := "host='localhost' port='5432' user='cafe' password='cafe_pw' dbname='cafe_db' sslmode=disable"
	assert.Equal(t, expected, buildDSN(cfg))

	cfg.DBPassword = `it's a \secret`
	cfg.DBSSLMode = "require"
	assert.Equal(t,
		`host='localhost' port='5432' user='cafe' password='it\'s a \\secret' dbname='cafe_db' sslmode=require`,
		buildDSN(cfg))
}

func TestNewDatabase_ConnectionFailure(t *testing.T) {
	cfg := &config.Config{
		DBHost: "invalid_host",
		DBPort: "5432",
	}

	db, err := NewDatabase(cfg)

	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "failed to ping DB")
}

func TestNewDatabase_InvalidDriver(t *testing.T) {
	db, err := newDatabaseWithDriver(&config.Config{}, "invalid_driver_name")

	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "failed to connect to DB")
}

func TestInitDB_Failure(t *testing.T) {
	// InitDB exits the process through the fatal logger, so run it in a subprocess.
	if os.Getenv("BE_CRASHER") == "1" {
		InitDB(&config.Config{DBHost: "invalid_host", DBPort: "5432"})
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestInitDB_Failure")
	cmd.Env = append(os.Environ(), "BE_CRASHER=1")
	err := cmd.Run()

	if e, ok := err.(*exec.ExitError); ok && !e.Success() {
		return
	}
	t.Fatalf("process ran with err %v, want exit status 1", err)
}

func TestNewDatabase_Pool(t *testing.T) {
	cfg := &config.Config{
		DBHost:            "pool-host",
		DBName:            "cafe_db",
		DBMaxOpenConns:    12,
		DBConnMaxLifetime: time.Minute,
	}
	_, mock, err := sqlmock.NewWithDSN(buildDSN(cfg), sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	t.Run("PingOK", func(t *testing.T) {
		mock.ExpectPing()

		db, err := newDatabaseWithDriver(cfg, "sqlmock")
		require.NoError(t, err)

		assert.Equal(t, 12, db.Stats().MaxOpenConnections)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("PingFails", func(t *testing.T) {
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		mock.ExpectClose()

		db, err := newDatabaseWithDriver(cfg, "sqlmock")

		assert.Nil(t, db)
		assert.ErrorContains(t, err, "failed to ping DB")
	})
}

func TestWithTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE orders").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := WithTx(ctx, db, nil, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, "UPDATE orders SET status = 'CONFIRMED'")
			return err
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollbackOnError", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := WithTx(ctx, db, nil, func(tx *sql.Tx) error { return boom })

		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BeginError", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("no conn"))

		err := WithTx(ctx, db, nil, func(tx *sql.Tx) error { return nil })

		assert.ErrorContains(t, err, "begin tx")
	})
}

func TestPgErrorClassification(t *testing.T) {
	unique := &pq.Error{Code: "23505", Constraint: "uq_active_booking_slot"}
	serial := &pq.Error{Code: "40001"}

	assert.True(t, IsUniqueViolation(unique, ""))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", unique), "uq_active_booking_slot"))
	assert.False(t, IsUniqueViolation(unique, "orders_order_number_key"))
	assert.False(t, IsUniqueViolation(errors.New("plain"), ""))

	fk := &pq.Error{Code: "23503", Constraint: "fk_payments_order"}
	assert.True(t, IsForeignKeyViolation(fk, "fk_payments_order"))
	assert.True(t, IsForeignKeyViolation(fmt.Errorf("delete: %w", fk), ""))
	assert.False(t, IsForeignKeyViolation(unique, ""))
	assert.False(t, IsForeignKeyViolation(fk, "order_items_order_id_fkey"))

	assert.True(t, IsSerializationFailure(serial))
	assert.False(t, IsSerializationFailure(unique))
}
