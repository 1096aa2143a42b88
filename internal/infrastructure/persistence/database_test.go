package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase opens a Database over a mocked PostgreSQL connection
func newMockDatabase(t *testing.T, monitorPings bool) (*Database, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(monitorPings))
	require.NoError(t, err)

	db, err := Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), Options{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	return db, mock
}

func TestOptions_GormConfig(t *testing.T) {
	cfg := Options{}.gormConfig()

	assert.True(t, cfg.SkipDefaultTransaction)
	assert.NotNil(t, cfg.Logger)
	assert.Equal(t, time.UTC, cfg.NowFunc().Location())
}

func TestDatabase_Ping(t *testing.T) {
	t.Run("successful ping", func(t *testing.T) {
		db, mock := newMockDatabase(t, true)
		defer db.Close()

		mock.ExpectPing()

		assert.NoError(t, db.Ping(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed ping", func(t *testing.T) {
		db, mock := newMockDatabase(t, true)
		defer db.Close()

		mock.ExpectPing().WillReturnError(assert.AnError)

		assert.ErrorIs(t, db.Ping(context.Background()), assert.AnError)
	})
}

func TestDatabase_Close(t *testing.T) {
	db, mock := newMockDatabase(t, false)

	mock.ExpectClose()

	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Transaction(t *testing.T) {
	type sample struct {
		ID   uint
		Name string
	}

	t.Run("commit", func(t *testing.T) {
		db, mock := newMockDatabase(t, false)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "samples"`).
			WithArgs("ledger").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		err := db.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&sample{Name: "ledger"}).Error
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on error", func(t *testing.T) {
		db, mock := newMockDatabase(t, false)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := db.DB.Transaction(func(tx *gorm.DB) error {
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
