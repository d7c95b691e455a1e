package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
)

func TestTxRunner_InTx(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		fn      func(exec core.DBExecutor) error
		wantErr error
	}{
		{
			name: "commit",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("DELETE FROM chapters").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			fn: func(exec core.DBExecutor) error {
				_, err := exec.ExecContext(context.Background(), "DELETE FROM chapters WHERE id = $1", "ch1")
				return err
			},
		},
		{
			name: "rollback on error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			fn:      func(core.DBExecutor) error { return errBoom },
			wantErr: errBoom,
		},
		{
			name: "begin fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errBoom)
			},
			fn: func(core.DBExecutor) error {
				t.Fatal("fn must not run without a transaction")
				return nil
			},
			wantErr: errBoom,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer mockDB.Close()
			tt.setup(mock)

			err = NewTxRunner(sqlx.NewDb(mockDB, "postgres")).InTx(context.Background(), tt.fn)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTxRunner_InTx_panic(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	runner := NewTxRunner(sqlx.NewDb(mockDB, "postgres"))
	assert.PanicsWithValue(t, "oops", func() {
		_ = runner.InTx(context.Background(), func(core.DBExecutor) error { panic("oops") })
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	conf := &core.Config{Database: core.DatabaseConfig{
		Engine: EnginePgx, Host: "db", Port: "5432", Name: "elimu",
		User: "app", Password: "s3cret", AdminUser: "root", AdminPassword: "toor",
	}}

	assert.Equal(t, "postgres://app:s3cret@db:5432/elimu?sslmode=require&timezone=utc", dsn("elimu", false, conf))
	assert.Equal(t, "postgres://root:toor@db:5432/postgres?sslmode=require&timezone=utc", dsn("postgres", true, conf))

	conf.Database.DisableTLS = true
	conf.Database.AdminUser = ""
	assert.Equal(t, "postgres://app:s3cret@db:5432/postgres?sslmode=disable&timezone=utc", dsn("postgres", true, conf))

	drv, err := driverName(conf)
	require.NoError(t, err)
	assert.Equal(t, "pgx", drv)
	conf.Database.Engine = EngineInmem
	_, err = driverName(conf)
	assert.Error(t, err)
}
