package container

import (
	"context"
	"errors"
	"testing"

	"veritas/internal"
	"veritas/internal/config"
	"veritas/internal/harness"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.FromEnv()
	require.NoError(t, err)
	return cfg
}

func TestNew(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)

	c, err := New(testConfig(t), internal.NewNopLogger())
	require.NoError(t, err)
	assert.NotNil(t, c.Loader)
	assert.NotNil(t, c.Aggregator)
	assert.NotNil(t, c.Comparator)
	assert.NotNil(t, c.Workbook)
	assert.Nil(t, c.Results)
	assert.NoError(t, c.Close())
}

func TestRunConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Harness.Rounds = 4
	cfg.Harness.FailFast = true

	c, err := New(cfg, internal.NewNopLogger())
	require.NoError(t, err)

	rc := c.RunConfig()
	assert.Equal(t, 4, rc.Rounds)
	assert.Equal(t, harness.FailFast, rc.Policy)
	assert.NoError(t, rc.Validate())
}

func TestInitWithDatabase_PingFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("refused"))

	c, err := New(testConfig(t), internal.NewNopLogger())
	require.NoError(t, err)

	assert.Error(t, c.InitWithDatabase(context.Background(), sqlx.NewDb(db, "sqlmock")))
	assert.Nil(t, c.Results)
	assert.Error(t, c.InitWithDatabase(context.Background(), nil))
}

func TestInitWithDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS evaluation_runs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS evaluation_rows").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))

	c, err := New(testConfig(t), internal.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, c.InitWithDatabase(context.Background(), sqlx.NewDb(db, "sqlmock")))
	assert.NotNil(t, c.Results)
	assert.NoError(t, mock.ExpectationsWereMet())
}
