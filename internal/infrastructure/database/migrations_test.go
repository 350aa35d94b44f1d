package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_Embedded(t *testing.T) {
	migrations, err := LoadMigrations(EmbeddedMigrations())
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	assert.Equal(t, "0001", migrations[0].ID)
	assert.Equal(t, "create users", migrations[0].Description)
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS users")

	assert.Equal(t, "0002", migrations[1].ID)
	assert.Contains(t, migrations[1].SQL, "WHERE status = 'pending'")

	assert.Equal(t, "create admin logs", migrations[2].Description)
	assert.Contains(t, migrations[2].SQL, "REFERENCES users (id)")
}

func TestLoadMigrations_SortsAndRejectsBadNames(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_second.sql": {Data: []byte("SELECT 2;")},
		"0001_first.sql":  {Data: []byte("SELECT 1;")},
		"README.md":       {Data: []byte("ignored")},
	}
	migrations, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "0001", migrations[0].ID)
	assert.Equal(t, "second", migrations[1].Description)

	_, err = LoadMigrations(fstest.MapFS{"broken.sql": {Data: []byte("x")}})
	assert.Error(t, err)
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, gormLogLevel("silent"), gormLogLevel("silent"))
	assert.NotEqual(t, gormLogLevel("silent"), gormLogLevel("info"))
	assert.Equal(t, gormLogLevel("warn"), gormLogLevel("unknown"))
}
