package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailsync/pkg/errors"
	"retailsync/pkg/models"
)

func withEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func chtmp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadFromEnvironment(t *testing.T) {
	chtmp(t)
	t.Setenv("RETAILSYNC_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	withEnv(t, map[string]string{
		"POSTGRES_USERNAME": "app",
		"POSTGRES_PASSWORD": "s3cret",
		"POSTGRES_SERVER":   "db.example.com:5432",
		"POSTGRES_DATABASE": "retail",
		"SQLITE_DB_PATH":    "data/normalized.db",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "app", cfg.Postgres.Username)
	assert.Equal(t, "s3cret", cfg.Postgres.Password)
	assert.Equal(t, "db.example.com:5432", cfg.Postgres.Server)
	assert.Equal(t, "retail", cfg.Postgres.Database)
	assert.Equal(t, "data/normalized.db", cfg.Source.Path)

	// Defaults
	assert.Equal(t, "require", cfg.Postgres.SSLMode)
	assert.Equal(t, 50000, cfg.Migration.BatchSize)
	assert.Equal(t, "gemini-2.5-flash", cfg.Assistant.Model)
}

func TestLoadMissingPostgresSettings(t *testing.T) {
	chtmp(t)
	t.Setenv("RETAILSYNC_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	withEnv(t, map[string]string{
		"POSTGRES_USERNAME": "app",
		"POSTGRES_PASSWORD": "",
		"POSTGRES_SERVER":   "",
		"POSTGRES_DATABASE": "retail",
	})

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigMissing, errors.GetErrorCode(err))
	// The error names exactly the missing variables.
	assert.Contains(t, err.Error(), "POSTGRES_PASSWORD")
	assert.Contains(t, err.Error(), "POSTGRES_SERVER")
	assert.NotContains(t, err.Error(), "POSTGRES_USERNAME")
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := chtmp(t)
	t.Setenv("RETAILSYNC_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	yaml := `
postgres:
  username: file-user
  password: file-pass
  server: file-host
  database: file-db
migration:
  batch_size: 1000
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0600))

	withEnv(t, map[string]string{
		"POSTGRES_USERNAME": "env-user",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-user", cfg.Postgres.Username)
	assert.Equal(t, "file-pass", cfg.Postgres.Password)
	assert.Equal(t, 1000, cfg.Migration.BatchSize)
}

func TestSaveAndReload(t *testing.T) {
	chtmp(t)
	t.Setenv("RETAILSYNC_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))

	cfg := &models.Config{
		Source: models.Source{Path: "normalized.db"},
		Postgres: models.Postgres{
			Username: "app",
			Password: "pw",
			Server:   "localhost",
			Database: "retail",
			SSLMode:  "disable",
		},
		Migration: models.Migration{BatchSize: 500},
	}

	require.NoError(t, Save(cfg))
	assert.True(t, Exists())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "app", loaded.Postgres.Username)
	assert.Equal(t, "disable", loaded.Postgres.SSLMode)
	assert.Equal(t, 500, loaded.Migration.BatchSize)
}
