package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "0.0.0.0:8484", cfg.Server.Address())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "metadex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
metadata:
  default_locale: ja-JP
  dev_mode: true
scheduler:
  profile_validation_cron: "*/5 * * * *"
`), 0o644))
	t.Setenv("METADEX_SERVER_PORT", "9100")
	t.Setenv("METADEX_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "ja-JP", cfg.Metadata.DefaultLocale)
	assert.True(t, cfg.Metadata.DevMode)
	assert.Equal(t, "*/5 * * * *", cfg.Scheduler.ProfileValidationCron)
	assert.Equal(t, "./data/metadex.db", cfg.Database.Path)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("METADEX_DATABASE_PATH=/tmp/from-dotenv.db\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("METADEX_DATABASE_PATH") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.Database.Path)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
