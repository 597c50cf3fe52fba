package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORYBOARD_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, BackendBolt, cfg.Backend)
	assert.Equal(t, "1.0.0", cfg.StorageVersion)
	assert.Equal(t, 5120, cfg.QuotaKB)
	assert.Equal(t, 0, cfg.HTTPPort)
	assert.False(t, cfg.DevTools)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORYBOARD_DIR", t.TempDir())
	t.Setenv("STORYBOARD_BACKEND", "sqlite")
	t.Setenv("STORYBOARD_STORAGE_VERSION", "2.0.0")
	t.Setenv("STORYBOARD_QUOTA_KB", "0")
	t.Setenv("STORYBOARD_HTTP_PORT", "19555")
	t.Setenv("STORYBOARD_DEVTOOLS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "2.0.0", cfg.StorageVersion)
	assert.Equal(t, 0, cfg.QuotaKB)
	assert.Equal(t, 19555, cfg.HTTPPort)
	assert.True(t, cfg.DevTools)
}

func TestLoad_DefaultsDirToWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("STORYBOARD_DIR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Dir)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("STORYBOARD_DIR", t.TempDir())

	t.Setenv("STORYBOARD_BACKEND", "redis")
	_, err := Load()
	assert.ErrorContains(t, err, "unknown backend")

	t.Setenv("STORYBOARD_BACKEND", "memory")
	t.Setenv("STORYBOARD_QUOTA_KB", "abc")
	_, err = Load()
	assert.ErrorContains(t, err, "parse env")
}

func TestValidate(t *testing.T) {
	base := Config{Backend: BackendMemory, StorageVersion: "1.0.0"}
	require.NoError(t, base.Validate())

	c := base
	c.StorageVersion = ""
	assert.Error(t, c.Validate())

	c = base
	c.QuotaKB = -1
	assert.Error(t, c.Validate())

	c = base
	c.HTTPPort = 70000
	assert.Error(t, c.Validate())
}
