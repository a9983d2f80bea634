package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap_CreatesFileAndDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scriptor.yaml")

	cfg, err := Bootstrap(path)
	require.NoError(t, err)

	assert.FileExists(t, path)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.DirExists(t, filepath.Join(dir, "storage"))
	assert.DirExists(t, filepath.Join(dir, "scripts"))
	assert.DirExists(t, filepath.Join(dir, ".log"))
	assert.Equal(t, filepath.Join(dir, "tools.yaml"), cfg.ToolsFile())

	// A second bootstrap keeps the existing file.
	require.NoError(t, os.WriteFile(path, []byte("concurrency: 4\n"), 0o644))
	cfg, err = Bootstrap(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	doc := `{
		"concurrency": 3,
		"path_ignored": true,
		"paths": {"storage": "/var/lib/scriptor", "scripts": "flows", "log": "logs"},
		"scripts": ["login", "farm"],
		"store": {"driver": "redis", "redis": {"addr": "localhost:6379", "ttl": "1h"}}
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, []string{"login", "farm"}, cfg.Scripts)
	assert.Equal(t, "/var/lib/scriptor", cfg.StorageDir())
	assert.Equal(t, filepath.Join(dir, "flows"), cfg.ScriptsDir())
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL.Std())
	assert.Equal(t, LoaderFile, cfg.Loader)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"negative concurrency": "concurrency: -1\n",
		"unknown driver":       "store:\n  driver: postgres\n",
		"redis without addr":   "store:\n  driver: redis\n",
		"unknown loader":       "loader: s3\n",
		"malformed":            "concurrency: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)

	cfg, err := LoadOrDefault("absent.yaml")
	require.NoError(t, err)
	assert.Equal(t, wd, cfg.Dir())
	assert.Equal(t, filepath.Join(wd, "scripts"), cfg.ScriptsDir())
	assert.Equal(t, LoaderFile, cfg.Loader)
}
