package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFallsBackToDefaultsWhenNoFilePresent(t *testing.T) {
	cfg, err := Load("taskgrid-nonexistent", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadReadsYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	content := []byte("http_listen_addr: \":9090\"\nsession_pool_max: 50\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taskgrid.yaml"), content, 0o644))

	cfg, err := Load("taskgrid", dir)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPListenAddr)
	assert.Equal(t, 50, cfg.SessionPoolMax)
	assert.Equal(t, Default().PathSeparator, cfg.PathSeparator)
}
