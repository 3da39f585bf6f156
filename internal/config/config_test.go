package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a2ltool.yaml")
	content := []byte("scope: addresses-only\nmode: strict\na2l_version: \"1.7.1\"\ntarget_group: CAL\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "addresses-only", cfg.Scope)
	assert.Equal(t, "strict", cfg.Mode)
	assert.Equal(t, "1.7.1", cfg.A2LVersion)
	assert.Equal(t, "CAL", cfg.TargetGroup)
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: yolo\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad-version.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a2l_version: not-a-version\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
