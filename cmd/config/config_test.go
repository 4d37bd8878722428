package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sources:
  - ./defs
serve:
  enabled: true
  addr: ":9000"
max_output_size: "1MB"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"./defs"}, cfg.Sources)
	require.True(t, cfg.Serve.Enabled)
	require.Equal(t, ":9000", cfg.Serve.Addr)

	bytes, err := cfg.MaxOutputBytes()
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), bytes)
}

func TestMaxOutputBytesEmptyMeansUnbounded(t *testing.T) {
	cfg := &Config{}
	bytes, err := cfg.MaxOutputBytes()
	require.NoError(t, err)
	require.Zero(t, bytes)
}
