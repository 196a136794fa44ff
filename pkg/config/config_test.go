package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bourque/wfc3-tools/pkg/regionstats"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 3.0, cfg.Stats.Sigma)
	assert.Equal(t, 1, cfg.Stats.Iterations)
	assert.Equal(t, "mask", cfg.Stats.Exclusion)
	assert.Equal(t, 30, cfg.Stats.HistogramBins)
	assert.Positive(t, cfg.Processing.Workers)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Stats, cfg.Stats)

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `stats:
  sigma: 2.5
  exclusion: sentinel
processing:
  workers: 2
output:
  histograms: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Stats.Sigma)
	assert.Equal(t, 1, cfg.Stats.Iterations, "unset values keep their defaults")
	assert.Equal(t, 2, cfg.Processing.Workers)
	assert.False(t, cfg.Output.Histograms)

	opts, err := cfg.EngineOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, regionstats.ExclusionSentinel, opts.Exclusion)
	assert.Equal(t, 2.5, opts.Sigma)
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("stats: [not, a, map"), 0644))
	_, err := LoadConfig(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("stats:\n  exclusion: paint\n"), 0644))
	_, err = LoadConfig(invalid)
	assert.Error(t, err)
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
