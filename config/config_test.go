package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 256, cfg.Length)
	assert.Equal(t, BackendOCCA, cfg.Backend)
	assert.Equal(t, FillRandom, cfg.Fill)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vecadd.yaml")
		data := `
length: 1
backend: host
devices:
  - '{"mode": "Serial"}'
max_group_width: 64
seed: 42
fill: constant
fill_a: 1.5
logging:
  level: debug
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.Length)
		assert.Equal(t, BackendHost, cfg.Backend)
		assert.Equal(t, []string{`{"mode": "Serial"}`}, cfg.Devices)
		assert.Equal(t, 64, cfg.MaxGroupWidth)
		assert.Equal(t, uint64(42), cfg.Seed)
		assert.Equal(t, FillConstant, cfg.Fill)
		assert.Equal(t, float32(1.5), cfg.FillA)
		assert.Equal(t, float32(2), cfg.FillB, "unset keys keep defaults")
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("length: [1"), 0644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "zero.yaml")
		require.NoError(t, os.WriteFile(path, []byte("length: 0\n"), 0644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero length", func(c *Config) { c.Length = 0 }},
		{"unknown backend", func(c *Config) { c.Backend = "vulkan" }},
		{"negative group width", func(c *Config) { c.MaxGroupWidth = -1 }},
		{"unknown fill", func(c *Config) { c.Fill = "zeros" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Length = 1024
	cfg.Backend = BackendHost
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
