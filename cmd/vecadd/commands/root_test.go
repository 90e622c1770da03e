package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/notargets/vecadd/config"
	"github.com/notargets/vecadd/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootHostBackend(t *testing.T) {
	out, err := run(t, "--backend", "host", "--fill", "constant", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, 256, strings.Count(out, "is true, comparing 3 = 1 + 2"))
}

func TestRootSingleElement(t *testing.T) {
	out, err := run(t, "--backend", "host", "-n", "1", "--seed", "5", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "assertion at position"))
}

func TestRootQuiet(t *testing.T) {
	out, err := run(t, "--backend", "host", "-q", "--log-level", "error")
	require.NoError(t, err)
	assert.NotContains(t, out, "assertion at position")
}

func TestRootConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vecadd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("length: 8\nbackend: host\nlogging:\n  level: error\n"), 0644))

	out, err := run(t, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, 8, strings.Count(out, "assertion at position"))

	// Flags override the file
	out, err = run(t, "--config", path, "--length", "3")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "assertion at position"))
}

func TestRootInvalidFlags(t *testing.T) {
	_, err := run(t, "--backend", "vulkan")
	assert.Error(t, err)

	_, err = run(t, "--backend", "host", "--length", "0")
	assert.Error(t, err)

	_, err = run(t, "--backend", "host", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestOpenDeviceHost(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendHost
	dev, err := OpenDevice(cfg)
	require.NoError(t, err)
	defer dev.Free()
	assert.Equal(t, "Host", dev.Mode())
	assert.Equal(t, host.DefaultMaxThreadsPerGroup, dev.MaxThreadsPerGroup())
}

func TestOpenDeviceMaxGroupWidth(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendHost
	cfg.MaxGroupWidth = 64
	dev, err := OpenDevice(cfg)
	require.NoError(t, err)
	defer dev.Free()
	assert.Equal(t, 64, dev.MaxThreadsPerGroup())
}

func TestDevicesCommand(t *testing.T) {
	out, err := run(t, "devices")
	require.NoError(t, err)
	assert.Contains(t, out, "host")
	assert.Contains(t, out, `{"mode": "Serial"}`)
}
