package vecadd

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/notargets/vecadd/config"
	"github.com/notargets/vecadd/device"
	"github.com/notargets/vecadd/host"
	"github.com/notargets/vecadd/kernels"
	"github.com/notargets/vecadd/logging"
	"github.com/notargets/vecadd/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHostDevice(t *testing.T, maxThreads int) *host.Device {
	t.Helper()
	logging.SetOutput(io.Discard)
	dev := host.NewDevice(maxThreads)
	kernels.RegisterHost(dev)
	t.Cleanup(dev.Free)
	return dev
}

func TestRunConstantOperands(t *testing.T) {
	dev := newHostDevice(t, 0)
	cfg := config.Default()
	cfg.Fill = config.FillConstant
	cfg.FillA = 1
	cfg.FillB = 2

	var out bytes.Buffer
	report, err := Run(cfg, dev, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 256)
	for _, line := range lines {
		assert.Contains(t, line, "is true, comparing 3 = 1 + 2")
	}

	assert.Equal(t, "Host", report.Mode)
	assert.Equal(t, device.Dim3{X: 256, Y: 1, Z: 1}, report.Launch.Grid)
	assert.Equal(t, device.Dim3{X: 256, Y: 1, Z: 1}, report.Launch.Group)
	assert.Equal(t, 256, report.Summary.Elements)
	assert.Equal(t, 0.0, report.Summary.MaxError)
}

func TestRunRandomOperands(t *testing.T) {
	dev := newHostDevice(t, 64)
	cfg := config.Default()
	cfg.Length = 1000
	cfg.Seed = 12345

	var out bytes.Buffer
	report, err := Run(cfg, dev, &out)
	require.NoError(t, err)

	assert.Equal(t, 1000, strings.Count(out.String(), " is true, "))
	assert.Equal(t, 64, report.Launch.Group.X)
	assert.GreaterOrEqual(t, report.Summary.MinA, 0.0)
	assert.LessOrEqual(t, report.Summary.MaxA, 5.0)
	assert.GreaterOrEqual(t, report.Summary.MinB, 0.0)
	assert.LessOrEqual(t, report.Summary.MaxB, 5.0)
}

func TestRunSingleElement(t *testing.T) {
	dev := newHostDevice(t, 0)
	cfg := config.Default()
	cfg.Length = 1

	var out bytes.Buffer
	report, err := Run(cfg, dev, &out)
	require.NoError(t, err)
	assert.Equal(t, device.Dim3{X: 1, Y: 1, Z: 1}, report.Launch.Grid)
	assert.Equal(t, device.Dim3{X: 1, Y: 1, Z: 1}, report.Launch.Group)
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
}

func TestRunCorruptedResult(t *testing.T) {
	dev := newHostDevice(t, 0)
	cfg := config.Default()
	cfg.Fill = config.FillConstant

	var out bytes.Buffer
	_, err := RunWithHooks(cfg, dev, &out, Hooks{
		BeforeVerify: func(a, b, r []float32) { r[10] = -1 },
	})
	require.Error(t, err)

	var mismatch *verify.MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 10, mismatch.Index)
	assert.Equal(t, float32(-1), mismatch.Got)
	assert.Contains(t, out.String(), "assertion at position 10 is false")
	assert.NotContains(t, out.String(), "position 11 ")
}

func TestRunQuiet(t *testing.T) {
	dev := newHostDevice(t, 0)
	cfg := config.Default()
	cfg.Quiet = true

	var out bytes.Buffer
	_, err := Run(cfg, dev, &out)
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestRunSetupFailure(t *testing.T) {
	// A host device without the add kernel registered cannot build the pipeline
	logging.SetOutput(io.Discard)
	dev := host.NewDevice(0)
	defer dev.Free()

	_, err := Run(config.Default(), dev, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), kernels.AddArraysName)
}

func TestRunInvalidConfig(t *testing.T) {
	dev := newHostDevice(t, 0)
	cfg := config.Default()
	cfg.Length = 0

	_, err := Run(cfg, dev, io.Discard)
	assert.Error(t, err)
}
