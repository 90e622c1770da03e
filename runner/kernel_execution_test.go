package runner

import (
	"errors"
	"testing"

	"github.com/notargets/vecadd/host"
	"github.com/notargets/vecadd/kernels"
	"github.com/notargets/vecadd/runner/builder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDispatchAdd tests one dispatch of add_arrays end to end
func TestDispatchAdd(t *testing.T) {
	const n = 256
	kr, _ := newHostRunner(t, n, 0)

	a := make([]float32, n)
	b := make([]float32, n)
	r := make([]float32, n)
	for i := range a {
		a[i] = 1
		b[i] = 2
	}
	p := setupAdd(t, kr, a, b, r)

	sub, err := kr.Dispatch(p)
	require.NoError(t, err)
	require.NoError(t, sub.Wait())

	for i := range r {
		assert.Equal(t, float32(3), r[i], "index %d", i)
	}

	// Wait is idempotent
	assert.NoError(t, sub.Wait())
}

func TestDispatchSingleElement(t *testing.T) {
	kr, _ := newHostRunner(t, 1, 0)

	a := []float32{0.125}
	b := []float32{4.5}
	r := []float32{0}
	p := setupAdd(t, kr, a, b, r)

	assert.Equal(t, 1, p.Launch.Grid.Size())
	assert.Equal(t, 1, p.Launch.Group.Size())

	require.NoError(t, kr.Run(p))
	assert.Equal(t, a[0]+b[0], r[0])
}

func TestDispatchManyGroups(t *testing.T) {
	const n = 1000
	kr, _ := newHostRunner(t, n, 64)

	a := make([]float32, n)
	b := make([]float32, n)
	r := make([]float32, n)
	for i := range a {
		a[i] = float32(i) / 8
		b[i] = float32(n-i) / 4
	}
	p := setupAdd(t, kr, a, b, r)
	assert.Equal(t, 16, p.Launch.NumGroups().X)

	require.NoError(t, kr.Run(p))
	for i := range r {
		assert.Equal(t, a[i]+b[i], r[i], "index %d", i)
	}
}

// TestBuffersInFlight tests that buffers cannot be read or re-dispatched
// between Dispatch and Wait
func TestBuffersInFlight(t *testing.T) {
	const n = 8
	dev := host.NewDevice(0)
	defer dev.Free()

	gate := make(chan struct{})
	dev.RegisterKernel("gated_add", func(tid host.ThreadID, args ...[]float32) {
		<-gate
		kernels.AddArrays(tid, args...)
	})

	kr := NewRunner(dev, builder.Config{Length: n})
	defer kr.Free()

	a := make([]float32, n)
	b := make([]float32, n)
	r := make([]float32, n)
	for i := range a {
		a[i] = float32(i)
		b[i] = 1
	}
	require.NoError(t, kr.DefineBindings(
		builder.Input("A").Bind(a),
		builder.Input("B").Bind(b),
		builder.Output("R").Bind(r),
	))
	require.NoError(t, kr.AllocateDevice())
	p, err := kr.BuildKernel("", "gated_add")
	require.NoError(t, err)

	sub, err := kr.Dispatch(p)
	require.NoError(t, err)

	for _, name := range []string{"A", "B", "R"} {
		buf := kr.GetBuffer(name)
		assert.Equal(t, OwnerDevice, buf.Owner(), name)
		_, err := buf.Host()
		assert.ErrorIs(t, err, ErrBufferInFlight, name)
	}

	_, err = kr.Dispatch(p)
	assert.ErrorIs(t, err, ErrBufferInFlight, "second dispatch over in-flight buffers")
	// The failed dispatch must not have returned any buffer to the host
	assert.Equal(t, OwnerDevice, kr.GetBuffer("A").Owner())

	close(gate)
	require.NoError(t, sub.Wait())

	result, err := kr.GetBuffer("R").Host()
	require.NoError(t, err)
	for i := range result {
		assert.Equal(t, float32(i)+1, result[i])
	}
}

func TestDispatchErrors(t *testing.T) {
	t.Run("NotAllocated", func(t *testing.T) {
		kr, _ := newHostRunner(t, 4, 0)
		_, err := kr.Dispatch(&Pipeline{})
		assert.ErrorIs(t, err, ErrNotAllocated)
	})

	t.Run("NilPipeline", func(t *testing.T) {
		kr, _ := newHostRunner(t, 4, 0)
		setupAdd(t, kr, make([]float32, 4), make([]float32, 4), make([]float32, 4))
		_, err := kr.Dispatch(nil)
		assert.Error(t, err)
	})

	t.Run("UnknownBuffer", func(t *testing.T) {
		kr, _ := newHostRunner(t, 4, 0)
		p := setupAdd(t, kr, make([]float32, 4), make([]float32, 4), make([]float32, 4))
		_, err := kr.Dispatch(p, "A", "B", "Q")
		assert.True(t, errors.Is(err, ErrUnknownBuffer))
	})

	t.Run("LaunchRejectedReleasesBuffers", func(t *testing.T) {
		kr, _ := newHostRunner(t, 64, 0)
		p := setupAdd(t, kr, make([]float32, 64), make([]float32, 64), make([]float32, 64))

		// A group wider than the device accepts
		p.Launch.Group.X = 2 * host.DefaultMaxThreadsPerGroup
		_, err := kr.Dispatch(p)
		require.Error(t, err)

		for _, name := range []string{"A", "B", "R"} {
			assert.Equal(t, OwnerHost, kr.GetBuffer(name).Owner(), name)
		}
	})
}
