// Package vecadd adds two float32 arrays on a compute device and verifies
// the result on the host.
//
// A run is one linear sequence:
//
//	bind and allocate A, B, R -> fill A and B -> build add_arrays ->
//	dispatch -> wait -> verify R == A + B
//
// Every step returns its error; deciding whether to abort is left to the
// caller.
package vecadd

import (
	"fmt"
	"io"

	"github.com/notargets/vecadd/config"
	"github.com/notargets/vecadd/datagen"
	"github.com/notargets/vecadd/device"
	"github.com/notargets/vecadd/kernels"
	"github.com/notargets/vecadd/logging"
	"github.com/notargets/vecadd/runner"
	"github.com/notargets/vecadd/runner/builder"
	"github.com/notargets/vecadd/verify"
	"github.com/sirupsen/logrus"
)

// Report describes a completed run
type Report struct {
	Mode    string
	Launch  device.Launch
	Summary verify.Summary
}

// Hooks let callers observe or alter buffers between steps
type Hooks struct {
	// BeforeVerify runs on the host views after the dispatch completes
	BeforeVerify func(a, b, r []float32)
}

// Run performs one addition of cfg.Length elements on dev, writing one
// verification line per element to out unless cfg.Quiet is set
func Run(cfg *config.Config, dev device.Device, out io.Writer) (*Report, error) {
	return RunWithHooks(cfg, dev, out, Hooks{})
}

// RunWithHooks is Run with hooks
func RunWithHooks(cfg *config.Config, dev device.Device, out io.Writer, hooks Hooks) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kr := runner.NewRunner(dev, builder.Config{
		Length:        cfg.Length,
		MaxGroupWidth: cfg.MaxGroupWidth,
	})
	defer kr.Free()

	err := kr.DefineBindings(
		builder.Input(kernels.ParamA).Size(cfg.Length),
		builder.Input(kernels.ParamB).Size(cfg.Length),
		builder.Output(kernels.ParamR).Size(cfg.Length),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to define buffers: %w", err)
	}
	if err := kr.AllocateDevice(); err != nil {
		return nil, fmt.Errorf("failed to allocate buffers: %w", err)
	}

	if err := fillOperands(cfg, kr); err != nil {
		return nil, err
	}

	pipeline, err := kr.BuildKernel(
		kernels.AddArraysSource(kr.GenerateKernelSignature()), kernels.AddArraysName)
	if err != nil {
		return nil, err
	}

	logging.WithFields(logrus.Fields{
		"mode":   dev.Mode(),
		"length": cfg.Length,
		"grid":   pipeline.Launch.Grid.String(),
		"group":  pipeline.Launch.Group.String(),
	}).Info("dispatching add_arrays")

	sub, err := kr.Dispatch(pipeline)
	if err != nil {
		return nil, err
	}
	if err := sub.Wait(); err != nil {
		return nil, fmt.Errorf("dispatch did not complete: %w", err)
	}

	a, b, r, err := hostViews(kr)
	if err != nil {
		return nil, err
	}
	if hooks.BeforeVerify != nil {
		hooks.BeforeVerify(a, b, r)
	}

	w := out
	if cfg.Quiet {
		w = nil
	}
	if err := verify.Verify(w, a, b, r); err != nil {
		return nil, err
	}

	report := &Report{
		Mode:    dev.Mode(),
		Launch:  pipeline.Launch,
		Summary: verify.Summarize(a, b, r),
	}
	logging.WithFields(logrus.Fields{
		"elements":  report.Summary.Elements,
		"max_error": report.Summary.MaxError,
	}).Info("verification passed")
	return report, nil
}

func fillOperands(cfg *config.Config, kr *runner.Runner) error {
	a, err := kr.GetBuffer(kernels.ParamA).Host()
	if err != nil {
		return err
	}
	b, err := kr.GetBuffer(kernels.ParamB).Host()
	if err != nil {
		return err
	}

	switch cfg.Fill {
	case config.FillConstant:
		datagen.Constant(a, cfg.FillA)
		datagen.Constant(b, cfg.FillB)
	default:
		src := datagen.NewSource(cfg.Seed)
		datagen.Fill(a, src)
		datagen.Fill(b, src)
	}
	return nil
}

// hostViews returns A, B and R truncated to the element count derived from
// each buffer's byte length
func hostViews(kr *runner.Runner) (a, b, r []float32, err error) {
	views := make([][]float32, 3)
	for i, name := range []string{kernels.ParamA, kernels.ParamB, kernels.ParamR} {
		buf := kr.GetBuffer(name)
		host, err := buf.Host()
		if err != nil {
			return nil, nil, nil, err
		}
		views[i] = host[:buf.Len()]
	}
	return views[0], views[1], views[2], nil
}
