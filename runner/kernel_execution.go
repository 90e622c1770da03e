package runner

import (
	"errors"
	"fmt"
	"sync"

	"github.com/notargets/vecadd/device"
	"github.com/notargets/vecadd/logging"
)

// Submission is one dispatched unit of work. Its buffers stay checked out
// to the device until Wait returns.
type Submission struct {
	runner   *Runner
	pipeline *Pipeline
	buffers  []*Buffer

	once sync.Once
	err  error
}

// Dispatch checks the named buffers out to the device and submits one run
// of the pipeline over them. With no names, every binding is passed in
// definition order.
func (kr *Runner) Dispatch(p *Pipeline, names ...string) (*Submission, error) {
	if !kr.IsAllocated {
		return nil, ErrNotAllocated
	}
	if p == nil || p.Kernel == nil {
		return nil, fmt.Errorf("dispatch: nil pipeline")
	}
	if len(names) == 0 {
		names = kr.ParamNames()
	}

	buffers := make([]*Buffer, 0, len(names))
	for _, name := range names {
		buf, exists := kr.Buffers[name]
		if !exists {
			return nil, fmt.Errorf("dispatch %s: %w %s", p.Name(), ErrUnknownBuffer, name)
		}
		buffers = append(buffers, buf)
	}

	mems := make([]device.Memory, 0, len(buffers))
	for i, buf := range buffers {
		if err := buf.checkout(); err != nil {
			releaseAll(buffers[:i])
			return nil, fmt.Errorf("dispatch %s: %w", p.Name(), err)
		}
		mems = append(mems, buf.mem)
	}

	logging.Debugf("dispatch %s: grid %s, group %s, %d buffers",
		p.Name(), p.Launch.Grid, p.Launch.Group, len(buffers))

	if err := p.Kernel.Run(p.Launch, mems...); err != nil {
		kr.Device.Finish()
		releaseAll(buffers)
		return nil, fmt.Errorf("dispatch %s: %w", p.Name(), err)
	}

	return &Submission{runner: kr, pipeline: p, buffers: buffers}, nil
}

// Wait blocks until the device reports completion, copies outputs back and
// returns every buffer to the host. Later calls return the first result.
func (s *Submission) Wait() error {
	s.once.Do(func() {
		s.runner.Device.Finish()

		var errs []error
		for _, buf := range s.buffers {
			if err := buf.release(true); err != nil {
				errs = append(errs, err)
			}
		}
		s.err = errors.Join(errs...)
		if s.err == nil {
			logging.Debugf("%s completed", s.pipeline.Name())
		}
	})
	return s.err
}

// Run dispatches the pipeline and waits for it
func (kr *Runner) Run(p *Pipeline, names ...string) error {
	sub, err := kr.Dispatch(p, names...)
	if err != nil {
		return err
	}
	return sub.Wait()
}

func releaseAll(buffers []*Buffer) {
	for _, buf := range buffers {
		_ = buf.release(false)
	}
}
