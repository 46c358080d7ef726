// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package rframe is the frame driver: it owns the ring of
// per-frame-in-flight command buffers, acquires and presents
// swapchain images, and drives one mesh-pass registry plus its
// render graph once per frame, translating the driver package's
// presentation errors into the render core's error taxonomy
// (recoverable surface reconfiguration vs. fatal device loss).
package rframe

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardenne/forgeplus/driver"
	"github.com/ardenne/forgeplus/meshpass"
	"github.com/ardenne/forgeplus/rclus"
	"github.com/ardenne/forgeplus/rerr"
	"github.com/ardenne/forgeplus/rgraph"
	"github.com/ardenne/forgeplus/robj"
)

// FrameDriver owns one command buffer per frame-in-flight and
// the swapchain those buffers render into.
type FrameDriver struct {
	gpu driver.GPU
	sc  driver.Swapchain

	cb      []driver.CmdBuffer
	done    []chan error
	started []bool

	frame   uint64
	metrics *Metrics
}

// SetMetrics attaches Prometheus instrumentation to fd. Passing
// nil detaches it; RunFrame is a no-op toward metrics until this
// is called.
func (fd *FrameDriver) SetMetrics(m *Metrics) { fd.metrics = m }

// New creates a FrameDriver with framesInFlight command buffers.
// sc is the swapchain this driver presents to; it may be nil for
// an offscreen driver that only ever calls RunOffscreen.
func New(gpu driver.GPU, sc driver.Swapchain, framesInFlight int) (*FrameDriver, error) {
	if framesInFlight < 1 {
		framesInFlight = 1
	}
	fd := &FrameDriver{
		gpu:     gpu,
		sc:      sc,
		cb:      make([]driver.CmdBuffer, framesInFlight),
		done:    make([]chan error, framesInFlight),
		started: make([]bool, framesInFlight),
	}
	for i := range fd.cb {
		cb, err := gpu.NewCmdBuffer()
		if err != nil {
			fd.Destroy()
			return nil, err
		}
		fd.cb[i] = cb
		fd.done[i] = make(chan error, 1)
	}
	return fd, nil
}

// Frame returns the current frame counter (monotonically
// increasing, never reset).
func (fd *FrameDriver) Frame() uint64 { return fd.frame }

// FramesInFlight returns the size of the command buffer ring.
func (fd *FrameDriver) FramesInFlight() int { return len(fd.cb) }

// slot waits for the in-flight fence of the command buffer this
// frame reuses, then returns it ready for re-recording.
func (fd *FrameDriver) slot() (int, driver.CmdBuffer, error) {
	i := int(fd.frame % uint64(len(fd.cb)))
	if fd.started[i] {
		if err := <-fd.done[i]; err != nil {
			return i, nil, fmt.Errorf("rframe: command buffer %d: %w: %w", i, rerr.ErrDeviceLost, err)
		}
	}
	cb := fd.cb[i]
	if err := cb.Reset(); err != nil {
		return i, nil, err
	}
	return i, cb, nil
}

// RunFrame drives one on-screen frame: it waits on the reused
// command buffer's fence, runs every registered mesh pass
// through all stages, acquires a swapchain image, executes g,
// presents, and commits.
//
// A non-nil error wrapping rerr.ErrOutOfDate or rerr.ErrSuboptimal
// means the caller should reconfigure (the swapchain has already
// been recreated) and retry on the next frame; one wrapping
// rerr.ErrDeviceLost or rerr.ErrSurfaceLost is fatal.
func (fd *FrameDriver) RunFrame(g *rgraph.Graph, reg *meshpass.Registry, dynamic []robj.DynamicObject, lights []rclus.Light) (err error) {
	start := time.Now()
	defer func() { fd.metrics.observe(time.Since(start).Seconds(), err) }()

	if fd.sc == nil {
		return fmt.Errorf("rframe: RunFrame called on an offscreen driver: %w", rerr.ErrInvariant)
	}
	i, cb, err := fd.slot()
	if err != nil {
		return err
	}
	if err := cb.Begin(); err != nil {
		return err
	}
	if err := reg.RunFrame(dynamic, lights); err != nil {
		return err
	}
	idx, err := fd.sc.Next(cb)
	if err != nil {
		return fd.classifyPresentErr(err)
	}
	if err := g.Execute(cb); err != nil {
		return err
	}
	if err := fd.sc.Present(idx, cb); err != nil {
		return fd.classifyPresentErr(err)
	}
	if err := cb.End(); err != nil {
		return err
	}
	fd.gpu.Commit([]driver.CmdBuffer{cb}, fd.done[i])
	fd.started[i] = true
	fd.frame++
	return nil
}

// RunOffscreen drives one frame of CPU/GPU work with no
// swapchain involved: it waits on the reused command buffer's
// fence, runs every registered mesh pass through all stages,
// executes g, and commits. Unlike RunFrame it works on a driver
// with sc == nil, so it is the entry point for headless use
// (benchmarking, compute-only passes, CI).
func (fd *FrameDriver) RunOffscreen(g *rgraph.Graph, reg *meshpass.Registry, dynamic []robj.DynamicObject, lights []rclus.Light) (err error) {
	start := time.Now()
	defer func() { fd.metrics.observe(time.Since(start).Seconds(), err) }()

	i, cb, err := fd.slot()
	if err != nil {
		return err
	}
	if err := cb.Begin(); err != nil {
		return err
	}
	if err := reg.RunFrame(dynamic, lights); err != nil {
		return err
	}
	if err := g.Execute(cb); err != nil {
		return err
	}
	if err := cb.End(); err != nil {
		return err
	}
	fd.gpu.Commit([]driver.CmdBuffer{cb}, fd.done[i])
	fd.started[i] = true
	fd.frame++
	return nil
}

// classifyPresentErr maps the driver package's presentation
// errors onto the render core's recoverable-vs-fatal taxonomy.
// driver.ErrSwapchain means the surface needs reconfiguring;
// Recreate is called immediately so the caller's retry on the
// next frame sees a usable swapchain. Every other presentation
// error (window/compositor/unsupported) is treated as fatal.
func (fd *FrameDriver) classifyPresentErr(err error) error {
	if errors.Is(err, driver.ErrSwapchain) {
		if rcErr := fd.sc.Recreate(); rcErr != nil {
			return fmt.Errorf("rframe: recreate swapchain: %w: %w", rerr.ErrSurfaceLost, rcErr)
		}
		return fmt.Errorf("rframe: swapchain reconfigured: %w: %w", rerr.ErrOutOfDate, err)
	}
	return fmt.Errorf("rframe: %w: %w", rerr.ErrSurfaceLost, err)
}

// Drain blocks until every in-flight command buffer has
// finished executing. Call this before tearing down the driver
// or any resource a frame in flight might still reference.
func (fd *FrameDriver) Drain() error {
	for i, started := range fd.started {
		if !started {
			continue
		}
		if err := <-fd.done[i]; err != nil {
			return fmt.Errorf("rframe: drain: %w: %w", rerr.ErrDeviceLost, err)
		}
		fd.started[i] = false
	}
	return nil
}

// Destroy drains in-flight work and destroys every command
// buffer. The swapchain is owned by the caller and is not
// destroyed here.
func (fd *FrameDriver) Destroy() {
	fd.Drain()
	for _, cb := range fd.cb {
		if cb != nil {
			cb.Destroy()
		}
	}
}
