// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package rgraph

import (
	"fmt"

	"github.com/ardenne/forgeplus/driver"
	"github.com/ardenne/forgeplus/rerr"
)

// PassKind distinguishes the three pass shapes a Builder
// accepts.
type PassKind int

const (
	// Graphics passes have color/depth-stencil attachments and
	// run inside a driver.RenderPass.
	Graphics PassKind = iota
	// Compute passes record Dispatch commands; no render pass
	// is involved.
	Compute
	// CPU passes run a plain Go function; no GPU commands are
	// implied by the graph itself (the function may still
	// record commands of its own into the current command
	// buffer, e.g. a CPU-driven copy).
	CPU
)

// ColorAttachment describes one color render target of a
// Graphics pass.
type ColorAttachment struct {
	Image    ResourceID
	View     driver.ImageView
	Layer    int
	Level    int
	Format   driver.PixelFmt
	Samples  int
	Load     driver.LoadOp
	Store    driver.StoreOp
	Clear    driver.ClearValue
}

// DepthAttachment describes the optional depth-stencil target
// of a Graphics pass.
type DepthAttachment struct {
	Image   ResourceID
	View    driver.ImageView
	Format  driver.PixelFmt
	Samples int
	Load    driver.LoadOp
	Store   driver.StoreOp
	Clear   driver.ClearValue
}

// BufferUsage declares how a pass uses a buffer resource.
type BufferUsage struct {
	Resource ResourceID
	Queue    Queue
	Stage    driver.Sync
	Access   driver.Access
}

// ImageUsage declares how a pass uses an image subresource
// outside of its role as a render-pass attachment (e.g. a
// sampled texture or a storage image bound to a compute pass).
type ImageUsage struct {
	Resource ResourceID
	Layer    int
	Level    int
	Queue    Queue
	Stage    driver.Sync
	Access   driver.Access
	Layout   driver.Layout
}

// PassFunc is recorded by a pass. cb is positioned correctly
// for the pass kind: inside BeginPass/EndPass for Graphics,
// inside BeginWork/EndWork for Compute, and the raw command
// buffer (for optional ad hoc recording) for CPU passes, which
// may also receive a nil cb if the graph has none open.
type PassFunc func(cb driver.CmdBuffer)

// passDesc is a built pass, as recorded by Builder's
// AddGraphicsPass, AddComputePass and AddCPUPass.
type passDesc struct {
	kind    PassKind
	name    string
	queue   Queue
	color   []ColorAttachment
	depth   *DepthAttachment
	width   int
	height  int
	buffers []BufferUsage
	images  []ImageUsage
	fn      PassFunc

	// decisions, filled in by Build: one Decision per color
	// attachment, then one for the depth attachment if any,
	// then one per buffer usage and one per image usage, each
	// group in declaration order.
	decisions []Decision
}

// PassID identifies a pass added to a Builder/Graph.
type PassID int

// Builder accumulates pass descriptors before Build produces
// an executable Graph.
type Builder struct {
	passes []passDesc
	// known records which ResourceIDs were passed to Declare or
	// used as a graphics-pass attachment. Build rejects a pass
	// whose buffer or image usages name any other ResourceID;
	// usages themselves never add to known.
	known map[ResourceID]bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{known: make(map[ResourceID]bool)}
}

// Declare registers id as available for use by subsequent
// passes (analogous to the resource having been created).
// Passes referencing a ResourceID that was never declared
// cause Build to fail.
func (b *Builder) Declare(id ResourceID) { b.known[id] = true }

// AddGraphicsPass adds a graphics pass. width/height are the
// extent shared by every attachment, used both for the
// framebuffer and for the pass's default (flipped) viewport.
func (b *Builder) AddGraphicsPass(name string, queue Queue, width, height int, color []ColorAttachment, depth *DepthAttachment, bufs []BufferUsage, imgs []ImageUsage, fn PassFunc) PassID {
	for _, c := range color {
		b.known[c.Image] = true
	}
	if depth != nil {
		b.known[depth.Image] = true
	}
	id := PassID(len(b.passes))
	b.passes = append(b.passes, passDesc{kind: Graphics, name: name, queue: queue, width: width, height: height, color: color, depth: depth, buffers: bufs, images: imgs, fn: fn})
	return id
}

// AddComputePass adds a compute pass.
func (b *Builder) AddComputePass(name string, queue Queue, bufs []BufferUsage, imgs []ImageUsage, fn PassFunc) PassID {
	id := PassID(len(b.passes))
	b.passes = append(b.passes, passDesc{kind: Compute, name: name, queue: queue, buffers: bufs, images: imgs, fn: fn})
	return id
}

// AddCPUPass adds a CPU-only pass.
func (b *Builder) AddCPUPass(name string, fn PassFunc) PassID {
	id := PassID(len(b.passes))
	b.passes = append(b.passes, passDesc{kind: CPU, name: name, fn: fn})
	return id
}

// Graph is a built, executable render graph: a linear sequence
// of passes with precomputed barriers, render-pass objects and
// framebuffers.
type Graph struct {
	passes  []passDesc
	tracker *Tracker

	rpCache *rpCache
}

// Build validates and compiles passes into a Graph. tracker is
// the long-lived resource tracker that barrier decisions are
// recorded against; passing the same Tracker across frames lets
// barrier derivation see last frame's final usage of persistent
// resources.
func (b *Builder) Build(tracker *Tracker, gpu driver.GPU) (*Graph, error) {
	if tracker == nil {
		tracker = NewTracker()
	}
	g := &Graph{tracker: tracker, rpCache: newRPCache(gpu)}
	for _, p := range b.passes {
		if err := b.checkKnown(p); err != nil {
			return nil, err
		}
		g.passes = append(g.passes, p)
	}
	g.deriveBarriers()
	return g, nil
}

func (b *Builder) checkKnown(p passDesc) error {
	check := func(id ResourceID) error {
		if !b.known[id] {
			return fmt.Errorf("rgraph: pass %q references resource %d before it was declared: %w", p.name, id, rerr.ErrInvariant)
		}
		return nil
	}
	for _, c := range p.color {
		if err := check(c.Image); err != nil {
			return err
		}
	}
	if p.depth != nil {
		if err := check(p.depth.Image); err != nil {
			return err
		}
	}
	for _, u := range p.buffers {
		if err := check(u.Resource); err != nil {
			return err
		}
	}
	for _, u := range p.images {
		if err := check(u.Resource); err != nil {
			return err
		}
	}
	return nil
}

// deriveBarriers walks passes in declared order, recording each
// pass's declared usages against g.tracker and storing the
// resulting Decisions for replay during Execute.
func (g *Graph) deriveBarriers() {
	for i := range g.passes {
		p := &g.passes[i]
		hasDepth := p.depth != nil
		g.tracker.BeginSubmit(p.queue)
		p.decisions = p.decisions[:0]
		for _, c := range p.color {
			sub := SubResource{Resource: c.Image, Layer: c.Layer, Level: c.Level}
			layout := driver.LColorTarget
			p.decisions = append(p.decisions, g.tracker.Record(Use{
				Sub: sub, Queue: p.queue, Stage: driver.SColorOutput, Access: driver.AColorWrite,
				Layout: layout, IsImage: true, HasDepthAttachment: hasDepth,
			}))
		}
		if p.depth != nil {
			sub := SubResource{Resource: p.depth.Image}
			p.decisions = append(p.decisions, g.tracker.Record(Use{
				Sub: sub, Queue: p.queue, Stage: driver.SDSOutput, Access: driver.ADSWrite | driver.ADSRead,
				Layout: driver.LDSTarget, IsImage: true, HasDepthAttachment: true,
			}))
		}
		for _, u := range p.buffers {
			p.decisions = append(p.decisions, g.tracker.Record(Use{
				Sub: SubResource{Resource: u.Resource}, Queue: u.Queue, Stage: u.Stage, Access: u.Access,
				HasDepthAttachment: hasDepth,
			}))
		}
		for _, u := range p.images {
			p.decisions = append(p.decisions, g.tracker.Record(Use{
				Sub: SubResource{Resource: u.Resource, Layer: u.Layer, Level: u.Level}, Queue: u.Queue,
				Stage: u.Stage, Access: u.Access, Layout: u.Layout, IsImage: true, HasDepthAttachment: hasDepth,
			}))
		}
	}
}

// Execute replays the built graph's passes, in order, on cb.
// For a Graphics pass it applies barriers, acquires/reuses a
// render pass and framebuffer, sets a flipped viewport (right-
// handed world, top-left clip origin), begins the render pass,
// invokes the pass function, then ends it. After applying
// barriers, a Compute pass invokes its function between
// BeginWork and EndWork, and a CPU pass invokes it directly.
func (g *Graph) Execute(cb driver.CmdBuffer) error {
	for i := range g.passes {
		p := &g.passes[i]
		applyDecisions(cb, p.decisions)
		switch p.kind {
		case Graphics:
			rp, fb, err := g.rpCache.resolve(p)
			if err != nil {
				return err
			}
			clears := make([]driver.ClearValue, 0, len(p.color)+1)
			for _, c := range p.color {
				clears = append(clears, c.Clear)
			}
			if p.depth != nil {
				clears = append(clears, p.depth.Clear)
			}
			cb.BeginPass(rp, fb, clears)
			cb.SetViewport([]driver.Viewport{flippedViewport(p.width, p.height)})
			cb.SetScissor([]driver.Scissor{{Width: p.width, Height: p.height}})
			if p.fn != nil {
				p.fn(cb)
			}
			cb.EndPass()
		case Compute:
			cb.BeginWork(true)
			if p.fn != nil {
				p.fn(cb)
			}
			cb.EndWork()
		case CPU:
			if p.fn != nil {
				p.fn(cb)
			}
		}
	}
	return nil
}

// flippedViewport returns a viewport whose Y axis is flipped,
// so that a right-handed world (Y up) renders correctly under
// a top-left clip-space origin.
func flippedViewport(width, height int) driver.Viewport {
	return driver.Viewport{
		X: 0, Y: float32(height),
		Width: float32(width), Height: -float32(height),
		Znear: 0, Zfar: 1,
	}
}

// applyDecisions records the barriers/transitions/ownership
// operations implied by decisions onto cb. For an ownership
// transfer only the acquire half is recorded, as a transition
// with undefined layouts; the release half carried in
// Decision.Ownership.Release is not recorded by this package
// or by the frame driver.
func applyDecisions(cb driver.CmdBuffer, decisions []Decision) {
	var barriers []driver.Barrier
	var transitions []driver.Transition
	for _, d := range decisions {
		switch d.Kind {
		case BarrierNone:
		case BarrierMemory:
			barriers = append(barriers, d.Barrier)
		case BarrierLayout:
			transitions = append(transitions, d.Transition)
		case BarrierOwnership:
			transitions = append(transitions, driver.Transition{
				Barrier:      d.Ownership.Acquire.Barrier,
				LayoutBefore: driver.LUndefined,
				LayoutAfter:  driver.LUndefined,
			})
		}
	}
	if len(barriers) > 0 {
		cb.Barrier(barriers)
	}
	if len(transitions) > 0 {
		cb.Transition(transitions)
	}
}
