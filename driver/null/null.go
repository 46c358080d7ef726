// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package null implements driver.Driver and driver.GPU with no
// underlying device: every command recording is a no-op and
// every resource is backed by plain Go memory (when host
// visibility is requested) or nothing at all. It exists for
// headless execution of the CPU-side render core — benchmarking
// mesh-pass preparation, CI, and the forgeplusd example command
// — where no GPU or windowing system is available.
package null

import (
	"fmt"
	"sync"

	"github.com/ardenne/forgeplus/driver"
)

func init() {
	driver.Register(&Driver{})
}

// Driver is both the driver.Driver and driver.GPU implementation
// backing the null package; Open returns the same value every
// time, matching driver.Driver's contract.
type Driver struct {
	mu   sync.Mutex
	open bool
}

// Name returns "null".
func (d *Driver) Name() string { return "null" }

// Open initializes the driver. Repeated calls return the same
// GPU instance.
func (d *Driver) Open() (driver.GPU, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = true
	return d, nil
}

// Close deinitializes the driver. Closing a driver that is not
// open has no effect.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
}

// Driver returns d itself: the null package uses a single type
// for both roles.
func (d *Driver) Driver() driver.Driver { return d }

// Commit executes every command buffer synchronously (there is
// nothing to execute) and reports success on ch.
func (d *Driver) Commit(cb []driver.CmdBuffer, ch chan<- error) {
	ch <- nil
}

// NewCmdBuffer returns a command buffer that records nothing.
func (d *Driver) NewCmdBuffer() (driver.CmdBuffer, error) {
	return &cmdBuffer{}, nil
}

// NewRenderPass returns a render pass usable only to create
// framebuffers, which are themselves no-ops.
func (d *Driver) NewRenderPass(att []driver.Attachment, sub []driver.Subpass) (driver.RenderPass, error) {
	return &renderPass{}, nil
}

// NewShaderCode returns an opaque handle; data is not inspected.
func (d *Driver) NewShaderCode(data []byte) (driver.ShaderCode, error) {
	return noopDestroyer{}, nil
}

// NewDescHeap returns a descriptor heap that tracks only its
// copy count.
func (d *Driver) NewDescHeap(ds []driver.Descriptor) (driver.DescHeap, error) {
	return &descHeap{}, nil
}

// NewDescTable returns an opaque descriptor table handle.
func (d *Driver) NewDescTable(dh []driver.DescHeap) (driver.DescTable, error) {
	return noopDestroyer{}, nil
}

// NewPipeline returns an opaque pipeline handle; state is not
// inspected.
func (d *Driver) NewPipeline(state any) (driver.Pipeline, error) {
	return noopDestroyer{}, nil
}

// NewBuffer returns a buffer backed by a plain Go slice when
// visible is set, matching Buffer.Bytes' contract; otherwise
// Bytes returns nil, as a device-private buffer would.
func (d *Driver) NewBuffer(size int64, visible bool, usg driver.Usage) (driver.Buffer, error) {
	if size < 0 {
		return nil, fmt.Errorf("null: negative buffer size")
	}
	b := &buffer{cap: size}
	if visible {
		b.data = make([]byte, size)
	}
	return b, nil
}

// NewImage returns an image whose views are no-ops; no backing
// storage is allocated since Image provides no CPU access.
func (d *Driver) NewImage(pf driver.PixelFmt, size driver.Dim3D, layers, levels, samples int, usg driver.Usage) (driver.Image, error) {
	return &image{}, nil
}

// NewSampler returns an opaque sampler handle; spln is not
// inspected.
func (d *Driver) NewSampler(spln *driver.Sampling) (driver.Sampler, error) {
	return noopDestroyer{}, nil
}

// Limits returns generous limits; nothing in the null backend
// actually enforces them.
func (d *Driver) Limits() driver.Limits {
	return driver.Limits{
		MaxImage1D:        16384,
		MaxImage2D:        16384,
		MaxImageCube:      16384,
		MaxImage3D:        2048,
		MaxLayers:         2048,
		MaxDescHeaps:      32,
		MaxDBuffer:        1 << 20,
		MaxDImage:         1 << 20,
		MaxDConstant:      1 << 20,
		MaxDTexture:       1 << 20,
		MaxDSampler:       4096,
		MaxDBufferRange:   1 << 34,
		MaxDConstantRange: 1 << 16,
		MaxColorTargets:   8,
		MaxFBSize:         [2]int{16384, 16384},
		MaxFBLayers:       2048,
		MaxPointSize:      256,
		MaxViewports:      16,
		MaxVertexIn:       32,
		MaxFragmentIn:     32,
		MaxDispatch:       [3]int{65535, 65535, 65535},
	}
}

// noopDestroyer satisfies any Destroyer-only interface.
type noopDestroyer struct{}

func (noopDestroyer) Destroy() {}

type renderPass struct{}

func (*renderPass) Destroy() {}
func (*renderPass) NewFB(iv []driver.ImageView, width, height, layers int) (driver.Framebuf, error) {
	return noopDestroyer{}, nil
}

type descHeap struct {
	mu  sync.Mutex
	cnt int
}

func (*descHeap) Destroy() {}
func (h *descHeap) New(n int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cnt = n
	return nil
}
func (h *descHeap) SetBuffer(cpy, nr, start int, buf []driver.Buffer, off, size []int64) {}
func (h *descHeap) SetImage(cpy, nr, start int, iv []driver.ImageView)                    {}
func (h *descHeap) SetSampler(cpy, nr, start int, splr []driver.Sampler)                  {}
func (h *descHeap) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cnt
}

type buffer struct {
	cap  int64
	data []byte
}

func (*buffer) Destroy()        {}
func (b *buffer) Visible() bool { return b.data != nil }
func (b *buffer) Bytes() []byte { return b.data }
func (b *buffer) Cap() int64    { return b.cap }

type image struct{}

func (*image) Destroy() {}
func (*image) NewView(typ driver.ViewType, layer, layers, level, levels int) (driver.ImageView, error) {
	return noopDestroyer{}, nil
}

// cmdBuffer records nothing; every method is a no-op that
// satisfies driver.CmdBuffer.
type cmdBuffer struct{}

func (*cmdBuffer) Destroy()     {}
func (*cmdBuffer) Begin() error { return nil }
func (*cmdBuffer) BeginPass(pass driver.RenderPass, fb driver.Framebuf, clear []driver.ClearValue) {
}
func (*cmdBuffer) NextSubpass()                                                           {}
func (*cmdBuffer) EndPass()                                                               {}
func (*cmdBuffer) BeginWork(wait bool)                                                    {}
func (*cmdBuffer) EndWork()                                                               {}
func (*cmdBuffer) BeginBlit(wait bool)                                                    {}
func (*cmdBuffer) EndBlit()                                                               {}
func (*cmdBuffer) SetPipeline(pl driver.Pipeline)                                         {}
func (*cmdBuffer) SetViewport(vp []driver.Viewport)                                       {}
func (*cmdBuffer) SetScissor(sciss []driver.Scissor)                                      {}
func (*cmdBuffer) SetBlendColor(r, g, b, a float32)                                       {}
func (*cmdBuffer) SetStencilRef(value uint32)                                             {}
func (*cmdBuffer) SetVertexBuf(start int, buf []driver.Buffer, off []int64)               {}
func (*cmdBuffer) SetIndexBuf(format driver.IndexFmt, buf driver.Buffer, off int64)       {}
func (*cmdBuffer) SetDescTableGraph(table driver.DescTable, start int, heapCopy []int)    {}
func (*cmdBuffer) SetDescTableComp(table driver.DescTable, start int, heapCopy []int)     {}
func (*cmdBuffer) Draw(vertCount, instCount, baseVert, baseInst int)                      {}
func (*cmdBuffer) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int)        {}
func (*cmdBuffer) DrawIndexedIndirect(buf driver.Buffer, off int64, drawCount, stride int) {
}
func (*cmdBuffer) DrawIndexedIndirectCount(buf driver.Buffer, off int64, cntBuf driver.Buffer, cntOff int64, maxDrawCount, stride int) {
}
func (*cmdBuffer) SetConstant(table driver.DescTable, stages driver.Stage, offset int, data []byte) {
}
func (*cmdBuffer) Dispatch(grpCountX, grpCountY, grpCountZ int) {}
func (*cmdBuffer) CopyBuffer(param *driver.BufferCopy)          {}
func (*cmdBuffer) CopyImage(param *driver.ImageCopy)            {}
func (*cmdBuffer) CopyBufToImg(param *driver.BufImgCopy)        {}
func (*cmdBuffer) CopyImgToBuf(param *driver.BufImgCopy)        {}
func (*cmdBuffer) Fill(buf driver.Buffer, off int64, value byte, size int64) {}
func (*cmdBuffer) Barrier(b []driver.Barrier)                                {}
func (*cmdBuffer) Transition(t []driver.Transition)                         {}
func (*cmdBuffer) End() error                                               { return nil }
func (*cmdBuffer) Reset() error                                             { return nil }
