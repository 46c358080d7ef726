// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package rgraph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ardenne/forgeplus/driver"
)

// rpCache interns driver.RenderPass objects by attachment
// signature and driver.Framebuf objects by the tuple (render
// pass, image views, extent), so that Graphics passes sharing
// either property reuse the same GPU objects. Builder.Build
// creates one cache per Graph: passes of that Graph, and
// repeated Execute calls on it across frames, share its
// entries, while a Graph built later starts with an empty cache.
// Entries are never evicted.
type rpCache struct {
	gpu driver.GPU

	mu sync.Mutex
	rp map[string]driver.RenderPass
	fb map[string]driver.Framebuf
}

func newRPCache(gpu driver.GPU) *rpCache {
	return &rpCache{gpu: gpu, rp: make(map[string]driver.RenderPass), fb: make(map[string]driver.Framebuf)}
}

// rpSignature canonically encodes a pass's attachments so that
// two passes declaring the same render targets (format, sample
// count, load/store behavior) collide in the cache.
func rpSignature(p *passDesc) string {
	var b strings.Builder
	for _, c := range p.color {
		fmt.Fprintf(&b, "c(%d,%d,%d,%d);", c.Format, c.Samples, c.Load, c.Store)
	}
	if p.depth != nil {
		fmt.Fprintf(&b, "d(%d,%d,%d,%d);", p.depth.Format, p.depth.Samples, p.depth.Load, p.depth.Store)
	}
	return b.String()
}

// fbSignature canonically encodes the views and extent bound
// by a pass, scoped to the render pass signature so that a
// different render pass object never aliases a cached
// framebuffer by coincidence.
func fbSignature(rpSig string, p *passDesc) string {
	var b strings.Builder
	b.WriteString(rpSig)
	fmt.Fprintf(&b, "|%dx%d|", p.width, p.height)
	for _, c := range p.color {
		fmt.Fprintf(&b, "%p,", c.View)
	}
	if p.depth != nil {
		fmt.Fprintf(&b, "%p,", p.depth.View)
	}
	return b.String()
}

func (c *rpCache) resolve(p *passDesc) (driver.RenderPass, driver.Framebuf, error) {
	rpSig := rpSignature(p)

	c.mu.Lock()
	rp, ok := c.rp[rpSig]
	c.mu.Unlock()
	if !ok {
		att := make([]driver.Attachment, 0, len(p.color)+1)
		color := make([]int, len(p.color))
		ds := -1
		for i, cc := range p.color {
			att = append(att, driver.Attachment{
				Format:  cc.Format,
				Samples: cc.Samples,
				Load:    [2]driver.LoadOp{cc.Load, driver.LDontCare},
				Store:   [2]driver.StoreOp{cc.Store, driver.SDontCare},
			})
			color[i] = i
		}
		if p.depth != nil {
			ds = len(att)
			att = append(att, driver.Attachment{
				Format:  p.depth.Format,
				Samples: p.depth.Samples,
				Load:    [2]driver.LoadOp{p.depth.Load, p.depth.Load},
				Store:   [2]driver.StoreOp{p.depth.Store, p.depth.Store},
			})
		}
		sub := []driver.Subpass{{Color: color, DS: ds}}
		var err error
		rp, err = c.gpu.NewRenderPass(att, sub)
		if err != nil {
			return nil, nil, fmt.Errorf("rgraph: pass %q: new render pass: %w", p.name, err)
		}
		c.mu.Lock()
		c.rp[rpSig] = rp
		c.mu.Unlock()
	}

	fbSig := fbSignature(rpSig, p)
	c.mu.Lock()
	fb, ok := c.fb[fbSig]
	c.mu.Unlock()
	if !ok {
		views := make([]driver.ImageView, 0, len(p.color)+1)
		for _, cc := range p.color {
			views = append(views, cc.View)
		}
		if p.depth != nil {
			views = append(views, p.depth.View)
		}
		var err error
		fb, err = rp.NewFB(views, p.width, p.height, 1)
		if err != nil {
			return nil, nil, fmt.Errorf("rgraph: pass %q: new framebuffer: %w", p.name, err)
		}
		c.mu.Lock()
		c.fb[fbSig] = fb
		c.mu.Unlock()
	}

	return rp, fb, nil
}
