// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package meshpass

import (
	"github.com/ardenne/forgeplus/linear"
	"github.com/ardenne/forgeplus/robj"
)

// RunCull is the CPU-equivalent of §4.4 stage 5 ("generate draw
// calls"): it resets every draw call's InstanceCount to 0, then
// for each input-object-ID in the dense occupied range tests
// the object's world-space bounds (its mesh's object-space
// bounds transformed by its model matrix) against frustum, and
// optionally against pyramid, and on survival atomically
// (here, sequentially — single-threaded CPU path) appends its
// data index into the contiguous output slice reserved for its
// draw.
//
// The real draw-generation compute kernel performs this same
// test per invocation; this function exists so the algorithm
// has one correct, testable definition and so a CPU fallback
// exists when compute dispatch is unavailable.
func RunCull(p *robj.Prepared, objectData []robj.ObjectData, frustum Frustum, pyramid *HZBPyramid, viewProj linear.M4) {
	for i := range p.DrawCalls {
		p.DrawCalls[i].InstanceCount = 0
	}
	for _, in := range p.Input {
		drawIdx := in.DrawIdx[0]
		if int(drawIdx) >= len(p.DrawCalls) || int(in.DataIdx) >= len(objectData) {
			continue
		}
		dc := &p.DrawCalls[drawIdx]
		data := objectData[in.DataIdx]
		wb := WorldBounds(dc.Bounds, data.Model)
		if !frustum.VisibleInFrustum(wb) {
			continue
		}
		if pyramid != nil && !pyramid.VisibleAgainstHZB(wb, viewProj) {
			continue
		}
		slot := dc.FirstInstance + dc.InstanceCount
		dc.InstanceCount++
		if int(slot) < len(p.Output) {
			p.Output[slot] = in.DataIdx
		}
	}
}
