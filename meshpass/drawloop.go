// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package meshpass

import "github.com/ardenne/forgeplus/robj"

// DrawLoopHooks are the bind/draw primitives the depth and
// color passes share (§4.4's draw loop invariants). Global set,
// texture-array set, camera set and pipeline are assumed bound
// once by the caller before RunDrawLoop; this only covers the
// per-key decisions the loop itself makes. A nil hook is
// treated as a no-op.
type DrawLoopHooks struct {
	BindMaterialData func(materialID uint32)
	BindVertexLayout func(layout uint8)
	// IndirectDraw issues one indirect_draw_indexed_count call
	// covering count consecutive draw-call buffer entries
	// starting at firstDraw.
	IndirectDraw func(firstDraw, count int)
}

// RunDrawLoop walks keys (assumed in draw-key order, as §4.1's
// total order guarantees) and coalesces consecutive keys
// sharing material and vertex layout into a single indirect
// draw call, rebinding the material-data set and vertex buffers
// only when those values actually change. A not-ready key (its
// mesh's upload has not completed) flushes the pending run,
// is itself skipped, and the next key starts a fresh run — the
// flush-then-skip ordering called out as the corrected behavior
// for this algorithm.
func RunDrawLoop(keys []robj.KeyEntry, hooks DrawLoopHooks) {
	if hooks.BindMaterialData == nil {
		hooks.BindMaterialData = func(uint32) {}
	}
	if hooks.BindVertexLayout == nil {
		hooks.BindVertexLayout = func(uint8) {}
	}
	if hooks.IndirectDraw == nil {
		hooks.IndirectDraw = func(int, int) {}
	}
	const noMaterial = ^uint32(0)
	runStart := -1
	var runMaterial, lastMaterial uint32 = 0, noMaterial
	var runLayout, lastLayout uint8
	lastLayoutSet := false

	flush := func(end int) {
		if runStart >= 0 && end > runStart {
			hooks.IndirectDraw(runStart, end-runStart)
		}
		runStart = -1
	}

	for i, ke := range keys {
		if !ke.Ready {
			flush(i)
			continue
		}
		material, layout, _, _ := ke.Key.Decode()
		if runStart < 0 || material != runMaterial || layout != runLayout {
			flush(i)
			if material != lastMaterial {
				hooks.BindMaterialData(material)
				lastMaterial = material
			}
			if !lastLayoutSet || layout != lastLayout {
				hooks.BindVertexLayout(layout)
				lastLayout = layout
				lastLayoutSet = true
			}
			runStart = i
			runMaterial, runLayout = material, layout
		}
	}
	flush(len(keys))
}
