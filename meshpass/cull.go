// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package meshpass

import (
	"github.com/ardenne/forgeplus/linear"
	"github.com/ardenne/forgeplus/robj"
)

// Plane is a frustum plane in the form normal·p + d >= 0 for
// points inside the half-space.
type Plane struct {
	Normal linear.V3
	D      float32
}

// Frustum is the six-plane view frustum, in world space.
type Frustum [6]Plane

// WorldBounds transforms an object-space AABB by model into a
// conservative world-space AABB (the bounding box of its eight
// transformed corners), per §4.4 stage 5's "compute world-space
// bounds via its model matrix".
func WorldBounds(b robj.Bounds, model linear.M4) robj.Bounds {
	var out robj.Bounds
	first := true
	for i := 0; i < 8; i++ {
		corner := linear.V4{
			pick(i&1 != 0, b.Max[0], b.Min[0]),
			pick(i&2 != 0, b.Max[1], b.Min[1]),
			pick(i&4 != 0, b.Max[2], b.Min[2]),
			1,
		}
		var world linear.V4
		world.Mul(&model, &corner)
		p := linear.V3{world[0], world[1], world[2]}
		if first {
			out.Min, out.Max = p, p
			first = false
			continue
		}
		for k := 0; k < 3; k++ {
			if p[k] < out.Min[k] {
				out.Min[k] = p[k]
			}
			if p[k] > out.Max[k] {
				out.Max[k] = p[k]
			}
		}
	}
	return out
}

func pick(cond bool, a, b float32) float32 {
	if cond {
		return a
	}
	return b
}

// aabbPositiveVertex returns the corner of b farthest along n,
// the standard "p-vertex" used for a cheap plane/AABB test.
func aabbPositiveVertex(b robj.Bounds, n linear.V3) linear.V3 {
	return linear.V3{
		pick(n[0] >= 0, b.Max[0], b.Min[0]),
		pick(n[1] >= 0, b.Max[1], b.Min[1]),
		pick(n[2] >= 0, b.Max[2], b.Min[2]),
	}
}

// VisibleInFrustum reports whether b might be visible: every
// plane's positive vertex must lie in the plane's half-space.
// A false negative never occurs; a false positive (box behind
// the frustum corner) is the standard, accepted looseness of
// the p-vertex test.
func (f Frustum) VisibleInFrustum(b robj.Bounds) bool {
	for _, p := range f {
		v := aabbPositiveVertex(b, p.Normal)
		if p.Normal[0]*v[0]+p.Normal[1]*v[1]+p.Normal[2]*v[2]+p.D < 0 {
			return false
		}
	}
	return true
}

// HZBPyramid is a conservative-max depth pyramid: level 0 is
// full resolution, each further level halves both dimensions,
// storing the max (farthest) depth of its 2x2 parent block, so
// that sampling it is safe for occlusion (never hides something
// actually visible).
type HZBPyramid struct {
	Width, Height int
	// Mips[level] is row-major depth data at that level's
	// resolution; NDC depth convention is [0,1], 0 = near.
	Mips [][]float32
}

func mipDims(w, h, level int) (int, int) {
	for i := 0; i < level; i++ {
		w = (w + 1) / 2
		h = (h + 1) / 2
	}
	return w, h
}

// VisibleAgainstHZB projects b's world-space bounds through
// viewProj, derives the NDC-space screen rectangle and nearest
// depth, picks the finest mip at which the rectangle spans at
// most one texel in each dimension, samples the texel under the
// rectangle's center, and compares
// the object's near depth against that texel's stored max
// depth: greater (farther) means an occluder already covers it.
func (p HZBPyramid) VisibleAgainstHZB(b robj.Bounds, viewProj linear.M4) bool {
	if len(p.Mips) == 0 {
		return true
	}
	minX, minY, minZ := float32(1), float32(1), float32(1)
	maxX, maxY := float32(-1), float32(-1)
	for i := 0; i < 8; i++ {
		corner := linear.V4{
			pick(i&1 != 0, b.Max[0], b.Min[0]),
			pick(i&2 != 0, b.Max[1], b.Min[1]),
			pick(i&4 != 0, b.Max[2], b.Min[2]),
			1,
		}
		var clip linear.V4
		clip.Mul(&viewProj, &corner)
		if clip[3] <= 0 {
			// Behind the eye or degenerate: conservatively visible.
			return true
		}
		ndcX, ndcY, ndcZ := clip[0]/clip[3], clip[1]/clip[3], clip[2]/clip[3]
		if ndcX < minX {
			minX = ndcX
		}
		if ndcX > maxX {
			maxX = ndcX
		}
		if ndcY < minY {
			minY = ndcY
		}
		if ndcY > maxY {
			maxY = ndcY
		}
		if ndcZ < minZ {
			minZ = ndcZ
		}
	}
	// Map from [-1,1] to [0,1] screen space.
	u0, u1 := (minX+1)/2, (maxX+1)/2
	v0, v1 := (minY+1)/2, (maxY+1)/2
	rectW, rectH := u1-u0, v1-v0

	level := 0
	for level < len(p.Mips)-1 {
		w, h := mipDims(p.Width, p.Height, level)
		if rectW*float32(w) <= 1 && rectH*float32(h) <= 1 {
			break
		}
		level++
	}
	w, h := mipDims(p.Width, p.Height, level)
	if w == 0 || h == 0 {
		return true
	}
	cx := int((u0 + u1) / 2 * float32(w))
	cy := int((v0 + v1) / 2 * float32(h))
	cx = clampInt(cx, 0, w-1)
	cy = clampInt(cy, 0, h-1)
	stored := p.Mips[level][cy*w+cx]
	return minZ <= stored
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
