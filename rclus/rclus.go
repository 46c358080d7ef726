// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package rclus implements the forward-plus light-clustering
// data model: a 3D froxel grid over the view frustum, CPU-side
// froxel bounds generation, and the point-light assignment pass
// that the mesh pass's "cluster lights" stage drives.
package rclus

import "github.com/ardenne/forgeplus/linear"

// Grid describes a froxel grid's dimensions. Froxel bounds are
// supplied by the owning mesh pass's caller (see
// meshpass.MeshPass.SetCamera), not computed here; this package
// only models the CPU-visible table shape
// and the light-assignment bookkeeping, not the GPU kernel
// itself.
type Grid struct {
	X, Y, Z int
	// Cap is the hard per-froxel light-index capacity. The
	// counter is signed so the GPU can atomic-subtract via
	// atomic-add-negative when a light is later removed, but
	// CPU-side assignment (used by tests and by the no-compute
	// fallback path) only ever increments it.
	Cap int
}

func (g Grid) count() int { return g.X * g.Y * g.Z }

// Table holds one frame's froxel light lists, in the layout the
// GPU buffer mirrors: Count[i] is a signed counter (never
// negative from the CPU path) and Indices[i] holds up to Cap
// light indices, valid in [0, Count[i]).
type Table struct {
	grid    Grid
	Count   []int32
	Indices [][]uint32
	// Dropped counts, per froxel, how many lights overflowed
	// the cap this frame — exposed for the host to log at its
	// discretion (spec leaves this an open question).
	Dropped []int
}

// NewTable allocates an empty Table for g.
func NewTable(g Grid) *Table {
	n := g.count()
	t := &Table{grid: g, Count: make([]int32, n), Indices: make([][]uint32, n), Dropped: make([]int, n)}
	for i := range t.Indices {
		t.Indices[i] = make([]uint32, 0, g.Cap)
	}
	return t
}

// Reset zeroes every froxel's counter and dropped-count with a
// coherent write, as if the GPU's reset-counters dispatch had
// run, matching §4.4 stage 6's "reset cluster counters to 0".
func (t *Table) Reset() {
	for i := range t.Count {
		t.Count[i] = 0
		t.Indices[i] = t.Indices[i][:0]
		t.Dropped[i] = 0
	}
}

// Light is the minimal shape the clustering pass needs: a
// view-space sphere (center + radius).
type Light struct {
	ViewPos linear.V3
	Radius  float32
}

// FroxelAABB is the view-space axis-aligned bounding box of one
// froxel, as produced by froxel generation.
type FroxelAABB struct {
	Min, Max linear.V3
}

func sphereIntersectsAABB(center linear.V3, radius float32, min, max linear.V3) bool {
	var d float32
	for i := 0; i < 3; i++ {
		c, lo, hi := center[i], min[i], max[i]
		if c < lo {
			d += (lo - c) * (lo - c)
		} else if c > hi {
			d += (c - hi) * (c - hi)
		}
	}
	return d <= radius*radius
}

// Assign runs the CPU-equivalent of §4.4 stage 6 ("cluster
// lights"): for each light (up to the current light count), for
// every froxel whose AABB it overlaps, append the light's index
// to that froxel's list, unless the list is already at Cap, in
// which case the light is dropped for that froxel and
// Dropped[f] is incremented. This mirrors the compute kernel so
// both can share the same test suite and so a CPU fallback is
// available when compute dispatch is unavailable.
func (t *Table) Assign(froxels []FroxelAABB, lights []Light) {
	for li, l := range lights {
		for fi, box := range froxels {
			if !sphereIntersectsAABB(l.ViewPos, l.Radius, box.Min, box.Max) {
				continue
			}
			if int(t.Count[fi]) >= t.grid.Cap {
				t.Dropped[fi]++
				continue
			}
			t.Indices[fi] = append(t.Indices[fi], uint32(li))
			t.Count[fi]++
		}
	}
}
