// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package rclus

import (
	"testing"

	"github.com/ardenne/forgeplus/linear"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignSingleFroxelSingleLight(t *testing.T) {
	grid := Grid{X: 1, Y: 1, Z: 1, Cap: 8}
	tbl := NewTable(grid)
	froxels := []FroxelAABB{{Min: linear.V3{-1, -1, -1}, Max: linear.V3{1, 1, 1}}}
	lights := []Light{{ViewPos: linear.V3{0, 0, 0}, Radius: 0.5}}

	tbl.Assign(froxels, lights)
	require.EqualValues(t, 1, tbl.Count[0])
	assert.Equal(t, []uint32{0}, tbl.Indices[0])
	assert.Equal(t, 0, tbl.Dropped[0])
}

func TestAssignDropsOutOfRangeLight(t *testing.T) {
	grid := Grid{X: 1, Y: 1, Z: 1, Cap: 8}
	tbl := NewTable(grid)
	froxels := []FroxelAABB{{Min: linear.V3{-1, -1, -1}, Max: linear.V3{1, 1, 1}}}
	lights := []Light{{ViewPos: linear.V3{100, 100, 100}, Radius: 0.5}}

	tbl.Assign(froxels, lights)
	assert.EqualValues(t, 0, tbl.Count[0])
}

// TestAssignDropsOnCapOverflow exercises the §8 boundary case:
// light count exceeds the per-froxel cap in a single froxel;
// that froxel's list stops at the cap and no crash occurs.
func TestAssignDropsOnCapOverflow(t *testing.T) {
	grid := Grid{X: 1, Y: 1, Z: 1, Cap: 2}
	tbl := NewTable(grid)
	froxels := []FroxelAABB{{Min: linear.V3{-1, -1, -1}, Max: linear.V3{1, 1, 1}}}
	lights := []Light{
		{ViewPos: linear.V3{0, 0, 0}, Radius: 0.1},
		{ViewPos: linear.V3{0, 0, 0}, Radius: 0.1},
		{ViewPos: linear.V3{0, 0, 0}, Radius: 0.1},
	}

	tbl.Assign(froxels, lights)
	assert.EqualValues(t, 2, tbl.Count[0])
	assert.Len(t, tbl.Indices[0], 2)
	assert.Equal(t, 1, tbl.Dropped[0], "the third light overflows the cap and is dropped")
}

func TestResetClearsCountersAndDropped(t *testing.T) {
	grid := Grid{X: 2, Y: 1, Z: 1, Cap: 1}
	tbl := NewTable(grid)
	tbl.Count[0] = 1
	tbl.Dropped[0] = 3
	tbl.Indices[0] = append(tbl.Indices[0], 5)

	tbl.Reset()
	assert.EqualValues(t, 0, tbl.Count[0])
	assert.Equal(t, 0, tbl.Dropped[0])
	assert.Empty(t, tbl.Indices[0])
}
