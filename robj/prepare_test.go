// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package robj

import (
	"testing"

	"github.com/ardenne/forgeplus/linear"
	"github.com/ardenne/forgeplus/rerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity() linear.M4 {
	var m linear.M4
	m.I()
	return m
}

func meshTable(meshes map[uint16]MeshInfo) MeshLookup {
	return func(id uint16) (MeshInfo, bool) {
		info, ok := meshes[id]
		return info, ok
	}
}

// TestSingleTriangle mirrors spec scenario 1: one static object,
// one batch, one draw call.
func TestSingleTriangle(t *testing.T) {
	key := MakeKey(1, 0, 7, 0)
	static := []StaticBatch{{
		Key: key, LayerMask: 1, MeshID: 7,
		Models: []linear.M4{identity()}, EntityIDs: []uint32{1}, EntityGens: []uint32{1},
	}}
	lookup := meshTable(map[uint16]MeshInfo{
		7: {IndexCount: 3, IndexBase: 100, VertexBase: 200, Ready: true},
	})

	p, err := Prepare(1, static, nil, lookup)
	require.NoError(t, err)

	require.Len(t, p.DrawCalls, 1)
	dc := p.DrawCalls[0]
	assert.Equal(t, uint32(3), dc.IndexCount)
	assert.Equal(t, uint32(0), dc.InstanceCount) // left for the GPU to fill
	assert.Equal(t, uint32(100), dc.FirstIndex)
	assert.Equal(t, int32(200), dc.VertexOffset)
	assert.Equal(t, uint32(0), dc.FirstInstance)
	require.Len(t, p.Input, 1)
	assert.Equal(t, uint32(0), p.Input[0].DataIdx)
	assert.Equal(t, uint32(0), p.Input[0].DrawIdx[0])
}

// TestTwoBatchesTwoMaterials mirrors spec scenario 2.
func TestTwoBatchesTwoMaterials(t *testing.T) {
	keyA := MakeKey(1, 0, 7, 0)
	keyB := MakeKey(2, 0, 7, 0)
	static := []StaticBatch{
		{Key: keyA, LayerMask: 1, MeshID: 7, Models: []linear.M4{identity()}, EntityIDs: []uint32{1}, EntityGens: []uint32{0}},
		{Key: keyB, LayerMask: 1, MeshID: 7, Models: []linear.M4{identity()}, EntityIDs: []uint32{2}, EntityGens: []uint32{0}},
	}
	lookup := meshTable(map[uint16]MeshInfo{7: {IndexCount: 3, Ready: true}})

	p, err := Prepare(1, static, nil, lookup)
	require.NoError(t, err)
	require.Len(t, p.Keys, 2)
	assert.Equal(t, []uint32{1, 1}, []uint32{p.Keys[0].ObjectCount, p.Keys[1].ObjectCount})
	require.Len(t, p.DrawCalls, 2)
	assert.Equal(t, uint32(0), p.DrawCalls[0].FirstInstance)
	assert.Equal(t, uint32(1), p.DrawCalls[1].FirstInstance)

	// Simulate the GPU cull pass: both objects visible.
	p.Output[0] = p.Input[0].DataIdx
	p.Output[1] = p.Input[1].DataIdx
	assert.Equal(t, []uint32{0, 1}, p.Output)
}

// TestLayerFiltering mirrors spec scenario 6.
func TestLayerFiltering(t *testing.T) {
	const L1, L2 = uint64(1), uint64(2)
	key1 := MakeKey(1, 0, 1, 0)
	key2 := MakeKey(2, 0, 1, 0)
	key3 := MakeKey(3, 0, 1, 0)
	dyn := []DynamicObject{
		{LayerMask: L1, Key: key1, MeshID: 1, Model: identity(), EntityID: 1},
		{LayerMask: L2, Key: key2, MeshID: 1, Model: identity(), EntityID: 2},
		{LayerMask: L1 | L2, Key: key3, MeshID: 1, Model: identity(), EntityID: 3},
	}
	lookup := meshTable(map[uint16]MeshInfo{1: {Ready: true}})

	p, err := Prepare(L1, nil, dyn, lookup)
	require.NoError(t, err)
	require.Len(t, p.Input, 2, "only entities 1 and 3 match layer L1")

	var ids []uint32
	for _, od := range p.ObjectData {
		ids = append(ids, od.EntityID)
	}
	assert.ElementsMatch(t, []uint32{1, 3}, ids)

	assert.True(t, p.Keys[0].Key < p.Keys[1].Key, "key list in draw-key order")
}

func TestZeroDynamicEntitiesNoSort(t *testing.T) {
	static := []StaticBatch{{
		Key: MakeKey(1, 0, 1, 0), LayerMask: 1, MeshID: 1,
		Models: []linear.M4{identity(), identity()}, EntityIDs: []uint32{1, 2}, EntityGens: []uint32{0, 0},
	}}
	lookup := meshTable(map[uint16]MeshInfo{1: {Ready: true}})

	p, err := Prepare(1, static, nil, lookup)
	require.NoError(t, err)
	assert.Equal(t, 1, p.StaticDraws)
	assert.Equal(t, 0, p.DynamicDraws)
	assert.Len(t, p.DrawCalls, p.StaticDraws)
}

func TestZeroStaticBatchesFirstDynamicKeyStartsAtZero(t *testing.T) {
	dyn := []DynamicObject{{LayerMask: 1, Key: MakeKey(1, 0, 1, 0), MeshID: 1, Model: identity(), EntityID: 1}}
	lookup := meshTable(map[uint16]MeshInfo{1: {Ready: true}})

	p, err := Prepare(1, nil, dyn, lookup)
	require.NoError(t, err)
	assert.Equal(t, 0, p.StaticObjects)
	require.Len(t, p.DrawCalls, 1)
	assert.Equal(t, uint32(0), p.DrawCalls[0].FirstInstance)
}

func TestUnknownMeshIsInvariantViolation(t *testing.T) {
	static := []StaticBatch{{
		Key: MakeKey(1, 0, 99, 0), LayerMask: 1, MeshID: 99,
		Models: []linear.M4{identity()}, EntityIDs: []uint32{1}, EntityGens: []uint32{0},
	}}
	lookup := meshTable(nil)

	_, err := Prepare(1, static, nil, lookup)
	require.Error(t, err)
	assert.ErrorIs(t, err, rerr.ErrInvariant)
}

// TestPrepareIsIdempotent checks the §8 round-trip property:
// re-running preparation on identical inputs produces a
// byte-identical object-data buffer and an identical input-ID
// static prefix.
func TestPrepareIsIdempotent(t *testing.T) {
	static := []StaticBatch{{
		Key: MakeKey(1, 0, 1, 0), LayerMask: 1, MeshID: 1,
		Models: []linear.M4{identity()}, EntityIDs: []uint32{1}, EntityGens: []uint32{0},
	}}
	dyn := []DynamicObject{{LayerMask: 1, Key: MakeKey(2, 0, 1, 0), MeshID: 1, Model: identity(), EntityID: 2}}
	lookup := meshTable(map[uint16]MeshInfo{1: {IndexCount: 3, Ready: true}})

	p1, err := Prepare(1, static, dyn, lookup)
	require.NoError(t, err)
	p2, err := Prepare(1, static, dyn, lookup)
	require.NoError(t, err)

	assert.Equal(t, p1.ObjectData, p2.ObjectData)
	assert.Equal(t, p1.Input[:p1.StaticObjects], p2.Input[:p2.StaticObjects])
}
