// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package meshpass

import (
	"testing"

	"github.com/ardenne/forgeplus/linear"
	"github.com/ardenne/forgeplus/robj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCullKeepsInstanceCountWithinObjectCount(t *testing.T) {
	keyA := robj.MakeKey(1, 0, 1, 0)
	keyB := robj.MakeKey(2, 0, 1, 0)
	static := []robj.StaticBatch{
		{Key: keyA, LayerMask: 1, MeshID: 1, Models: []linear.M4{identityM4()}, EntityIDs: []uint32{1}, EntityGens: []uint32{0}},
		{Key: keyB, LayerMask: 1, MeshID: 1, Models: []linear.M4{identityM4(), identityM4()}, EntityIDs: []uint32{2, 3}, EntityGens: []uint32{0, 0}},
	}
	lookup := func(id uint16) (robj.MeshInfo, bool) {
		return robj.MeshInfo{IndexCount: 3, Ready: true, Bounds: unitBounds()}, true
	}
	p, err := robj.Prepare(1, static, nil, lookup)
	require.NoError(t, err)

	RunCull(p, p.ObjectData, axisAlignedFrustum(), nil, identityM4())

	for i, dc := range p.DrawCalls {
		assert.LessOrEqual(t, dc.InstanceCount, p.Keys[i].ObjectCount)
	}
	var survivors uint32
	for _, dc := range p.DrawCalls {
		survivors += dc.InstanceCount
	}
	assert.EqualValues(t, 3, survivors, "all three objects are inside the frustum")
}

func TestRunCullDropsObjectsOutsideFrustum(t *testing.T) {
	far := robj.Bounds{Min: linear.V3{100, 100, 100}, Max: linear.V3{101, 101, 101}}
	key := robj.MakeKey(1, 0, 1, 0)
	static := []robj.StaticBatch{
		{Key: key, LayerMask: 1, MeshID: 1, Models: []linear.M4{identityM4()}, EntityIDs: []uint32{1}, EntityGens: []uint32{0}},
	}
	lookup := func(id uint16) (robj.MeshInfo, bool) {
		return robj.MeshInfo{IndexCount: 3, Ready: true, Bounds: far}, true
	}
	p, err := robj.Prepare(1, static, nil, lookup)
	require.NoError(t, err)

	RunCull(p, p.ObjectData, axisAlignedFrustum(), nil, identityM4())

	require.Len(t, p.DrawCalls, 1)
	assert.EqualValues(t, 0, p.DrawCalls[0].InstanceCount)
}
