// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package robj

import (
	"fmt"
	"sort"

	"github.com/ardenne/forgeplus/linear"
	"github.com/ardenne/forgeplus/rerr"
)

// StaticBatch is one entry of a pass's static-geometry
// snapshot: all objects sharing a draw key, already grouped by
// the owner (the scene's static batch map).
type StaticBatch struct {
	Key          DrawKey
	LayerMask    uint64
	MeshID       uint16
	MaterialSlot int32
	TextureSlot  int32
	Models       []linear.M4
	EntityIDs    []uint32
	EntityGens   []uint32
}

// DynamicObject is one (Renderable, Model) pair from the ECS,
// not yet assigned a batch index.
type DynamicObject struct {
	Disabled     bool
	LayerMask    uint64
	Key          DrawKey
	MeshID       uint16
	MaterialSlot int32
	TextureSlot  int32
	Model        linear.M4
	EntityID     uint32
	EntityGen    uint32
}

// Prepared is the full output of one pass's input-ID/draw-call
// preparation: the buffers a mesh pass uploads before running
// its draw-generation compute kernel.
type Prepared struct {
	ObjectData []ObjectData
	Input      []InputObjectID
	// Output is sized like Input and zeroed; the GPU culling
	// pass writes surviving object-data indices into it.
	Output        []uint32
	DrawCalls     []DrawCall
	Keys          []KeyEntry
	StaticObjects int
	StaticDraws   int
	DynamicDraws  int
}

// normal computes the upper-left 3x3 inverse-transpose of m,
// embedded in a 4x4 matrix, for transforming normals under
// non-uniform scale. Translation and the bottom row/column are
// left as identity, matching how the shader interface consumes
// this field (it only reads the 3x3 block).
func normal(m linear.M4) linear.M4 {
	var n linear.M4
	n.Invert(&m)
	n.Transpose(&n)
	n[0][3], n[1][3], n[2][3] = 0, 0, 0
	n[3] = linear.V4{0, 0, 0, 1}
	return n
}

// Prepare runs the CPU-side input-ID and draw-call preparation
// algorithm: a static prefix from staticBatches (assumed
// already sorted by Key), followed by a dynamic suffix sorted
// in place by draw key, then materialized draw-call records.
//
// staticBatches must already be in ascending Key order; this
// mirrors the owner's stored sorted key order (§6 scene
// interface) rather than re-sorting here.
func Prepare(layerMask uint64, staticBatches []StaticBatch, dynamic []DynamicObject, lookup MeshLookup) (*Prepared, error) {
	p := &Prepared{}

	dataIdx := uint32(0)
	for _, batch := range staticBatches {
		if batch.LayerMask&layerMask == 0 {
			continue
		}
		if len(batch.Models) != len(batch.EntityIDs) || len(batch.Models) != len(batch.EntityGens) {
			return nil, fmt.Errorf("robj: static batch %s: mismatched model/entity slices: %w", batch.Key, rerr.ErrInvariant)
		}
		info, ok := lookup(batch.MeshID)
		if !ok {
			return nil, fmt.Errorf("robj: static batch %s: unknown mesh %d: %w", batch.Key, batch.MeshID, rerr.ErrInvariant)
		}
		drawIdx := uint32(p.StaticDraws)
		for i, model := range batch.Models {
			p.ObjectData = append(p.ObjectData, ObjectData{
				Model:        model,
				Normal:       normal(model),
				MaterialSlot: batch.MaterialSlot,
				TextureSlot:  batch.TextureSlot,
				EntityID:     batch.EntityIDs[i],
				EntityGen:    batch.EntityGens[i],
			})
			p.Input = append(p.Input, InputObjectID{DataIdx: dataIdx, DrawIdx: [2]uint32{drawIdx, 0}})
			dataIdx++
		}
		p.Keys = append(p.Keys, KeyEntry{Key: batch.Key, ObjectCount: uint32(len(batch.Models)), Ready: info.Ready})
		p.StaticDraws++
	}
	p.StaticObjects = int(dataIdx)

	dynStart := len(p.Input)
	for _, o := range dynamic {
		if o.Disabled || o.LayerMask&layerMask == 0 {
			continue
		}
		p.ObjectData = append(p.ObjectData, ObjectData{
			Model:        o.Model,
			Normal:       normal(o.Model),
			MaterialSlot: o.MaterialSlot,
			TextureSlot:  o.TextureSlot,
			EntityID:     o.EntityID,
			EntityGen:    o.EntityGen,
		})
		hi := uint32(o.Key >> 32)
		lo := uint32(o.Key)
		p.Input = append(p.Input, InputObjectID{DataIdx: dataIdx, DrawIdx: [2]uint32{hi, lo}})
		dataIdx++
	}
	dynSuffix := p.Input[dynStart:]

	sort.Slice(dynSuffix, func(i, j int) bool {
		ki := uint64(dynSuffix[i].DrawIdx[0])<<32 | uint64(dynSuffix[i].DrawIdx[1])
		kj := uint64(dynSuffix[j].DrawIdx[0])<<32 | uint64(dynSuffix[j].DrawIdx[1])
		return ki < kj
	})

	var lastKey DrawKey
	haveLast := false
	for i := range dynSuffix {
		k := dynSuffix[i].sortKey()
		if !haveLast || k != lastKey {
			info, ok := lookup(keyMesh(k))
			if !ok {
				return nil, fmt.Errorf("robj: dynamic object with key %s: unknown mesh: %w", k, rerr.ErrInvariant)
			}
			p.Keys = append(p.Keys, KeyEntry{Key: k, Ready: info.Ready})
			p.DynamicDraws++
			lastKey, haveLast = k, true
		}
		batchIdx := uint32(p.StaticDraws + p.DynamicDraws - 1)
		p.Keys[p.StaticDraws+p.DynamicDraws-1].ObjectCount++
		dynSuffix[i].DrawIdx[0] = batchIdx
	}

	p.DrawCalls = make([]DrawCall, len(p.Keys))
	var cumulative uint32
	for i, ke := range p.Keys {
		_, _, mesh, _ := ke.Key.Decode()
		info, ok := lookup(mesh)
		if !ok {
			return nil, fmt.Errorf("robj: key %s: unknown mesh %d: %w", ke.Key, mesh, rerr.ErrInvariant)
		}
		p.DrawCalls[i] = DrawCall{
			IndexCount:    info.IndexCount,
			InstanceCount: 0,
			FirstIndex:    info.IndexBase,
			VertexOffset:  info.VertexBase,
			FirstInstance: cumulative,
			Bounds:        info.Bounds,
		}
		cumulative += ke.ObjectCount
	}

	p.Output = make([]uint32, len(p.Input))
	return p, nil
}

func keyMesh(k DrawKey) uint16 {
	_, _, mesh, _ := k.Decode()
	return mesh
}
