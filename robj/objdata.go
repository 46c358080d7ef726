// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package robj

import "github.com/ardenne/forgeplus/linear"

// ObjectData is the per-frame, per-object GPU-visible record
// that fragment/vertex shaders index via an output-object-ID.
type ObjectData struct {
	Model        linear.M4
	Normal       linear.M4
	MaterialSlot int32
	TextureSlot  int32
	EntityID     uint32
	EntityGen    uint32
}

// InputObjectID is the per-object, per-pass record consumed by
// the draw-generation compute kernel. DataIdx indexes the
// object-data buffer. DrawIdx identifies the batch once
// preparation is complete; for a dynamic object mid-sort it
// instead temporarily holds the two 32-bit halves of the
// object's draw key (DrawIdx[0] the high half, DrawIdx[1] the
// low half), so that comparing the pair lexicographically
// compares the packed key numerically.
type InputObjectID struct {
	DataIdx uint32
	DrawIdx [2]uint32
}

// sortKey reinterprets a mid-sort InputObjectID's DrawIdx pair
// as the packed DrawKey it was seeded with.
func (id InputObjectID) sortKey() DrawKey {
	return DrawKey(uint64(id.DrawIdx[0])<<32 | uint64(id.DrawIdx[1]))
}

// Bounds is an object-space axis-aligned bounding box.
type Bounds struct {
	Min, Max linear.V3
}

// DrawCall is the GPU-writable indexed-indirect draw record,
// extended with the mesh's object-space bounds for the culling
// compute shader.
type DrawCall struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	VertexOffset  int32
	FirstInstance uint32
	Bounds        Bounds
}

// KeyEntry pairs a draw key with the number of objects the GPU
// should attempt to draw for it (the batch's object count,
// i.e. the upper bound on InstanceCount after culling) and
// whether the key's mesh was ready at preparation time. The
// draw loop (§4.4) consults Ready to skip the key entirely
// rather than emit a command for it.
type KeyEntry struct {
	Key         DrawKey
	ObjectCount uint32
	Ready       bool
}

// MeshInfo is what a MeshLookup reports about a mesh handle.
type MeshInfo struct {
	IndexCount uint32
	IndexBase  uint32
	VertexBase int32
	Bounds     Bounds
	Ready      bool
}

// MeshLookup resolves a mesh id to the data needed to
// materialize its draw-call record. ok is false only when the
// handle itself is unknown (an invariant violation); a known
// but not-yet-uploaded mesh returns ok=true, Ready=false.
type MeshLookup func(mesh uint16) (MeshInfo, bool)
