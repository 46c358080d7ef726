// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package ecs implements an archetypal entity-component store.
//
// Entities are opaque 64-bit identities. Components are grouped
// into archetypes by the unordered set of component types an
// entity carries; each archetype owns parallel column vectors
// (one per component type) plus an entity column, all of equal
// length. Removing an entity from an archetype is a swap-remove,
// so at most one other entity's row index changes.
package ecs

// Entity identifies an entity in a World.
// The zero value, Nil, never identifies a live entity.
// An Entity packs a dense index in the low 32 bits and a
// generation counter in the high 32 bits, so a stale Entity
// (one whose index was recycled) resolves to Nil rather than
// to the wrong entity.
type Entity uint64

// Nil is the invalid Entity.
const Nil Entity = 0

func newEntity(index, generation uint32) Entity {
	return Entity(generation)<<32 | Entity(index)
}

func (e Entity) index() uint32 {
	return uint32(e)
}

func (e Entity) generation() uint32 {
	return uint32(e >> 32)
}

// entityRecord is the World's per-index bookkeeping.
// It is kept even for dead entities so the generation can be
// bumped on reuse and stale Entity values can be detected.
type entityRecord struct {
	generation uint32
	alive      bool
	arch       *archetype
	row        int
}
